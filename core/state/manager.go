package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"fundchain/core/types"
	"fundchain/native/campaign"
	"fundchain/storage"
)

var (
	accountPrefix      = []byte("account/")
	campaignPrefix     = []byte("campaign/record/")
	contributionPrefix = []byte("campaign/funding/")
	campaignCountKey   = []byte("campaign/count")
)

// Manager persists the ledger data model in a key-value store using RLP
// encoding. It implements the state interfaces consumed by the campaign
// engine and the token ledger; the engines themselves never touch the
// database directly.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountKey(addr []byte) []byte {
	return append(append([]byte(nil), accountPrefix...), addr...)
}

func campaignKey(id uint64) []byte {
	key := append([]byte(nil), campaignPrefix...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append(key, buf[:]...)
}

func contributionKey(id uint64, contributor [20]byte) []byte {
	key := append([]byte(nil), contributionPrefix...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	key = append(key, buf[:]...)
	key = append(key, '/')
	return append(key, contributor[:]...)
}

func (m *Manager) put(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, fmt.Errorf("state: database not configured")
	}
	data, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount loads the account stored for the address, or nil when unknown.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	stored := new(storedAccount)
	ok, err := m.get(accountKey(addr), stored)
	if err != nil || !ok {
		return nil, err
	}
	balance := stored.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	return &types.Account{Nonce: stored.Nonce, Balance: balance}, nil
}

// PutAccount persists the account under the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		account = &types.Account{}
	}
	balance := account.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	return m.put(accountKey(addr), &storedAccount{Nonce: account.Nonce, Balance: balance})
}

// storedCampaign mirrors campaign.Campaign with RLP-friendly field types;
// timestamps are persisted as uint64.
type storedCampaign struct {
	ID           uint64
	Creator      [20]byte
	Goal         *big.Int
	FundedAmount *big.Int
	StartingAt   uint64
	EndingAt     uint64
	Status       uint8
}

// CampaignGet loads the campaign stored under the id.
func (m *Manager) CampaignGet(id uint64) (*campaign.Campaign, bool, error) {
	stored := new(storedCampaign)
	ok, err := m.get(campaignKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	status := campaign.CampaignStatus(stored.Status)
	if !status.Valid() {
		return nil, false, fmt.Errorf("state: campaign %d has invalid status %d", id, stored.Status)
	}
	c := &campaign.Campaign{
		ID:           stored.ID,
		Creator:      stored.Creator,
		Goal:         stored.Goal,
		FundedAmount: stored.FundedAmount,
		StartingAt:   int64(stored.StartingAt),
		EndingAt:     int64(stored.EndingAt),
		Status:       status,
	}
	if c.Goal == nil {
		c.Goal = big.NewInt(0)
	}
	if c.FundedAmount == nil {
		c.FundedAmount = big.NewInt(0)
	}
	return c, true, nil
}

// CampaignPut persists the campaign under its id.
func (m *Manager) CampaignPut(c *campaign.Campaign) error {
	if c == nil {
		return fmt.Errorf("state: nil campaign")
	}
	clone := c.Clone()
	return m.put(campaignKey(clone.ID), &storedCampaign{
		ID:           clone.ID,
		Creator:      clone.Creator,
		Goal:         clone.Goal,
		FundedAmount: clone.FundedAmount,
		StartingAt:   uint64(clone.StartingAt),
		EndingAt:     uint64(clone.EndingAt),
		Status:       uint8(clone.Status),
	})
}

// CampaignCount returns the number of campaigns allocated so far.
func (m *Manager) CampaignCount() (uint64, error) {
	var count uint64
	ok, err := m.get(campaignCountKey, &count)
	if err != nil || !ok {
		return 0, err
	}
	return count, nil
}

// CampaignSetCount persists the campaign allocation counter.
func (m *Manager) CampaignSetCount(count uint64) error {
	return m.put(campaignCountKey, count)
}

// ContributionGet loads the outstanding contribution recorded for the
// contributor on the campaign, or nil when none was recorded.
func (m *Manager) ContributionGet(id uint64, contributor [20]byte) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.get(contributionKey(id, contributor), amount)
	if err != nil || !ok {
		return nil, err
	}
	return amount, nil
}

// ContributionPut persists the outstanding contribution for the contributor.
func (m *Manager) ContributionPut(id uint64, contributor [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.put(contributionKey(id, contributor), amount)
}
