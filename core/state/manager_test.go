package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"fundchain/native/campaign"
	"fundchain/native/token"
	"fundchain/storage"
)

func testAddr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newEngine(manager *Manager, vault [20]byte, now int64) *campaign.Engine {
	engine := campaign.NewEngine()
	engine.SetState(manager)
	engine.SetToken(token.NewLedger(manager))
	engine.SetVault(vault)
	engine.SetNowFunc(func() int64 { return now })
	return engine
}

func TestLedgerStateSurvivesRestart(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	vault := testAddr(0xAA)
	creator := testAddr(0x01)
	funder := testAddr(0x02)

	base := int64(1_000_000)
	start := base + 3_600
	end := start + campaign.MinimumDuration

	ledger := token.NewLedger(manager)
	require.NoError(t, ledger.Mint(funder, big.NewInt(1_000)))

	engine := newEngine(manager, vault, base)
	id, err := engine.Create(creator, big.NewInt(500), start, end)
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)

	engine.SetNowFunc(func() int64 { return start + 10 })
	require.NoError(t, engine.Fund(funder, id, big.NewInt(300)))

	// A fresh manager over the same database observes the full data model.
	reopened := NewManager(db)
	restarted := newEngine(reopened, vault, start+20)

	c, err := restarted.GetCampaign(id)
	require.NoError(t, err)
	require.Equal(t, creator, c.Creator)
	require.Equal(t, int64(start), c.StartingAt)
	require.Equal(t, int64(end), c.EndingAt)
	require.Zero(t, c.FundedAmount.Cmp(big.NewInt(300)))
	require.Equal(t, campaign.CampaignInProgress, c.Status)

	count, err := restarted.CampaignCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	outstanding, err := restarted.Contribution(id, funder)
	require.NoError(t, err)
	require.Zero(t, outstanding.Cmp(big.NewInt(300)))

	balance, err := token.NewLedger(reopened).BalanceOf(vault)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(300)))

	// The restarted engine keeps operating on the recovered state.
	require.NoError(t, restarted.Refund(funder, id))
	c, err = restarted.GetCampaign(id)
	require.NoError(t, err)
	require.Zero(t, c.FundedAmount.Sign())
}

func TestContributionDefaultsToNilWhenAbsent(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	amount, err := manager.ContributionGet(0, testAddr(0x07))
	require.NoError(t, err)
	require.Nil(t, amount)

	require.NoError(t, manager.ContributionPut(0, testAddr(0x07), big.NewInt(42)))
	amount, err = manager.ContributionGet(0, testAddr(0x07))
	require.NoError(t, err)
	require.Zero(t, amount.Cmp(big.NewInt(42)))

	// Refund semantics overwrite, never accumulate.
	require.NoError(t, manager.ContributionPut(0, testAddr(0x07), big.NewInt(0)))
	amount, err = manager.ContributionGet(0, testAddr(0x07))
	require.NoError(t, err)
	require.Zero(t, amount.Sign())
}

func TestCampaignGetUnknownID(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	c, ok, err := manager.CampaignGet(9)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, c)
}
