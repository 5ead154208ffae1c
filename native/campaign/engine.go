package campaign

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"time"

	"fundchain/core/events"
	"fundchain/core/types"
)

type engineState interface {
	CampaignGet(id uint64) (*Campaign, bool, error)
	CampaignPut(c *Campaign) error
	CampaignCount() (uint64, error)
	CampaignSetCount(count uint64) error
	ContributionGet(id uint64, contributor [20]byte) (*big.Int, error)
	ContributionPut(id uint64, contributor [20]byte, amount *big.Int) error
}

// TokenLedger is the fungible-balance collaborator funds move through. It is
// all-or-nothing: a failed transfer leaves both balances untouched.
type TokenLedger interface {
	Transfer(from, to [20]byte, amount *big.Int) error
	BalanceOf(addr [20]byte) (*big.Int, error)
}

// Engine owns the campaign table and contribution ledger and enforces the
// campaign lifecycle. Operations are serialized by the caller; the engine
// itself assumes exclusive access to its state for the duration of each call.
type Engine struct {
	state   engineState
	token   TokenLedger
	emitter events.Emitter
	vault   [20]byte
	nowFn   func() int64
}

// NewEngine constructs a campaign engine with a no-op emitter. Callers can
// override collaborators via the Set* methods.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetToken configures the token ledger that custody moves through.
func (e *Engine) SetToken(token TokenLedger) { e.token = token }

// SetVault configures the custodial account holding outstanding
// contributions.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.token == nil {
		return errNilToken
	}
	if e.vault == ([20]byte{}) {
		return errVaultNotSet
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatTime(ts int64) string {
	return strconv.FormatInt(ts, 10)
}

func (e *Engine) loadCampaign(id uint64) (*Campaign, error) {
	c, ok, err := e.state.CampaignGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || c == nil {
		return nil, &NotFoundError{ID: id}
	}
	return c, nil
}

// Create registers a new campaign and returns its dense identifier. The start
// must not precede the current ledger time and the window must span at least
// MinimumDuration.
func (e *Engine) Create(caller [20]byte, goal *big.Int, startingAt, endingAt int64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if goal == nil || goal.Sign() <= 0 {
		return 0, &InvalidGoalError{Goal: cloneBigInt(goal)}
	}
	now := e.now()
	if startingAt < now {
		return 0, &StartInPastError{StartingAt: startingAt, Now: now}
	}
	earliest := startingAt + MinimumDuration
	if endingAt < earliest {
		return 0, &WindowTooShortError{EndingAt: endingAt, Earliest: earliest}
	}
	count, err := e.state.CampaignCount()
	if err != nil {
		return 0, err
	}
	c := &Campaign{
		ID:           count,
		Creator:      caller,
		Goal:         cloneBigInt(goal),
		FundedAmount: big.NewInt(0),
		StartingAt:   startingAt,
		EndingAt:     endingAt,
		Status:       CampaignInProgress,
	}
	// Reserve the identifier before storing the record. If the put fails
	// the id is skipped, never handed out twice.
	if err := e.state.CampaignSetCount(count + 1); err != nil {
		return 0, err
	}
	if err := e.state.CampaignPut(c); err != nil {
		return 0, err
	}
	e.emit(CreatedEvent(formatID(c.ID), hexAddr(c.Creator), formatAmount(c.Goal), formatTime(c.StartingAt), formatTime(c.EndingAt)))
	return c.ID, nil
}

// Fund moves amount from the caller to the custodial vault and records it as
// an outstanding contribution. The token transfer happens before any
// accounting mutation so a failed transfer leaves no state behind.
func (e *Engine) Fund(caller [20]byte, id uint64, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	c, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return &InvalidAmountError{ID: id, Amount: cloneBigInt(amount)}
	}
	now := e.now()
	if now >= c.EndingAt {
		return &DeadlinePassedError{ID: id, EndingAt: c.EndingAt, Now: now}
	}
	if c.Status != CampaignInProgress {
		return &NotInProgressError{ID: id, Status: c.Status}
	}
	if err := e.token.Transfer(caller, e.vault, amount); err != nil {
		return err
	}
	outstanding, err := e.state.ContributionGet(id, caller)
	if err != nil {
		return err
	}
	outstanding = new(big.Int).Add(cloneBigInt(outstanding), amount)
	if err := e.state.ContributionPut(id, caller, outstanding); err != nil {
		return err
	}
	c.FundedAmount = new(big.Int).Add(cloneBigInt(c.FundedAmount), amount)
	if err := e.state.CampaignPut(c); err != nil {
		return err
	}
	e.emit(FundedEvent(formatID(id), hexAddr(caller), formatAmount(amount)))
	return nil
}

// Refund returns the caller's full outstanding contribution. It is legal while
// the campaign is in progress or exited, never after completion. The
// contribution is zeroed before the payout transfer so a re-entrant refund
// observes nothing outstanding; a failed transfer rolls the accounting back.
func (e *Engine) Refund(caller [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	c, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	outstanding, err := e.state.ContributionGet(id, caller)
	if err != nil {
		return err
	}
	if outstanding == nil || outstanding.Sign() == 0 {
		return &NoContributionError{ID: id, Contributor: caller}
	}
	if c.Status == CampaignCompleted {
		return &CompletedError{ID: id}
	}
	amount := cloneBigInt(outstanding)
	priorFunded := cloneBigInt(c.FundedAmount)
	if err := e.state.ContributionPut(id, caller, big.NewInt(0)); err != nil {
		return err
	}
	c.FundedAmount = new(big.Int).Sub(priorFunded, amount)
	if err := e.state.CampaignPut(c); err != nil {
		return err
	}
	if err := e.token.Transfer(e.vault, caller, amount); err != nil {
		if restoreErr := e.state.ContributionPut(id, caller, amount); restoreErr != nil {
			return restoreErr
		}
		c.FundedAmount = priorFunded
		if restoreErr := e.state.CampaignPut(c); restoreErr != nil {
			return restoreErr
		}
		return err
	}
	e.emit(RefundedEvent(formatID(id), hexAddr(caller), formatAmount(amount)))
	return nil
}

// Exit withdraws a started campaign, unlocking refunds for its contributors.
// Only the creator may exit, a second exit is rejected rather than silently
// accepted, and no funds move.
func (e *Engine) Exit(caller [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	if caller != c.Creator {
		return &NotCreatorError{ID: id, Caller: caller, Creator: c.Creator}
	}
	now := e.now()
	if now < c.StartingAt {
		return &NotStartedError{ID: id, StartingAt: c.StartingAt, Now: now}
	}
	if c.Status == CampaignExited {
		return &AlreadyExitedError{ID: id}
	}
	if c.Status == CampaignCompleted {
		return &CompletedError{ID: id}
	}
	c.Status = CampaignExited
	if err := e.state.CampaignPut(c); err != nil {
		return err
	}
	e.emit(ExitedEvent(formatID(id), hexAddr(c.Creator), formatAmount(c.Goal)))
	return nil
}

// Claim pays the outstanding contributions of a goal-reaching campaign to its
// creator once the window has closed. The completed status is persisted
// before the payout transfer; a re-entrant claim triggered by the token
// collaborator observes the completed campaign and is rejected. A failed
// transfer rolls the status back.
func (e *Engine) Claim(caller [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	c, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	if caller != c.Creator {
		return &NotCreatorError{ID: id, Caller: caller, Creator: c.Creator}
	}
	now := e.now()
	if now < c.EndingAt {
		return &WindowOpenError{ID: id, EndingAt: c.EndingAt, Now: now}
	}
	if c.FundedAmount == nil || c.FundedAmount.Cmp(c.Goal) < 0 {
		return &GoalNotReachedError{ID: id, Goal: cloneBigInt(c.Goal), Funded: cloneBigInt(c.FundedAmount)}
	}
	if c.Status == CampaignCompleted {
		return &CompletedError{ID: id}
	}
	if c.Status == CampaignExited {
		return &NotInProgressError{ID: id, Status: c.Status}
	}
	payout := cloneBigInt(c.FundedAmount)
	c.Status = CampaignCompleted
	if err := e.state.CampaignPut(c); err != nil {
		return err
	}
	if err := e.token.Transfer(e.vault, c.Creator, payout); err != nil {
		c.Status = CampaignInProgress
		if restoreErr := e.state.CampaignPut(c); restoreErr != nil {
			return restoreErr
		}
		return err
	}
	e.emit(ClaimedEvent(formatID(id), hexAddr(c.Creator), formatAmount(c.Goal), formatAmount(payout)))
	return nil
}

// GetCampaign returns a copy of the stored campaign. Unknown ids fail with a
// NotFoundError rather than returning a zeroed record.
func (e *Engine) GetCampaign(id uint64) (*Campaign, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	c, err := e.loadCampaign(id)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// CampaignCount returns the number of campaigns created so far.
func (e *Engine) CampaignCount() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.CampaignCount()
}

// Contribution returns the caller's outstanding contribution to the campaign.
// Contributors with nothing outstanding report zero.
func (e *Engine) Contribution(id uint64, contributor [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, err := e.loadCampaign(id); err != nil {
		return nil, err
	}
	outstanding, err := e.state.ContributionGet(id, contributor)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(outstanding), nil
}

// Vault returns the configured custodial account.
func (e *Engine) Vault() [20]byte { return e.vault }

// MinimumCampaignDuration returns the shortest accepted funding window in
// seconds.
func (e *Engine) MinimumCampaignDuration() int64 { return MinimumDuration }
