package campaign

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	errNilState    = errors.New("campaign engine: state not configured")
	errNilToken    = errors.New("campaign engine: token ledger not configured")
	errVaultNotSet = errors.New("campaign engine: vault not configured")
)

// NotFoundError reports an operation referencing an id that was never
// allocated.
type NotFoundError struct {
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("campaign %d not found", e.ID)
}

// InvalidGoalError reports a creation attempt with a non-positive goal.
type InvalidGoalError struct {
	Goal *big.Int
}

func (e *InvalidGoalError) Error() string {
	return fmt.Sprintf("campaign goal must be positive, got %s", e.Goal)
}

// StartInPastError reports a creation attempt whose start precedes the
// current ledger time.
type StartInPastError struct {
	StartingAt int64
	Now        int64
}

func (e *StartInPastError) Error() string {
	return fmt.Sprintf("campaign start %d is before current time %d", e.StartingAt, e.Now)
}

// WindowTooShortError reports a creation attempt whose funding window ends
// before the minimum duration has elapsed.
type WindowTooShortError struct {
	EndingAt int64
	Earliest int64
}

func (e *WindowTooShortError) Error() string {
	return fmt.Sprintf("campaign end %d is before earliest permitted end %d", e.EndingAt, e.Earliest)
}

// InvalidAmountError reports a contribution of zero or less.
type InvalidAmountError struct {
	ID     uint64
	Amount *big.Int
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("campaign %d: contribution must be positive, got %s", e.ID, e.Amount)
}

// DeadlinePassedError reports a contribution attempted at or after the
// campaign's closing time.
type DeadlinePassedError struct {
	ID       uint64
	EndingAt int64
	Now      int64
}

func (e *DeadlinePassedError) Error() string {
	return fmt.Sprintf("campaign %d closed at %d, current time %d", e.ID, e.EndingAt, e.Now)
}

// NotInProgressError reports a contribution to a campaign that has already
// left the in-progress state. It carries the current status for diagnostics.
type NotInProgressError struct {
	ID     uint64
	Status CampaignStatus
}

func (e *NotInProgressError) Error() string {
	return fmt.Sprintf("campaign %d is %s, contributions require in_progress", e.ID, e.Status)
}

// NoContributionError reports a withdrawal by a caller with nothing
// outstanding on the campaign.
type NoContributionError struct {
	ID          uint64
	Contributor [20]byte
}

func (e *NoContributionError) Error() string {
	return fmt.Sprintf("campaign %d: caller has no outstanding contribution", e.ID)
}

// CompletedError reports an operation against a campaign that has already
// paid out to its creator.
type CompletedError struct {
	ID uint64
}

func (e *CompletedError) Error() string {
	return fmt.Sprintf("campaign %d already completed", e.ID)
}

// NotCreatorError reports a creator-only operation invoked by another
// account.
type NotCreatorError struct {
	ID      uint64
	Caller  [20]byte
	Creator [20]byte
}

func (e *NotCreatorError) Error() string {
	return fmt.Sprintf("campaign %d: caller is not the creator", e.ID)
}

// NotStartedError reports an exit attempted before the campaign's start.
type NotStartedError struct {
	ID         uint64
	StartingAt int64
	Now        int64
}

func (e *NotStartedError) Error() string {
	return fmt.Sprintf("campaign %d starts at %d, current time %d", e.ID, e.StartingAt, e.Now)
}

// AlreadyExitedError reports a second exit on the same campaign. Exit is
// deliberately not idempotent.
type AlreadyExitedError struct {
	ID uint64
}

func (e *AlreadyExitedError) Error() string {
	return fmt.Sprintf("campaign %d already exited", e.ID)
}

// WindowOpenError reports a claim attempted before the funding window has
// closed.
type WindowOpenError struct {
	ID       uint64
	EndingAt int64
	Now      int64
}

func (e *WindowOpenError) Error() string {
	return fmt.Sprintf("campaign %d is open until %d, current time %d", e.ID, e.EndingAt, e.Now)
}

// GoalNotReachedError reports a claim on a campaign whose outstanding
// contributions fall short of the goal.
type GoalNotReachedError struct {
	ID     uint64
	Goal   *big.Int
	Funded *big.Int
}

func (e *GoalNotReachedError) Error() string {
	return fmt.Sprintf("campaign %d raised %s of %s goal", e.ID, e.Funded, e.Goal)
}
