package campaign

import "math/big"

// CampaignStatus represents the lifecycle states supported by the campaign
// ledger engine.
type CampaignStatus uint8

const (
	CampaignInProgress CampaignStatus = iota
	CampaignExited
	CampaignCompleted
)

// MinimumDuration is the shortest funding window accepted at creation,
// expressed in seconds (90 days).
const MinimumDuration int64 = 90 * 24 * 60 * 60

// Campaign captures the immutable metadata and running accounting of a single
// fundraising effort. Identifiers are dense, assigned in creation order
// starting at zero, and never reused.
type Campaign struct {
	ID           uint64
	Creator      [20]byte
	Goal         *big.Int
	FundedAmount *big.Int
	StartingAt   int64
	EndingAt     int64
	Status       CampaignStatus
}

// Clone returns a deep copy of the campaign so callers can safely mutate the
// copy without affecting the stored instance.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Goal != nil {
		clone.Goal = new(big.Int).Set(c.Goal)
	} else {
		clone.Goal = big.NewInt(0)
	}
	if c.FundedAmount != nil {
		clone.FundedAmount = new(big.Int).Set(c.FundedAmount)
	} else {
		clone.FundedAmount = big.NewInt(0)
	}
	return &clone
}

// Valid reports whether the status value is within the supported range.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignInProgress, CampaignExited, CampaignCompleted:
		return true
	default:
		return false
	}
}

// String renders the status for diagnostics and event attributes.
func (s CampaignStatus) String() string {
	switch s {
	case CampaignInProgress:
		return "in_progress"
	case CampaignExited:
		return "exited"
	case CampaignCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
