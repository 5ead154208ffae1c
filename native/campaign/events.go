package campaign

import (
	"fundchain/core/events"
	"fundchain/core/types"
)

const (
	// EventTypeCreated is emitted when a campaign is registered.
	EventTypeCreated = "campaign.created"
	// EventTypeFunded is emitted when a contributor places funds.
	EventTypeFunded = "campaign.funded"
	// EventTypeRefunded is emitted when a contributor reclaims funds.
	EventTypeRefunded = "campaign.refunded"
	// EventTypeExited is emitted when a creator withdraws a campaign.
	EventTypeExited = "campaign.exited"
	// EventTypeClaimed is emitted when a creator collects a reached goal.
	EventTypeClaimed = "campaign.claimed"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// CreatedEvent returns the structured payload announcing a new campaign.
func CreatedEvent(id string, creator string, goal string, startingAt string, endingAt string) *types.Event {
	return &types.Event{
		Type: EventTypeCreated,
		Attributes: map[string]string{
			"id":         id,
			"creator":    creator,
			"goal":       goal,
			"startingAt": startingAt,
			"endingAt":   endingAt,
		},
	}
}

// FundedEvent returns the structured payload for a placed contribution.
func FundedEvent(id string, contributor string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeFunded,
		Attributes: map[string]string{
			"id":          id,
			"contributor": contributor,
			"amount":      amount,
		},
	}
}

// RefundedEvent returns the structured payload for a reclaimed contribution.
func RefundedEvent(id string, contributor string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeRefunded,
		Attributes: map[string]string{
			"id":          id,
			"contributor": contributor,
			"amount":      amount,
		},
	}
}

// ExitedEvent returns the structured payload for a withdrawn campaign.
func ExitedEvent(id string, creator string, goal string) *types.Event {
	return &types.Event{
		Type: EventTypeExited,
		Attributes: map[string]string{
			"id":      id,
			"creator": creator,
			"goal":    goal,
		},
	}
}

// ClaimedEvent returns the structured payload for a collected campaign.
func ClaimedEvent(id string, creator string, goal string, funded string) *types.Event {
	return &types.Event{
		Type: EventTypeClaimed,
		Attributes: map[string]string{
			"id":      id,
			"creator": creator,
			"goal":    goal,
			"funded":  funded,
		},
	}
}
