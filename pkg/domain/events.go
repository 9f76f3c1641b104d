package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter       EventType = "state_enter"
	EventStateLeave       EventType = "state_leave"
	EventTransitionStart  EventType = "transition_start"
	EventTransitionCommit EventType = "transition_commit"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Layer     int       `json:"layer"`
}

// StateEvent represents an active state being entered or destroyed.
type StateEvent struct {
	EventBase
	StateIndex int    `json:"state_index"`
	StatePath  string `json:"state_path"`
}

// TransitionEvent represents a crossfade starting or committing.
type TransitionEvent struct {
	EventBase
	FromIndex int     `json:"from_index"`
	ToIndex   int     `json:"to_index"`
	Duration  float64 `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability. All hooks are
// optional and must be fast: they run inline with the tick.
type LifecycleHooks struct {
	OnStateEnter       func(context.Context, *StateEvent)
	OnStateLeave       func(context.Context, *StateEvent)
	OnTransitionStart  func(context.Context, *TransitionEvent)
	OnTransitionCommit func(context.Context, *TransitionEvent)
}
