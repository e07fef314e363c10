package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart           EventType = "turn_start"
	EventTurnEnd             EventType = "turn_end"
	EventClassificationError EventType = "classification_error"
	EventHandlerDone         EventType = "handler_done"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TurnEvent marks the start or end of a turn. Route, Intent and Duration are
// only set on EventTurnEnd.
type TurnEvent struct {
	EventBase
	Phase    Phase         `json:"phase"`
	Route    Route         `json:"route,omitempty"`
	Intent   string        `json:"intent,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// ClassificationEvent reports a failing rule source.
type ClassificationEvent struct {
	EventBase
	Source string `json:"source"`
	Err    error  `json:"-"`
}

// HandlerEvent reports a finished handler execution.
type HandlerEvent struct {
	EventBase
	Intent   string        `json:"intent"`
	Duration time.Duration `json:"duration"`
	IsError  bool          `json:"is_error,omitempty"`
	TimedOut bool          `json:"timed_out,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurnStart           func(context.Context, *TurnEvent)
	OnTurnEnd             func(context.Context, *TurnEvent)
	OnClassificationError func(context.Context, *ClassificationEvent)
	OnHandlerDone         func(context.Context, *HandlerEvent)
}
