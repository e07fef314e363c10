package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptySessionID is returned when a turn or store call has no session ID.
var ErrEmptySessionID = errors.New("session id cannot be empty")

// ErrTurnFinished is returned when a handler writes session state after its
// turn has stopped waiting for it, typically after a handler timeout.
var ErrTurnFinished = errors.New("turn already finished")

// ErrDuplicateIntent is returned when an intent is registered twice. It is fatal at startup.
var ErrDuplicateIntent = errors.New("duplicate intent")

// ErrInvalidDescriptor is returned when a handler descriptor is incomplete.
var ErrInvalidDescriptor = errors.New("invalid handler descriptor")

// ErrRegistryFrozen is returned when registering after dispatch has started.
var ErrRegistryFrozen = errors.New("registry is frozen")

// ClassificationError reports a rule source that failed. The arbitrator treats it as no match.
type ClassificationError struct {
	Source string
	Err    error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("rule source %q failed: %v", e.Source, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// HandlerExecutionError reports a handler that failed, panicked or timed out.
type HandlerExecutionError struct {
	Intent string
	Err    error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("handler for %q failed: %v", e.Intent, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error { return e.Err }

// UnknownIntentError reports a registry lookup miss.
type UnknownIntentError struct {
	Intent string
}

func (e *UnknownIntentError) Error() string {
	return fmt.Sprintf("no handler registered for intent %q", e.Intent)
}
