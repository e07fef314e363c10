package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// Memory is the session capability exposed to skill handlers.
// Calling SetAwaiting during a handler routes the next utterance of that
// session back to originatingIntent as the value of slot. Writes made after
// the turn stopped waiting for the handler fail with domain.ErrTurnFinished.
type Memory interface {
	SetAwaiting(ctx context.Context, slot, originatingIntent, sessionID string) error
	GetAwaiting(ctx context.Context, sessionID string) (*domain.AwaitingState, error)
	ClearAwaiting(ctx context.Context, sessionID string) error
}
