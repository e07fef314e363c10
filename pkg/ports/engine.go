package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// TurnEngine is the single entry point adapters (HTTP, MCP, REPL) drive.
type TurnEngine interface {
	// HandleTurn processes one utterance for a session and returns the Outcome
	// to surface. The error is reserved for infrastructure failures.
	HandleTurn(ctx context.Context, utt domain.Utterance, sessionID string) (domain.Outcome, error)

	// Reset forgets everything about a session.
	Reset(ctx context.Context, sessionID string) error
}
