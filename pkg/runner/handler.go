package runner

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Input reads the next utterance. It returns io.EOF when the user is done.
	Input(ctx context.Context) (domain.Utterance, error)

	// Output presents the outcome of a turn.
	Output(ctx context.Context, out domain.Outcome) error

	// SystemOutput presents a message that is not a turn outcome.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
