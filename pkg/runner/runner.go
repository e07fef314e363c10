package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
)

// Engine is what the Runner drives. *parley.Engine satisfies it.
type Engine interface {
	HandleTurn(ctx context.Context, utt domain.Utterance, sessionID string) (domain.Outcome, error)
	ExpirePending(ctx context.Context, sessionID string, maxAge time.Duration) (domain.Outcome, bool, error)
}

// Runner handles the conversation loop of an engine using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	Handler   IOHandler
	Logger    *slog.Logger
	SessionID string

	// ConfirmationTTL expires pending confirmations while waiting for input.
	// Zero disables expiry.
	ConfirmationTTL time.Duration

	// Greeting is printed once before the first prompt.
	Greeting string
}

// NewRunner creates a new Runner with a Stdin/Stdout text handler.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run executes turns until input ends, the user types exit/quit, or ctx is done.
// It returns nil on a normal end of conversation.
func (r *Runner) Run(ctx context.Context, engine Engine) error {
	if r.SessionID == "" {
		return domain.ErrEmptySessionID
	}
	if r.Greeting != "" {
		if err := r.Handler.SystemOutput(ctx, r.Greeting); err != nil {
			return err
		}
	}

	for {
		utt, err := r.next(ctx, engine)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		switch strings.ToLower(strings.TrimSpace(utt.Text)) {
		case "exit", "quit":
			return nil
		}

		out, err := engine.HandleTurn(ctx, utt, r.SessionID)
		if err != nil {
			return fmt.Errorf("turn failed: %w", err)
		}
		r.Logger.Debug("turn completed", "session_id", r.SessionID, "route", out.Route, "intent", out.Intent)
		if err := r.Handler.Output(ctx, out); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

// next waits for input, expiring stale confirmations in the meantime.
func (r *Runner) next(ctx context.Context, engine Engine) (domain.Utterance, error) {
	inCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		utt domain.Utterance
		err error
	}
	ch := make(chan result, 1)
	go func() {
		utt, err := r.Handler.Input(inCtx)
		ch <- result{utt, err}
	}()

	var tick <-chan time.Time
	if r.ConfirmationTTL > 0 {
		ticker := time.NewTicker(checkInterval(r.ConfirmationTTL))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case res := <-ch:
			return res.utt, res.err
		case <-tick:
			out, expired, err := engine.ExpirePending(ctx, r.SessionID, r.ConfirmationTTL)
			if err != nil {
				r.Logger.Warn("confirmation expiry failed", "session_id", r.SessionID, "err", err)
				continue
			}
			if expired {
				if err := r.Handler.Output(ctx, out); err != nil {
					return domain.Utterance{}, err
				}
			}
		case <-ctx.Done():
			return domain.Utterance{}, ctx.Err()
		}
	}
}

func checkInterval(ttl time.Duration) time.Duration {
	iv := ttl / 4
	if iv < 10*time.Millisecond {
		iv = 10 * time.Millisecond
	}
	if iv > time.Second {
		iv = time.Second
	}
	return iv
}
