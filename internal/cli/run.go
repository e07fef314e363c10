package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/google/uuid"
)

// ReplOptions contains the configuration for the repl command.
type ReplOptions struct {
	SessionID string
	JSON      bool
	Fresh     bool

	// In and Out default to the process stdio.
	In  io.Reader
	Out io.Writer
}

// RunREPL drives a conversation on stdio until EOF, exit/quit or a signal.
func RunREPL(ctx context.Context, engine *parley.Engine, cfg config.Config, opts ReplOptions, logger *slog.Logger) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.Fresh {
		if err := engine.Reset(ctx, opts.SessionID); err != nil {
			return err
		}
	}

	runOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithSessionID(opts.SessionID),
		runner.WithConfirmationTTL(cfg.ConfirmationTTL),
	}

	if opts.JSON {
		h := runner.NewJSONHandler(in, out)
		h.MaxInput = cfg.MaxInputSize
		runOpts = append(runOpts, runner.WithInputHandler(h))
	} else {
		render := tui.PlainRenderer
		if f, ok := out.(*os.File); ok && tui.IsTerminal(f) {
			tui.PrintBanner(out)
			render = tui.NewRenderer(0)
		}
		h := runner.NewTextHandler(in, out,
			runner.WithTextHandlerRenderer(render),
			runner.WithMaxInputSize(cfg.MaxInputSize),
		)
		runOpts = append(runOpts, runner.WithInputHandler(h))
		printSystemMessage(out, "Session '%s' active. Type 'exit' to leave.", opts.SessionID)
	}

	logger.Info("repl started", "session_id", opts.SessionID, "json", opts.JSON)
	err := runner.NewRunner(runOpts...).Run(ctx, engine)
	return handleExecutionError(err)
}
