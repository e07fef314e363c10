package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// LogHooks writes one structured line per lifecycle event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_start", "session_id", e.SessionID, "phase", e.Phase)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			logger.InfoContext(ctx, "turn_end",
				"session_id", e.SessionID,
				"route", e.Route,
				"intent", e.Intent,
				"phase", e.Phase,
				"duration", e.Duration,
			)
		},
		OnClassificationError: func(ctx context.Context, e *domain.ClassificationEvent) {
			logger.WarnContext(ctx, "classification_error", "session_id", e.SessionID, "source", e.Source, "err", e.Err)
		},
		OnHandlerDone: func(ctx context.Context, e *domain.HandlerEvent) {
			level := slog.LevelDebug
			if e.IsError || e.TimedOut {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "handler_done",
				"session_id", e.SessionID,
				"intent", e.Intent,
				"duration", e.Duration,
				"is_error", e.IsError,
				"timed_out", e.TimedOut,
			)
		},
	}
}

// Combine merges hooks so every non-nil callback runs, in argument order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range hooks {
		out.OnTurnStart = chain(out.OnTurnStart, h.OnTurnStart)
		out.OnTurnEnd = chain(out.OnTurnEnd, h.OnTurnEnd)
		out.OnClassificationError = chain(out.OnClassificationError, h.OnClassificationError)
		out.OnHandlerDone = chain(out.OnHandlerDone, h.OnHandlerDone)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
