package runtime

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/session"
)

type handlerResult struct {
	out domain.Outcome
	err error
}

// execute runs a handler outside any session lock, bounded by the handler timeout.
func (d *Dispatcher) execute(ctx context.Context, sessionID string, desc registry.Descriptor, entities map[string]any) (domain.Outcome, error) {
	hctx, cancel := ctx, context.CancelFunc(func() {})
	if d.handlerTimeout > 0 {
		hctx, cancel = context.WithTimeout(ctx, d.handlerTimeout)
	}
	defer cancel()

	mem := session.NewMemory(d.sessions, sessionID, desc.Intent)
	// A handler still running after we stop waiting must not touch the session.
	defer mem.Finish()

	hc := &registry.HandlerContext{
		SessionID: sessionID,
		Intent:    desc.Intent,
		Memory:    mem,
		Logger:    d.logger.With("session_id", sessionID, "intent", desc.Intent),
	}

	start := d.now()
	done := make(chan handlerResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("handler panicked",
					"session_id", sessionID,
					"intent", desc.Intent,
					"panic", r,
					"stack", string(debug.Stack()),
				)
				done <- handlerResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		out, err := desc.Handler(hctx, domain.CopyEntities(entities), hc)
		done <- handlerResult{out: out, err: err}
	}()

	var res handlerResult
	timedOut := false
	select {
	case res = <-done:
	case <-hctx.Done():
		mem.Finish()
		if err := ctx.Err(); err != nil {
			return domain.Outcome{}, err
		}
		timedOut = true
		res.err = context.DeadlineExceeded
	}

	if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
		timedOut = true
	}
	d.emitHandlerDone(ctx, sessionID, desc.Intent, d.now().Sub(start), res.err != nil, timedOut)

	if res.err != nil {
		herr := &domain.HandlerExecutionError{Intent: desc.Intent, Err: res.err}
		route := domain.RouteError
		if timedOut {
			route = domain.RouteTimeout
		}
		d.logger.Error("handler failed",
			"session_id", sessionID,
			"intent", desc.Intent,
			"timed_out", timedOut,
			"err", herr,
		)
		return domain.Outcome{
			Success: false,
			Message: d.fallbacks.Error(res.err),
			Route:   route,
			Intent:  desc.Intent,
		}, nil
	}

	out := res.out
	out.Route = domain.RouteExecuted
	out.Intent = desc.Intent
	return out, nil
}
