package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/parley/pkg/domain"
)

func (d *Dispatcher) base(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: d.now(), Type: t, SessionID: sessionID}
}

func (d *Dispatcher) emitTurnStart(ctx context.Context, sessionID string, phase domain.Phase) {
	if d.hooks.OnTurnStart == nil {
		return
	}
	d.hooks.OnTurnStart(ctx, &domain.TurnEvent{
		EventBase: d.base(domain.EventTurnStart, sessionID),
		Phase:     phase,
	})
}

func (d *Dispatcher) emitTurnEnd(ctx context.Context, sessionID string, phase domain.Phase, out domain.Outcome, elapsed time.Duration) {
	if d.hooks.OnTurnEnd == nil {
		return
	}
	d.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
		EventBase: d.base(domain.EventTurnEnd, sessionID),
		Phase:     phase,
		Route:     out.Route,
		Intent:    out.Intent,
		Duration:  elapsed,
	})
}

func (d *Dispatcher) emitClassificationError(ctx context.Context, sessionID string, err error) {
	if d.hooks.OnClassificationError == nil {
		return
	}
	evt := &domain.ClassificationEvent{
		EventBase: d.base(domain.EventClassificationError, sessionID),
		Err:       err,
	}
	var cerr *domain.ClassificationError
	if errors.As(err, &cerr) {
		evt.Source = cerr.Source
	}
	d.hooks.OnClassificationError(ctx, evt)
}

func (d *Dispatcher) emitHandlerDone(ctx context.Context, sessionID, intent string, elapsed time.Duration, isError, timedOut bool) {
	if d.hooks.OnHandlerDone == nil {
		return
	}
	d.hooks.OnHandlerDone(ctx, &domain.HandlerEvent{
		EventBase: d.base(domain.EventHandlerDone, sessionID),
		Intent:    intent,
		Duration:  elapsed,
		IsError:   isError,
		TimedOut:  timedOut,
	})
}
