package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/rules"
	"github.com/aretw0/parley/pkg/session"
)

const (
	// DefaultConfidenceFloor is the minimum confidence (inclusive) needed to dispatch.
	DefaultConfidenceFloor = 0.6

	// DefaultHandlerTimeout bounds a single handler execution.
	DefaultHandlerTimeout = 10 * time.Second
)

// Dispatcher turns utterances into outcomes for a session.
// It is safe for concurrent use: turns on one session are serialized,
// turns on different sessions run in parallel.
type Dispatcher struct {
	arbitrator *rules.Arbitrator
	registry   *registry.Registry
	sessions   *session.Manager
	fallbacks  ports.Fallbacks
	confirmer  *Confirmer

	floor          float64
	handlerTimeout time.Duration
	hooks          domain.LifecycleHooks
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLogger configures a logger for the Dispatcher.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithConfidenceFloor sets the minimum confidence needed to dispatch.
func WithConfidenceFloor(floor float64) Option {
	return func(d *Dispatcher) {
		d.floor = floor
	}
}

// WithHandlerTimeout bounds handler execution. Zero disables the timeout.
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.handlerTimeout = timeout
	}
}

// WithVocabulary overrides the confirmation vocabulary.
func WithVocabulary(v Vocabulary) Option {
	return func(d *Dispatcher) {
		d.confirmer = NewConfirmer(v)
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithClock overrides the time source (pending timestamps, durations).
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher wires the arbitrator, registry, session manager and fallbacks.
func NewDispatcher(arb *rules.Arbitrator, reg *registry.Registry, sessions *session.Manager, fallbacks ports.Fallbacks, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		arbitrator:     arb,
		registry:       reg,
		sessions:       sessions,
		fallbacks:      fallbacks,
		confirmer:      defaultConfirmer,
		floor:          DefaultConfidenceFloor,
		handlerTimeout: DefaultHandlerTimeout,
		logger:         logging.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleTurn processes one utterance for sessionID.
// Classification, lookup and handler failures become fallback outcomes; the
// error is only returned for infrastructure failures (store, context).
func (d *Dispatcher) HandleTurn(ctx context.Context, utt domain.Utterance, sessionID string) (domain.Outcome, error) {
	if sessionID == "" {
		return domain.Outcome{}, domain.ErrEmptySessionID
	}

	var out domain.Outcome
	err := d.sessions.Serialize(ctx, sessionID, func(ctx context.Context) error {
		start := d.now()
		snap, err := d.sessions.LoadOrCreate(ctx, sessionID)
		if err != nil {
			return err
		}
		phase := snap.Phase()
		d.emitTurnStart(ctx, sessionID, phase)

		out, err = d.turn(ctx, utt, snap)
		if err != nil {
			return err
		}

		d.emitTurnEnd(ctx, sessionID, phase, out, d.now().Sub(start))
		d.logger.Info("turn handled",
			"session_id", sessionID,
			"phase", phase,
			"route", out.Route,
			"intent", out.Intent,
		)
		return nil
	})
	if err != nil {
		d.logger.Error("turn failed", "session_id", sessionID, "err", err)
		return domain.Outcome{}, err
	}
	return out, nil
}

func (d *Dispatcher) turn(ctx context.Context, utt domain.Utterance, snap *domain.Session) (domain.Outcome, error) {
	// A pending confirmation swallows the utterance: it is never reclassified.
	if snap.Pending != nil {
		return d.confirmTurn(ctx, utt, snap.ID, snap.Pending)
	}

	if snap.Awaiting != nil {
		var awaiting *domain.AwaitingState
		_, err := d.sessions.Update(ctx, snap.ID, func(s *domain.Session) error {
			awaiting = s.Awaiting
			s.ClearAwaiting()
			return nil
		})
		if err != nil {
			return domain.Outcome{}, err
		}
		if awaiting != nil && awaiting.OriginatingIntent != "" {
			entities := domain.CopyEntities(utt.NLU.Entities)
			if entities == nil {
				entities = make(map[string]any, 1)
			}
			entities[awaiting.Slot] = utt.Text
			d.logger.Debug("answer routed to awaiting intent",
				"session_id", snap.ID,
				"slot", awaiting.Slot,
				"intent", awaiting.OriginatingIntent,
			)
			return d.dispatch(ctx, snap.ID, awaiting.OriginatingIntent, entities, true)
		}
		// Nobody to route the answer to: classify it like any utterance.
		// Handler writes through session.Memory always carry an intent, so
		// only a host editing the stored session directly ends up here.
	}

	res, err := d.arbitrator.Resolve(ctx, utt)
	if err != nil {
		return domain.Outcome{}, err
	}
	for _, cerr := range res.Errors {
		d.emitClassificationError(ctx, snap.ID, cerr)
	}

	if res.Candidate == nil {
		return domain.Outcome{Success: false, Message: d.fallbacks.Unknown(), Route: domain.RouteUnknown}, nil
	}
	cand := res.Candidate
	if cand.Confidence < d.floor {
		d.logger.Debug("candidate below confidence floor",
			"session_id", snap.ID,
			"intent", cand.Intent,
			"confidence", cand.Confidence,
			"floor", d.floor,
		)
		return domain.Outcome{
			Success: false,
			Message: d.fallbacks.LowConfidence(cand.Confidence),
			Route:   domain.RouteLowConfidence,
			Intent:  cand.Intent,
		}, nil
	}
	return d.dispatch(ctx, snap.ID, cand.Intent, cand.Entities, true)
}

// dispatch looks up intent and either gates it behind a confirmation or runs it.
func (d *Dispatcher) dispatch(ctx context.Context, sessionID, intent string, entities map[string]any, gate bool) (domain.Outcome, error) {
	desc, ok := d.registry.Lookup(intent)
	if !ok {
		d.logger.Warn("no handler for intent",
			"session_id", sessionID,
			"err", &domain.UnknownIntentError{Intent: intent},
		)
		return domain.Outcome{
			Success: false,
			Message: d.fallbacks.PluginNotFound(intent),
			Route:   domain.RoutePluginNotFound,
			Intent:  intent,
		}, nil
	}

	if gate && desc.RequiresConfirmation {
		description := describe(desc, entities)
		_, err := d.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
			s.SetPending(domain.PendingAction{
				Intent:      intent,
				Entities:    entities,
				Description: description,
				Since:       d.now(),
			})
			return nil
		})
		if err != nil {
			return domain.Outcome{}, err
		}
		return domain.Outcome{
			Success: true,
			Message: d.fallbacks.ConfirmationPending(description),
			Route:   domain.RouteConfirmPrompt,
			Intent:  intent,
		}, nil
	}

	return d.execute(ctx, sessionID, desc, entities)
}

func (d *Dispatcher) confirmTurn(ctx context.Context, utt domain.Utterance, sessionID string, current *domain.PendingAction) (domain.Outcome, error) {
	reply := d.confirmer.Classify(utt.Text)

	if reply == ReplyAmbiguous {
		// Pending stays untouched; ask again.
		return domain.Outcome{
			Success: true,
			Message: d.fallbacks.ConfirmationPending(current.Description),
			Route:   domain.RouteReprompt,
			Intent:  current.Intent,
		}, nil
	}

	var pending *domain.PendingAction
	_, err := d.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		if s.Pending != nil {
			p := *s.Pending
			pending = &p
		}
		s.ClearPending()
		return nil
	})
	if err != nil {
		return domain.Outcome{}, err
	}
	if pending == nil {
		return domain.Outcome{Success: false, Message: d.fallbacks.Unknown(), Route: domain.RouteUnknown}, nil
	}

	if reply == ReplyNegative {
		d.logger.Info("pending action cancelled", "session_id", sessionID, "intent", pending.Intent)
		return domain.Outcome{
			Success: true,
			Message: d.fallbacks.ConfirmationCancelled(),
			Route:   domain.RouteCancelled,
			Intent:  pending.Intent,
		}, nil
	}

	return d.dispatch(ctx, sessionID, pending.Intent, pending.Entities, false)
}

// describe renders the confirmation text of a descriptor.
func describe(desc registry.Descriptor, entities map[string]any) string {
	if desc.Description == "" {
		return desc.Intent
	}
	if len(entities) == 0 || !strings.Contains(desc.Description, "{{") {
		return desc.Description
	}
	pairs := make([]string, 0, len(entities)*2)
	for k, v := range entities {
		pairs = append(pairs, "{{"+k+"}}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(desc.Description)
}

// ExpirePending drops a pending confirmation older than maxAge.
// It reports whether something expired; the outcome carries the timeout text.
func (d *Dispatcher) ExpirePending(ctx context.Context, sessionID string, maxAge time.Duration) (domain.Outcome, bool, error) {
	var out domain.Outcome
	var expired bool
	err := d.sessions.Serialize(ctx, sessionID, func(ctx context.Context) error {
		sess, err := d.sessions.Load(ctx, sessionID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if sess.Pending == nil || d.now().Sub(sess.Pending.Since) < maxAge {
			return nil
		}

		var intent string
		_, err = d.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
			if s.Pending == nil {
				return nil
			}
			intent = s.Pending.Intent
			s.ClearPending()
			expired = true
			return nil
		})
		if err != nil {
			return err
		}
		if expired {
			out = domain.Outcome{
				Success: false,
				Message: d.fallbacks.ConfirmationTimeout(),
				Route:   domain.RouteExpired,
				Intent:  intent,
			}
			d.logger.Info("pending action expired", "session_id", sessionID, "intent", intent)
		}
		return nil
	})
	return out, expired, err
}

// Reset deletes the session.
func (d *Dispatcher) Reset(ctx context.Context, sessionID string) error {
	return d.sessions.Serialize(ctx, sessionID, func(ctx context.Context) error {
		return d.sessions.Delete(ctx, sessionID)
	})
}

// Session returns a snapshot of the session, or domain.ErrSessionNotFound.
func (d *Dispatcher) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return d.sessions.Load(ctx, sessionID)
}
