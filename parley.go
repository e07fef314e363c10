package parley

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/fallback"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/rules"
	"github.com/aretw0/parley/pkg/rules/builtin"
	"github.com/aretw0/parley/pkg/session"
)

// Engine is the high-level entry point for the Parley library.
// It wires rule sources, skills, sessions and fallbacks into a dispatcher.
type Engine struct {
	dispatcher *runtime.Dispatcher
	registry   *registry.Registry
	arbitrator *rules.Arbitrator
	sessions   *session.Manager

	sources        []rules.Source
	sourcesSet     bool
	skills         []registry.Skill
	handlers       []registry.Descriptor
	store          ports.SessionStore
	locker         ports.DistributedLocker
	lockTTL        time.Duration
	fallbacks      ports.Fallbacks
	floor          float64
	handlerTimeout time.Duration
	vocabulary     runtime.Vocabulary
	hooks          domain.LifecycleHooks
	logger         *slog.Logger
	clock          func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRules sets the rule sources, in priority order.
// Without it the builtin sources are used.
func WithRules(sources ...rules.Source) Option {
	return func(e *Engine) {
		e.sources = append(e.sources, sources...)
		e.sourcesSet = true
	}
}

// WithSkills registers skill bundles.
func WithSkills(skills ...registry.Skill) Option {
	return func(e *Engine) {
		e.skills = append(e.skills, skills...)
	}
}

// WithHandlers registers individual intent handlers.
func WithHandlers(descs ...registry.Descriptor) Option {
	return func(e *Engine) {
		e.handlers = append(e.handlers, descs...)
	}
}

// WithStore sets the session store (default: in-memory).
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed session locking.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithFallbacks replaces the fallback text provider.
func WithFallbacks(f ports.Fallbacks) Option {
	return func(e *Engine) {
		e.fallbacks = f
	}
}

// WithConfidenceFloor sets the minimum (inclusive) confidence to dispatch.
func WithConfidenceFloor(floor float64) Option {
	return func(e *Engine) {
		e.floor = floor
	}
}

// WithHandlerTimeout bounds handler execution. Zero disables the bound.
func WithHandlerTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.handlerTimeout = d
	}
}

// WithConfirmationVocabulary overrides the yes/no words.
func WithConfirmationVocabulary(v runtime.Vocabulary) Option {
	return func(e *Engine) {
		e.vocabulary = v
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source. Useful for confirmation expiry tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// New initializes a new Parley Engine. Registration errors (duplicate
// intents, incomplete descriptors) and invalid settings fail here, so a
// running engine never meets them.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		floor:          runtime.DefaultConfidenceFloor,
		handlerTimeout: runtime.DefaultHandlerTimeout,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if !(eng.floor >= 0 && eng.floor <= 1) {
		return nil, fmt.Errorf("confidence floor %v outside [0,1]", eng.floor)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.fallbacks == nil {
		eng.fallbacks = fallback.New()
	}
	if !eng.sourcesSet {
		eng.sources = builtin.Sources()
	}

	arb, err := rules.NewArbitrator(eng.sources, rules.WithLogger(eng.logger))
	if err != nil {
		return nil, fmt.Errorf("invalid rule sources: %w", err)
	}
	eng.arbitrator = arb

	eng.registry = registry.NewRegistry()
	for _, s := range eng.skills {
		if err := eng.registry.RegisterSkill(s); err != nil {
			return nil, err
		}
	}
	for _, d := range eng.handlers {
		if err := eng.registry.Register(d); err != nil {
			return nil, err
		}
	}
	eng.registry.Freeze()

	sessOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.lockTTL))
	}
	if eng.clock != nil {
		sessOpts = append(sessOpts, session.WithClock(eng.clock))
	}
	eng.sessions = session.NewManager(eng.store, sessOpts...)

	rtOpts := []runtime.Option{
		runtime.WithLogger(eng.logger),
		runtime.WithConfidenceFloor(eng.floor),
		runtime.WithHandlerTimeout(eng.handlerTimeout),
		runtime.WithVocabulary(eng.vocabulary),
		runtime.WithLifecycleHooks(eng.hooks),
	}
	if eng.clock != nil {
		rtOpts = append(rtOpts, runtime.WithClock(eng.clock))
	}
	eng.dispatcher = runtime.NewDispatcher(eng.arbitrator, eng.registry, eng.sessions, eng.fallbacks, rtOpts...)

	eng.logger.Debug("engine ready",
		"sources", len(eng.sources),
		"intents", len(eng.registry.Intents()),
		"floor", eng.floor,
	)
	return eng, nil
}

// HandleTurn processes one utterance for a session and returns the Outcome to surface.
// The error is reserved for infrastructure failures (store, cancelled context).
func (e *Engine) HandleTurn(ctx context.Context, utt domain.Utterance, sessionID string) (domain.Outcome, error) {
	return e.dispatcher.HandleTurn(ctx, utt, sessionID)
}

// Say is HandleTurn for plain text without NLU annotations.
func (e *Engine) Say(ctx context.Context, sessionID, text string) (domain.Outcome, error) {
	return e.dispatcher.HandleTurn(ctx, domain.NewUtterance(text), sessionID)
}

// ExpirePending clears a pending confirmation older than maxAge.
func (e *Engine) ExpirePending(ctx context.Context, sessionID string, maxAge time.Duration) (domain.Outcome, bool, error) {
	return e.dispatcher.ExpirePending(ctx, sessionID, maxAge)
}

// Reset forgets everything about a session.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	return e.dispatcher.Reset(ctx, sessionID)
}

// Session returns a snapshot of a session, or domain.ErrSessionNotFound.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.dispatcher.Session(ctx, sessionID)
}

// Sessions lists stored session IDs.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Intents returns the registered intents, sorted.
func (e *Engine) Intents() []registry.Descriptor {
	return e.registry.Intents()
}

// Catalog returns a serializable description of every registered intent.
func (e *Engine) Catalog() []registry.Info {
	return e.registry.Catalog()
}

// Sources returns the rule source names in priority order.
func (e *Engine) Sources() []string {
	return e.arbitrator.Sources()
}

// Registry returns the (frozen) skill registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

var _ ports.TurnEngine = (*Engine)(nil)
