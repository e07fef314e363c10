package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/process"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/fallback"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/skills"
	backend "github.com/redis/go-redis/v9"
)

// Backend is the configured persistence: the session store and, for Redis,
// the distributed locker that shares its connection.
type Backend struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker

	closers []func() error
}

// Close releases the underlying connections.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenBackend builds the session store selected by cfg.Store, wrapped with
// encryption when a key is configured.
func OpenBackend(cfg config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	switch strings.ToLower(cfg.Store.Kind) {
	case config.StoreMemory, "":
		b.Store = memory.NewStore()
	case config.StoreFile:
		b.Store = file.New(cfg.Store.Path)
	case config.StoreRedis:
		rc := cfg.Store.Redis
		client := backend.NewClient(&backend.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		b.Store = redis.NewFromClient(client, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		b.Locker = redis.NewLocker(client, rc.Prefix)
		b.closers = append(b.closers, client.Close)
	default:
		return nil, fmt.Errorf("%w: unknown store kind %q", config.ErrInvalid, cfg.Store.Kind)
	}

	if cfg.Store.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.Store.EncryptionKey)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("store.encryption_key: %w", err)
		}
		b.Store = middleware.Wrap(b.Store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	logger.Debug("session store ready", "kind", cfg.Store.Kind, "encrypted", cfg.Store.EncryptionKey != "")
	return b, nil
}

// NewCommander loads the allow-listed tools file. A missing file yields an
// empty runner, so machine-touching skills answer that they are not configured.
func NewCommander(cfg config.Config) (*process.Runner, error) {
	tools, err := process.LoadTools(cfg.Tools)
	if err != nil {
		return nil, err
	}
	return process.NewRunner(process.WithRegistry(tools)), nil
}

// BuildEngine initializes a Parley engine with standard CLI conventions:
// bundled skills, builtin rules and everything else from cfg.
// Extra options are applied last.
func BuildEngine(cfg config.Config, b *Backend, logger *slog.Logger, extra ...parley.Option) (*parley.Engine, error) {
	cmd, err := NewCommander(cfg)
	if err != nil {
		return nil, err
	}

	fbOpts := []fallback.Option{fallback.WithPhrases(cfg.Fallbacks)}
	if cfg.Seed != 0 {
		fbOpts = append(fbOpts, fallback.WithSeed(cfg.Seed))
	}

	opts := []parley.Option{
		parley.WithLogger(logger),
		parley.WithSkills(skills.All(cmd)...),
		parley.WithStore(b.Store),
		parley.WithFallbacks(fallback.New(fbOpts...)),
		parley.WithConfidenceFloor(cfg.ConfidenceFloor),
		parley.WithHandlerTimeout(cfg.HandlerTimeout),
		parley.WithConfirmationVocabulary(cfg.Confirmation),
	}
	if b.Locker != nil {
		opts = append(opts, parley.WithLocker(b.Locker, cfg.Store.LockTTL))
	}
	opts = append(opts, extra...)

	engine, err := parley.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Debug("tools loaded", "path", cfg.Tools, "tools", cmd.Tools())
	return engine, nil
}
