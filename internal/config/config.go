// Package config loads the parley.yaml configuration used by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/fallback"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Environment overrides, applied after the file.
const (
	EnvConfidenceFloor = "PARLEY_CONFIDENCE_FLOOR"
	EnvRedisAddr       = "PARLEY_REDIS_ADDR"
	EnvMaxInputSize    = "PARLEY_MAX_INPUT_SIZE"
	EnvLogLevel        = "PARLEY_LOG_LEVEL"
	EnvLogFormat       = "PARLEY_LOG_FORMAT"
	EnvStore           = "PARLEY_STORE"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the root of parley.yaml.
type Config struct {
	ConfidenceFloor float64       `mapstructure:"confidence_floor"`
	HandlerTimeout  time.Duration `mapstructure:"handler_timeout"`
	ConfirmationTTL time.Duration `mapstructure:"confirmation_ttl"`
	Seed            int64         `mapstructure:"seed"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	MaxInputSize    int           `mapstructure:"max_input_size"`
	Tools           string        `mapstructure:"tools"`

	Store        StoreConfig        `mapstructure:"store"`
	Fallbacks    fallback.Phrases   `mapstructure:"fallbacks"`
	Confirmation runtime.Vocabulary `mapstructure:"confirmation"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	MCP          MCPConfig          `mapstructure:"mcp"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Kind          string        `mapstructure:"kind"`
	Path          string        `mapstructure:"path"`
	Redis         RedisConfig   `mapstructure:"redis"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	EncryptionKey string        `mapstructure:"encryption_key"`
}

// RedisConfig configures the Redis store and locker.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// HTTPConfig configures `parley serve`.
type HTTPConfig struct {
	Addr        string `mapstructure:"addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// MCPConfig configures `parley mcp`.
type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Addr      string `mapstructure:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ConfidenceFloor: runtime.DefaultConfidenceFloor,
		HandlerTimeout:  runtime.DefaultHandlerTimeout,
		LogLevel:        "info",
		LogFormat:       "text",
		Tools:           "tools.yaml",
		Store: StoreConfig{
			Kind:    StoreMemory,
			Path:    ".parley/sessions",
			LockTTL: 30 * time.Second,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "parley:session:",
			},
		},
		HTTP: HTTPConfig{Addr: ":8080", MetricsAddr: ":9090"},
		MCP:  MCPConfig{Transport: "stdio", Addr: ":8081"},
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment overrides.
// A missing file is an error; an empty path is not.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := Decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses YAML onto cfg. Keys absent from data keep cfg's values; unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	if raw == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvConfidenceFloor); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvConfidenceFloor, v, err)
		}
		c.ConfidenceFloor = f
	}
	if v := getenv(EnvMaxInputSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvMaxInputSize, v, err)
		}
		c.MaxInputSize = n
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Store.Redis.Addr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	if v := getenv(EnvStore); v != "" {
		c.Store.Kind = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !(c.ConfidenceFloor >= 0 && c.ConfidenceFloor <= 1) {
		return fmt.Errorf("%w: confidence_floor %v outside [0,1]", ErrInvalid, c.ConfidenceFloor)
	}
	if c.HandlerTimeout < 0 {
		return fmt.Errorf("%w: handler_timeout must not be negative", ErrInvalid)
	}
	if c.ConfirmationTTL < 0 {
		return fmt.Errorf("%w: confirmation_ttl must not be negative", ErrInvalid)
	}
	if c.MaxInputSize < 0 {
		return fmt.Errorf("%w: max_input_size must not be negative", ErrInvalid)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q is not text or json", ErrInvalid, c.LogFormat)
	}
	switch strings.ToLower(c.Store.Kind) {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown store kind %q", ErrInvalid, c.Store.Kind)
	}
	if c.Store.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Store.EncryptionKey); err != nil {
			return fmt.Errorf("%w: store.encryption_key: %v", ErrInvalid, err)
		}
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		return fmt.Errorf("%w: unknown mcp transport %q", ErrInvalid, c.MCP.Transport)
	}
	return nil
}
