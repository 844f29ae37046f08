package squirrel

import (
	"errors"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds the environment-tunable parts of Options.
type Config struct {
	// Namespace isolates keys. ENV: SQUIRREL_NAMESPACE
	Namespace string `env:"SQUIRREL_NAMESPACE,default=squirrel"`
	// TTL is the session lifetime. ENV: SQUIRREL_SESSION_TTL
	TTL time.Duration `env:"SQUIRREL_SESSION_TTL,default=168h"`
	// CleanupInterval and GenRetention tune the in-process generation store.
	CleanupInterval time.Duration `env:"SQUIRREL_GEN_CLEANUP_INTERVAL,default=1h"`
	GenRetention    time.Duration `env:"SQUIRREL_GEN_RETENTION,default=720h"`
	// Disabled turns every store call into a no-op. ENV: SQUIRREL_DISABLED
	Disabled bool `env:"SQUIRREL_DISABLED,default=false"`
}

// LoadConfig reads SQUIRREL_* variables, applying defaults for anything
// unset.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, err
	}
	return cfg, nil
}

// Options copies cfg into Options. Provider, Codec, GenStore, Logger and
// Hooks are left for the caller.
func (cfg Config) Options() Options {
	return Options{
		Namespace:       cfg.Namespace,
		TTL:             cfg.TTL,
		CleanupInterval: cfg.CleanupInterval,
		GenRetention:    cfg.GenRetention,
		Disabled:        cfg.Disabled,
	}
}
