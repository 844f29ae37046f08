package redis

import (
	"context"
	"errors"
	"time"

	"github.com/joeshaw/envdecode"
	goredis "github.com/redis/go-redis/v9"

	pr "github.com/LeoNavel/Squirrel/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// EnvConfig describes a redis connection in the environment.
// Multiple addresses are separated by ';' and select a cluster or
// sentinel client.
type EnvConfig struct {
	Addrs    []string      `env:"SQUIRREL_REDIS_ADDRS,default=localhost:6379"`
	Username string        `env:"SQUIRREL_REDIS_USERNAME"`
	Password string        `env:"SQUIRREL_REDIS_PASSWORD"`
	DB       int           `env:"SQUIRREL_REDIS_DB,default=0"`
	Timeout  time.Duration `env:"SQUIRREL_REDIS_TIMEOUT,default=3s"`
}

// Options converts the environment config to client options.
func (c EnvConfig) Options() *goredis.UniversalOptions {
	return &goredis.UniversalOptions{
		Addrs:        c.Addrs,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  c.Timeout,
		ReadTimeout:  c.Timeout,
		WriteTimeout: c.Timeout,
	}
}

// LoadEnvConfig reads SQUIRREL_REDIS_* variables, applying defaults for
// anything unset.
func LoadEnvConfig() (EnvConfig, error) {
	var c EnvConfig
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return EnvConfig{}, err
	}
	return c, nil
}

// NewFromEnv builds a client from the environment. The provider owns it.
func NewFromEnv() (*Redis, error) {
	c, err := LoadEnvConfig()
	if err != nil {
		return nil, err
	}
	return New(Config{Client: goredis.NewUniversalClient(c.Options()), CloseClient: true})
}

// Client exposes the underlying client, e.g. to share it with genstore.Redis.
func (p *Redis) Client() goredis.UniversalClient { return p.rdb }

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0 // treat non-positive TTLs as "no expiry" per provider contract
	}

	err := p.rdb.Set(ctx, key, value, ttl).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
