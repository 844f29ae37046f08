package squirrel

import (
	"context"
	"time"

	c "github.com/LeoNavel/Squirrel/codec"
	gen "github.com/LeoNavel/Squirrel/genstore"
	"github.com/LeoNavel/Squirrel/jsonvalue"
	pr "github.com/LeoNavel/Squirrel/provider"
)

// Store is the provider-agnostic session API with CAS safety via
// per-session generations.
type Store interface {
	Enabled() bool
	Close(context.Context) error

	// Create starts and persists a session bound to userAgent.
	Create(ctx context.Context, userAgent string) (*Session, error)
	// Load returns ok=false when the session is missing, expired, corrupt,
	// stale or was created for a different user agent.
	Load(ctx context.Context, id, userAgent string) (s *Session, ok bool, err error)
	// Save persists s iff its generation is still current. A failed or
	// rejected provider write leaves the previously saved record loadable.
	Save(ctx context.Context, s *Session) error
	// Delete removes the session and invalidates copies held elsewhere.
	Delete(ctx context.Context, id string) error
}

// Options tune the session store.
// Only Namespace and Provider are required; others have sensible defaults.
type Options struct {
	// Required
	Namespace string // logical namespace to avoid collisions. e.g. "app:prod"
	Provider  pr.Provider

	Codec           c.Codec[jsonvalue.Value] // nil => codec.JSON
	Logger          Logger                   // if nil, NopLogger is used
	Hooks           Hooks                    // if nil, NopHooks is used
	TTL             time.Duration            // session lifetime; 0 => 7d
	CleanupInterval time.Duration            // local gen sweep; 0 => 1h
	GenRetention    time.Duration            // local gen retention; 0 => 30d
	GenStore        gen.GenStore             // nil => genstore.Local (in-process)
	Disabled        bool                     // default false (enabled)
}

func New(opts Options) (Store, error) {
	return newStore(opts)
}
