package squirrel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	c "github.com/LeoNavel/Squirrel/codec"
	gen "github.com/LeoNavel/Squirrel/genstore"
	"github.com/LeoNavel/Squirrel/internal/wire"
	"github.com/LeoNavel/Squirrel/jsonvalue"
	pr "github.com/LeoNavel/Squirrel/provider"
)

const (
	defaultTTL          = 7 * 24 * time.Hour
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type store struct {
	ns       string
	provider pr.Provider
	codec    c.Codec[jsonvalue.Value]
	log      Logger
	hooks    Hooks
	enabled  bool
	ttl      time.Duration
	gen      gen.GenStore
	now      func() time.Time
	newID    func() string
}

func newStore(opts Options) (*store, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("squirrel: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("squirrel: namespace is required")
	}

	s := &store{
		ns:       opts.Namespace,
		provider: opts.Provider,
		enabled:  !opts.Disabled,
		now:      time.Now,
		newID:    uuid.NewString,
	}

	// defaults
	s.codec = coalesce[c.Codec[jsonvalue.Value]](opts.Codec, c.JSON{})
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.ttl = coalesce[time.Duration](opts.TTL, defaultTTL)

	if opts.GenStore != nil {
		s.gen = opts.GenStore
	} else {
		// default to in-process generations with periodic cleanup
		retention := coalesce[time.Duration](opts.GenRetention, defaultGenRetention)
		if retention < s.ttl {
			retention = s.ttl
		}
		s.gen = gen.NewLocal(coalesce[time.Duration](opts.CleanupInterval, defaultSweep), retention)
	}

	return s, nil
}

func (s *store) Enabled() bool { return s.enabled }

func (s *store) Close(ctx context.Context) error {
	// Close gen store first (best effort)
	if s.gen != nil {
		_ = s.gen.Close(ctx)
	}
	if s.provider != nil {
		return s.provider.Close(ctx)
	}
	return nil
}

func (s *store) Create(ctx context.Context, userAgent string) (*Session, error) {
	if userAgent == "" {
		return nil, ErrNoUserAgent
	}
	sess := newSession(s.newID(), s.now().Add(s.ttl), userAgent)
	if !s.enabled {
		return sess, nil
	}
	g, err := s.snapshotGen(ctx, s.sessionKey(sess.id))
	if err != nil {
		return nil, err
	}
	sess.gen = g
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *store) Load(ctx context.Context, id, userAgent string) (*Session, bool, error) {
	if userAgent == "" {
		return nil, false, ErrNoUserAgent
	}
	if !s.enabled || id == "" {
		return nil, false, nil
	}
	k := s.sessionKey(id)
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}
	g, payload, err := wire.DecodeRecord(raw)
	if err != nil {
		s.selfHeal(ctx, k, "corrupt")
		return nil, false, nil
	}
	cur, err := s.snapshotGen(ctx, k)
	if err != nil {
		return nil, false, err
	}
	// validate generation
	if g == cur+1 {
		// written by a Save that has not published its generation yet
		return nil, false, nil
	}
	if g != cur {
		s.selfHeal(ctx, k, "gen_mismatch")
		return nil, false, nil
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		s.selfHeal(ctx, k, "value_decode")
		return nil, false, nil
	}
	sess, err := fromRecord(v)
	if err != nil || sess.id != id {
		s.selfHeal(ctx, k, "value_decode")
		return nil, false, nil
	}
	if sess.userAgent != userAgent {
		s.selfHeal(ctx, k, "user_agent")
		return nil, false, nil
	}
	if sess.Expired(s.now()) {
		s.selfHeal(ctx, k, "expired")
		return nil, false, nil
	}
	sess.gen = g
	return sess, true, nil
}

func (s *store) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrNilSession
	}
	if !s.enabled {
		return nil
	}
	ttl := sess.expiry.Sub(s.now())
	if ttl <= 0 {
		return ErrExpired
	}
	k := s.sessionKey(sess.id)
	obs := sess.observedGen()
	cur, err := s.snapshotGen(ctx, k)
	if err != nil {
		return err
	}
	if cur != obs {
		// generation moved; refuse stale write
		s.log.Debug("Save skipped (gen mismatch)", Fields{"id": sess.id, "obs": obs, "cur": cur})
		return ErrStale
	}
	payload, err := s.codec.Encode(sess.toRecord())
	if err != nil {
		return fmt.Errorf("squirrel: encode session: %w", err)
	}

	// Write the record at the generation it will carry, then publish that
	// generation. A failed or rejected write leaves the previous record and
	// generation in place.
	want := obs + 1
	rec := wire.EncodeRecord(want, payload)
	ok, err := s.provider.Set(ctx, k, rec, int64(len(rec)), ttl)
	if err != nil {
		return fmt.Errorf("squirrel: write session: %w", err)
	}
	if !ok {
		s.hooks.ProviderSetRejected(k)
		s.log.Debug("Save rejected by provider (pressure)", Fields{"id": sess.id})
		return ErrRejected
	}

	next, err := s.gen.Bump(ctx, k)
	if err != nil {
		s.hooks.GenBumpError(k, err)
		s.log.Error("gen bump error", Fields{"key": k, "err": err})
		return fmt.Errorf("squirrel: gen bump: %w", err)
	}
	if next != want {
		// bumped concurrently; our record no longer matches and is dropped
		// on its next load
		s.log.Debug("Save raced (gen moved)", Fields{"id": sess.id, "want": want, "got": next})
		return ErrStale
	}
	sess.setGen(next)
	return nil
}

// Delete bumps the generation, so copies loaded before the call can no
// longer be saved, and removes the record. It fails only when both steps
// fail.
func (s *store) Delete(ctx context.Context, id string) error {
	if !s.enabled {
		return nil
	}
	k := s.sessionKey(id)

	newGen, bumpErr := s.gen.Bump(ctx, k)
	if bumpErr != nil {
		s.hooks.GenBumpError(k, bumpErr)
		s.log.Error("gen bump error", Fields{"key": k, "err": bumpErr})
	}

	delErr := s.provider.Del(ctx, k)
	if delErr != nil {
		s.log.Warn("delete failed", Fields{"key": k, "err": delErr})
	}

	if bumpErr != nil && delErr != nil {
		s.hooks.DeleteOutage(id, bumpErr, delErr)
		return &DeleteError{ID: id, BumpErr: bumpErr, DelErr: delErr}
	}
	s.log.Debug("deleted session (bumped gen + cleared record)", Fields{"id": id, "newGen": newGen})
	return nil
}

func (s *store) snapshotGen(ctx context.Context, storageKey string) (uint64, error) {
	g, err := s.gen.Snapshot(ctx, storageKey)
	if err != nil {
		s.hooks.GenSnapshotError(storageKey, err)
		s.log.Warn("gen snapshot error", Fields{"key": storageKey, "err": err})
		return 0, fmt.Errorf("squirrel: gen snapshot: %w", err)
	}
	return g, nil
}

func (s *store) selfHeal(ctx context.Context, storageKey, reason string) {
	_ = s.provider.Del(ctx, storageKey)
	s.hooks.SelfHeal(storageKey, reason)
	s.log.Debug("self-heal", Fields{"key": storageKey, "reason": reason})
}

func (s *store) sessionKey(id string) string {
	// isolate by namespace
	return "session:" + s.ns + ":" + id
}
