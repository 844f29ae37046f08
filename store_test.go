package squirrel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	c "github.com/LeoNavel/Squirrel/codec"
	"github.com/LeoNavel/Squirrel/internal/wire"
	"github.com/LeoNavel/Squirrel/jsonvalue"
	pr "github.com/LeoNavel/Squirrel/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu sync.Mutex
	m  map[string]memEntry
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.mu.Lock()
	p.m[key] = memEntry{v: value, exp: exp}
	p.mu.Unlock()
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *memProvider) Close(_ context.Context) error { return nil }

type recordingHooks struct {
	NopHooks
	mu       sync.Mutex
	heals    []string
	rejected int
}

func (h *recordingHooks) SelfHeal(_, reason string) {
	h.mu.Lock()
	h.heals = append(h.heals, reason)
	h.mu.Unlock()
}

func (h *recordingHooks) ProviderSetRejected(string) {
	h.mu.Lock()
	h.rejected++
	h.mu.Unlock()
}

func (h *recordingHooks) lastHeal() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.heals) == 0 {
		return ""
	}
	return h.heals[len(h.heals)-1]
}

const ua = "Mozilla/5.0 (test)"

func newTestStore(t *testing.T, mp pr.Provider, optsOpt func(*Options)) *store {
	t.Helper()
	opts := Options{
		Namespace: "app",
		Provider:  mp,
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	st, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	impl, ok := st.(*store)
	if !ok {
		t.Fatalf("unexpected concrete type for Store")
	}
	t.Cleanup(func() { _ = impl.Close(context.Background()) })
	return impl
}

func TestNewRequiresProviderAndNamespace(t *testing.T) {
	if _, err := New(Options{Namespace: "x"}); err == nil {
		t.Fatal("expected error without provider")
	}
	if _, err := New(Options{Provider: newMemProvider()}); err == nil {
		t.Fatal("expected error without namespace")
	}
}

// TestSessionLifecycle covers create, mutate, save, load and delete.
func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	st := newTestStore(t, mp, nil)

	s, err := st.Create(ctx, ua)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID() == "" || s.UserAgent() != ua {
		t.Fatalf("unexpected session: id=%q ua=%q", s.ID(), s.UserAgent())
	}
	if d := time.Until(s.Expiry()); d < defaultTTL-time.Minute || d > defaultTTL {
		t.Fatalf("expiry not ~7d out: %v", d)
	}

	// Create persists immediately.
	if _, ok, err := st.Load(ctx, s.ID(), ua); err != nil || !ok {
		t.Fatalf("Load after Create: ok=%v err=%v", ok, err)
	}

	s.Set("user", jsonvalue.NewString("ann"))
	s.Merge(map[string]jsonvalue.Value{
		"visits": jsonvalue.NewInt(3),
		"seen":   jsonvalue.NewDate(time.Date(2017, 9, 14, 0, 0, 0, 0, time.UTC)),
		"none":   jsonvalue.Nil(),
	})
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := st.Load(ctx, s.ID(), ua)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if !s.Expiry().Equal(got.Expiry()) {
		t.Fatalf("expiry changed: %v vs %v", s.Expiry(), got.Expiry())
	}
	if !jsonvalue.NewObject(s.Data()).Equal(jsonvalue.NewObject(got.Data())) {
		t.Fatalf("data changed: %v vs %v", s.Data(), got.Data())
	}
	if v, ok := got.Get("none"); !ok || !v.IsNil() {
		t.Fatalf("stored null should be present: ok=%v kind=%v", ok, v.Kind())
	}
	if d, ok := got.Get("seen"); !ok || d.Kind() != jsonvalue.Date {
		t.Fatalf("date did not survive: %v", d.Kind())
	}

	if err := st.Delete(ctx, s.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := st.Load(ctx, s.ID(), ua); err != nil || ok {
		t.Fatalf("Load after Delete should miss, ok=%v err=%v", ok, err)
	}
}

func TestUserAgentRequired(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, newMemProvider(), nil)

	if _, err := st.Create(ctx, ""); !errors.Is(err, ErrNoUserAgent) {
		t.Fatalf("Create: want ErrNoUserAgent, got %v", err)
	}
	if _, _, err := st.Load(ctx, "id", ""); !errors.Is(err, ErrNoUserAgent) {
		t.Fatalf("Load: want ErrNoUserAgent, got %v", err)
	}
	if err := st.Save(ctx, nil); !errors.Is(err, ErrNilSession) {
		t.Fatalf("Save(nil): want ErrNilSession, got %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, newMemProvider(), nil)
	for _, id := range []string{"", "nope"} {
		if s, ok, err := st.Load(ctx, id, ua); err != nil || ok || s != nil {
			t.Fatalf("Load(%q): s=%v ok=%v err=%v", id, s, ok, err)
		}
	}
}

// TestLoadSelfHeals ensures every rejected record is deleted and reported.
func TestLoadSelfHeals(t *testing.T) {
	ctx := context.Background()
	encode := func(t *testing.T, rec jsonvalue.Value) []byte {
		t.Helper()
		b, err := c.JSON{}.Encode(rec)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		return b
	}
	record := func(id, agent string, expiry time.Time) jsonvalue.Value {
		return newSession(id, expiry, agent).toRecord()
	}
	future := time.Now().Add(time.Hour)

	cases := []struct {
		name   string
		agent  string
		bump   bool
		frame  func(t *testing.T, id string) []byte
		reason string
	}{
		{"corrupt", ua, false, func(*testing.T, string) []byte { return []byte("not-wire-format") }, "corrupt"},
		{"gen_mismatch", ua, true, func(t *testing.T, id string) []byte {
			return wire.EncodeRecord(0, encode(t, record(id, ua, future)))
		}, "gen_mismatch"},
		{"value_decode", ua, false, func(*testing.T, string) []byte {
			return wire.EncodeRecord(0, []byte(`{"unknown":1}`))
		}, "value_decode"},
		{"not an object", ua, false, func(t *testing.T, _ string) []byte {
			return wire.EncodeRecord(0, encode(t, jsonvalue.NewInt(1)))
		}, "value_decode"},
		{"foreign id", ua, false, func(t *testing.T, _ string) []byte {
			return wire.EncodeRecord(0, encode(t, record("other", ua, future)))
		}, "value_decode"},
		{"user_agent", "curl/8", false, func(t *testing.T, id string) []byte {
			return wire.EncodeRecord(0, encode(t, record(id, ua, future)))
		}, "user_agent"},
		{"expired", ua, false, func(t *testing.T, id string) []byte {
			return wire.EncodeRecord(0, encode(t, record(id, ua, time.Now().Add(-time.Second))))
		}, "expired"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mp := newMemProvider()
			hooks := &recordingHooks{}
			st := newTestStore(t, mp, func(o *Options) { o.Hooks = hooks })

			id := "s-" + tc.name
			k := st.sessionKey(id)
			if ok, err := mp.Set(ctx, k, tc.frame(t, id), 1, time.Minute); err != nil || !ok {
				t.Fatalf("inject: ok=%v err=%v", ok, err)
			}
			if tc.bump {
				if _, err := st.gen.Bump(ctx, k); err != nil {
					t.Fatal(err)
				}
			}

			if _, ok, err := st.Load(ctx, id, tc.agent); err != nil || ok {
				t.Fatalf("Load should miss, ok=%v err=%v", ok, err)
			}
			if _, ok, _ := mp.Get(ctx, k); ok {
				t.Fatalf("record was not deleted by self-heal")
			}
			if got := hooks.lastHeal(); got != tc.reason {
				t.Fatalf("reason: got %q want %q", got, tc.reason)
			}
		})
	}
}

// TestSaveStaleAfterConcurrentSave verifies a second copy cannot overwrite
// a newer save.
func TestSaveStaleAfterConcurrentSave(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, newMemProvider(), nil)

	s, err := st.Create(ctx, ua)
	if err != nil {
		t.Fatal(err)
	}
	a, _, _ := st.Load(ctx, s.ID(), ua)
	b, _, _ := st.Load(ctx, s.ID(), ua)

	a.Set("from", jsonvalue.NewString("a"))
	if err := st.Save(ctx, a); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	b.Set("from", jsonvalue.NewString("b"))
	if err := st.Save(ctx, b); !errors.Is(err, ErrStale) {
		t.Fatalf("Save b: want ErrStale, got %v", err)
	}

	// a keeps its new generation and can save again.
	a.Set("again", jsonvalue.NewBool(true))
	if err := st.Save(ctx, a); err != nil {
		t.Fatalf("Save a again: %v", err)
	}

	got, ok, err := st.Load(ctx, s.ID(), ua)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if v, _ := got.Get("from"); v.StringValue() != "a" {
		t.Fatalf("stale write leaked: from=%q", v.StringValue())
	}
}

func TestSaveAfterDeleteIsStale(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	st := newTestStore(t, mp, nil)

	s, err := st.Create(ctx, ua)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(ctx, s.ID()); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, s); !errors.Is(err, ErrStale) {
		t.Fatalf("want ErrStale, got %v", err)
	}
	if _, ok, _ := mp.Get(ctx, st.sessionKey(s.ID())); ok {
		t.Fatal("deleted session was resurrected")
	}
}

func TestSaveExpired(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, newMemProvider(), func(o *Options) { o.TTL = time.Hour })

	s, err := st.Create(ctx, ua)
	if err != nil {
		t.Fatal(err)
	}
	st.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := st.Save(ctx, s); !errors.Is(err, ErrExpired) {
		t.Fatalf("want ErrExpired, got %v", err)
	}
	if _, ok, err := st.Load(ctx, s.ID(), ua); err != nil || ok {
		t.Fatalf("expired session should not load, ok=%v err=%v", ok, err)
	}
}

func TestSaveFrameCarriesGeneration(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	st := newTestStore(t, mp, nil)
	st.newID = func() string { return "fixed" }

	s, err := st.Create(ctx, ua)
	if err != nil {
		t.Fatal(err)
	}
	raw, ok, _ := mp.Get(ctx, st.sessionKey("fixed"))
	if !ok {
		t.Fatal("record missing")
	}
	g, payload, err := wire.DecodeRecord(raw)
	if err != nil {
		t.Fatal(err)
	}
	if g != 1 || s.observedGen() != 1 {
		t.Fatalf("gen: frame=%d session=%d want 1", g, s.observedGen())
	}
	if !bytes.Contains(payload, []byte(`"userAgent"`)) {
		t.Fatalf("payload missing userAgent: %s", payload)
	}
}

// flakyProvider fails or rejects writes on demand.
type flakyProvider struct {
	*memProvider
	reject bool
	err    error
}

func (p *flakyProvider) Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	if p.reject {
		return false, nil
	}
	return p.memProvider.Set(ctx, key, value, cost, ttl)
}

func TestProviderRejectionIsReported(t *testing.T) {
	hooks := &recordingHooks{}
	st := newTestStore(t, &flakyProvider{memProvider: newMemProvider(), reject: true}, func(o *Options) { o.Hooks = hooks })
	if _, err := st.Create(context.Background(), ua); !errors.Is(err, ErrRejected) {
		t.Fatalf("want ErrRejected, got %v", err)
	}
	if hooks.rejected != 1 {
		t.Fatalf("rejected=%d want 1", hooks.rejected)
	}
}

// TestFailedSaveKeepsPreviousRecord verifies a write the provider fails or
// drops leaves the last saved session loadable and saveable.
func TestFailedSaveKeepsPreviousRecord(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name   string
		breakP func(*flakyProvider)
		want   error
	}{
		{"rejected", func(p *flakyProvider) { p.reject = true }, ErrRejected},
		{"failed", func(p *flakyProvider) { p.err = boom }, boom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			mp := &flakyProvider{memProvider: newMemProvider()}
			hooks := &recordingHooks{}
			st := newTestStore(t, mp, func(o *Options) { o.Hooks = hooks })

			s, err := st.Create(ctx, ua)
			if err != nil {
				t.Fatal(err)
			}
			s.Set("step", jsonvalue.NewInt(1))
			if err := st.Save(ctx, s); err != nil {
				t.Fatal(err)
			}

			tc.breakP(mp)
			s.Set("step", jsonvalue.NewInt(2))
			if err := st.Save(ctx, s); !errors.Is(err, tc.want) {
				t.Fatalf("Save: want %v, got %v", tc.want, err)
			}
			mp.reject, mp.err = false, nil

			got, ok, err := st.Load(ctx, s.ID(), ua)
			if err != nil || !ok {
				t.Fatalf("previous record lost: ok=%v err=%v heals=%v", ok, err, hooks.heals)
			}
			if v, _ := got.Get("step"); v.IntValue() != 1 {
				t.Fatalf("step=%d want 1", v.IntValue())
			}

			// The original copy is still current and saves once the provider recovers.
			if err := st.Save(ctx, s); err != nil {
				t.Fatalf("retry Save: %v", err)
			}
			got, ok, err = st.Load(ctx, s.ID(), ua)
			if err != nil || !ok {
				t.Fatalf("Load after retry: ok=%v err=%v", ok, err)
			}
			if v, _ := got.Get("step"); v.IntValue() != 2 {
				t.Fatalf("retry not persisted: step=%d", v.IntValue())
			}
		})
	}
}

func TestLoadLeavesUnpublishedRecord(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	hooks := &recordingHooks{}
	st := newTestStore(t, mp, func(o *Options) { o.Hooks = hooks })

	rec := newSession("pending", time.Now().Add(time.Hour), ua).toRecord()
	payload, err := c.JSON{}.Encode(rec)
	if err != nil {
		t.Fatal(err)
	}
	k := st.sessionKey("pending")
	if _, err := mp.Set(ctx, k, wire.EncodeRecord(1, payload), 1, time.Minute); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := st.Load(ctx, "pending", ua); err != nil || ok {
		t.Fatalf("unpublished record should miss, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := mp.Get(ctx, k); !ok {
		t.Fatal("unpublished record was deleted")
	}
	if len(hooks.heals) != 0 {
		t.Fatalf("unexpected self-heal: %v", hooks.heals)
	}

	if _, err := st.gen.Bump(ctx, k); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := st.Load(ctx, "pending", ua); err != nil || !ok {
		t.Fatalf("published record should load, ok=%v err=%v", ok, err)
	}
}

func TestDisabledStore(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	st := newTestStore(t, mp, func(o *Options) { o.Disabled = true })

	if st.Enabled() {
		t.Fatal("expected disabled")
	}
	s, err := st.Create(ctx, ua)
	if err != nil || s == nil {
		t.Fatalf("Create: s=%v err=%v", s, err)
	}
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := st.Load(ctx, s.ID(), ua); ok {
		t.Fatal("disabled store should always miss")
	}
	if len(mp.m) != 0 {
		t.Fatalf("disabled store wrote %d records", len(mp.m))
	}
}

func TestCodecsRoundTripSessions(t *testing.T) {
	codecs := map[string]c.Codec[jsonvalue.Value]{
		"json":    c.JSON{},
		"cbor":    c.MustCBOR(true),
		"msgpack": c.Msgpack{},
		"zstd":    c.Zstd[jsonvalue.Value]{Inner: c.JSON{}},
	}
	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := newTestStore(t, newMemProvider(), func(o *Options) { o.Codec = codec })
			s, err := st.Create(ctx, ua)
			if err != nil {
				t.Fatal(err)
			}
			s.Set("cart", jsonvalue.NewArray([]jsonvalue.Value{jsonvalue.NewInt(1), jsonvalue.NewDouble(2.5)}))
			if err := st.Save(ctx, s); err != nil {
				t.Fatal(err)
			}
			got, ok, err := st.Load(ctx, s.ID(), ua)
			if err != nil || !ok {
				t.Fatalf("Load: ok=%v err=%v", ok, err)
			}
			want, _ := s.Get("cart")
			have, _ := got.Get("cart")
			if !want.Equal(have) {
				t.Fatalf("cart changed through %s codec", name)
			}
		})
	}
}

// ==============================
// Delete edge-case behavior (cluster down etc.)
// ==============================

type failingGenStore struct{ bumpErr, snapErr error }

func (s *failingGenStore) Snapshot(context.Context, string) (uint64, error) { return 0, s.snapErr }
func (s *failingGenStore) Bump(context.Context, string) (uint64, error)     { return 0, s.bumpErr }
func (s *failingGenStore) Cleanup(time.Duration)                            {}
func (s *failingGenStore) Close(context.Context) error                      { return nil }

type delErrProvider struct {
	*memProvider
	err error
}

var _ pr.Provider = (*delErrProvider)(nil)

func (p *delErrProvider) Del(_ context.Context, key string) error { return p.err }

func TestDeleteBothFailReturnsError(t *testing.T) {
	sentinelDelErr := errors.New("del failed")
	bumpFail := errors.New("bump failed")

	st := newTestStore(t, &delErrProvider{memProvider: newMemProvider(), err: sentinelDelErr}, func(o *Options) {
		o.GenStore = &failingGenStore{bumpErr: bumpFail}
	})

	err := st.Delete(context.Background(), "k1")
	if err == nil {
		t.Fatalf("expected error when both bump and delete fail")
	}
	var de *DeleteError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeleteError, got %T: %v", err, err)
	}
	if !errors.Is(err, sentinelDelErr) || !errors.Is(err, bumpFail) {
		t.Fatalf("expected both causes to unwrap: %v", err)
	}
}

func TestDeleteSingleFailureIsNotAnError(t *testing.T) {
	ctx := context.Background()

	st := newTestStore(t, newMemProvider(), func(o *Options) {
		o.GenStore = &failingGenStore{bumpErr: errors.New("bump failed")}
	})
	if err := st.Delete(ctx, "k2"); err != nil {
		t.Fatalf("bump fails, delete ok: got %v", err)
	}

	st = newTestStore(t, &delErrProvider{memProvider: newMemProvider(), err: errors.New("del failed")}, nil)
	if err := st.Delete(ctx, "k3"); err != nil {
		t.Fatalf("bump ok, delete fails: got %v", err)
	}
}

func TestSnapshotErrorSurfaces(t *testing.T) {
	snapErr := errors.New("gen store down")
	st := newTestStore(t, newMemProvider(), func(o *Options) {
		o.GenStore = &failingGenStore{snapErr: snapErr}
	})
	if _, err := st.Create(context.Background(), ua); !errors.Is(err, snapErr) {
		t.Fatalf("want snapshot error, got %v", err)
	}
}

func TestConcurrentSessionAccess(t *testing.T) {
	s := newSession("id", time.Now().Add(time.Hour), ua)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			s.Set(key, jsonvalue.NewInt(int64(i)))
			_, _ = s.Get(key)
			_ = s.toRecord()
			s.Remove(key)
		}(i)
	}
	wg.Wait()
	if len(s.Data()) != 0 {
		t.Fatalf("expected empty data, got %v", s.Data())
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SQUIRREL_NAMESPACE", "web")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Namespace != "web" || cfg.TTL != 7*24*time.Hour || cfg.GenRetention != 30*24*time.Hour {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	opts := cfg.Options()
	if opts.Namespace != "web" || opts.Disabled {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
