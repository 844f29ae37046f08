package squirrel

import (
	"maps"
	"sync"
	"time"

	"github.com/LeoNavel/Squirrel/jsonvalue"
)

// Session is one client's data. It is safe for concurrent use; changes are
// local until the session is passed to Store.Save.
type Session struct {
	id        string
	expiry    time.Time
	userAgent string

	mu   sync.RWMutex
	data map[string]jsonvalue.Value
	gen  uint64 // generation observed at load or last save
}

func newSession(id string, expiry time.Time, userAgent string) *Session {
	return &Session{
		id:        id,
		expiry:    expiry,
		userAgent: userAgent,
		data:      make(map[string]jsonvalue.Value),
	}
}

func (s *Session) ID() string        { return s.id }
func (s *Session) Expiry() time.Time { return s.expiry }
func (s *Session) UserAgent() string { return s.userAgent }

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.expiry)
}

// Get returns the value stored under key. A stored null is reported as
// present.
func (s *Session) Get(key string) (jsonvalue.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Session) Set(key string, v jsonvalue.Value) {
	s.mu.Lock()
	s.data[key] = v
	s.mu.Unlock()
}

// Merge sets every member of m, overwriting existing keys.
func (s *Session) Merge(m map[string]jsonvalue.Value) {
	s.mu.Lock()
	maps.Copy(s.data, m)
	s.mu.Unlock()
}

func (s *Session) Remove(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// Data returns a copy of the session data.
func (s *Session) Data() map[string]jsonvalue.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data)
}

func (s *Session) observedGen() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *Session) setGen(g uint64) {
	s.mu.Lock()
	s.gen = g
	s.mu.Unlock()
}
