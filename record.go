package squirrel

import (
	"fmt"
	"time"

	"github.com/LeoNavel/Squirrel/jsonvalue"
)

// Record members.
const (
	fieldID        = "id"
	fieldExpiry    = "expiry"
	fieldUserAgent = "userAgent"
	fieldData      = "data"
)

// toRecord snapshots s as the Object persisted through the codec.
func (s *Session) toRecord() jsonvalue.Value {
	s.mu.RLock()
	data := jsonvalue.NewObject(s.data)
	s.mu.RUnlock()
	return jsonvalue.NewObject(map[string]jsonvalue.Value{
		fieldID:        jsonvalue.NewString(s.id),
		fieldExpiry:    jsonvalue.NewDate(s.expiry),
		fieldUserAgent: jsonvalue.NewString(s.userAgent),
		fieldData:      data,
	})
}

// fromRecord rebuilds a session. Codecs that cannot carry dates hand the
// expiry back as an RFC 3339 string, which is accepted too.
func fromRecord(v jsonvalue.Value) (*Session, error) {
	if v.Kind() != jsonvalue.Object {
		return nil, fmt.Errorf("%w: got %s", errInvalidData, v.Kind())
	}
	id, ok := v.Get(fieldID).AsString()
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: missing %s", errInvalidData, fieldID)
	}
	ua, ok := v.Get(fieldUserAgent).AsString()
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", errInvalidData, fieldUserAgent)
	}
	expiry, err := recordTime(v.Get(fieldExpiry))
	if err != nil {
		return nil, err
	}

	s := newSession(id, expiry, ua)
	switch d := v.Get(fieldData); d.Kind() {
	case jsonvalue.Object:
		s.data = d.ObjectValue()
	case jsonvalue.Null:
	default:
		return nil, fmt.Errorf("%w: %s is %s", errInvalidData, fieldData, d.Kind())
	}
	return s, nil
}

func recordTime(v jsonvalue.Value) (time.Time, error) {
	if t, ok := v.AsDate(); ok {
		return t, nil
	}
	if str, ok := v.AsString(); ok {
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %w", errInvalidData, fieldExpiry, err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: missing %s", errInvalidData, fieldExpiry)
}
