// Package squirrel stores HTTP sessions whose data is a map of
// jsonvalue.Value, on any byte store that implements provider.Provider.
//
// Components:
//   - Provider: byte store with TTL (e.g. Ristretto, BigCache, Redis).
//   - Codec: (de)serializes the session record <-> []byte; codec.JSON by default.
//   - GenStore: generation counter per session. Local (in-process) by default,
//     optional Redis implementation for multi-replica / restart persistence.
//
// Keys:
//
//	session:<ns>:<id>  - one framed record per session
//
// A loaded session remembers the generation it was read at. Save writes only
// while that generation is still current, so a session deleted or saved
// elsewhere in the meantime is reported as ErrStale instead of overwritten:
//
//	s, ok, err := store.Load(ctx, id, r.UserAgent())
//	if !ok {
//		s, err = store.Create(ctx, r.UserAgent())
//	}
//	s.Set("visits", jsonvalue.NewInt(s.Get("visits").IntValue()+1))
//	err = store.Save(ctx, s)
package squirrel
