package squirrel

import (
	"errors"
	"fmt"
)

var (
	// ErrNoUserAgent is returned when a session is created or loaded without
	// a user agent to bind it to.
	ErrNoUserAgent = errors.New("squirrel: missing user agent")
	// ErrStale means the session was saved or deleted elsewhere after it
	// was loaded.
	ErrStale = errors.New("squirrel: stale session")
	// ErrExpired is returned by Save for a session past its expiry.
	ErrExpired = errors.New("squirrel: session expired")
	// ErrRejected means the provider dropped the write (ok=false). The
	// previously saved record, if any, is still current.
	ErrRejected    = errors.New("squirrel: write rejected by provider")
	ErrNilSession  = errors.New("squirrel: nil session")
	errInvalidData = errors.New("squirrel: invalid session record")
)

type DeleteError struct {
	ID      string
	BumpErr error
	DelErr  error
}

func (e *DeleteError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("delete session %q failed: gen bump and delete failed: bump=%v; delete=%v",
			e.ID, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("delete session %q: gen bump failed: %v", e.ID, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("delete session %q: delete failed: %v", e.ID, e.DelErr)
	default:
		return fmt.Sprintf("delete session %q: unknown error", e.ID)
	}
}

func (e *DeleteError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
