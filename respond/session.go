package respond

import (
	"context"
	"errors"
	"net/http"

	"github.com/LeoNavel/Squirrel"
	"github.com/LeoNavel/Squirrel/jsonvalue"
)

// CookieName carries the session id.
const CookieName = "SquirrelSession"

type sessionKey struct{}

// SessionOptions configure Sessions.
type SessionOptions struct {
	Store squirrel.Store
	// Init seeds the data of newly created sessions.
	Init func(*http.Request) (map[string]jsonvalue.Value, error)
	// OnError observes save failures after the handler ran. Optional.
	OnError func(*http.Request, error)
}

// Sessions attaches a session to every request, creating one when the
// cookie is missing or names an unusable session. The session is saved
// after next returns; a session changed elsewhere meanwhile is not
// overwritten.
func Sessions(opts SessionOptions, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ua := r.UserAgent()
		if ua == "" {
			_ = Object(w, http.StatusBadRequest, map[string]any{"error": "Missing user-agent header"})
			return
		}

		var sess *squirrel.Session
		if c, err := r.Cookie(CookieName); err == nil {
			s, ok, err := opts.Store.Load(ctx, c.Value, ua)
			if err != nil {
				_ = Object(w, http.StatusServiceUnavailable, map[string]any{"error": "session store unavailable"})
				return
			}
			if ok {
				sess = s
			}
		}
		if sess == nil {
			s, err := opts.Store.Create(ctx, ua)
			if err != nil {
				_ = Object(w, http.StatusServiceUnavailable, map[string]any{"error": "session store unavailable"})
				return
			}
			if opts.Init != nil {
				data, err := opts.Init(r)
				if err != nil {
					_ = Object(w, Status(err), map[string]any{"error": err.Error()})
					return
				}
				s.Merge(data)
			}
			sess = s
		}

		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    sess.ID(),
			Path:     "/",
			Expires:  sess.Expiry(),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey{}, sess)))

		if err := opts.Store.Save(ctx, sess); err != nil && !errors.Is(err, squirrel.ErrStale) && opts.OnError != nil {
			opts.OnError(r, err)
		}
	})
}

// SessionFrom returns the session attached by Sessions.
func SessionFrom(ctx context.Context) (*squirrel.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*squirrel.Session)
	return s, ok
}
