package backend

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

// NewSessionManager returns the session manager of the backend. cookiePath is the backend prefix.
// If store is nil, the sessions are kept in memory.
func NewSessionManager(store scs.Store, cookiePath string) *scs.SessionManager {
	var sessions = scs.New()
	if store != nil {
		sessions.Store = store
	}
	sessions.Cookie.Name = "schemacms_session"
	sessions.Cookie.Path = cookiePath + "/"
	sessions.Cookie.Persist = false                 // don't store the cookie across browser sessions
	sessions.Cookie.SameSite = http.SameSiteLaxMode // good CSRF protection if HTTP GET doesn't modify anything
	sessions.Cookie.Secure = false                  // else running on localhost or behind a http proxy fails
	sessions.IdleTimeout = 12 * time.Hour
	sessions.Lifetime = 720 * time.Hour
	return sessions
}
