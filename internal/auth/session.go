package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the fixed name of the cookie carrying the session
// token.
const SessionCookieName = "oreo_session_key"

// SessionCookies writes and reads the session cookie wrapping an access
// token. Sessions are stateless: the cookie value is the signed token
// itself, nothing is tracked server-side.
type SessionCookies struct {
	ttl    time.Duration
	secure bool
}

// NewSessionCookies constructs a SessionCookies. secure controls the
// Secure and HttpOnly flags and should be true outside local development.
func NewSessionCookies(ttl time.Duration, secure bool) *SessionCookies {
	return &SessionCookies{ttl: ttl, secure: secure}
}

// Issue sets the session cookie for a freshly issued token.
func (sc *SessionCookies) Issue(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sc.ttl / time.Second),
		HttpOnly: sc.secure,
		Secure:   sc.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (sc *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: sc.secure,
		Secure:   sc.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read extracts the session token from the request cookie. It returns an
// empty string when the cookie is absent.
func (sc *SessionCookies) Read(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
