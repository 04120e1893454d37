package cookie

import (
	"net/http"
	"time"

	"github.com/bibliotecacth/sessiongate/internal/log"
)

// Cookie names used by the gateway
const (
	SessionCookie = "session"
	StateCookie   = "oauth_state"
)

// SetSession sets a session cookie with appropriate security settings.
// secure is only false for local development over plain http.
func SetSession(w http.ResponseWriter, value string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})

	log.LogTraceWithFields("cookie", "Session cookie set", map[string]any{
		"maxAge":   maxAge.String(),
		"secure":   secure,
		"sameSite": "Lax",
	})
}

// SetState sets the short-lived OAuth state cookie
func SetState(w http.ResponseWriter, value string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

// Clear expires a cookie immediately. A negative MaxAge is written as Max-Age=0.
func Clear(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// ClearSession removes the session cookie
func ClearSession(w http.ResponseWriter, secure bool) {
	Clear(w, SessionCookie, secure)
	log.LogTraceWithFields("cookie", "Session cookie cleared", nil)
}

// ClearState removes the OAuth state cookie
func ClearState(w http.ResponseWriter, secure bool) {
	Clear(w, StateCookie, secure)
}

// Get retrieves a cookie value from the request
func Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// GetSession retrieves the session cookie value
func GetSession(r *http.Request) (string, error) {
	return Get(r, SessionCookie)
}

// GetState retrieves the OAuth state cookie value
func GetState(r *http.Request) (string, error) {
	return Get(r, StateCookie)
}
