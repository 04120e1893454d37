package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bibliotecacth/sessiongate/internal/auth"
	"github.com/bibliotecacth/sessiongate/internal/config"
	"github.com/bibliotecacth/sessiongate/internal/cookie"
	"github.com/bibliotecacth/sessiongate/internal/crypto"
	jsonwriter "github.com/bibliotecacth/sessiongate/internal/json"
	"github.com/bibliotecacth/sessiongate/internal/log"
)

// AuthHandlers serves the sign-in, sign-out and identity endpoints.
type AuthHandlers struct {
	flow   *auth.Flow
	states crypto.StateSigner
	cfg    *config.Config
}

// NewAuthHandlers creates new auth handlers with dependency injection
func NewAuthHandlers(flow *auth.Flow, states crypto.StateSigner, cfg *config.Config) *AuthHandlers {
	return &AuthHandlers{
		flow:   flow,
		states: states,
		cfg:    cfg,
	}
}

type verifyRequest struct {
	Credential string `json:"credential"`
}

type verifyResponse struct {
	OK      bool   `json:"ok"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// LoginHandler redirects the browser to Google with a fresh signed state.
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.cfg.GoogleClientID == "" {
		log.LogError("Login requested without GOOGLE_CLIENT_ID")
		http.Error(w, "Missing env var: GOOGLE_CLIENT_ID", http.StatusInternalServerError)
		return
	}

	state, err := h.states.Generate()
	if err != nil {
		log.LogError("Failed to generate OAuth state: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	cookie.SetState(w, state, h.states.TTL(), h.cfg.SecureCookies())
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, h.flow.LoginURL(state), http.StatusFound)
}

// CallbackHandler completes the authorization-code flow.
// Checks run in order: provider error, missing code, state, then the exchange.
// Every outcome expires the state cookie; only success sets a session.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	secure := h.cfg.SecureCookies()

	if providerErr := query.Get("error"); providerErr != "" {
		log.LogWarnWithFields("auth", "Provider returned an error", map[string]any{
			"error":       providerErr,
			"description": query.Get("error_description"),
		})
		cookie.ClearState(w, secure)
		h.writeError(w, auth.ErrProviderError)
		return
	}

	code := query.Get("code")
	if code == "" {
		cookie.ClearState(w, secure)
		h.writeError(w, auth.ErrMissingCode)
		return
	}

	if !h.validState(r, query.Get("state")) {
		log.LogWarnWithFields("auth", "Callback state rejected", map[string]any{
			"remote_addr": r.RemoteAddr,
		})
		cookie.ClearState(w, secure)
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}
	cookie.ClearState(w, secure)

	result, err := h.flow.CompleteCallback(r.Context(), code)
	if err != nil {
		h.writeError(w, err)
		return
	}

	cookie.SetSession(w, result.Token, result.CookieMaxAge(), secure)
	http.Redirect(w, r, h.cfg.LandingURL("login"), http.StatusFound)
}

// validState requires the query state to equal the cookie state exactly and
// to carry a valid, unexpired signature.
func (h *AuthHandlers) validState(r *http.Request, state string) bool {
	stored, err := cookie.GetState(r)
	if err != nil || stored == "" || state == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(state)) != 1 {
		return false
	}
	return h.states.Validate(state)
}

// VerifyHandler exchanges a client-side Google credential for a session.
func (h *AuthHandlers) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.LogDebugWithFields("auth", "Unreadable verify body", map[string]any{
			"error": err.Error(),
		})
	}

	result, err := h.flow.VerifyCredential(r.Context(), req.Credential)
	if err != nil {
		h.writeError(w, err)
		return
	}

	cookie.SetSession(w, result.Token, result.CookieMaxAge(), h.cfg.SecureCookies())
	_ = jsonwriter.Write(w, verifyResponse{
		OK:      true,
		Email:   result.Record.Email,
		Name:    result.Identity.Name,
		Picture: result.Identity.Picture,
	})
}

// LogoutHandler expires the session cookie. Tokens already issued stay
// valid until they expire since nothing is stored server side.
func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	cookie.ClearSession(w, h.cfg.SecureCookies())
	http.Redirect(w, r, h.cfg.LandingURL("logout"), http.StatusFound)
}

// MeHandler returns the verified session. It must run behind the session middleware.
func (h *AuthHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	record, ok := auth.RecordFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	_ = jsonwriter.Write(w, record)
}

func (h *AuthHandlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	fields := map[string]any{
		"status": status,
		"error":  err.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.LogErrorWithFields("auth", "Sign-in failed", fields)
	} else {
		log.LogInfoWithFields("auth", "Sign-in rejected", fields)
	}
	http.Error(w, messageFor(err), status)
}

// statusFor maps auth error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrMissingCode),
		errors.Is(err, auth.ErrMissingCredential),
		errors.Is(err, auth.ErrProviderError):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCode):
		return "Missing authorization code"
	case errors.Is(err, auth.ErrMissingCredential):
		return "Missing credential"
	case errors.Is(err, auth.ErrProviderError):
		return "OAuth error from Google"
	case errors.Is(err, auth.ErrInvalidToken):
		return "Token inválido"
	case errors.Is(err, auth.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, auth.ErrForbidden):
		return "No autorizado"
	default:
		return "Internal server error"
	}
}
