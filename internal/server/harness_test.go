package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bibliotecacth/sessiongate/internal/auth"
	"github.com/bibliotecacth/sessiongate/internal/config"
	"github.com/bibliotecacth/sessiongate/internal/crypto"
	"github.com/bibliotecacth/sessiongate/internal/idp"
	"github.com/bibliotecacth/sessiongate/internal/ledger"
	"github.com/bibliotecacth/sessiongate/internal/session"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

const (
	testSiteOrigin = "https://x.test"
	testDomain     = "theodoro.edu.co"
)

// fakeValidator accepts a fixed set of ID tokens.
type fakeValidator map[string]*idtoken.Payload

func (f fakeValidator) Validate(_ context.Context, token, _ string) (*idtoken.Payload, error) {
	payload, ok := f[token]
	if !ok {
		return nil, errors.New("idtoken: invalid token")
	}
	return payload, nil
}

func googlePayload(sub, email, hd string) *idtoken.Payload {
	claims := map[string]any{
		"email":          email,
		"email_verified": true,
		"name":           "Estudiante Theodoro",
		"picture":        "https://lh3.googleusercontent.com/a/photo",
	}
	if hd != "" {
		claims["hd"] = hd
	}
	return &idtoken.Payload{Subject: sub, Claims: claims}
}

type harness struct {
	cfg     *config.Config
	codec   *session.Codec
	ledger  *ledger.MemoryLedger
	handler http.Handler
}

// newTokenServer answers the token endpoint with an id_token per known code.
func newTokenServer(t *testing.T, idTokens map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")

		idToken, ok := idTokens[r.PostForm.Get("code")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newHarness(t *testing.T, mutate func(cfg *config.Config)) *harness {
	t.Helper()

	cfg := &config.Config{
		GoogleClientID:     "abc",
		GoogleClientSecret: config.Secret("google-secret"),
		SiteOrigin:         testSiteOrigin,
		SessionSecret:      config.Secret("test-session-secret-0123456789"),
		AllowedDomain:      testDomain,
		SessionTTL:         8 * time.Hour,
		ProviderTimeout:    2 * time.Second,
		Environment:        "production",
	}
	if mutate != nil {
		mutate(cfg)
	}

	tokenServer := newTokenServer(t, map[string]string{
		"good-code":    "good-id-token",
		"outside-code": "gmail-id-token",
		"forged-code":  "forged-id-token",
	})

	provider, err := idp.NewGoogleProvider(context.Background(), idp.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: string(cfg.GoogleClientSecret),
		RedirectURI:  cfg.RedirectURI(),
		HostedDomain: cfg.AllowedDomain,
		Endpoint: &oauth2.Endpoint{
			AuthURL:   "https://accounts.google.com/o/oauth2/auth",
			TokenURL:  tokenServer.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Validator: fakeValidator{
			"good-id-token":  googlePayload("1001", "s@theodoro.edu.co", testDomain),
			"gmail-id-token": googlePayload("1002", "someone@gmail.com", ""),
		},
		HTTPClient: tokenServer.Client(),
	})
	require.NoError(t, err)

	codec, err := session.NewCodec(cfg.SessionSecret.Bytes())
	require.NoError(t, err)

	stateKey, err := crypto.DeriveKey(cfg.SessionSecret.Bytes(), "sessiongate oauth state")
	require.NoError(t, err)

	memory := ledger.NewMemoryLedger(0)
	handler := NewHandler(Dependencies{
		Config: cfg,
		Flow:   auth.NewFlow(provider, codec, cfg.Policy(), cfg.SessionTTL, cfg.ProviderTimeout),
		States: crypto.NewStateSigner(stateKey, 10*time.Minute),
		Gate:   auth.NewGate(codec),
		Ledger: memory,
	})

	return &harness{cfg: cfg, codec: codec, ledger: memory, handler: handler}
}

func (h *harness) do(req *http.Request) *http.Response {
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w.Result()
}

// mintSession returns a valid session token for email.
func (h *harness) mintSession(t *testing.T, email string) string {
	t.Helper()
	token, err := h.codec.Mint(session.NewRecord("1001", email, time.Now(), time.Hour))
	require.NoError(t, err)
	return token
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
