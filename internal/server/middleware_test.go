package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bibliotecacth/sessiongate/internal/auth"
	"github.com/bibliotecacth/sessiongate/internal/cookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSMiddleware(t *testing.T) {
	called := false
	handler := NewCORSMiddleware("https://x.test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("preflight", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodOptions, "/prestamo", nil)
		req.Header.Set("Origin", "https://x.test")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, called)
		assert.Equal(t, "https://x.test", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "content-type", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "GET,POST,OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("simple request", func(t *testing.T) {
		called = false
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.True(t, called)
		assert.Equal(t, "https://x.test", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestPreflightSkipsSessionCheck(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(httptest.NewRequest(http.MethodOptions, "/prestamo", nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, testSiteOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSessionMiddleware(t *testing.T) {
	h := newHarness(t, nil)
	gate := auth.NewGate(h.codec)

	var seenEmail string
	handler := NewSessionMiddleware(gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		record, ok := auth.RecordFromContext(r.Context())
		require.True(t, ok)
		seenEmail = record.Email
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, seenEmail)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.SessionCookie, Value: h.mintSession(t, "s@theodoro.edu.co")})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s@theodoro.edu.co", seenEmail)
}

func TestSessionMiddleware_TamperedCookie(t *testing.T) {
	h := newHarness(t, nil)
	token := h.mintSession(t, "s@theodoro.edu.co")
	tampered := token[:len(token)-2] + "AA"
	if tampered == token {
		tampered = token[:len(token)-2] + "BB"
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: cookie.SessionCookie, Value: tampered})
	assert.Equal(t, http.StatusUnauthorized, h.do(req).StatusCode)
}

func TestRecoverMiddleware(t *testing.T) {
	handler := NewRecoverMiddleware("test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLoggerMiddleware_CapturesStatus(t *testing.T) {
	var captured *responseWriterDelegator
	handler := NewLoggerMiddleware("test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.(*responseWriterDelegator)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, http.StatusTeapot, captured.status)
	assert.Equal(t, len("short and stout"), captured.written)
}

func TestChainMiddleware_Order(t *testing.T) {
	var order []string
	mw := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := ChainMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("inner"), mw("outer"))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
