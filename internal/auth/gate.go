package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bibliotecacth/sessiongate/internal/cookie"
	"github.com/bibliotecacth/sessiongate/internal/session"
)

type contextKey struct{}

// Gate authenticates requests from the session cookie alone.
type Gate struct {
	codec *session.Codec
}

// NewGate creates a gate backed by codec.
func NewGate(codec *session.Codec) *Gate {
	return &Gate{codec: codec}
}

// Authenticate returns the verified session of r. Every failure wraps
// ErrUnauthorized; the underlying codec error is kept for logging.
func (g *Gate) Authenticate(r *http.Request) (session.Record, error) {
	token, err := cookie.GetSession(r)
	if err != nil {
		return session.Record{}, fmt.Errorf("%w: no session cookie", ErrUnauthorized)
	}

	record, err := g.codec.Parse(token)
	if err != nil {
		return session.Record{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return record, nil
}

// WithRecord stores a verified session in ctx.
func WithRecord(ctx context.Context, record session.Record) context.Context {
	return context.WithValue(ctx, contextKey{}, record)
}

// RecordFromContext returns the session stored by WithRecord.
func RecordFromContext(ctx context.Context) (session.Record, bool) {
	record, ok := ctx.Value(contextKey{}).(session.Record)
	return record, ok
}
