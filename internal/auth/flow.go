// Package auth turns verified Google identities into sessions and gates
// requests on them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bibliotecacth/sessiongate/internal/idp"
	"github.com/bibliotecacth/sessiongate/internal/log"
	"github.com/bibliotecacth/sessiongate/internal/policy"
	"github.com/bibliotecacth/sessiongate/internal/session"
)

// DefaultProviderTimeout bounds a single round trip to the identity provider.
const DefaultProviderTimeout = 10 * time.Second

// Result is the outcome of a successful sign-in.
type Result struct {
	Identity idp.Identity
	Record   session.Record
	Token    string
}

// CookieMaxAge is the session lifetime remaining at the moment it was issued.
func (r Result) CookieMaxAge() time.Duration {
	return r.Record.TTL(r.Record.IssuedAt)
}

// Flow orchestrates the authorization-code and credential sign-in paths.
// It holds no per-request state and is safe for concurrent use.
type Flow struct {
	provider idp.Provider
	codec    *session.Codec
	policy   policy.Policy
	ttl      time.Duration
	timeout  time.Duration
}

// NewFlow creates a flow. Zero ttl and timeout fall back to the defaults.
func NewFlow(provider idp.Provider, codec *session.Codec, p policy.Policy, ttl, timeout time.Duration) *Flow {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Flow{
		provider: provider,
		codec:    codec,
		policy:   p,
		ttl:      ttl,
		timeout:  timeout,
	}
}

// LoginURL returns the provider authorization URL carrying state.
func (f *Flow) LoginURL(state string) string {
	return f.provider.AuthURL(state)
}

// CompleteCallback exchanges an authorization code, verifies the returned
// ID token and mints a session for an approved identity.
func (f *Flow) CompleteCallback(ctx context.Context, code string) (Result, error) {
	if code == "" {
		return Result{}, ErrMissingCode
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	token, err := f.provider.ExchangeCode(ctx, code)
	if err != nil {
		return Result{}, fmt.Errorf("%w: code exchange: %v", ErrProviderError, err)
	}

	rawIDToken, err := idp.IDToken(token)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	return f.signIn(ctx, rawIDToken)
}

// VerifyCredential verifies an ID token obtained client-side and mints a
// session for an approved identity.
func (f *Flow) VerifyCredential(ctx context.Context, credential string) (Result, error) {
	if credential == "" {
		return Result{}, ErrMissingCredential
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	return f.signIn(ctx, credential)
}

func (f *Flow) signIn(ctx context.Context, rawIDToken string) (Result, error) {
	identity, err := f.provider.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: %v", ErrProviderError, err)
		}
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !policy.IsAllowed(*identity, f.policy) {
		log.LogWarnWithFields("auth", "Access denied by policy", map[string]any{
			"email":  identity.Email,
			"hd":     identity.HostedDomain,
			"policy": string(f.policy.Mode()),
		})
		return Result{}, fmt.Errorf("%w: %s", ErrForbidden, identity.Email)
	}

	record := session.NewRecord(identity.Subject, identity.Email, f.codec.Now(), f.ttl)
	token, err := f.codec.Mint(record)
	if err != nil {
		return Result{}, fmt.Errorf("failed to mint session: %w", err)
	}

	log.LogInfoWithFields("auth", "Session issued", map[string]any{
		"email":    record.Email,
		"provider": identity.ProviderType,
		"expires":  record.ExpiresAt,
	})

	return Result{Identity: *identity, Record: record, Token: token}, nil
}
