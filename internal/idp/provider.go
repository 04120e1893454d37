package idp

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// ErrNoIDToken is returned when a token response carries no OpenID Connect ID token.
var ErrNoIDToken = errors.New("token response has no id_token")

// Identity represents the verified claims of an ID token.
// Email is lowercased at the boundary; Name and Picture are display-only.
type Identity struct {
	ProviderType  string `json:"provider_type"`
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	HostedDomain  string `json:"hd,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

// Provider abstracts identity provider operations.
type Provider interface {
	// Type returns the provider type identifier (e.g., "google").
	Type() string

	// AuthURL generates the authorization URL for the OAuth flow.
	AuthURL(state string) string

	// ExchangeCode exchanges an authorization code for tokens.
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)

	// VerifyIDToken checks signature, issuer, audience and expiry of a raw
	// ID token and returns its claims.
	VerifyIDToken(ctx context.Context, rawIDToken string) (*Identity, error)
}

// IDToken extracts the raw id_token from a token endpoint response.
func IDToken(token *oauth2.Token) (string, error) {
	if token == nil {
		return "", ErrNoIDToken
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", ErrNoIDToken
	}
	return raw, nil
}
