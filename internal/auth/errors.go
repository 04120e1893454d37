package auth

import "errors"

var (
	// ErrMissingCode is returned when the provider redirect carries no authorization code.
	ErrMissingCode = errors.New("missing authorization code")

	// ErrMissingCredential is returned when /verify receives no ID token.
	ErrMissingCredential = errors.New("missing credential")

	// ErrProviderError covers provider-reported errors, failed code exchanges
	// and token responses without an ID token.
	ErrProviderError = errors.New("identity provider error")

	// ErrInvalidToken is returned when an ID token fails verification.
	ErrInvalidToken = errors.New("invalid id token")

	// ErrForbidden is returned when a verified identity is denied by the access policy.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized is returned by the Gate when a request carries no valid session.
	ErrUnauthorized = errors.New("unauthorized")
)
