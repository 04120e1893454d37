package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bibliotecacth/sessiongate/internal/crypto"
)

var (
	// ErrMalformedToken is returned when a token cannot be split or decoded
	ErrMalformedToken = errors.New("malformed session token")
	// ErrBadSignature is returned when the signature does not match the payload
	ErrBadSignature = errors.New("invalid session signature")
	// ErrExpired is returned when the sealed record is past its expiry
	ErrExpired = errors.New("session expired")
	// ErrSubMillisecond is returned by Mint for times the wire format would truncate
	ErrSubMillisecond = errors.New("session times must have millisecond precision")
)

// separator joins payload and signature. It is outside the base64url alphabet.
const separator = "."

// Codec mints and parses session tokens of the form
// base64url(json(record)).base64url(hmac-sha256(encoded payload)).
type Codec struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Codec
type Option func(*Codec)

// WithClock overrides the clock used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a codec bound to secret
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	c := &Codec{
		secret: secret,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Now returns the codec's current time
func (c *Codec) Now() time.Time {
	return c.now()
}

// Mint serializes and signs the record
func (c *Codec) Mint(r Record) (string, error) {
	if r.Email == "" {
		return "", fmt.Errorf("session record has no email")
	}
	if r.ExpiresAt.IsZero() {
		return "", fmt.Errorf("session record has no expiry")
	}
	if !msAligned(r.IssuedAt) || !msAligned(r.ExpiresAt) {
		return "", ErrSubMillisecond
	}

	data, err := json.Marshal(toPayload(r))
	if err != nil {
		return "", fmt.Errorf("failed to marshal session record: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(data)
	return encoded + separator + crypto.SignData(encoded, c.secret), nil
}

func msAligned(t time.Time) bool {
	return t.Nanosecond()%int(time.Millisecond) == 0
}

// Parse verifies the token and returns the sealed record.
// The signature is checked against the payload exactly as received.
func (c *Codec) Parse(token string) (Record, error) {
	parts := strings.Split(token, separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Record{}, ErrMalformedToken
	}

	encoded, signature := parts[0], parts[1]
	if !crypto.ValidateSignedData(encoded, signature, c.secret) {
		return Record{}, ErrBadSignature
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if p.Email == "" || p.ExpiresAt == 0 {
		return Record{}, fmt.Errorf("%w: missing email or expiry", ErrMalformedToken)
	}

	record := p.record()
	if record.IsExpired(c.now()) {
		return Record{}, ErrExpired
	}
	return record, nil
}
