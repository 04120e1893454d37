package session

import "time"

// DefaultTTL is the lifetime of a session minted without an explicit TTL.
const DefaultTTL = 8 * time.Hour

// Record is the authenticated identity sealed inside a session token.
// Times carry millisecond precision; build records with NewRecord or
// truncate them before minting.
type Record struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewRecord builds a record issued at now that expires after ttl.
// Timestamps are truncated to the millisecond precision carried on the wire.
func NewRecord(subject, email string, now time.Time, ttl time.Duration) Record {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	issued := now.UTC().Truncate(time.Millisecond)
	return Record{
		Subject:   subject,
		Email:     email,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(ttl).Truncate(time.Millisecond),
	}
}

// Equal reports whether two records describe the same session.
func (r Record) Equal(other Record) bool {
	return r.Subject == other.Subject &&
		r.Email == other.Email &&
		r.IssuedAt.Equal(other.IssuedAt) &&
		r.ExpiresAt.Equal(other.ExpiresAt)
}

// IsExpired checks if the record is expired at now
func (r Record) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// TTL returns the remaining lifetime at now, never negative.
func (r Record) TTL(now time.Time) time.Duration {
	if d := r.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// payload is the wire form. iat/exp are Unix milliseconds.
type payload struct {
	Subject   string `json:"sub,omitempty"`
	Email     string `json:"email"`
	IssuedAt  int64  `json:"iat,omitempty"`
	ExpiresAt int64  `json:"exp"`
}

func toPayload(r Record) payload {
	p := payload{
		Subject:   r.Subject,
		Email:     r.Email,
		ExpiresAt: r.ExpiresAt.UnixMilli(),
	}
	if !r.IssuedAt.IsZero() {
		p.IssuedAt = r.IssuedAt.UnixMilli()
	}
	return p
}

func (p payload) record() Record {
	r := Record{
		Subject:   p.Subject,
		Email:     p.Email,
		ExpiresAt: time.UnixMilli(p.ExpiresAt).UTC(),
	}
	if p.IssuedAt != 0 {
		r.IssuedAt = time.UnixMilli(p.IssuedAt).UTC()
	}
	return r
}
