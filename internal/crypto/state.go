package crypto

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StateSigner produces self-validating OAuth state values.
// Values are nonce.timestamp.signature and expire after ttl.
type StateSigner struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewStateSigner creates a state signer. The key should be derived for this
// purpose only, see DeriveKey.
func NewStateSigner(signingKey []byte, ttl time.Duration) StateSigner {
	return StateSigner{
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// TTL returns how long generated values stay valid.
func (s *StateSigner) TTL() time.Duration {
	return s.ttl
}

// Generate creates a new state value
func (s *StateSigner) Generate() (string, error) {
	nonce, err := GenerateSecureToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	data := nonce + "." + timestamp
	signature := SignData(data, s.signingKey)

	return data + "." + signature, nil
}

// maxStateSkew is how far in the future a state timestamp may be, to
// tolerate clock drift between instances sharing the key.
const maxStateSkew = 30 * time.Second

// Validate checks that a state value was issued by this signer and was issued
// within the last ttl. Timestamps further ahead than maxStateSkew are rejected.
func (s *StateSigner) Validate(state string) bool {
	parts := strings.Split(state, ".")
	if len(parts) != 3 {
		return false
	}

	if !ValidateSignedData(parts[0]+"."+parts[1], parts[2], s.signingKey) {
		return false
	}

	timestamp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return false
	}

	age := s.now().Sub(time.Unix(timestamp, 0))
	return age <= s.ttl && age >= -maxStateSkew
}
