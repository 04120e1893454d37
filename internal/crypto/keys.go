package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DerivedKeySize is the length of keys returned by DeriveKey.
const DerivedKeySize = 32

// DeriveKey derives a purpose-bound key from secret using HKDF-SHA256.
// Distinct info strings yield independent keys from the same secret.
func DeriveKey(secret []byte, info string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret is empty")
	}
	key := make([]byte, DerivedKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
