package crypto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSigner(t *testing.T) {
	signer := NewStateSigner([]byte("state-key"), 10*time.Minute)

	state, err := signer.Generate()
	require.NoError(t, err)
	assert.Len(t, strings.Split(state, "."), 3)
	assert.True(t, signer.Validate(state))

	other, err := signer.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, state, other)
}

func TestStateSigner_Rejects(t *testing.T) {
	signer := NewStateSigner([]byte("state-key"), 10*time.Minute)
	state, err := signer.Generate()
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		otherSigner := NewStateSigner([]byte("other-key"), 10*time.Minute)
		assert.False(t, otherSigner.Validate(state))
	})

	t.Run("tampered nonce", func(t *testing.T) {
		assert.False(t, signer.Validate("x"+state))
	})

	t.Run("malformed", func(t *testing.T) {
		assert.False(t, signer.Validate(""))
		assert.False(t, signer.Validate("a.b"))
		assert.False(t, signer.Validate("a.notanumber.c"))
	})

	t.Run("expired", func(t *testing.T) {
		expiring := NewStateSigner([]byte("state-key"), time.Minute)
		expiring.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
		old, err := expiring.Generate()
		require.NoError(t, err)

		expiring.now = time.Now
		assert.False(t, expiring.Validate(old))
	})

	t.Run("issued in the future", func(t *testing.T) {
		ahead := NewStateSigner([]byte("state-key"), 10*time.Minute)
		ahead.now = func() time.Time { return time.Now().Add(time.Hour) }
		future, err := ahead.Generate()
		require.NoError(t, err)

		ahead.now = time.Now
		assert.False(t, ahead.Validate(future))
	})

	t.Run("small clock skew", func(t *testing.T) {
		skewed := NewStateSigner([]byte("state-key"), 10*time.Minute)
		skewed.now = func() time.Time { return time.Now().Add(10 * time.Second) }
		state, err := skewed.Generate()
		require.NoError(t, err)

		skewed.now = time.Now
		assert.True(t, skewed.Validate(state))
	})
}
