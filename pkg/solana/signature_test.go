package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	kp, err := GenerateKeypair(rand.Reader)
	require.NoError(t, err)

	sig := kp.Sign([]byte("hello"))
	assert.True(t, Verify(kp.PublicKey(), []byte("hello"), sig))
	assert.False(t, Verify(kp.PublicKey(), []byte("hellx"), sig))

	other, err := GenerateKeypair(rand.Reader)
	require.NoError(t, err)
	assert.False(t, Verify(other.PublicKey(), []byte("hello"), sig))

	// Standard ed25519 signing is deterministic.
	assert.Equal(t, sig, Sign(kp.PrivateKey(), []byte("hello")))
	assert.Equal(t, ed25519.Sign(kp.PrivateKey(), []byte("hello")), sig[:])
}

func TestVerify_BitFlips(t *testing.T) {
	kp, err := GenerateKeypair(rand.Reader)
	require.NoError(t, err)

	message := []byte("the quick brown fox")
	sig := kp.Sign(message)

	for i := 0; i < len(sig)*8; i++ {
		flipped := sig
		flipped[i/8] ^= 1 << (i % 8)
		assert.False(t, Verify(kp.PublicKey(), message, flipped), "bit %d", i)
	}
}

func TestVerify_Empty(t *testing.T) {
	kp, err := GenerateKeypair(rand.Reader)
	require.NoError(t, err)

	sig := kp.Sign(nil)
	assert.True(t, Verify(kp.PublicKey(), nil, sig))
	assert.True(t, Verify(kp.PublicKey(), []byte{}, sig))
	assert.False(t, Verify(kp.PublicKey(), nil, Signature{}))
}

func TestVerify_MalformedPublicKey(t *testing.T) {
	kp, err := GenerateKeypair(rand.Reader)
	require.NoError(t, err)

	sig := kp.Sign([]byte("hello"))
	assert.False(t, Verify(nil, []byte("hello"), sig))
	assert.False(t, Verify(kp.PublicKey()[:31], []byte("hello"), sig))
}
