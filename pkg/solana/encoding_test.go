package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase58_RoundTrip(t *testing.T) {
	for size := 0; size < 128; size++ {
		b := make([]byte, size)
		_, err := rand.Read(b)
		require.NoError(t, err)

		decoded, err := DecodeBase58(EncodeBase58(b))
		require.NoError(t, err)
		assert.Equal(t, b, decoded)
	}

	decoded, err := DecodeBase58("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
	assert.NotNil(t, decoded)

	// Leading zeros are preserved as leading '1's.
	decoded, err = DecodeBase58(EncodeBase58([]byte{0, 0, 1}))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 1}, decoded)
}

func TestBase64_RoundTrip(t *testing.T) {
	for size := 0; size < 128; size++ {
		b := make([]byte, size)
		_, err := rand.Read(b)
		require.NoError(t, err)

		decoded, err := DecodeBase64(EncodeBase64(b))
		require.NoError(t, err)
		assert.Equal(t, b, decoded)
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, s := range []string{"0OIl", "not-base58!!", "abc def"} {
		_, err := DecodeBase58(s)
		assert.Equal(t, ErrDecode, errors.Cause(err), s)
	}

	for _, s := range []string{"abc", "ab=c", "!!!!", "YQ"} {
		_, err := DecodeBase64(s)
		assert.Equal(t, ErrDecode, errors.Cause(err), s)
	}
}

func TestParsePublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	parsed, err := ParsePublicKey(base58.Encode(pub))
	require.NoError(t, err)
	assert.Equal(t, pub, parsed)

	parsed, err = ParsePublicKey("11111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, make(ed25519.PublicKey, 32), parsed)

	_, err = ParsePublicKey("not-base58!!")
	assert.Equal(t, ErrDecode, errors.Cause(err))

	for _, size := range []int{0, 1, 31, 33, 64} {
		_, err = ParsePublicKey(base58.Encode(make([]byte, size)))
		assert.Equal(t, ErrInvalidKeyFormat, errors.Cause(err))
	}
}

func TestParseSignature(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	sig := Sign(priv, []byte("hello"))

	parsed, err := ParseSignature(sig.ToBase58())
	require.NoError(t, err)
	assert.Equal(t, sig, parsed)

	_, err = ParseSignature(base58.Encode(sig[:63]))
	assert.Equal(t, ErrInvalidKeyFormat, errors.Cause(err))

	_, err = ParseSignature("")
	assert.Equal(t, ErrInvalidKeyFormat, errors.Cause(err))

	_, err = ParseSignature("0OIl")
	assert.Equal(t, ErrDecode, errors.Cause(err))
}

func TestParseSecret(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	for _, encoded := range []string{base58.Encode(priv), EncodeBase64(priv)} {
		actual, err := ParseSecret(encoded)
		require.NoError(t, err)
		assert.EqualValues(t, priv, actual)
	}

	// Lengths are validated by the keypair constructors, not here.
	actual, err := ParseSecret(base58.Encode([]byte{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, actual)

	_, err = ParseSecret("!!")
	assert.Equal(t, ErrDecode, errors.Cause(err))
}
