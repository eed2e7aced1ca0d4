package solana

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// EncodeBase58 returns the base58 (bitcoin alphabet) encoding of b.
func EncodeBase58(b []byte) string {
	return base58.Encode(b)
}

// DecodeBase58 decodes base58 text. Empty input decodes to an empty slice.
func DecodeBase58(s string) ([]byte, error) {
	if len(s) == 0 {
		return []byte{}, nil
	}

	b, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "invalid base58: %v", err)
	}
	return b, nil
}

// EncodeBase64 returns the standard, padded base64 encoding of b.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBase64 decodes standard, padded base64 text.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "invalid base64: %v", err)
	}
	return b, nil
}

// ParsePublicKey decodes a base58 public key and requires exactly 32 bytes.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	b, err := DecodeBase58(s)
	if err != nil {
		return nil, err
	}

	if len(b) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(ErrInvalidKeyFormat, "public key must be %d bytes, got %d", ed25519.PublicKeySize, len(b))
	}
	return ed25519.PublicKey(b), nil
}

// ParseSignature decodes a base58 signature and requires exactly 64 bytes.
func ParseSignature(s string) (Signature, error) {
	var sig Signature

	b, err := DecodeBase58(s)
	if err != nil {
		return sig, err
	}

	if len(b) != ed25519.SignatureSize {
		return sig, errors.Wrapf(ErrInvalidKeyFormat, "signature must be %d bytes, got %d", ed25519.SignatureSize, len(b))
	}

	copy(sig[:], b)
	return sig, nil
}

// ParseSecret decodes a secret key that is either base58 or base64 encoded.
//
// Base58 is attempted first, since that is the form produced by keypair
// generation. Some strings decode under both alphabets, in which case the
// decoding that yields a seed or full secret length wins. The length of the
// result is otherwise not checked here.
func ParseSecret(s string) ([]byte, error) {
	fromBase58, base58Err := DecodeBase58(s)
	if base58Err == nil && isSecretLength(fromBase58) {
		return fromBase58, nil
	}

	fromBase64, base64Err := DecodeBase64(s)
	if base64Err == nil && isSecretLength(fromBase64) {
		return fromBase64, nil
	}

	switch {
	case base58Err == nil:
		return fromBase58, nil
	case base64Err == nil:
		return fromBase64, nil
	default:
		return nil, errors.Wrap(ErrDecode, "secret is neither base58 nor base64")
	}
}

func isSecretLength(b []byte) bool {
	return len(b) == ed25519.SeedSize || len(b) == ed25519.PrivateKeySize
}
