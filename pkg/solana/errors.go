package solana

import (
	"github.com/pkg/errors"
)

var (
	// ErrDecode indicates text that is not valid base58 or base64.
	ErrDecode = errors.New("malformed encoding")

	// ErrInvalidKeyFormat indicates a decoded key or signature with the wrong length.
	ErrInvalidKeyFormat = errors.New("invalid key format")

	// ErrInvalidSecretKey indicates secret bytes that don't reconstruct a
	// consistent keypair.
	ErrInvalidSecretKey = errors.New("invalid secret key")

	// ErrNoValidAddress indicates every bump seed produced an on curve address.
	ErrNoValidAddress = errors.New("unable to find a valid program address")
)
