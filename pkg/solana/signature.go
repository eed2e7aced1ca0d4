package solana

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

// Signature is an ed25519 signature over an arbitrary message.
type Signature [ed25519.SignatureSize]byte

// ToBase58 returns the base58 text form of the signature.
func (s Signature) ToBase58() string {
	return base58.Encode(s[:])
}

func (s Signature) String() string {
	return s.ToBase58()
}

// Sign signs message with key using standard (RFC 8032) ed25519, which is
// deterministic for a given key and message.
func Sign(key ed25519.PrivateKey, message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(key, message))
	return sig
}

// Verify reports whether sig is a valid signature of message by pub.
//
// Malformed public keys yield false rather than a panic.
func Verify(pub ed25519.PublicKey, message []byte, sig Signature) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}

	return ed25519.Verify(pub, message, sig[:])
}
