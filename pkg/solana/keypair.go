package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"os"

	slip10 "github.com/anyproto/go-slip10"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// DefaultDerivationPath is the SLIP-0010 path used by most Solana wallets for the
// first account of a mnemonic.
const DefaultDerivationPath = "m/44'/501'/0'/0'"

// Keypair is an ed25519 keypair. A Keypair is always internally consistent: the
// public key is derived from the secret seed when the Keypair is constructed.
type Keypair struct {
	publicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
}

// GenerateKeypair creates a new keypair using a seed read from rand, which must
// be a cryptographically secure source such as crypto/rand.Reader.
func GenerateKeypair(rand io.Reader) (*Keypair, error) {
	if rand == nil {
		return nil, errors.New("random source is required")
	}

	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(rand, seed); err != nil {
		return nil, errors.Wrap(err, "error reading random seed")
	}

	return newKeypairFromSeed(seed), nil
}

// NewKeypairFromSecret reconstructs a keypair from either a 32 byte seed, or the
// 64 byte seed||public layout. In the latter case, the embedded public key must
// match the one derived from the seed.
func NewKeypairFromSecret(secret []byte) (*Keypair, error) {
	switch len(secret) {
	case ed25519.SeedSize:
		return newKeypairFromSeed(secret), nil
	case ed25519.PrivateKeySize:
		kp := newKeypairFromSeed(secret[:ed25519.SeedSize])
		if !bytes.Equal(kp.publicKey, secret[ed25519.SeedSize:]) {
			return nil, errors.Wrap(ErrInvalidSecretKey, "public key does not match secret")
		}
		return kp, nil
	default:
		return nil, errors.Wrapf(ErrInvalidSecretKey, "secret must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(secret))
	}
}

// NewKeypairFromSecretString parses a base58 or base64 encoded secret.
func NewKeypairFromSecretString(secret string) (*Keypair, error) {
	b, err := ParseSecret(secret)
	if err != nil {
		return nil, err
	}
	return NewKeypairFromSecret(b)
}

// NewKeypairFromMnemonic derives a keypair from a BIP-39 mnemonic.
//
// When path is empty, the first 32 bytes of the BIP-39 seed are used directly,
// matching solana-keygen's default. Otherwise path is a fully hardened SLIP-0010
// derivation path, such as DefaultDerivationPath.
func NewKeypairFromMnemonic(mnemonic, passphrase, path string) (*Keypair, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSecretKey, "invalid mnemonic")
	}

	if len(path) == 0 {
		return newKeypairFromSeed(seed[:ed25519.SeedSize]), nil
	}

	node, err := slip10.DeriveForPath(path, seed)
	if err != nil {
		return nil, errors.Wrapf(err, "error deriving path %s", path)
	}

	_, privateKey := node.Keypair()
	return NewKeypairFromSecret(privateKey)
}

// NewMnemonic creates a BIP-39 mnemonic using bits of entropy read from rand.
// Valid sizes are multiples of 32 between 128 and 256.
func NewMnemonic(rand io.Reader, bits int) (string, error) {
	if bits < 128 || bits > 256 || bits%32 != 0 {
		return "", errors.Errorf("invalid entropy size: %d", bits)
	}
	if rand == nil {
		return "", errors.New("random source is required")
	}

	entropy := make([]byte, bits/8)
	if _, err := io.ReadFull(rand, entropy); err != nil {
		return "", errors.Wrap(err, "error reading entropy")
	}

	return bip39.NewMnemonic(entropy)
}

func newKeypairFromSeed(seed []byte) *Keypair {
	privateKey := ed25519.NewKeyFromSeed(seed)
	return &Keypair{
		publicKey:  privateKey.Public().(ed25519.PublicKey),
		privateKey: privateKey,
	}
}

// PublicKey returns the 32 byte public key.
func (k *Keypair) PublicKey() ed25519.PublicKey {
	return k.publicKey
}

// PrivateKey returns the 64 byte seed||public private key.
func (k *Keypair) PrivateKey() ed25519.PrivateKey {
	return k.privateKey
}

// Seed returns the 32 byte secret seed.
func (k *Keypair) Seed() []byte {
	return k.privateKey.Seed()
}

// Secret returns a copy of the 64 byte seed||public secret.
func (k *Keypair) Secret() []byte {
	secret := make([]byte, ed25519.PrivateKeySize)
	copy(secret, k.privateKey)
	return secret
}

// ToBase58 returns the base58 encoded public key.
func (k *Keypair) ToBase58() string {
	return base58.Encode(k.publicKey)
}

// SecretToBase58 returns the base58 encoded 64 byte secret.
func (k *Keypair) SecretToBase58() string {
	return base58.Encode(k.privateKey)
}

// SecretToBase64 returns the base64 encoded 64 byte secret.
func (k *Keypair) SecretToBase64() string {
	return EncodeBase64(k.privateKey)
}

// Sign signs message with the keypair's private key.
func (k *Keypair) Sign(message []byte) Signature {
	return Sign(k.privateKey, message)
}

func (k *Keypair) String() string {
	return k.ToBase58()
}

// LoadKeypairFile reads a keypair stored in the solana-keygen JSON format, which
// is an array of the 64 secret bytes as integers.
func LoadKeypairFile(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading keypair file")
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling keypair file")
	}

	secret := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, errors.Wrapf(ErrInvalidSecretKey, "byte %d out of range: %d", i, v)
		}
		secret[i] = byte(v)
	}

	if len(secret) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidSecretKey, "keypair file must contain %d bytes, got %d", ed25519.PrivateKeySize, len(secret))
	}
	return NewKeypairFromSecret(secret)
}

// WriteFile writes the keypair in the solana-keygen JSON format. The file is
// only readable by the owner.
func (k *Keypair) WriteFile(path string) error {
	ints := make([]int, len(k.privateKey))
	for i, b := range k.privateKey {
		ints[i] = int(b)
	}

	data, err := json.Marshal(ints)
	if err != nil {
		return errors.Wrap(err, "error marshalling keypair")
	}

	return os.WriteFile(path, data, 0600)
}
