// Package instruction builds unsigned instruction descriptors from text
// inputs, validating every address and amount before anything is assembled.
package instruction

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/solkit/pkg/cache"
	"github.com/code-payments/solkit/pkg/solana"
	"github.com/code-payments/solkit/pkg/solana/system"
	"github.com/code-payments/solkit/pkg/solana/token"
)

const (
	FieldFrom          = "from"
	FieldTo            = "to"
	FieldMint          = "mint"
	FieldMintAuthority = "mintAuthority"
	FieldDestination   = "destination"
	FieldAuthority     = "authority"
	FieldOwner         = "owner"
)

// Option configures a Builder.
type Option func(*Builder)

// WithDerivationCache memoizes associated account derivations in a weighted
// LRU holding up to budget entries. A non-positive budget disables the cache.
func WithDerivationCache(budget int) Option {
	return func(b *Builder) {
		if budget <= 0 {
			b.derivations = nil
			return
		}
		b.derivations = cache.NewCache(budget)
	}
}

// Builder is safe for concurrent use.
type Builder struct {
	log         *logrus.Entry
	derivations cache.Cache
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		log: logrus.StandardLogger().WithField("type", "instruction/builder"),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Transfer builds a native transfer of lamports from one account to another.
func (b *Builder) Transfer(from, to string, lamports uint64) (solana.Instruction, error) {
	fromKey, err := parseAddress(FieldFrom, from)
	if err != nil {
		return solana.Instruction{}, err
	}
	toKey, err := parseAddress(FieldTo, to)
	if err != nil {
		return solana.Instruction{}, err
	}

	if lamports == 0 {
		return solana.Instruction{}, ErrInvalidAmount
	}

	return system.Transfer(fromKey, toKey, lamports), nil
}

// InitializeMint builds the initialization of a new mint. The mint authority
// is also used as the freeze authority.
func (b *Builder) InitializeMint(mintAuthority, mint string, decimals uint8) (solana.Instruction, error) {
	authorityKey, err := parseAddress(FieldMintAuthority, mintAuthority)
	if err != nil {
		return solana.Instruction{}, err
	}
	mintKey, err := parseAddress(FieldMint, mint)
	if err != nil {
		return solana.Instruction{}, err
	}

	if decimals > token.MaxDecimals {
		return solana.Instruction{}, errors.Wrapf(ErrInvalidDecimals, "got %d", decimals)
	}

	return token.InitializeMint(mintKey, authorityKey, authorityKey, decimals), nil
}

// MintTo builds the issuance of amount new tokens into destination, which must
// be a token account for mint.
func (b *Builder) MintTo(mint, destination, authority string, amount uint64) (solana.Instruction, error) {
	mintKey, err := parseAddress(FieldMint, mint)
	if err != nil {
		return solana.Instruction{}, err
	}
	destinationKey, err := parseAddress(FieldDestination, destination)
	if err != nil {
		return solana.Instruction{}, err
	}
	authorityKey, err := parseAddress(FieldAuthority, authority)
	if err != nil {
		return solana.Instruction{}, err
	}

	if amount == 0 {
		return solana.Instruction{}, ErrInvalidAmount
	}

	return token.MintTo(mintKey, destinationKey, authorityKey, amount), nil
}

// TokenTransfer builds a transfer of amount tokens from the owner's associated
// account to the destination owner's associated account for mint.
func (b *Builder) TokenTransfer(owner, mint, destination string, amount uint64) (solana.Instruction, error) {
	ownerKey, err := parseAddress(FieldOwner, owner)
	if err != nil {
		return solana.Instruction{}, err
	}
	mintKey, err := parseAddress(FieldMint, mint)
	if err != nil {
		return solana.Instruction{}, err
	}
	destinationKey, err := parseAddress(FieldDestination, destination)
	if err != nil {
		return solana.Instruction{}, err
	}

	if amount == 0 {
		return solana.Instruction{}, ErrInvalidAmount
	}

	source, err := b.AssociatedAccount(ownerKey, mintKey)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error deriving source account")
	}
	dest, err := b.AssociatedAccount(destinationKey, mintKey)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error deriving destination account")
	}

	return token.Transfer(source, dest, ownerKey, amount), nil
}

// AssociatedAccount returns the associated token account of owner for mint.
func (b *Builder) AssociatedAccount(owner, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	if b.derivations == nil {
		return token.GetAssociatedAccount(owner, mint)
	}

	key := solana.EncodeBase58(owner) + ":" + solana.EncodeBase58(mint)
	if cached, ok := b.derivations.Retrieve(key); ok {
		addr := make(ed25519.PublicKey, ed25519.PublicKeySize)
		copy(addr, cached.(ed25519.PublicKey))
		return addr, nil
	}

	addr, err := token.GetAssociatedAccount(owner, mint)
	if err != nil {
		return nil, err
	}

	// Concurrent callers may race to insert the same derivation.
	cached := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(cached, addr)
	if err := b.derivations.Insert(key, cached, 1); err != nil && err != cache.ErrKeyExists {
		b.log.WithError(err).WithField("method", "AssociatedAccount").Warn("failure caching derivation")
	}

	return addr, nil
}

func parseAddress(field, value string) (ed25519.PublicKey, error) {
	key, err := solana.ParsePublicKey(value)
	if err != nil {
		return nil, &InvalidAddressError{Field: field, Err: err}
	}
	return key, nil
}
