package instruction

import (
	"crypto/ed25519"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/solkit/pkg/solana"
	"github.com/code-payments/solkit/pkg/solana/system"
	"github.com/code-payments/solkit/pkg/solana/token"
)

const (
	testWallet = "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM"
	testMint   = "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh"
	testATA    = "H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ"
)

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 2)

	ix, err := NewBuilder().Transfer(keys[0], keys[1], 1000)
	require.NoError(t, err)

	assert.Equal(t, system.ProgramKey, ix.Program)
	require.Len(t, ix.Data, 12)
	assert.EqualValues(t, 2, binary.LittleEndian.Uint32(ix.Data[0:4]))
	assert.EqualValues(t, 1000, binary.LittleEndian.Uint64(ix.Data[4:12]))

	require.Len(t, ix.Accounts, 2)
	assert.Equal(t, keys[0], solana.EncodeBase58(ix.Accounts[0].PublicKey))
	assert.True(t, ix.Accounts[0].IsSigner)
	assert.True(t, ix.Accounts[0].IsWritable)
	assert.Equal(t, keys[1], solana.EncodeBase58(ix.Accounts[1].PublicKey))
	assert.False(t, ix.Accounts[1].IsSigner)
	assert.True(t, ix.Accounts[1].IsWritable)
}

func TestInitializeMint(t *testing.T) {
	keys := generateKeys(t, 2)

	for decimals := uint8(0); decimals <= token.MaxDecimals; decimals++ {
		ix, err := NewBuilder().InitializeMint(keys[0], keys[1], decimals)
		require.NoError(t, err)

		assert.Equal(t, token.ProgramKey, ix.Program)
		require.Len(t, ix.Accounts, 2)
		assert.Equal(t, keys[1], solana.EncodeBase58(ix.Accounts[0].PublicKey))
		assert.True(t, ix.Accounts[0].IsSigner)
		assert.True(t, ix.Accounts[0].IsWritable)
		assert.Equal(t, system.RentSysVar, ix.Accounts[1].PublicKey)
		assert.False(t, ix.Accounts[1].IsSigner)
		assert.False(t, ix.Accounts[1].IsWritable)

		decompiled, err := token.DecompileInitializeMint(ix)
		require.NoError(t, err)
		assert.Equal(t, decimals, decompiled.Decimals)
		assert.Equal(t, keys[0], solana.EncodeBase58(decompiled.MintAuthority))
		assert.Equal(t, keys[0], solana.EncodeBase58(decompiled.FreezeAuthority))
	}
}

func TestInitializeMint_InvalidDecimals(t *testing.T) {
	keys := generateKeys(t, 2)

	for _, decimals := range []uint8{10, 18, 255} {
		_, err := NewBuilder().InitializeMint(keys[0], keys[1], decimals)
		assert.True(t, errors.Is(err, ErrInvalidDecimals))
	}
}

func TestMintTo(t *testing.T) {
	keys := generateKeys(t, 3)

	ix, err := NewBuilder().MintTo(keys[0], keys[1], keys[2], 500)
	require.NoError(t, err)

	decompiled, err := token.DecompileMintTo(ix)
	require.NoError(t, err)
	assert.Equal(t, keys[0], solana.EncodeBase58(decompiled.Mint))
	assert.Equal(t, keys[1], solana.EncodeBase58(decompiled.Destination))
	assert.Equal(t, keys[2], solana.EncodeBase58(decompiled.Authority))
	assert.EqualValues(t, 500, decompiled.Amount)

	assert.Equal(t, []ed25519.PublicKey{decompiled.Authority}, ix.Signers())
}

func TestTokenTransfer(t *testing.T) {
	keys := generateKeys(t, 1)

	for _, b := range []*Builder{NewBuilder(), NewBuilder(WithDerivationCache(16))} {
		ix, err := b.TokenTransfer(testWallet, testMint, keys[0], 42)
		require.NoError(t, err)

		decompiled, err := token.DecompileTransfer(ix)
		require.NoError(t, err)
		assert.Equal(t, testATA, solana.EncodeBase58(decompiled.Source))
		assert.Equal(t, testWallet, solana.EncodeBase58(decompiled.Owner))
		assert.EqualValues(t, 42, decompiled.Amount)

		destination, err := solana.ParsePublicKey(keys[0])
		require.NoError(t, err)
		mint, err := solana.ParsePublicKey(testMint)
		require.NoError(t, err)
		expectedDestination, err := token.GetAssociatedAccount(destination, mint)
		require.NoError(t, err)
		assert.Equal(t, expectedDestination, decompiled.Destination)

		assert.True(t, ix.Accounts[2].IsSigner)
		assert.False(t, ix.Accounts[2].IsWritable)
	}
}

func TestTokenTransfer_SelfTransfer(t *testing.T) {
	ix, err := NewBuilder().TokenTransfer(testWallet, testMint, testWallet, 1)
	require.NoError(t, err)

	assert.Equal(t, ix.Accounts[0].PublicKey, ix.Accounts[1].PublicKey)
}

func TestInvalidAmount(t *testing.T) {
	keys := generateKeys(t, 3)
	b := NewBuilder()

	_, err := b.Transfer(keys[0], keys[1], 0)
	assert.Equal(t, ErrInvalidAmount, err)

	_, err = b.MintTo(keys[0], keys[1], keys[2], 0)
	assert.Equal(t, ErrInvalidAmount, err)

	_, err = b.TokenTransfer(keys[0], keys[1], keys[2], 0)
	assert.Equal(t, ErrInvalidAmount, err)
}

func TestInvalidAddress(t *testing.T) {
	keys := generateKeys(t, 3)
	b := NewBuilder()

	short := solana.EncodeBase58(make([]byte, 31))

	for _, tc := range []struct {
		name  string
		build func() error
		field string
		cause error
	}{
		{
			name:  "transfer from",
			build: func() error { _, err := b.Transfer("not-base58!!", keys[1], 1); return err },
			field: FieldFrom,
			cause: solana.ErrDecode,
		},
		{
			name:  "transfer to",
			build: func() error { _, err := b.Transfer(keys[0], short, 1); return err },
			field: FieldTo,
			cause: solana.ErrInvalidKeyFormat,
		},
		{
			name:  "transfer both invalid",
			build: func() error { _, err := b.Transfer("", "", 0); return err },
			field: FieldFrom,
			cause: solana.ErrInvalidKeyFormat,
		},
		{
			name:  "initialize mint authority",
			build: func() error { _, err := b.InitializeMint("0OIl", keys[1], 99); return err },
			field: FieldMintAuthority,
			cause: solana.ErrDecode,
		},
		{
			name:  "initialize mint mint",
			build: func() error { _, err := b.InitializeMint(keys[0], short, 6); return err },
			field: FieldMint,
			cause: solana.ErrInvalidKeyFormat,
		},
		{
			name:  "mint to mint",
			build: func() error { _, err := b.MintTo("", keys[1], keys[2], 1); return err },
			field: FieldMint,
			cause: solana.ErrInvalidKeyFormat,
		},
		{
			name:  "mint to destination",
			build: func() error { _, err := b.MintTo(keys[0], short, keys[2], 1); return err },
			field: FieldDestination,
			cause: solana.ErrInvalidKeyFormat,
		},
		{
			name:  "mint to authority",
			build: func() error { _, err := b.MintTo(keys[0], keys[1], "bad!", 1); return err },
			field: FieldAuthority,
			cause: solana.ErrDecode,
		},
		{
			name:  "token transfer owner",
			build: func() error { _, err := b.TokenTransfer(short, keys[1], keys[2], 1); return err },
			field: FieldOwner,
			cause: solana.ErrInvalidKeyFormat,
		},
		{
			name:  "token transfer mint",
			build: func() error { _, err := b.TokenTransfer(keys[0], "bad!", keys[2], 1); return err },
			field: FieldMint,
			cause: solana.ErrDecode,
		},
		{
			name:  "token transfer destination",
			build: func() error { _, err := b.TokenTransfer(keys[0], keys[1], short, 1); return err },
			field: FieldDestination,
			cause: solana.ErrInvalidKeyFormat,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build()
			require.Error(t, err)

			var addrErr *InvalidAddressError
			require.True(t, errors.As(err, &addrErr))
			assert.Equal(t, tc.field, addrErr.Field)
			assert.True(t, errors.Is(err, tc.cause))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestAssociatedAccount_Cached(t *testing.T) {
	b := NewBuilder(WithDerivationCache(2))

	keys := generateRawKeys(t, 4)
	expected, err := token.GetAssociatedAccount(keys[0], keys[3])
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		actual, err := b.AssociatedAccount(keys[0], keys[3])
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}
	assert.Equal(t, 1, b.derivations.Len())

	// Mutating a returned address doesn't poison the cache.
	actual, err := b.AssociatedAccount(keys[0], keys[3])
	require.NoError(t, err)
	actual[0] ^= 0xff
	actual, err = b.AssociatedAccount(keys[0], keys[3])
	require.NoError(t, err)
	assert.Equal(t, expected, actual)

	_, err = b.AssociatedAccount(keys[1], keys[3])
	require.NoError(t, err)
	_, err = b.AssociatedAccount(keys[2], keys[3])
	require.NoError(t, err)
	assert.Equal(t, 2, b.derivations.Len())
	assert.Equal(t, 2, b.derivations.GetWeight())
}

func TestWithDerivationCache_Disabled(t *testing.T) {
	assert.Nil(t, NewBuilder(WithDerivationCache(0)).derivations)
	assert.Nil(t, NewBuilder().derivations)
}

func TestBuilder_Concurrent(t *testing.T) {
	b := NewBuilder(WithDerivationCache(8))
	keys := generateKeys(t, 3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < 25; j++ {
				ix, err := b.TokenTransfer(keys[0], keys[1], keys[2], uint64(j+1))
				assert.NoError(t, err)
				assert.Len(t, ix.Accounts, 3)
			}
		}()
	}
	wg.Wait()
}

func generateRawKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)
	for i := range keys {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}
	return keys
}

func generateKeys(t *testing.T, amount int) []string {
	raw := generateRawKeys(t, amount)

	keys := make([]string, amount)
	for i, key := range raw {
		keys[i] = solana.EncodeBase58(key)
	}
	return keys
}
