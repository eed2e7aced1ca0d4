package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/solkit/pkg/instruction"
	"github.com/code-payments/solkit/pkg/solana"
	"github.com/code-payments/solkit/pkg/solana/token"
)

const (
	testWallet = "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM"
	testMint   = "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh"
	testATA    = "H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ"
)

func run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, dst any, args ...string) {
	out, err := run(t, nil, args...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), dst))
}

func withRandSource(t *testing.T, r io.Reader) {
	original := randSource
	randSource = r
	t.Cleanup(func() {
		randSource = original
	})
}

func TestKeygen(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	withRandSource(t, bytes.NewReader(seed))

	var out keypairOutput
	runJSON(t, &out, "keygen")

	expected := ed25519.NewKeyFromSeed(seed)
	assert.Equal(t, solana.EncodeBase58(expected.Public().(ed25519.PublicKey)), out.PublicKey)
	assert.Equal(t, solana.EncodeBase58(expected), out.Secret)
	assert.Empty(t, out.Mnemonic)
	assert.Empty(t, out.Outfile)
}

func TestKeygen_Outfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")

	var out keypairOutput
	runJSON(t, &out, "keygen", "--outfile", path)
	assert.Empty(t, out.Secret)
	assert.Equal(t, path, out.Outfile)

	pubkey, err := run(t, nil, "pubkey", path)
	require.NoError(t, err)
	assert.Equal(t, out.PublicKey, strings.TrimSpace(pubkey))

	_, err = run(t, nil, "keygen", "--outfile", path)
	assert.Error(t, err)

	var overwritten keypairOutput
	runJSON(t, &overwritten, "keygen", "--outfile", path, "--force")
	assert.NotEqual(t, out.PublicKey, overwritten.PublicKey)

	pubkey, err = run(t, nil, "pubkey", path)
	require.NoError(t, err)
	assert.Equal(t, overwritten.PublicKey, strings.TrimSpace(pubkey))
}

func TestKeygen_Mnemonic(t *testing.T) {
	for _, path := range []string{"", solana.DefaultDerivationPath} {
		var generated keypairOutput
		runJSON(t, &generated, "keygen", "--words", "12", "--derivation-path", path)
		assert.Len(t, strings.Fields(generated.Mnemonic), 12)

		var recovered keypairOutput
		runJSON(t, &recovered, "recover", generated.Mnemonic, "--derivation-path", path)
		assert.Equal(t, generated.PublicKey, recovered.PublicKey)
		assert.Equal(t, generated.Secret, recovered.Secret)

		out, err := run(t, strings.NewReader(generated.Mnemonic+"\n"), "recover", "--derivation-path", path)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal([]byte(out), &recovered))
		assert.Equal(t, generated.PublicKey, recovered.PublicKey)
	}

	var withPassphrase keypairOutput
	runJSON(t, &withPassphrase, "keygen", "--words", "24", "--passphrase", "hunter2")
	assert.Len(t, strings.Fields(withPassphrase.Mnemonic), 24)

	var recovered keypairOutput
	runJSON(t, &recovered, "recover", withPassphrase.Mnemonic)
	assert.NotEqual(t, withPassphrase.PublicKey, recovered.PublicKey)

	_, err := run(t, nil, "keygen", "--words", "13")
	assert.Error(t, err)

	_, err = run(t, nil, "recover", "not a valid mnemonic")
	assert.True(t, errors.Is(err, solana.ErrInvalidSecretKey))
}

func TestSignAndVerify(t *testing.T) {
	var kp keypairOutput
	runJSON(t, &kp, "keygen")

	var signed signOutput
	runJSON(t, &signed, "sign", "hello", "--secret", kp.Secret)
	assert.Equal(t, kp.PublicKey, signed.PublicKey)
	assert.Equal(t, "hello", signed.Message)

	var verified verifyOutput
	runJSON(t, &verified, "verify", kp.PublicKey, signed.Signature, "hello")
	assert.True(t, verified.Valid)

	out, err := run(t, nil, "verify", kp.PublicKey, signed.Signature, "hellx")
	assert.Equal(t, errInvalidSignature, err)
	require.NoError(t, json.Unmarshal([]byte(out), &verified))
	assert.False(t, verified.Valid)

	_, err = run(t, nil, "verify", "bad!", signed.Signature, "hello")
	assert.True(t, errors.Is(err, solana.ErrDecode))

	_, err = run(t, nil, "verify", kp.PublicKey, solana.EncodeBase58(make([]byte, 63)), "hello")
	assert.True(t, errors.Is(err, solana.ErrInvalidKeyFormat))
}

func TestSign_Keypair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")

	var kp keypairOutput
	runJSON(t, &kp, "keygen", "-o", path)

	var fromFile signOutput
	runJSON(t, &fromFile, "sign", "hello", "--keypair", path)
	assert.Equal(t, kp.PublicKey, fromFile.PublicKey)

	loaded, err := solana.LoadKeypairFile(path)
	require.NoError(t, err)
	assert.Equal(t, loaded.Sign([]byte("hello")).ToBase58(), fromFile.Signature)

	_, err = run(t, nil, "sign", "hello")
	assert.Error(t, err)

	_, err = run(t, nil, "sign", "hello", "--keypair", path, "--secret", loaded.SecretToBase58())
	assert.Error(t, err)

	_, err = run(t, nil, "sign", "hello", "--secret", solana.EncodeBase58(make([]byte, 10)))
	assert.True(t, errors.Is(err, solana.ErrInvalidSecretKey))

	require.NoError(t, os.WriteFile(path, []byte("[1,2,3]"), 0600))
	_, err = run(t, nil, "pubkey", path)
	assert.True(t, errors.Is(err, solana.ErrInvalidSecretKey))
}

func TestDerive(t *testing.T) {
	program := token.AssociatedTokenAccountProgramKey

	var out addressOutput
	runJSON(t, &out, "derive", solana.EncodeBase58(program), "escrow", "v1")

	expected, bump, err := solana.FindProgramAddressAndBump(program, []byte("escrow"), []byte("v1"))
	require.NoError(t, err)
	assert.Equal(t, solana.EncodeBase58(expected), out.Address)
	assert.Equal(t, bump, out.Bump)

	runJSON(t, &out, "derive", solana.EncodeBase58(program), "--seed-encoding", "hex", "657363726f77", "7631")
	assert.Equal(t, solana.EncodeBase58(expected), out.Address)

	_, err = run(t, nil, "derive", solana.EncodeBase58(program), "--seed-encoding", "hex", "zz")
	assert.Error(t, err)

	_, err = run(t, nil, "derive", solana.EncodeBase58(program), "--seed-encoding", "rot13", "a")
	assert.Error(t, err)

	_, err = run(t, nil, "derive", solana.EncodeBase58(program), strings.Repeat("a", 33))
	assert.True(t, errors.Is(err, solana.ErrMaxSeedLengthExceeded))
}

func TestATA(t *testing.T) {
	var out addressOutput
	runJSON(t, &out, "ata", testWallet, testMint)
	assert.Equal(t, testATA, out.Address)

	_, err := run(t, nil, "ata", testWallet, "bad!")
	assert.True(t, errors.Is(err, solana.ErrDecode))
}

func TestBuildAndDecode(t *testing.T) {
	keys := make([]string, 3)
	for i := range keys {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = solana.EncodeBase58(pub)
	}

	for _, tc := range []struct {
		args     []string
		expected map[string]any
	}{
		{
			args: []string{"build", "transfer", "--from", keys[0], "--to", keys[1], "--lamports", "1000"},
			expected: map[string]any{
				"program":     "system",
				"instruction": "transfer",
				"from":        keys[0],
				"to":          keys[1],
				"lamports":    float64(1000),
			},
		},
		{
			args: []string{"build", "create-mint", "--mint-authority", keys[0], "--mint", keys[1], "--decimals", "6"},
			expected: map[string]any{
				"program":          "token",
				"instruction":      "initialize_mint",
				"mint":             keys[1],
				"mint_authority":   keys[0],
				"freeze_authority": keys[0],
				"decimals":         float64(6),
			},
		},
		{
			args: []string{"build", "mint-to", "--mint", keys[0], "--destination", keys[1], "--authority", keys[2], "--amount", "5"},
			expected: map[string]any{
				"program":     "token",
				"instruction": "mint_to",
				"mint":        keys[0],
				"destination": keys[1],
				"authority":   keys[2],
				"amount":      float64(5),
			},
		},
		{
			args: []string{"build", "token-transfer", "--owner", testWallet, "--mint", testMint, "--destination", testWallet, "--amount", "42"},
			expected: map[string]any{
				"program":     "token",
				"instruction": "transfer",
				"source":      testATA,
				"destination": testATA,
				"owner":       testWallet,
				"amount":      float64(42),
			},
		},
	} {
		built, err := run(t, nil, tc.args...)
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "ix.json")
		require.NoError(t, os.WriteFile(path, []byte(built), 0600))

		for _, source := range []struct {
			stdin io.Reader
			args  []string
		}{
			{nil, []string{"decode", path}},
			{strings.NewReader(built), []string{"decode"}},
		} {
			out, err := run(t, source.stdin, source.args...)
			require.NoError(t, err)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &decoded))
			assert.Equal(t, tc.expected, decoded)
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	key := solana.EncodeBase58(pub)

	_, err = run(t, nil, "build", "transfer", "--from", key, "--to", key)
	assert.Equal(t, instruction.ErrInvalidAmount, err)

	_, err = run(t, nil, "build", "create-mint", "--mint-authority", key, "--mint", key, "--decimals", "10")
	assert.True(t, errors.Is(err, instruction.ErrInvalidDecimals))

	_, err = run(t, nil, "build", "mint-to", "--mint", key, "--destination", "bad!", "--authority", key, "--amount", "1")
	var addrErr *instruction.InvalidAddressError
	require.True(t, errors.As(err, &addrErr))
	assert.Equal(t, instruction.FieldDestination, addrErr.Field)
}

func TestDecode_Unsupported(t *testing.T) {
	program := solana.EncodeBase58(token.AssociatedTokenAccountProgramKey)

	_, err := run(t, strings.NewReader(`{"program_id":"`+program+`","accounts":[],"instruction_data":""}`), "decode")
	assert.True(t, errors.Is(err, solana.ErrIncorrectProgram))

	_, err = run(t, strings.NewReader(`{"program_id":"`+solana.EncodeBase58(token.ProgramKey)+`","accounts":[],"instruction_data":"CQ=="}`), "decode")
	assert.True(t, errors.Is(err, solana.ErrIncorrectInstruction))

	_, err = run(t, strings.NewReader(`not json`), "decode")
	assert.Error(t, err)
}

func TestVersionMiddleware(t *testing.T) {
	h := versionMiddleware("v1.2.3")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "v1.2.3", w.Header().Get(versionHeader))
}
