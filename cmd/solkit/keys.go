package main

import (
	"bufio"
	"crypto/rand"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/solkit/pkg/solana"
)

var randSource io.Reader = rand.Reader

var errInvalidSignature = errors.New("signature is not valid")

type keypairOutput struct {
	PublicKey string `json:"pubkey"`
	Secret    string `json:"secret,omitempty"`
	Mnemonic  string `json:"mnemonic,omitempty"`
	Outfile   string `json:"outfile,omitempty"`
}

type signOutput struct {
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
	Message   string `json:"message"`
}

type verifyOutput struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message"`
	PublicKey string `json:"pubkey"`
}

func newKeygenCmd() *cobra.Command {
	var (
		outfile    string
		force      bool
		words      int
		passphrase string
		path       string
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new keypair",
		Long: `Generates a new ed25519 keypair. With --words, the keypair is derived
from a freshly generated BIP-39 mnemonic, which is printed so the key
can be recovered later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				kp       *solana.Keypair
				mnemonic string
				err      error
			)

			if words > 0 {
				if words%3 != 0 {
					return errors.Errorf("invalid word count: %d", words)
				}

				mnemonic, err = solana.NewMnemonic(randSource, words/3*32)
				if err != nil {
					return err
				}

				kp, err = solana.NewKeypairFromMnemonic(mnemonic, passphrase, path)
			} else {
				kp, err = solana.GenerateKeypair(randSource)
			}
			if err != nil {
				return err
			}

			out := keypairOutput{
				PublicKey: kp.ToBase58(),
				Mnemonic:  mnemonic,
			}
			if err := writeKeypair(kp, outfile, force, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&outfile, "outfile", "o", "", "write the keypair to this file instead of printing the secret")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing outfile")
	cmd.Flags().IntVar(&words, "words", 0, "derive from a new mnemonic with this many words (12, 15, 18, 21 or 24)")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "mnemonic passphrase")
	cmd.Flags().StringVar(&path, "derivation-path", "", "SLIP-0010 derivation path, for example "+solana.DefaultDerivationPath)

	return cmd
}

func newRecoverCmd() *cobra.Command {
	var (
		outfile    string
		force      bool
		passphrase string
		path       string
	)

	cmd := &cobra.Command{
		Use:   "recover [mnemonic]",
		Short: "Recover a keypair from a BIP-39 mnemonic",
		Long: `Recovers a keypair from a BIP-39 mnemonic. When no mnemonic argument is
given, it is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mnemonic string
			if len(args) > 0 {
				mnemonic = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return errors.Wrap(err, "error reading mnemonic")
				}
				mnemonic = line
			}

			kp, err := solana.NewKeypairFromMnemonic(strings.Join(strings.Fields(mnemonic), " "), passphrase, path)
			if err != nil {
				return err
			}

			out := keypairOutput{PublicKey: kp.ToBase58()}
			if err := writeKeypair(kp, outfile, force, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&outfile, "outfile", "o", "", "write the keypair to this file instead of printing the secret")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing outfile")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "mnemonic passphrase")
	cmd.Flags().StringVar(&path, "derivation-path", "", "SLIP-0010 derivation path, for example "+solana.DefaultDerivationPath)

	return cmd
}

func newPubkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pubkey <keypair-file>",
		Short: "Print the public key of a keypair file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := solana.LoadKeypairFile(args[0])
			if err != nil {
				return err
			}

			_, err = io.WriteString(cmd.OutOrStdout(), kp.ToBase58()+"\n")
			return err
		},
	}
}

func newSignCmd() *cobra.Command {
	var (
		keypairPath string
		secret      string
	)

	cmd := &cobra.Command{
		Use:   "sign <message>",
		Short: "Sign a UTF-8 message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := loadSigner(keypairPath, secret)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), signOutput{
				Signature: kp.Sign([]byte(args[0])).ToBase58(),
				PublicKey: kp.ToBase58(),
				Message:   args[0],
			})
		},
	}

	cmd.Flags().StringVarP(&keypairPath, "keypair", "k", "", "keypair file")
	cmd.Flags().StringVar(&secret, "secret", "", "base58 or base64 secret key")

	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <pubkey> <signature> <message>",
		Short: "Verify a signature over a UTF-8 message",
		Long: `Verifies a base58 signature. The result is printed either way, and the
command fails when the signature is not valid.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid public key")
			}
			sig, err := solana.ParseSignature(args[1])
			if err != nil {
				return errors.Wrap(err, "invalid signature")
			}

			valid := solana.Verify(pub, []byte(args[2]), sig)
			if err := printJSON(cmd.OutOrStdout(), verifyOutput{
				Valid:     valid,
				Message:   args[2],
				PublicKey: args[0],
			}); err != nil {
				return err
			}

			if !valid {
				return errInvalidSignature
			}
			return nil
		},
	}
}

func loadSigner(keypairPath, secret string) (*solana.Keypair, error) {
	switch {
	case len(keypairPath) > 0 && len(secret) > 0:
		return nil, errors.New("only one of --keypair and --secret may be set")
	case len(keypairPath) > 0:
		return solana.LoadKeypairFile(keypairPath)
	case len(secret) > 0:
		return solana.NewKeypairFromSecretString(secret)
	default:
		return nil, errors.New("one of --keypair or --secret is required")
	}
}

func writeKeypair(kp *solana.Keypair, outfile string, force bool, out *keypairOutput) error {
	if len(outfile) == 0 {
		out.Secret = kp.SecretToBase58()
		return nil
	}

	if !force {
		if _, err := os.Stat(outfile); err == nil {
			return errors.Errorf("%s already exists, use --force to overwrite", outfile)
		} else if !os.IsNotExist(err) {
			return errors.Wrap(err, "error checking outfile")
		}
	}

	if err := kp.WriteFile(outfile); err != nil {
		return err
	}

	out.Outfile = outfile
	return nil
}
