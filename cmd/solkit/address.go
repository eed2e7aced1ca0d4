package main

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/solkit/pkg/solana"
	"github.com/code-payments/solkit/pkg/solana/token"
)

const (
	seedEncodingUTF8   = "utf8"
	seedEncodingHex    = "hex"
	seedEncodingBase58 = "base58"
	seedEncodingBase64 = "base64"
)

type addressOutput struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

func newDeriveCmd() *cobra.Command {
	var encoding string

	cmd := &cobra.Command{
		Use:   "derive <program-id> [seed...]",
		Short: "Find a program derived address",
		Long: `Finds the program derived address for the given seeds, searching bump
seeds from 255 downwards. Seeds are UTF-8 text unless --seed-encoding
says otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid program id")
			}

			seeds := make([][]byte, len(args)-1)
			for i, arg := range args[1:] {
				seeds[i], err = decodeSeed(arg, encoding)
				if err != nil {
					return errors.Wrapf(err, "invalid seed %d", i)
				}
			}

			address, bump, err := solana.FindProgramAddressAndBump(program, seeds...)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), addressOutput{
				Address: solana.EncodeBase58(address),
				Bump:    bump,
			})
		},
	}

	cmd.Flags().StringVar(&encoding, "seed-encoding", seedEncodingUTF8, "seed encoding: utf8, hex, base58 or base64")

	return cmd
}

func newATACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ata <owner> <mint>",
		Short: "Find the associated token account of an owner and mint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid owner")
			}
			mint, err := solana.ParsePublicKey(args[1])
			if err != nil {
				return errors.Wrap(err, "invalid mint")
			}

			address, bump, err := token.GetAssociatedAccountAndBump(owner, mint)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), addressOutput{
				Address: solana.EncodeBase58(address),
				Bump:    bump,
			})
		},
	}
}

func decodeSeed(value, encoding string) ([]byte, error) {
	switch encoding {
	case seedEncodingUTF8:
		return []byte(value), nil
	case seedEncodingHex:
		return hex.DecodeString(value)
	case seedEncodingBase58:
		return solana.DecodeBase58(value)
	case seedEncodingBase64:
		return solana.DecodeBase64(value)
	default:
		return nil, errors.Errorf("unsupported seed encoding: %s", encoding)
	}
}
