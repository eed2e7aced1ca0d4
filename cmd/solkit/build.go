package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/solkit/pkg/instruction"
	"github.com/code-payments/solkit/pkg/solana"
	"github.com/code-payments/solkit/pkg/solana/system"
	"github.com/code-payments/solkit/pkg/solana/token"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build unsigned instructions",
		Long: `Builds a single unsigned instruction and prints it as JSON, with base58
keys and base64 instruction data.`,
	}

	cmd.AddCommand(
		newBuildTransferCmd(),
		newBuildCreateMintCmd(),
		newBuildMintToCmd(),
		newBuildTokenTransferCmd(),
	)

	return cmd
}

func newBuildTransferCmd() *cobra.Command {
	var (
		from     string
		to       string
		lamports uint64
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "System program SOL transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := instruction.NewBuilder().Transfer(from, to, lamports)
			return printInstruction(cmd.OutOrStdout(), ix, err)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "sender")
	cmd.Flags().StringVar(&to, "to", "", "recipient")
	cmd.Flags().Uint64Var(&lamports, "lamports", 0, "amount in lamports")

	return cmd
}

func newBuildCreateMintCmd() *cobra.Command {
	var (
		mintAuthority string
		mint          string
		decimals      uint8
	)

	cmd := &cobra.Command{
		Use:   "create-mint",
		Short: "SPL token InitializeMint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := instruction.NewBuilder().InitializeMint(mintAuthority, mint, decimals)
			return printInstruction(cmd.OutOrStdout(), ix, err)
		},
	}

	cmd.Flags().StringVar(&mintAuthority, "mint-authority", "", "mint and freeze authority")
	cmd.Flags().StringVar(&mint, "mint", "", "mint account")
	cmd.Flags().Uint8Var(&decimals, "decimals", 0, "number of decimals, at most 9")

	return cmd
}

func newBuildMintToCmd() *cobra.Command {
	var (
		mint        string
		destination string
		authority   string
		amount      uint64
	)

	cmd := &cobra.Command{
		Use:   "mint-to",
		Short: "SPL token MintTo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := instruction.NewBuilder().MintTo(mint, destination, authority, amount)
			return printInstruction(cmd.OutOrStdout(), ix, err)
		},
	}

	cmd.Flags().StringVar(&mint, "mint", "", "mint account")
	cmd.Flags().StringVar(&destination, "destination", "", "destination token account")
	cmd.Flags().StringVar(&authority, "authority", "", "mint authority")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount in base units")

	return cmd
}

func newBuildTokenTransferCmd() *cobra.Command {
	var (
		owner       string
		mint        string
		destination string
		amount      uint64
	)

	cmd := &cobra.Command{
		Use:   "token-transfer",
		Short: "SPL token Transfer between associated token accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := instruction.NewBuilder().TokenTransfer(owner, mint, destination, amount)
			return printInstruction(cmd.OutOrStdout(), ix, err)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "source wallet")
	cmd.Flags().StringVar(&mint, "mint", "", "mint account")
	cmd.Flags().StringVar(&destination, "destination", "", "destination wallet")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount in base units")

	return cmd
}

func printInstruction(w io.Writer, ix solana.Instruction, err error) error {
	if err != nil {
		return err
	}
	return printJSON(w, instruction.NewView(ix))
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode an instruction printed by build",
		Long: `Decodes a system transfer, or an SPL token InitializeMint, MintTo or
Transfer instruction. The instruction JSON is read from the file, or from
stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if len(args) > 0 {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrap(err, "error opening instruction file")
				}
				defer f.Close()
				r = f
			}

			var view instruction.View
			if err := json.NewDecoder(r).Decode(&view); err != nil {
				return errors.Wrap(err, "error decoding instruction json")
			}

			ix, err := view.ToInstruction()
			if err != nil {
				return err
			}

			decoded, err := decodeInstruction(ix)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), decoded)
		},
	}
}

func decodeInstruction(ix solana.Instruction) (map[string]any, error) {
	switch {
	case ix.IsProgram(system.ProgramKey):
		transfer, err := system.DecompileTransfer(ix)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"program":     "system",
			"instruction": "transfer",
			"from":        solana.EncodeBase58(transfer.From),
			"to":          solana.EncodeBase58(transfer.To),
			"lamports":    transfer.Lamports,
		}, nil

	case ix.IsProgram(token.ProgramKey):
		cmd, err := token.GetCommand(ix)
		if err != nil {
			return nil, err
		}

		switch cmd {
		case token.CommandInitializeMint:
			mint, err := token.DecompileInitializeMint(ix)
			if err != nil {
				return nil, err
			}

			decoded := map[string]any{
				"program":        "token",
				"instruction":    "initialize_mint",
				"mint":           solana.EncodeBase58(mint.Mint),
				"mint_authority": solana.EncodeBase58(mint.MintAuthority),
				"decimals":       mint.Decimals,
			}
			if mint.FreezeAuthority != nil {
				decoded["freeze_authority"] = solana.EncodeBase58(mint.FreezeAuthority)
			}
			return decoded, nil

		case token.CommandMintTo:
			mintTo, err := token.DecompileMintTo(ix)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"program":     "token",
				"instruction": "mint_to",
				"mint":        solana.EncodeBase58(mintTo.Mint),
				"destination": solana.EncodeBase58(mintTo.Destination),
				"authority":   solana.EncodeBase58(mintTo.Authority),
				"amount":      mintTo.Amount,
			}, nil

		case token.CommandTransfer:
			transfer, err := token.DecompileTransfer(ix)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"program":     "token",
				"instruction": "transfer",
				"source":      solana.EncodeBase58(transfer.Source),
				"destination": solana.EncodeBase58(transfer.Destination),
				"owner":       solana.EncodeBase58(transfer.Owner),
				"amount":      transfer.Amount,
			}, nil

		default:
			return nil, errors.Wrapf(solana.ErrIncorrectInstruction, "unsupported token command %d", cmd)
		}

	default:
		return nil, errors.Wrapf(solana.ErrIncorrectProgram, "unsupported program %s", solana.EncodeBase58(ix.Program))
	}
}
