package token

import (
	"crypto/ed25519"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/solkit/pkg/solana"
	"github.com/code-payments/solkit/pkg/solana/binary"
	"github.com/code-payments/solkit/pkg/solana/system"
)

// ProgramKey is the address of the token program that should be used.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

// MaxDecimals is the largest decimal precision accepted for a new mint.
const MaxDecimals = 9

type Command byte

const (
	CommandInitializeMint Command = iota
	CommandInitializeAccount
	CommandInitializeMultisig
	CommandTransfer
	CommandApprove
	CommandRevoke
	CommandSetAuthority
	CommandMintTo
	CommandBurn
	CommandCloseAccount
	CommandFreezeAccount
	CommandThawAccount
	CommandTransfer2
	CommandApprove2
	CommandMintTo2
	CommandBurn2

	CommandUnknown = Command(math.MaxUint8)
)

const (
	initializeMintDataSize = 1 + 1 + ed25519.PublicKeySize + 1 + ed25519.PublicKeySize
	amountDataSize         = 1 + 8
)

// GetCommand returns the token command encoded in the instruction data.
func GetCommand(i solana.Instruction) (Command, error) {
	if !i.IsProgram(ProgramKey) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// InitializeMint sets the decimals and authorities of a freshly allocated mint.
//
// The mint is marked as a signer, since it is created alongside this instruction
// using its own keypair. A nil freezeAuthority encodes COption::None.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L29-L42
func InitializeMint(mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable, signer]` The mint to initialize.
	//   1. `[]` Rent sysvar
	//
	// InitializeMint {
	//   decimals: u8,
	//   mint_authority: Pubkey,
	//   freeze_authority: COption<Pubkey>,
	// }
	w := binary.NewWriter(initializeMintDataSize)
	w.PutUint8(byte(CommandInitializeMint))
	w.PutUint8(decimals)
	w.PutKey32(mintAuthority)
	w.PutOptionalKey32(freezeAuthority, 1, true)

	return solana.NewInstruction(
		ProgramKey,
		w.Bytes(),
		solana.NewAccountMeta(mint, true),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeMint struct {
	Mint            ed25519.PublicKey
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
	Decimals        byte
}

func DecompileInitializeMint(i solana.Instruction) (*DecompiledInitializeMint, error) {
	if err := checkCommand(i, CommandInitializeMint); err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !i.Accounts[1].PublicKey.Equal(system.RentSysVar) {
		return nil, errors.New("invalid rent program")
	}

	r := binary.NewReader(i.Data[1:])
	v := &DecompiledInitializeMint{
		Mint: i.Accounts[0].PublicKey,
	}

	var err error
	if v.Decimals, err = r.Uint8(); err != nil {
		return nil, errors.Wrap(err, "invalid decimals")
	}
	if v.MintAuthority, err = r.Key32(); err != nil {
		return nil, errors.Wrap(err, "invalid mint authority")
	}
	if v.FreezeAuthority, err = r.OptionalKey32(1, true); err != nil {
		return nil, errors.Wrap(err, "invalid freeze authority")
	}
	if r.Remaining() != 0 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return v, nil
}

// MintTo issues new tokens of mint into dest.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L141-L153
func MintTo(mint, dest, authority ed25519.PublicKey, amount uint64) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	return solana.NewInstruction(
		ProgramKey,
		amountData(CommandMintTo, amount),
		solana.NewAccountMeta(mint, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledMintTo struct {
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Authority   ed25519.PublicKey
	Amount      uint64
}

func DecompileMintTo(i solana.Instruction) (*DecompiledMintTo, error) {
	if err := checkCommand(i, CommandMintTo); err != nil {
		return nil, err
	}

	// note: we do < 3 instead of != 3 in order to support multisig cases.
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	amount, err := decodeAmount(i)
	if err != nil {
		return nil, err
	}

	return &DecompiledMintTo{
		Mint:        i.Accounts[0].PublicKey,
		Destination: i.Accounts[1].PublicKey,
		Authority:   i.Accounts[2].PublicKey,
		Amount:      amount,
	}, nil
}

// Transfer moves tokens between two token accounts of the same mint.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L76-L91
func Transfer(source, dest, owner ed25519.PublicKey, amount uint64) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[writable]` The destination account.
	//   2. `[signer]` The source account's owner/delegate.
	return solana.NewInstruction(
		ProgramKey,
		amountData(CommandTransfer, amount),
		solana.NewAccountMeta(source, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type DecompiledTransfer struct {
	Source      ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
	Amount      uint64
}

func DecompileTransfer(i solana.Instruction) (*DecompiledTransfer, error) {
	if err := checkCommand(i, CommandTransfer); err != nil {
		return nil, err
	}

	// note: we do < 3 instead of != 3 in order to support multisig cases.
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	amount, err := decodeAmount(i)
	if err != nil {
		return nil, err
	}

	return &DecompiledTransfer{
		Source:      i.Accounts[0].PublicKey,
		Destination: i.Accounts[1].PublicKey,
		Owner:       i.Accounts[2].PublicKey,
		Amount:      amount,
	}, nil
}

func amountData(cmd Command, amount uint64) []byte {
	w := binary.NewWriter(amountDataSize)
	w.PutUint8(byte(cmd))
	w.PutUint64(amount)
	return w.Bytes()
}

func decodeAmount(i solana.Instruction) (uint64, error) {
	if len(i.Data) != amountDataSize {
		return 0, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	return binary.NewReader(i.Data[1:]).Uint64()
}

func checkCommand(i solana.Instruction, expected Command) error {
	if !i.IsProgram(ProgramKey) {
		return solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 || Command(i.Data[0]) != expected {
		return solana.ErrIncorrectInstruction
	}
	return nil
}
