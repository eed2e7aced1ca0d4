package system

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/solkit/pkg/solana"
	"github.com/code-payments/solkit/pkg/solana/binary"
)

// ProgramKey is the address of the system program.
//
// Current key: 11111111111111111111111111111111
var ProgramKey = make(ed25519.PublicKey, ed25519.PublicKeySize)

type Command uint32

const (
	CommandCreateAccount Command = iota
	CommandAssign
	CommandTransfer
	CommandCreateAccountWithSeed
	CommandAdvanceNonceAccount
	CommandWithdrawNonceAccount
	CommandInitializeNonceAccount
	CommandAuthorizeNonceAccount
	CommandAllocate
	CommandAllocateWithSeed
	CommandAssignWithSeed
	CommandTransferWithSeed
)

const transferDataSize = 4 + 8

// Transfer moves lamports between two system owned accounts.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L92-L96
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	//
	// Transfer {
	//   lamports: u64,
	// }
	w := binary.NewWriter(transferDataSize)
	w.PutUint32(uint32(CommandTransfer))
	w.PutUint64(lamports)

	return solana.NewInstruction(
		ProgramKey,
		w.Bytes(),
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecompiledTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

func DecompileTransfer(i solana.Instruction) (*DecompiledTransfer, error) {
	if !i.IsProgram(ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}

	cmd, err := GetCommand(i)
	if err != nil || cmd != CommandTransfer {
		return nil, solana.ErrIncorrectInstruction
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != transferDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	r := binary.NewReader(i.Data[4:])
	lamports, err := r.Uint64()
	if err != nil {
		return nil, err
	}

	return &DecompiledTransfer{
		From:     i.Accounts[0].PublicKey,
		To:       i.Accounts[1].PublicKey,
		Lamports: lamports,
	}, nil
}

// GetCommand returns the system command encoded in the instruction data.
func GetCommand(i solana.Instruction) (Command, error) {
	if !i.IsProgram(ProgramKey) {
		return 0, solana.ErrIncorrectProgram
	}

	cmd, err := binary.NewReader(i.Data).Uint32()
	if err != nil {
		return 0, errors.Wrap(err, "missing data")
	}
	return Command(cmd), nil
}
