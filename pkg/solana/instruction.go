package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta describes how an instruction touches a single account.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta creates a new AccountMeta representing a writable
// account.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a new AccountMeta representing a readonly
// account.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// Instruction is an unsigned description of a single call into a program.
//
// It carries no fee payer, blockhash or signatures. Account order is
// significant and defined by the program being invoked.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// IsProgram reports whether the instruction targets program.
func (i Instruction) IsProgram(program ed25519.PublicKey) bool {
	return bytes.Equal(i.Program, program)
}

// Signers returns the public keys of all accounts that must sign.
func (i Instruction) Signers() []ed25519.PublicKey {
	var signers []ed25519.PublicKey
	for _, a := range i.Accounts {
		if a.IsSigner {
			signers = append(signers, a.PublicKey)
		}
	}
	return signers
}
