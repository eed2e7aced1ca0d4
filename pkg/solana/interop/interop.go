// Package interop converts instruction descriptors to and from the types used by
// the gagliardetto/solana-go and blocto/solana-go-sdk client libraries, so that
// callers assembling transactions with either library can consume them directly.
package interop

import (
	"crypto/ed25519"

	bloctocommon "github.com/blocto/solana-go-sdk/common"
	bloctotypes "github.com/blocto/solana-go-sdk/types"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/code-payments/solkit/pkg/solana"
)

// ToSolanaGo converts an instruction into a solana-go instruction.
func ToSolanaGo(i solana.Instruction) solanago.Instruction {
	accounts := make(solanago.AccountMetaSlice, len(i.Accounts))
	for idx, a := range i.Accounts {
		accounts[idx] = solanago.NewAccountMeta(solanago.PublicKeyFromBytes(a.PublicKey), a.IsWritable, a.IsSigner)
	}

	data := make([]byte, len(i.Data))
	copy(data, i.Data)

	return solanago.NewInstruction(solanago.PublicKeyFromBytes(i.Program), accounts, data)
}

// FromSolanaGo converts a solana-go instruction into an instruction.
func FromSolanaGo(i solanago.Instruction) (solana.Instruction, error) {
	data, err := i.Data()
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error encoding instruction data")
	}

	program := i.ProgramID()
	metas := i.Accounts()
	accounts := make([]solana.AccountMeta, len(metas))
	for idx, a := range metas {
		if a == nil {
			return solana.Instruction{}, errors.Errorf("nil account at index %d", idx)
		}

		accounts[idx] = solana.AccountMeta{
			PublicKey:  toKey(a.PublicKey[:]),
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		}
	}

	return solana.NewInstruction(toKey(program[:]), data, accounts...), nil
}

// ToBlocto converts an instruction into a solana-go-sdk instruction.
func ToBlocto(i solana.Instruction) bloctotypes.Instruction {
	accounts := make([]bloctotypes.AccountMeta, len(i.Accounts))
	for idx, a := range i.Accounts {
		accounts[idx] = bloctotypes.AccountMeta{
			PubKey:     bloctocommon.PublicKeyFromBytes(a.PublicKey),
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		}
	}

	data := make([]byte, len(i.Data))
	copy(data, i.Data)

	return bloctotypes.Instruction{
		ProgramID: bloctocommon.PublicKeyFromBytes(i.Program),
		Accounts:  accounts,
		Data:      data,
	}
}

// FromBlocto converts a solana-go-sdk instruction into an instruction.
func FromBlocto(i bloctotypes.Instruction) solana.Instruction {
	accounts := make([]solana.AccountMeta, len(i.Accounts))
	for idx, a := range i.Accounts {
		accounts[idx] = solana.AccountMeta{
			PublicKey:  toKey(a.PubKey[:]),
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		}
	}

	data := make([]byte, len(i.Data))
	copy(data, i.Data)

	return solana.NewInstruction(toKey(i.ProgramID[:]), data, accounts...)
}

func toKey(b []byte) ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, b)
	return key
}
