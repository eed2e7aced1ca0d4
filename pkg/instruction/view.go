package instruction

import (
	"github.com/pkg/errors"

	"github.com/code-payments/solkit/pkg/solana"
)

// AccountView is the JSON form of an account reference.
type AccountView struct {
	PublicKey  string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

// View is the JSON form of an instruction. Keys are base58 and the data is
// base64.
type View struct {
	ProgramID       string        `json:"program_id"`
	Accounts        []AccountView `json:"accounts"`
	InstructionData string        `json:"instruction_data"`
}

func NewView(ix solana.Instruction) View {
	accounts := make([]AccountView, len(ix.Accounts))
	for i, a := range ix.Accounts {
		accounts[i] = AccountView{
			PublicKey:  solana.EncodeBase58(a.PublicKey),
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		}
	}

	return View{
		ProgramID:       solana.EncodeBase58(ix.Program),
		Accounts:        accounts,
		InstructionData: solana.EncodeBase64(ix.Data),
	}
}

// ToInstruction parses the view back into an instruction.
func (v View) ToInstruction() (solana.Instruction, error) {
	program, err := solana.ParsePublicKey(v.ProgramID)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "invalid program id")
	}

	data, err := solana.DecodeBase64(v.InstructionData)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "invalid instruction data")
	}

	accounts := make([]solana.AccountMeta, len(v.Accounts))
	for i, a := range v.Accounts {
		pub, err := solana.ParsePublicKey(a.PublicKey)
		if err != nil {
			return solana.Instruction{}, errors.Wrapf(err, "invalid account %d", i)
		}

		accounts[i] = solana.AccountMeta{
			PublicKey:  pub,
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		}
	}

	return solana.NewInstruction(program, data, accounts...), nil
}
