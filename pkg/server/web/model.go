package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

const maxRequestBodySize = 64 * 1024

type createTokenRequest struct {
	MintAuthority string `json:"mintAuthority"`
	Mint          string `json:"mint"`
	Decimals      *uint8 `json:"decimals"`
}

type mintTokenRequest struct {
	Mint        string `json:"mint"`
	Destination string `json:"destination"`
	Authority   string `json:"authority"`
	Amount      uint64 `json:"amount"`
}

type signMessageRequest struct {
	Message *string `json:"message"`
	Secret  string  `json:"secret"`
}

type verifyMessageRequest struct {
	Message   *string `json:"message"`
	Signature string  `json:"signature"`
	PublicKey string  `json:"pubkey"`
}

type sendSolRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Lamports uint64 `json:"lamports"`
}

type sendTokenRequest struct {
	Destination string `json:"destination"`
	Mint        string `json:"mint"`
	Owner       string `json:"owner"`
	Amount      uint64 `json:"amount"`
}

type deriveRequest struct {
	ProgramID string   `json:"program_id"`
	Seeds     []string `json:"seeds"`
}

type keypairView struct {
	PublicKey string `json:"pubkey"`
	Secret    string `json:"secret"`
}

type signView struct {
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
	Message   string `json:"message"`
}

type verifyView struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message"`
	PublicKey string `json:"pubkey"`
}

type deriveView struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

// decodeJsonBody reads a single JSON object from the request body into dst.
// Unknown fields are ignored.
func decodeJsonBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	return decoder.Decode(dst)
}
