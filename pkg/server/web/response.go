package web

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/code-payments/solkit/pkg/instruction"
	"github.com/code-payments/solkit/pkg/solana"
)

const (
	successJsonKey = "success"
	dataJsonKey    = "data"
	errorJsonKey   = "error"

	contentTypeHeaderName      = "content-type"
	jsonContentTypeHeaderValue = "application/json"
)

var (
	errNotFound         = errors.New("Not found")
	errPostExpected     = errors.New("http post expected")
	errGetExpected      = errors.New("http get expected")
	errInvalidJsonBody  = errors.New("Invalid JSON body")
	errMissingFields    = errors.New("Missing required fields")
	errRateLimited      = errors.New("Too many requests")
	errInternal         = errors.New("Internal server error")
	errInvalidSecretKey = errors.New("Invalid secret key")
	errInvalidSecretFmt = errors.New("Invalid secret key format")
	errInvalidPublicKey = errors.New("Invalid public key format")
	errInvalidSignature = errors.New("Invalid signature")
	errInvalidSigFormat = errors.New("Invalid signature format")
	errInvalidProgramID = errors.New("Invalid program id")
	errInvalidSeed      = errors.New("Invalid seed encoding")
	errInvalidSeeds     = errors.New("Invalid seeds")
	errNoValidAddress   = errors.New("Unable to find a valid program address")
	errInvalidAmount    = errors.New("Amount must be greater than zero")
	errInvalidDecimals  = errors.New("Decimals cannot exceed 9")
)

// Labels used in user-facing address errors, keyed by builder field.
var fieldLabels = map[string]string{
	instruction.FieldFrom:          "sender",
	instruction.FieldTo:            "recipient",
	instruction.FieldMint:          "mint",
	instruction.FieldMintAuthority: "mint authority",
	instruction.FieldDestination:   "destination",
	instruction.FieldAuthority:     "authority",
	instruction.FieldOwner:         "owner",
}

type GenericApiResponseBody map[string]any

func NewGenericApiSuccessResponseBody(data any) GenericApiResponseBody {
	body := map[string]any{
		successJsonKey: true,
	}
	if data != nil {
		body[dataJsonKey] = data
	}
	return body
}

func NewGenericApiFailureResponseBody(err error) GenericApiResponseBody {
	return map[string]any{
		successJsonKey: false,
		errorJsonKey:   err.Error(),
	}
}

func (b *GenericApiResponseBody) ToString() string {
	marshalled, _ := json.Marshal(b)
	return string(marshalled)
}

func writeResponse(w http.ResponseWriter, statusCode int, body GenericApiResponseBody) error {
	w.Header().Set(contentTypeHeaderName, jsonContentTypeHeaderValue)
	w.WriteHeader(statusCode)
	_, err := w.Write([]byte(body.ToString()))
	return err
}

// handleBuilderError maps instruction builder failures to a status code and a
// user-facing error that never includes decoded bytes.
func handleBuilderError(err error) (int, error) {
	var addrErr *instruction.InvalidAddressError
	switch {
	case errors.As(err, &addrErr):
		label, ok := fieldLabels[addrErr.Field]
		if !ok {
			label = addrErr.Field
		}
		return http.StatusBadRequest, errors.Errorf("Invalid %s public key", label)
	case errors.Is(err, instruction.ErrInvalidAmount):
		return http.StatusBadRequest, errInvalidAmount
	case errors.Is(err, instruction.ErrInvalidDecimals):
		return http.StatusBadRequest, errInvalidDecimals
	case errors.Is(err, solana.ErrNoValidAddress):
		return http.StatusBadRequest, errNoValidAddress
	default:
		return http.StatusInternalServerError, errInternal
	}
}
