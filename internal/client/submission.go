package client

import (
	"context"

	"github.com/shieldedpay/core/internal/field"
	"github.com/shieldedpay/core/pkg/types"
)

// submit drives the submission contract from §4.5: the orchestrator never
// touches a socket itself, it asks the wallet adapter to sign the
// instruction payload and hands the signed transaction to the chain
// connection. A rejection surfaces as SubmissionRejected and the caller
// MUST NOT have mutated local state before calling submit.
func submit(ctx context.Context, conn types.ChainConnection, wallet types.WalletAdapter, programSeed string, tokenMint field.Element, data []byte) (types.SubmissionResult, error) {
	signed, err := wallet.SignTransaction(ctx, data)
	if err != nil {
		return types.SubmissionResult{}, newError(SubmissionRejected, "submit", err)
	}

	mintBytes := field.FieldToBytes(tokenMint)
	result, err := conn.SubmitInstruction(ctx, programSeed, mintBytes, data, signed)
	if err != nil {
		return types.SubmissionResult{}, newError(SubmissionRejected, "submit", err)
	}
	if result.Rejected {
		return types.SubmissionResult{}, newError(SubmissionRejected, "submit", errRejected(result.RejectCode))
	}
	return result, nil
}

type rejectCodeError string

func (e rejectCodeError) Error() string { return "host chain rejected instruction: " + string(e) }

func errRejected(code string) error { return rejectCodeError(code) }
