package contract

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/meridianhq/meridian-go/ledger"
	"github.com/meridianhq/meridian-go/rpc"
)

// FootprintRestorer submits restore transactions that bring archived
// ledger entries back to life, so a parent transaction can run against
// them. The restore is an independent transaction signed by the same
// source account and driven through the same submit and poll mechanics.
type FootprintRestorer struct {
	client ClientOptions
	method MethodOptions
	logger zerolog.Logger
}

// NewFootprintRestorer builds a restorer for the configured source
// account. The method options bound the restore transaction's fee and
// polling window.
func NewFootprintRestorer(client ClientOptions, method MethodOptions) (*FootprintRestorer, error) {
	if err := client.validate(); err != nil {
		return nil, err
	}
	return &FootprintRestorer{client: client, method: method, logger: client.logger()}, nil
}

// Restore submits one restore transaction for the entries named in the
// preamble's write footprint and waits for it to apply. Every failure
// surfaces as a RestoreFailedError.
func (r *FootprintRestorer) Restore(ctx context.Context, preamble *rpc.RestorePreamble) error {
	if preamble == nil {
		return &RestoreFailedError{Reason: "no restore preamble available"}
	}
	data, err := ledger.TransactionDataFromBase64(preamble.TransactionData)
	if err != nil {
		return &RestoreFailedError{Reason: "unusable restore preamble", Err: err}
	}
	total := int64(r.method.Fee) + preamble.MinResourceFee
	if preamble.MinResourceFee < 0 || total > math.MaxUint32 {
		return &RestoreFailedError{Reason: fmt.Sprintf("resource fee %d out of range", preamble.MinResourceFee)}
	}

	kp := r.client.SourceKeypair
	sequence, err := r.client.sequenceProvider().NextSequence(ctx, kp.Address())
	if err != nil {
		return &RestoreFailedError{Reason: "failed to fetch sequence", Err: err}
	}

	restoreMethod := r.method
	restoreMethod.Simulate = false
	restoreMethod.Restore = false

	child := &AssembledTransaction{
		opts: AssembledTransactionOptions{
			Client: r.client,
			Method: restoreMethod,
		},
		networkID: ledger.NetworkID(r.client.NetworkPassphrase),
		logger:    r.logger,
		state:     StateNeedsSignature,
		envelope: &ledger.Envelope{
			Tx: ledger.Transaction{
				Source:   ledger.NewAccountAddress(kp.RawPublicKey()),
				Fee:      uint32(total),
				Sequence: sequence,
				Op:       ledger.NewRestoreOperation(),
				Data:     data,
			},
		},
	}
	r.logger.Debug().
		Int("entries", len(data.Footprint.ReadWrite)).
		Msg("submitting footprint restore")

	if _, err := child.Execute(ctx); err != nil {
		return &RestoreFailedError{Reason: "restore transaction failed", Err: err}
	}
	return nil
}
