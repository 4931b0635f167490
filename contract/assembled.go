package contract

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/meridianhq/meridian-go/ledger"
	"github.com/meridianhq/meridian-go/rpc"
)

// defaultPollInterval is the pause between status polls after submission.
var defaultPollInterval = 3 * time.Second

// State tracks an assembled transaction through its lifecycle. Transitions
// only move forward; a failed stage parks the transaction in StateFailed.
type State uint8

const (
	// StateBuilt means the envelope exists but has not been simulated.
	StateBuilt State = iota

	// StateSimulated is the transient state between receiving a simulation
	// and classifying it.
	StateSimulated

	// StateReadOnlyReady means simulation produced the result and nothing
	// needs to be written; the call is complete without submission.
	StateReadOnlyReady

	// StateNeedsRestore means simulation reported archived ledger entries
	// that must be restored before the call can run.
	StateNeedsRestore

	// StateNeedsSignature means the envelope has resources attached and is
	// waiting for authorization and envelope signatures.
	StateNeedsSignature

	// StateSigned means every signature is in place.
	StateSigned

	// StateSubmitted means the network accepted the envelope.
	StateSubmitted

	// StatePending means the transaction is submitted and polling has not
	// yet seen a terminal status.
	StatePending

	// StateSuccess is terminal: the transaction applied and the result is
	// available.
	StateSuccess

	// StateFailed is terminal: simulation, restore, submission, or
	// execution failed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSimulated:
		return "simulated"
	case StateReadOnlyReady:
		return "read-only-ready"
	case StateNeedsRestore:
		return "needs-restore"
	case StateNeedsSignature:
		return "needs-signature"
	case StateSigned:
		return "signed"
	case StateSubmitted:
		return "submitted"
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// AssembledTransaction carries one transaction from construction through
// simulation, signing, submission, and status polling. Instances are not
// safe for concurrent use.
type AssembledTransaction struct {
	opts      AssembledTransactionOptions
	networkID ledger.Hash
	logger    zerolog.Logger

	state      State
	envelope   *ledger.Envelope
	simulation *rpc.SimulateResult
	restored   bool
	hash       string
	result     ledger.Value
	failure    error
}

// NewAssembledTransaction builds a method invocation envelope for the
// configured contract and, unless the method options disable it, simulates
// the call and classifies the outcome.
func NewAssembledTransaction(ctx context.Context, opts AssembledTransactionOptions) (*AssembledTransaction, error) {
	if err := opts.Client.validate(); err != nil {
		return nil, err
	}
	if opts.MethodName == "" {
		return nil, &ConfigurationError{Reason: "method name is required"}
	}
	target, err := ledger.ParseAddress(opts.ContractAddress)
	if err != nil || !target.IsContract() {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("invalid contract address %q", opts.ContractAddress)}
	}

	invocation := ledger.Invocation{
		Contract: target,
		Function: opts.MethodName,
		Args:     opts.Args,
	}
	return newAssembledWithOperation(ctx, opts, ledger.NewInvokeOperation(invocation, nil))
}

// newAssembledWithOperation is the shared assembly path for invocations,
// code uploads, and contract creation.
func newAssembledWithOperation(ctx context.Context, opts AssembledTransactionOptions, op ledger.Operation) (*AssembledTransaction, error) {
	kp := opts.Client.SourceKeypair
	sequence, err := opts.Client.sequenceProvider().NextSequence(ctx, kp.Address())
	if err != nil {
		return nil, err
	}

	at := &AssembledTransaction{
		opts:      opts,
		networkID: ledger.NetworkID(opts.Client.NetworkPassphrase),
		logger:    opts.Client.logger(),
		state:     StateBuilt,
		envelope: &ledger.Envelope{
			Tx: ledger.Transaction{
				Source:   ledger.NewAccountAddress(kp.RawPublicKey()),
				Fee:      opts.Method.Fee,
				Sequence: sequence,
				Op:       op,
			},
		},
	}
	at.logger.Debug().
		Str("method", opts.MethodName).
		Int64("sequence", sequence).
		Msg("transaction assembled")

	if !opts.Method.Simulate {
		at.state = StateNeedsSignature
		return at, nil
	}
	if err := at.Simulate(ctx); err != nil {
		return at, err
	}
	return at, nil
}

// State reports where the transaction currently sits in its lifecycle.
func (at *AssembledTransaction) State() State {
	return at.state
}

// Envelope exposes the underlying envelope for inspection or external
// signing flows.
func (at *AssembledTransaction) Envelope() *ledger.Envelope {
	return at.envelope
}

// Simulation returns the raw simulation result, or nil before simulation.
func (at *AssembledTransaction) Simulation() *rpc.SimulateResult {
	return at.simulation
}

// Hash returns the submission hash once the transaction has been sent.
func (at *AssembledTransaction) Hash() string {
	return at.hash
}

// IsReadCall reports whether simulation classified the invocation as
// read-only: no authorization entries and an empty write footprint.
func (at *AssembledTransaction) IsReadCall() bool {
	return at.state == StateReadOnlyReady
}

// Result returns the decoded return value. It is available once the
// transaction is read-only ready or has succeeded on the network.
func (at *AssembledTransaction) Result() (ledger.Value, error) {
	if at.state != StateReadOnlyReady && at.state != StateSuccess {
		return nil, fmt.Errorf("no result available in state %s", at.state)
	}
	return at.result, nil
}

// NeedsNonInvokerSigningBy lists the addresses of authorization entries
// that still need a signature from someone other than the source account.
func (at *AssembledTransaction) NeedsNonInvokerSigningBy() []string {
	op := &at.envelope.Tx.Op
	if op.Enum != ledger.OperationTypeInvoke {
		return nil
	}
	source := at.opts.Client.SourceKeypair.Address()
	var addrs []string
	for i := range op.Invoke.Auth {
		creds := &op.Invoke.Auth[i].Credentials
		if creds.Enum != ledger.CredentialsTypeAddress || len(creds.Address.Signature) > 0 {
			continue
		}
		if addr := creds.Address.Address.String(); addr != source {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// Simulate sends the envelope to the gateway's simulation endpoint and
// classifies the outcome: failure, archived entries needing restore,
// read-only completion, or ready for signing.
func (at *AssembledTransaction) Simulate(ctx context.Context) error {
	if at.state != StateBuilt {
		return fmt.Errorf("cannot simulate from state %s", at.state)
	}

	envelope, err := at.envelope.MarshalBase64()
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	sim, err := at.opts.Client.Gateway.SimulateTransaction(ctx, envelope)
	if err != nil {
		return &NetworkError{Op: "simulateTransaction", Err: err}
	}
	at.simulation = sim
	at.transition(StateSimulated)

	if sim.Error != "" {
		at.fail(&SimulationError{Message: sim.Error, Diagnostics: sim.DiagnosticEvents})
		return at.failure
	}
	if sim.RestorePreamble != nil {
		at.transition(StateNeedsRestore)
		return nil
	}
	if err := at.applySimulation(sim); err != nil {
		at.fail(err)
		return at.failure
	}

	op := &at.envelope.Tx.Op
	hasAuth := op.Enum == ledger.OperationTypeInvoke && len(op.Invoke.Auth) > 0
	writes := at.envelope.Tx.Data != nil && len(at.envelope.Tx.Data.Footprint.ReadWrite) > 0
	if !hasAuth && !writes {
		at.transition(StateReadOnlyReady)
	} else {
		at.transition(StateNeedsSignature)
	}
	return nil
}

// applySimulation folds simulation output into the envelope: resources,
// the combined fee, authorization entries, and the preview return value.
func (at *AssembledTransaction) applySimulation(sim *rpc.SimulateResult) error {
	total := int64(at.opts.Method.Fee) + sim.MinResourceFee
	if sim.MinResourceFee < 0 || total > math.MaxUint32 {
		return &SimulationError{Message: fmt.Sprintf("resource fee %d out of range", sim.MinResourceFee)}
	}
	at.envelope.Tx.Fee = uint32(total)

	if sim.TransactionData != "" {
		data, err := ledger.TransactionDataFromBase64(sim.TransactionData)
		if err != nil {
			return &SimulationError{Message: fmt.Sprintf("unusable transaction data: %v", err)}
		}
		at.envelope.Tx.Data = data
	}

	if op := &at.envelope.Tx.Op; op.Enum == ledger.OperationTypeInvoke && len(sim.Auth) > 0 {
		entries := make([]ledger.AuthorizationEntry, 0, len(sim.Auth))
		for i, raw := range sim.Auth {
			entry, err := ledger.AuthorizationEntryFromBase64(raw)
			if err != nil {
				return &SimulationError{Message: fmt.Sprintf("unusable authorization entry %d: %v", i, err)}
			}
			entries = append(entries, *entry)
		}
		op.Invoke.Auth = entries
	}

	if sim.ReturnValue != "" {
		value, err := ledger.ValueFromBase64(sim.ReturnValue)
		if err != nil {
			return &SimulationError{Message: fmt.Sprintf("unusable return value: %v", err)}
		}
		at.result = value
	}
	return nil
}

// handleRestore runs the single allowed footprint restore and rewinds the
// transaction for re-simulation. With restore disabled, or when entries
// stay archived after a restore, the transaction fails.
func (at *AssembledTransaction) handleRestore(ctx context.Context) error {
	if at.state != StateNeedsRestore {
		return fmt.Errorf("cannot restore from state %s", at.state)
	}
	preamble := at.simulation.RestorePreamble

	if !at.opts.Method.Restore {
		at.fail(&RestoreRequiredError{Keys: preambleKeys(preamble)})
		return at.failure
	}
	if at.restored {
		at.fail(&RestoreFailedError{Reason: "ledger entries still archived after restore"})
		return at.failure
	}

	restorer := &FootprintRestorer{client: at.opts.Client, method: at.opts.Method, logger: at.logger}
	if err := restorer.Restore(ctx, preamble); err != nil {
		at.fail(err)
		return at.failure
	}
	at.restored = true
	at.transition(StateBuilt)
	return nil
}

// preambleKeys decodes the write footprint the gateway flagged as archived.
func preambleKeys(preamble *rpc.RestorePreamble) []ledger.LedgerKey {
	if preamble == nil {
		return nil
	}
	data, err := ledger.TransactionDataFromBase64(preamble.TransactionData)
	if err != nil {
		return nil
	}
	return data.Footprint.ReadWrite
}

// Sign collects every authorization signature and then signs the envelope
// with the source keypair.
func (at *AssembledTransaction) Sign(ctx context.Context) error {
	if at.state != StateNeedsSignature {
		return fmt.Errorf("cannot sign from state %s", at.state)
	}
	if err := at.SignAuthEntries(ctx); err != nil {
		return err
	}

	hash, err := ledger.TransactionHash(at.networkID, &at.envelope.Tx)
	if err != nil {
		return fmt.Errorf("failed to hash transaction: %w", err)
	}
	kp := at.opts.Client.SourceKeypair
	decorated, err := kp.SignDecorated(hash[:])
	if err != nil {
		return &SigningError{Address: kp.Address(), Err: err}
	}
	at.envelope.Signatures = []ledger.DecoratedSignature{decorated}
	at.transition(StateSigned)
	return nil
}

// SignAuthEntries signs every address-credential authorization entry that
// does not carry a signature yet, resolving each address to a registered
// signer. Source-account credentials are covered by the envelope signature
// and skipped.
func (at *AssembledTransaction) SignAuthEntries(ctx context.Context) error {
	op := &at.envelope.Tx.Op
	if op.Enum != ledger.OperationTypeInvoke || len(op.Invoke.Auth) == 0 {
		return nil
	}

	expiration, err := at.signatureExpiration(ctx)
	if err != nil {
		return err
	}
	for i := range op.Invoke.Auth {
		entry := &op.Invoke.Auth[i]
		creds := &entry.Credentials
		if creds.Enum != ledger.CredentialsTypeAddress || len(creds.Address.Signature) > 0 {
			continue
		}
		address := creds.Address.Address.String()
		signer := at.opts.Client.signerFor(address)
		if signer == nil {
			return &SigningError{Address: address}
		}

		creds.Address.SignatureExpirationLedger = expiration
		payload, err := ledger.AuthorizationHash(at.networkID, entry)
		if err != nil {
			return &SigningError{Address: address, Err: err}
		}
		signature, err := signer.SignPayload(ctx, payload[:])
		if err != nil {
			return &SigningError{Address: address, Err: err}
		}
		creds.Address.Signature = signature
		at.logger.Debug().Str("address", address).Msg("authorization entry signed")
	}
	return nil
}

// signatureExpiration picks the last ledger the authorization signatures
// stay valid for, anchored on the simulation ledger when available.
func (at *AssembledTransaction) signatureExpiration(ctx context.Context) (uint32, error) {
	if at.simulation != nil {
		return at.simulation.LatestLedger + signatureValidityLedgers, nil
	}
	latest, err := at.opts.Client.Gateway.GetLatestLedger(ctx)
	if err != nil {
		return 0, &NetworkError{Op: "getLatestLedger", Err: err}
	}
	return latest.Sequence + signatureValidityLedgers, nil
}

// Submit sends the signed envelope and polls until the network reports a
// terminal status or the method timeout elapses.
func (at *AssembledTransaction) Submit(ctx context.Context) error {
	if at.state != StateSigned {
		return fmt.Errorf("cannot submit from state %s", at.state)
	}

	envelope, err := at.envelope.MarshalBase64()
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	sent, err := at.opts.Client.Gateway.SendTransaction(ctx, envelope)
	if err != nil {
		at.fail(&SubmissionError{Err: &NetworkError{Op: "sendTransaction", Err: err}})
		return at.failure
	}
	if sent.Status == rpc.SendStatusError {
		at.fail(&SubmissionError{Status: sent.Status, Diagnostic: sent.Diagnostic})
		return at.failure
	}
	at.hash = sent.Hash
	at.transition(StateSubmitted)
	at.transition(StatePending)

	return at.poll(ctx)
}

// poll watches the submitted transaction until success, failure, or the
// configured timeout. A transaction the gateway has not indexed yet keeps
// polling.
func (at *AssembledTransaction) poll(ctx context.Context) error {
	timeout := at.opts.Method.TimeoutSeconds
	if timeout == 0 {
		timeout = DefaultTimeoutSeconds
	}
	start := time.Now()
	deadline := start.Add(time.Duration(timeout) * time.Second)

	for {
		status, err := at.opts.Client.Gateway.GetTransaction(ctx, at.hash)
		if err != nil {
			return &NetworkError{Op: "getTransaction", Err: err}
		}
		switch status.Status {
		case rpc.StatusSuccess:
			if status.ReturnValue != "" {
				value, err := ledger.ValueFromBase64(status.ReturnValue)
				if err != nil {
					at.fail(&SubmissionError{Status: status.Status, Diagnostic: fmt.Sprintf("unusable return value: %v", err)})
					return at.failure
				}
				at.result = value
			}
			at.transition(StateSuccess)
			return nil
		case rpc.StatusFailed:
			at.fail(&SubmissionError{Status: status.Status, Diagnostic: status.Diagnostic})
			return at.failure
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			at.fail(&TimeoutError{Hash: at.hash, Waited: time.Since(start)})
			return at.failure
		}
		wait := defaultPollInterval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Execute drives the transaction to a terminal outcome: it simulates,
// restores archived entries when allowed, signs, submits, and polls,
// returning the decoded result. Read-only calls return without touching
// the network beyond simulation. A transaction left pending by a transport
// failure or a cancelled context resumes polling on the next call.
func (at *AssembledTransaction) Execute(ctx context.Context) (ledger.Value, error) {
	for {
		switch at.state {
		case StateBuilt:
			if err := at.Simulate(ctx); err != nil {
				return nil, err
			}
		case StateNeedsRestore:
			if err := at.handleRestore(ctx); err != nil {
				return nil, err
			}
		case StateReadOnlyReady:
			return at.result, nil
		case StateNeedsSignature:
			if err := at.Sign(ctx); err != nil {
				return nil, err
			}
		case StateSigned:
			if err := at.Submit(ctx); err != nil {
				return nil, err
			}
		case StatePending:
			if err := at.poll(ctx); err != nil {
				return nil, err
			}
		case StateSuccess:
			return at.result, nil
		case StateFailed:
			return nil, at.failure
		default:
			return nil, fmt.Errorf("cannot execute from state %s", at.state)
		}
	}
}

func (at *AssembledTransaction) transition(next State) {
	at.logger.Debug().
		Str("from", at.state.String()).
		Str("to", next.String()).
		Msg("state transition")
	at.state = next
}

func (at *AssembledTransaction) fail(err error) {
	at.failure = err
	at.transition(StateFailed)
}
