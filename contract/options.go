package contract

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/meridianhq/meridian-go/keypair"
	"github.com/meridianhq/meridian-go/ledger"
	"github.com/meridianhq/meridian-go/rpc"
)

const (
	// DefaultBaseFee is the inclusion fee attached to transactions when the
	// caller does not pick one.
	DefaultBaseFee = 100

	// DefaultTimeoutSeconds bounds status polling after submission.
	DefaultTimeoutSeconds = 300

	// signatureValidityLedgers is how many ledgers past the simulation
	// ledger an authorization signature stays valid.
	signatureValidityLedgers = 100
)

// Gateway is the slice of RPC surface the contract client consumes.
// *rpc.Client satisfies it.
type Gateway interface {
	SimulateTransaction(ctx context.Context, envelope string) (*rpc.SimulateResult, error)
	SendTransaction(ctx context.Context, envelope string) (*rpc.SendResult, error)
	GetTransaction(ctx context.Context, hash string) (*rpc.TransactionStatus, error)
	GetContractInterface(ctx context.Context, address string) (*rpc.ContractInterface, error)
	GetContractCode(ctx context.Context, codeHash string) ([]byte, error)
	GetAccount(ctx context.Context, address string) (*rpc.Account, error)
	GetLatestLedger(ctx context.Context) (*rpc.LatestLedger, error)
}

// Signer produces authorization signatures for one address. keypair.Full
// and passkey.Signer both satisfy it.
type Signer interface {
	Address() string
	SignPayload(ctx context.Context, payload []byte) ([]byte, error)
}

// SequenceProvider hands out the next usable sequence number for an
// account. The default implementation asks the gateway.
type SequenceProvider interface {
	NextSequence(ctx context.Context, address string) (int64, error)
}

type gatewaySequenceProvider struct {
	gateway Gateway
}

func (p gatewaySequenceProvider) NextSequence(ctx context.Context, address string) (int64, error) {
	account, err := p.gateway.GetAccount(ctx, address)
	if err != nil {
		return 0, &NetworkError{Op: "getAccount", Err: err}
	}
	return account.Sequence + 1, nil
}

// ClientOptions carry everything a contract client needs to reach the
// network and sign on behalf of the source account.
type ClientOptions struct {
	// Gateway talks to the network. Required.
	Gateway Gateway

	// NetworkPassphrase selects the network every hash and signature binds
	// to. Required.
	NetworkPassphrase string

	// SourceKeypair signs transaction envelopes and fills source-account
	// authorization. Required.
	SourceKeypair *keypair.Full

	// Signers authorize entries for addresses other than the source
	// account, resolved by Address().
	Signers []Signer

	// SequenceProvider supplies sequence numbers. Nil means the gateway
	// account state is consulted per transaction.
	SequenceProvider SequenceProvider

	// EnableLogging switches on debug diagnostics to stderr.
	EnableLogging bool
}

func (o *ClientOptions) validate() error {
	switch {
	case o.Gateway == nil:
		return &ConfigurationError{Reason: "gateway is required"}
	case o.NetworkPassphrase == "":
		return &ConfigurationError{Reason: "network passphrase is required"}
	case o.SourceKeypair == nil:
		return &ConfigurationError{Reason: "source keypair is required"}
	}
	return nil
}

func (o *ClientOptions) sequenceProvider() SequenceProvider {
	if o.SequenceProvider != nil {
		return o.SequenceProvider
	}
	return gatewaySequenceProvider{gateway: o.Gateway}
}

func (o *ClientOptions) logger() zerolog.Logger {
	if !o.EnableLogging {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// signerFor resolves the signer responsible for an address. The source
// keypair covers its own account; everything else comes from Signers.
func (o *ClientOptions) signerFor(address string) Signer {
	if o.SourceKeypair != nil && o.SourceKeypair.Address() == address {
		return o.SourceKeypair
	}
	for _, s := range o.Signers {
		if s.Address() == address {
			return s
		}
	}
	return nil
}

// MethodOptions tune a single invocation. Start from DefaultMethodOptions
// and override what the call needs.
type MethodOptions struct {
	// Fee is the inclusion fee. Simulation adds the resource fee on top.
	Fee uint32

	// TimeoutSeconds bounds status polling after submission. Zero falls
	// back to DefaultTimeoutSeconds.
	TimeoutSeconds uint32

	// Simulate runs simulation before signing. Disable it only when the
	// envelope already carries resources and fees from elsewhere.
	Simulate bool

	// Restore allows one footprint restore when simulation reports
	// archived ledger entries.
	Restore bool
}

// DefaultMethodOptions returns the options most calls want: simulation on,
// restore off, default fee and timeout.
func DefaultMethodOptions() MethodOptions {
	return MethodOptions{
		Fee:            DefaultBaseFee,
		TimeoutSeconds: DefaultTimeoutSeconds,
		Simulate:       true,
		Restore:        false,
	}
}

// AssembledTransactionOptions describe one transaction to assemble: the
// client configuration plus the target invocation.
type AssembledTransactionOptions struct {
	Client          ClientOptions
	Method          MethodOptions
	ContractAddress string
	MethodName      string
	Args            []ledger.Value
}
