// Package contract is the high-level client for Meridian smart contracts.
//
// A Client wraps one deployed contract. Invoke drives a method call through
// the full lifecycle: simulation, optional footprint restore, authorization
// and envelope signing, submission, and status polling. Callers that need
// to inspect or sign intermediate state work with AssembledTransaction
// directly via BuildInvoke.
//
// # Usage
//
//	client, err := contract.NewClient(opts, "C...")
//	if err != nil {
//		return err
//	}
//	result, err := client.Invoke(ctx, "transfer", args, contract.DefaultMethodOptions())
//
// Read-only calls finish at simulation time and never submit anything.
// Calls that write state or require authorization are signed with the
// source keypair plus any registered signers, such as passkey wallets.
package contract

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/meridianhq/meridian-go/ledger"
	"github.com/meridianhq/meridian-go/rpc"
)

// Client invokes methods on one deployed contract.
type Client struct {
	opts    ClientOptions
	address string
	iface   *rpc.ContractInterface
	logger  zerolog.Logger
}

// NewClient builds a client for the contract at the given address. The
// options are validated up front; the contract interface is fetched lazily
// on first use.
func NewClient(opts ClientOptions, contractAddress string) (*Client, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	addr, err := ledger.ParseAddress(contractAddress)
	if err != nil || !addr.IsContract() {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("invalid contract address %q", contractAddress)}
	}
	return &Client{
		opts:    opts,
		address: contractAddress,
		logger:  opts.logger(),
	}, nil
}

// Address returns the contract address the client is bound to.
func (c *Client) Address() string {
	return c.address
}

// LoadInterface fetches the contract's method interface from the gateway
// and caches it. A missing contract surfaces as ContractNotFoundError.
func (c *Client) LoadInterface(ctx context.Context) (*rpc.ContractInterface, error) {
	if c.iface != nil {
		return c.iface, nil
	}
	iface, err := c.opts.Gateway.GetContractInterface(ctx, c.address)
	if err != nil {
		if rpc.IsNotFound(err) {
			return nil, &ContractNotFoundError{Address: c.address}
		}
		return nil, &NetworkError{Op: "getContractInterface", Err: err}
	}
	c.iface = iface
	c.logger.Debug().
		Str("contract", c.address).
		Int("methods", len(iface.Methods)).
		Msg("contract interface loaded")
	return c.iface, nil
}

// MethodNames lists the contract's method names, or nil before the
// interface has been loaded.
func (c *Client) MethodNames() []string {
	if c.iface == nil {
		return nil
	}
	names := make([]string, len(c.iface.Methods))
	for i, m := range c.iface.Methods {
		names[i] = m.Name
	}
	return names
}

// BuildInvoke assembles a transaction for one method call without driving
// it to completion. The contract interface is loaded if necessary and the
// method name checked against it.
func (c *Client) BuildInvoke(ctx context.Context, method string, args []ledger.Value, opts MethodOptions) (*AssembledTransaction, error) {
	iface, err := c.LoadInterface(ctx)
	if err != nil {
		return nil, err
	}
	if !hasMethod(iface, method) {
		return nil, &ConfigurationError{Reason: fmt.Sprintf(
			"contract %s has no method %q (available: %s)",
			c.address, method, strings.Join(c.MethodNames(), ", "))}
	}
	return NewAssembledTransaction(ctx, AssembledTransactionOptions{
		Client:          c.opts,
		Method:          opts,
		ContractAddress: c.address,
		MethodName:      method,
		Args:            args,
	})
}

// Invoke calls a contract method and drives it to a terminal outcome,
// returning the decoded result.
func (c *Client) Invoke(ctx context.Context, method string, args []ledger.Value, opts MethodOptions) (ledger.Value, error) {
	at, err := c.BuildInvoke(ctx, method, args, opts)
	if err != nil {
		return nil, err
	}
	return at.Execute(ctx)
}

func hasMethod(iface *rpc.ContractInterface, name string) bool {
	for _, m := range iface.Methods {
		if m.Name == name {
			return true
		}
	}
	return false
}

// InstallRequest describes a contract code upload.
type InstallRequest struct {
	Options ClientOptions
	Code    []byte

	// Method tunes the upload transaction. The zero value means
	// DefaultMethodOptions.
	Method MethodOptions
}

// InstallContract uploads contract code to the ledger and returns the code
// hash the ledger addresses it by.
func InstallContract(ctx context.Context, req InstallRequest) (ledger.Hash, error) {
	if err := req.Options.validate(); err != nil {
		return ledger.Hash{}, err
	}
	if len(req.Code) == 0 {
		return ledger.Hash{}, &ConfigurationError{Reason: "contract code is required"}
	}

	at, err := newAssembledWithOperation(ctx, AssembledTransactionOptions{
		Client: req.Options,
		Method: normalizeMethod(req.Method),
	}, ledger.NewUploadOperation(req.Code))
	if err != nil {
		return ledger.Hash{}, err
	}
	if _, err := at.Execute(ctx); err != nil {
		return ledger.Hash{}, err
	}
	return sha256.Sum256(req.Code), nil
}

// DeployRequest describes a contract creation from installed code.
type DeployRequest struct {
	Options         ClientOptions
	CodeHash        ledger.Hash
	ConstructorArgs []ledger.Value

	// Salt feeds the contract id derivation. Nil picks a deterministic
	// salt derived from the source account key.
	Salt *ledger.Hash

	// Method tunes the deploy transaction. The zero value means
	// DefaultMethodOptions.
	Method MethodOptions
}

// DeployContract instantiates a contract from installed code and returns a
// client bound to the new contract address. The address is derived from
// the deployer and salt, so it is known before the transaction lands.
func DeployContract(ctx context.Context, req DeployRequest) (*Client, error) {
	if err := req.Options.validate(); err != nil {
		return nil, err
	}
	if req.CodeHash == (ledger.Hash{}) {
		return nil, &ConfigurationError{Reason: "code hash is required"}
	}

	sourceKey := req.Options.SourceKeypair.RawPublicKey()
	deployer := ledger.NewAccountAddress(sourceKey)

	var salt ledger.Hash
	if req.Salt != nil {
		salt = *req.Salt
	} else {
		salt = sha256.Sum256(sourceKey[:])
	}

	at, err := newAssembledWithOperation(ctx, AssembledTransactionOptions{
		Client: req.Options,
		Method: normalizeMethod(req.Method),
	}, ledger.NewCreateOperation(deployer, req.CodeHash, salt, req.ConstructorArgs))
	if err != nil {
		return nil, err
	}
	if _, err := at.Execute(ctx); err != nil {
		return nil, err
	}

	networkID := ledger.NetworkID(req.Options.NetworkPassphrase)
	id := ledger.DeriveContractID(networkID, deployer, salt)
	return NewClient(req.Options, ledger.NewContractAddress(id).String())
}

func normalizeMethod(m MethodOptions) MethodOptions {
	if m == (MethodOptions{}) {
		return DefaultMethodOptions()
	}
	return m
}
