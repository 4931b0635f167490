// Package rpc provides a client for the Meridian gateway JSON-RPC API.
//
// The gateway is the read/submit boundary of the network: it simulates
// transactions, accepts signed envelopes, reports transaction status, and
// serves contract metadata. The client speaks JSON-RPC 2.0 over HTTP POST
// and never retries on its own; callers decide how to react to failures.
//
// # Usage
//
// Create a client and simulate an envelope:
//
//	client := rpc.NewClient("https://gateway.meridian.example", nil)
//	result, err := client.SimulateTransaction(ctx, envelopeB64)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Gateway-reported simulation failures arrive in SimulateResult.Error, not
// as a call error; transport and protocol failures arrive as errors.
package rpc

import (
	"encoding/json"
	"fmt"
)

// Transaction status values reported by GetTransaction.
const (
	StatusPending  = "pending"
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusNotFound = "notFound"
)

// Submission status values reported by SendTransaction.
const (
	SendStatusPending   = "pending"
	SendStatusDuplicate = "duplicate"
	SendStatusError     = "error"
)

// CodeNotFound is the gateway error code for lookups of entities that do
// not exist on the ledger.
const CodeNotFound = -32004

// Error is a JSON-RPC error object reported by the gateway.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("gateway error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// SimulateResult is the gateway's answer to simulateTransaction.
type SimulateResult struct {
	// LatestLedger is the ledger the simulation ran against. Signature
	// expiration windows are anchored to it.
	LatestLedger uint32 `json:"latestLedger"`
	// MinResourceFee is the smallest resource fee the gateway will accept
	// for this transaction.
	MinResourceFee int64 `json:"minResourceFee,omitempty"`
	// TransactionData is the base64 Borsh resource declaration the
	// transaction must carry when submitted.
	TransactionData string `json:"transactionData,omitempty"`
	// ReturnValue is the base64 value produced by the invocation.
	ReturnValue string `json:"returnValue,omitempty"`
	// Auth lists the base64 authorization entries the invocation requires.
	Auth []string `json:"auth,omitempty"`
	// RestorePreamble is set when ledger entries the transaction touches
	// have been archived and must be restored before submission.
	RestorePreamble *RestorePreamble `json:"restorePreamble,omitempty"`
	// Error is the gateway-reported simulation failure, empty on success.
	Error string `json:"error,omitempty"`
	// DiagnosticEvents carry host diagnostics emitted during simulation.
	DiagnosticEvents []string `json:"diagnosticEvents,omitempty"`
}

// RestorePreamble describes the restore transaction that must run before
// the simulated transaction can succeed.
type RestorePreamble struct {
	// TransactionData is the base64 Borsh resource declaration for the
	// restore; its read-write footprint names the archived entries.
	TransactionData string `json:"transactionData"`
	// MinResourceFee is the fee floor for the restore transaction.
	MinResourceFee int64 `json:"minResourceFee"`
}

// SendResult is the gateway's answer to sendTransaction.
type SendResult struct {
	Hash       string `json:"hash"`
	Status     string `json:"status"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// TransactionStatus is the gateway's answer to getTransaction.
type TransactionStatus struct {
	Status      string `json:"status"`
	Ledger      uint32 `json:"ledger,omitempty"`
	ReturnValue string `json:"returnValue,omitempty"`
	Diagnostic  string `json:"diagnostic,omitempty"`
}

// ContractInterface is the callable surface of a deployed contract.
type ContractInterface struct {
	Address  string       `json:"address"`
	CodeHash string       `json:"codeHash"`
	Methods  []MethodSpec `json:"methods"`
}

// MethodSpec describes one callable contract method.
type MethodSpec struct {
	Name   string   `json:"name"`
	Inputs []string `json:"inputs,omitempty"`
	Output string   `json:"output,omitempty"`
}

// Account is the gateway's answer to getAccount.
type Account struct {
	Address  string `json:"address"`
	Sequence int64  `json:"sequence"`
}

// LatestLedger is the gateway's answer to getLatestLedger.
type LatestLedger struct {
	Sequence uint32 `json:"sequence"`
}
