package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/meridianhq/meridian-go/ledger"
)

// ConfigurationError reports invalid or incomplete client configuration:
// missing collaborators, malformed addresses, or calls against methods the
// contract does not expose.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// NetworkError wraps a transport failure on a gateway round trip. The
// operation name tells callers which call failed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// SimulationError reports a gateway-side simulation failure, carrying the
// host diagnostics the gateway returned.
type SimulationError struct {
	Message     string
	Diagnostics []string
}

func (e *SimulationError) Error() string {
	if len(e.Diagnostics) > 0 {
		return fmt.Sprintf("simulation failed: %s (diagnostics: %s)", e.Message, strings.Join(e.Diagnostics, "; "))
	}
	return "simulation failed: " + e.Message
}

// RestoreRequiredError reports that simulation flagged archived ledger
// entries and the method options did not allow restoring them.
type RestoreRequiredError struct {
	Keys []ledger.LedgerKey
}

func (e *RestoreRequiredError) Error() string {
	names := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		names[i] = k.String()
	}
	return fmt.Sprintf("%d archived ledger entries must be restored before this call can run: %s",
		len(e.Keys), strings.Join(names, ", "))
}

// RestoreFailedError reports that the footprint restore attempt did not
// leave the ledger in a usable state.
type RestoreFailedError struct {
	Reason string
	Err    error
}

func (e *RestoreFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("footprint restore failed: %s: %v", e.Reason, e.Err)
	}
	return "footprint restore failed: " + e.Reason
}

func (e *RestoreFailedError) Unwrap() error {
	return e.Err
}

// SigningError reports a credential that could not produce a signature:
// no registered signer for the address, or the signer itself failed.
type SigningError struct {
	Address string
	Err     error
}

func (e *SigningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signing failed for %s: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("no signer available for %s", e.Address)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// SubmissionError reports a transaction the network did not accept or did
// not execute successfully.
type SubmissionError struct {
	Status     string
	Diagnostic string
	Err        error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("submission failed: %v", e.Err)
	case e.Diagnostic != "":
		return fmt.Sprintf("submission failed with status %s: %s", e.Status, e.Diagnostic)
	default:
		return "submission failed with status " + e.Status
	}
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that a submitted transaction did not reach a
// terminal status within the caller's polling window. The transaction may
// still complete on the network.
type TimeoutError struct {
	Hash   string
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transaction %s still unresolved after %s", e.Hash, e.Waited.Round(time.Millisecond))
}

// ContractNotFoundError reports a contract address with no deployed
// contract behind it.
type ContractNotFoundError struct {
	Address string
}

func (e *ContractNotFoundError) Error() string {
	return "no contract found at " + e.Address
}
