package ledger

import (
	"encoding/base64"
	"fmt"

	"github.com/near/borsh-go"
)

// MarshalBase64 serializes the envelope to Borsh bytes and encodes them as
// standard base64. This is the form the gateway accepts.
func (e *Envelope) MarshalBase64() (string, error) {
	raw, err := borsh.Serialize(*e)
	if err != nil {
		return "", fmt.Errorf("failed to serialize envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EnvelopeFromBase64 decodes a base64 Borsh envelope.
func EnvelopeFromBase64(s string) (*Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode envelope base64: %w", err)
	}
	var e Envelope
	if err := borsh.Deserialize(&e, raw); err != nil {
		return nil, fmt.Errorf("failed to deserialize envelope: %w", err)
	}
	return &e, nil
}

// MarshalBase64 serializes the authorization entry for transport.
func (a *AuthorizationEntry) MarshalBase64() (string, error) {
	raw, err := borsh.Serialize(*a)
	if err != nil {
		return "", fmt.Errorf("failed to serialize authorization entry: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// AuthorizationEntryFromBase64 decodes a base64 Borsh authorization entry.
// Simulation results carry entries in this form.
func AuthorizationEntryFromBase64(s string) (*AuthorizationEntry, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode authorization entry base64: %w", err)
	}
	var a AuthorizationEntry
	if err := borsh.Deserialize(&a, raw); err != nil {
		return nil, fmt.Errorf("failed to deserialize authorization entry: %w", err)
	}
	return &a, nil
}

// MarshalBase64 encodes the raw value bytes as standard base64. Simulation
// previews and transaction results carry return values in this form.
func (v Value) MarshalBase64() string {
	return base64.StdEncoding.EncodeToString(v)
}

// ValueFromBase64 decodes a base64 value blob.
func ValueFromBase64(s string) (Value, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode value base64: %w", err)
	}
	return Value(raw), nil
}

// MarshalBase64 serializes the transaction data for transport.
func (d *TransactionData) MarshalBase64() (string, error) {
	raw, err := borsh.Serialize(*d)
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction data: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// TransactionDataFromBase64 decodes base64 Borsh transaction data.
// Simulation results and restore preambles carry resource declarations in
// this form.
func TransactionDataFromBase64(s string) (*TransactionData, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction data base64: %w", err)
	}
	var d TransactionData
	if err := borsh.Deserialize(&d, raw); err != nil {
		return nil, fmt.Errorf("failed to deserialize transaction data: %w", err)
	}
	return &d, nil
}
