package passkey

import (
	"context"
	"fmt"
)

// Assertion is an authenticator's answer to a signing challenge.
type Assertion struct {
	// AuthenticatorData is the raw authenticator data covered by the
	// signature.
	AuthenticatorData []byte
	// ClientDataJSON is the serialized client data carrying the challenge.
	ClientDataJSON []byte
	// Signature is the DER-encoded ECDSA P-256 signature.
	Signature []byte
}

// Authenticator produces WebAuthn assertions for a stored credential.
// Implementations wrap a platform authenticator, a roaming key, or an
// in-memory key for tests.
type Authenticator interface {
	GetAssertion(ctx context.Context, credentialID, challenge []byte) (*Assertion, error)
}

// Signer authorizes contract invocations with a passkey credential. Its
// address is the wallet contract derived from the credential id, and
// SignPayload runs the authenticator ceremony with the payload as the
// challenge. It satisfies the signer capability the contract package
// consumes.
type Signer struct {
	credentialID  []byte
	address       string
	authenticator Authenticator
}

// NewSigner derives the wallet address for the credential and binds the
// authenticator that holds it.
func NewSigner(credentialID, factoryAddress, networkPassphrase string, authenticator Authenticator) (*Signer, error) {
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	rawID, err := decodeB64URL(credentialID)
	if err != nil {
		return nil, &ParseError{Subject: "credential id", Err: err}
	}
	salt, err := ContractSalt(credentialID)
	if err != nil {
		return nil, err
	}
	address, err := DeriveContractAddress(salt, factoryAddress, networkPassphrase)
	if err != nil {
		return nil, err
	}
	return &Signer{
		credentialID:  rawID,
		address:       address,
		authenticator: authenticator,
	}, nil
}

// Address returns the wallet contract address this signer authorizes for.
func (s *Signer) Address() string {
	return s.address
}

// SignPayload asks the authenticator to assert over payload and converts
// the DER signature into the 64-byte compact form the ledger embeds.
func (s *Signer) SignPayload(ctx context.Context, payload []byte) ([]byte, error) {
	assertion, err := s.authenticator.GetAssertion(ctx, s.credentialID, payload)
	if err != nil {
		return nil, fmt.Errorf("authenticator assertion failed: %w", err)
	}
	return CompactSignature(assertion.Signature)
}
