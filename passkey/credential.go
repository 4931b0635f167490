// Package passkey implements WebAuthn credential utilities for Meridian
// smart wallets.
//
// A passkey-backed wallet is a contract whose id is derived from the
// WebAuthn credential id and whose invocations are authorized by P-256
// assertions from the authenticator holding the credential. This package
// extracts the credential public key from registration payloads, derives
// wallet salts and addresses, converts DER assertion signatures into the
// fixed-width form the ledger embeds, and adapts an authenticator into a
// signer for authorization entries.
//
// # Key Extraction
//
// Registration ceremonies surface the credential public key in up to three
// places, and clients differ in which ones they populate. ExtractPublicKey
// tries them in order: a directly supplied publicKey field, the
// authenticator data, and the attestation object. The raw scans tolerate
// the CBOR framing around COSE keys without requiring a full parser.
//
// # Signing
//
// Signer turns an Authenticator into an authorization-entry signer: the
// entry digest becomes the assertion challenge and the DER signature comes
// back through CompactSignature as 64 bytes of r||s.
package passkey

import (
	"encoding/base64"
	"strings"
)

// CredentialResponse is the JSON payload produced by a WebAuthn
// registration or assertion ceremony. Every field is base64url encoded and
// optional; unmarshaling and re-marshaling preserves whatever subset the
// client populated.
type CredentialResponse struct {
	ClientDataJSON    string   `json:"clientDataJSON,omitempty"`
	AuthenticatorData string   `json:"authenticatorData,omitempty"`
	AttestationObject string   `json:"attestationObject,omitempty"`
	PublicKey         string   `json:"publicKey,omitempty"`
	Transports        []string `json:"transports,omitempty"`
}

// decodeB64URL decodes base64url input with or without padding. WebAuthn
// clients are inconsistent about trailing '=' characters.
func decodeB64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
