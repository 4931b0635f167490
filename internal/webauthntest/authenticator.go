// Package webauthntest provides a deterministic in-memory WebAuthn
// authenticator for exercising passkey flows in tests and fixtures
// without real hardware or a browser.
package webauthntest

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/meridianhq/meridian-go/passkey"
)

// RelyingPartyID is the rp id every credential from this package is bound
// to.
const RelyingPartyID = "wallet.meridian.example"

// Origin is the client origin embedded in client data.
const Origin = "https://" + RelyingPartyID

// aaguid identifies this software authenticator model.
var aaguid = [16]byte{
	0x6d, 0x65, 0x72, 0x69, 0x64, 0x69, 0x61, 0x6e,
	0x2d, 0x73, 0x6f, 0x66, 0x74, 0x6b, 0x65, 0x79,
}

// Authenticator is a software authenticator holding exactly one P-256
// credential.
type Authenticator struct {
	key          *ecdsa.PrivateKey
	credentialID []byte
	counter      uint32
}

// New creates an authenticator with a fresh random key.
func New(credentialID []byte) (*Authenticator, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate P-256 key: %w", err)
	}
	return &Authenticator{key: key, credentialID: credentialID, counter: 1}, nil
}

// NewFromKeyHex creates an authenticator around a fixed private scalar so
// fixtures come out byte-identical across runs.
func NewFromKeyHex(credentialID []byte, keyHex string) (*Authenticator, error) {
	d, ok := new(big.Int).SetString(keyHex, 16)
	if !ok {
		return nil, fmt.Errorf("invalid private key hex")
	}
	key := new(ecdsa.PrivateKey)
	key.Curve = elliptic.P256()
	key.D = d
	key.PublicKey.X, key.PublicKey.Y = key.Curve.ScalarBaseMult(d.Bytes())
	return &Authenticator{key: key, credentialID: credentialID, counter: 1}, nil
}

// CredentialID returns the raw credential id.
func (a *Authenticator) CredentialID() []byte {
	return a.credentialID
}

// CredentialIDBase64 returns the credential id in the base64url form the
// WebAuthn JSON layer uses.
func (a *Authenticator) CredentialIDBase64() string {
	return base64.RawURLEncoding.EncodeToString(a.credentialID)
}

// PublicKeyUncompressed returns the 65-byte 0x04 || X || Y form of the
// credential public key.
func (a *Authenticator) PublicKeyUncompressed() []byte {
	out := make([]byte, 65)
	out[0] = 0x04
	a.key.PublicKey.X.FillBytes(out[1:33])
	a.key.PublicKey.Y.FillBytes(out[33:65])
	return out
}

// COSEPublicKey returns the credential public key as a canonically encoded
// COSE EC2 P-256 map.
func (a *Authenticator) COSEPublicKey() ([]byte, error) {
	em, err := cbor.CTAP2EncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build CBOR encoder: %w", err)
	}

	pub := a.PublicKeyUncompressed()
	coseKey := map[int]interface{}{
		1:  2,          // kty: EC2
		3:  -7,         // alg: ES256
		-1: 1,          // crv: P-256
		-2: pub[1:33],  // x
		-3: pub[33:65], // y
	}
	return em.Marshal(coseKey)
}

// AuthenticatorData returns registration authenticator data: the rp id
// hash, flags with the attested-credential bit set, the sign counter, the
// AAGUID, the credential id with its length, and the COSE key.
func (a *Authenticator) AuthenticatorData() ([]byte, error) {
	coseKey, err := a.COSEPublicKey()
	if err != nil {
		return nil, err
	}

	rpIDHash := sha256.Sum256([]byte(RelyingPartyID))
	var buf bytes.Buffer
	buf.Write(rpIDHash[:])
	buf.WriteByte(0x45) // UP | UV | AT
	if err := binary.Write(&buf, binary.BigEndian, a.counter); err != nil {
		return nil, err
	}
	buf.Write(aaguid[:])
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(a.credentialID))); err != nil {
		return nil, err
	}
	buf.Write(a.credentialID)
	buf.Write(coseKey)
	return buf.Bytes(), nil
}

// AttestationObject returns a CBOR attestation object in the "none"
// format wrapping the registration authenticator data.
func (a *Authenticator) AttestationObject() ([]byte, error) {
	authData, err := a.AuthenticatorData()
	if err != nil {
		return nil, err
	}
	em, err := cbor.CTAP2EncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build CBOR encoder: %w", err)
	}
	return em.Marshal(map[string]interface{}{
		"fmt":      "none",
		"attStmt":  map[string]interface{}{},
		"authData": authData,
	})
}

// RegistrationResponse assembles the JSON payload a client would deliver
// after a registration ceremony. The public key field is left empty so the
// extraction paths that parse binary payloads stay exercised; tests that
// want the direct field set it themselves.
func (a *Authenticator) RegistrationResponse() (*passkey.CredentialResponse, error) {
	authData, err := a.AuthenticatorData()
	if err != nil {
		return nil, err
	}
	attObj, err := a.AttestationObject()
	if err != nil {
		return nil, err
	}

	clientData, err := json.Marshal(map[string]interface{}{
		"type":        "webauthn.create",
		"challenge":   base64.RawURLEncoding.EncodeToString([]byte("registration challenge")),
		"origin":      Origin,
		"crossOrigin": false,
	})
	if err != nil {
		return nil, err
	}

	return &passkey.CredentialResponse{
		ClientDataJSON:    base64.RawURLEncoding.EncodeToString(clientData),
		AuthenticatorData: base64.RawURLEncoding.EncodeToString(authData),
		AttestationObject: base64.RawURLEncoding.EncodeToString(attObj),
		Transports:        []string{"internal"},
	}, nil
}

// GetAssertion signs a challenge the way a platform authenticator would:
// the signature covers the assertion authenticator data and the SHA-256 of
// the client data that embeds the challenge. It implements
// passkey.Authenticator.
func (a *Authenticator) GetAssertion(_ context.Context, credentialID, challenge []byte) (*passkey.Assertion, error) {
	if !bytes.Equal(credentialID, a.credentialID) {
		return nil, fmt.Errorf("unknown credential id")
	}

	clientData, err := json.Marshal(map[string]interface{}{
		"type":        "webauthn.get",
		"challenge":   base64.RawURLEncoding.EncodeToString(challenge),
		"origin":      Origin,
		"crossOrigin": false,
	})
	if err != nil {
		return nil, err
	}

	rpIDHash := sha256.Sum256([]byte(RelyingPartyID))
	a.counter++
	var buf bytes.Buffer
	buf.Write(rpIDHash[:])
	buf.WriteByte(0x05) // UP | UV
	if err := binary.Write(&buf, binary.BigEndian, a.counter); err != nil {
		return nil, err
	}
	authData := buf.Bytes()

	clientDataHash := sha256.Sum256(clientData)
	message := append(append([]byte{}, authData...), clientDataHash[:]...)
	digest := sha256.Sum256(message)

	der, err := ecdsa.SignASN1(rand.Reader, a.key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign assertion: %w", err)
	}

	return &passkey.Assertion{
		AuthenticatorData: authData,
		ClientDataJSON:    clientData,
		Signature:         der,
	}, nil
}

// VerifyAssertion checks a compact 64-byte signature against the
// credential public key and the assertion it came from, reproducing the
// check a wallet contract performs on-ledger. The signed message is the
// assertion authenticator data followed by the SHA-256 of its client data.
func (a *Authenticator) VerifyAssertion(assertion *passkey.Assertion, compact []byte) error {
	if len(compact) != 64 {
		return fmt.Errorf("invalid compact signature length: %d", len(compact))
	}

	clientDataHash := sha256.Sum256(assertion.ClientDataJSON)
	message := append(append([]byte{}, assertion.AuthenticatorData...), clientDataHash[:]...)
	digest := sha256.Sum256(message)

	r := new(big.Int).SetBytes(compact[:32])
	s := new(big.Int).SetBytes(compact[32:])
	if s.Cmp(new(big.Int).Rsh(a.key.Curve.Params().N, 1)) > 0 {
		return fmt.Errorf("s is not low-s normalized")
	}
	// ECDSA accepts both s and n-s for the same message, so the low-s
	// normalized half verifies directly.
	if !ecdsa.Verify(&a.key.PublicKey, digest[:], r, s) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}
