package passkey_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian-go/ledger"
	"github.com/meridianhq/meridian-go/passkey"
)

func testFactoryAddress() string {
	var id [32]byte
	for i := range id {
		id[i] = 0x55
	}
	return ledger.NewContractAddress(id).String()
}

// capturingAuthenticator records the challenge it was asked to sign and
// returns a fixed valid assertion.
type capturingAuthenticator struct {
	lastCredentialID []byte
	lastChallenge    []byte
	assertion        *passkey.Assertion
	err              error
}

func (c *capturingAuthenticator) GetAssertion(_ context.Context, credentialID, challenge []byte) (*passkey.Assertion, error) {
	c.lastCredentialID = append([]byte{}, credentialID...)
	c.lastChallenge = append([]byte{}, challenge...)
	if c.err != nil {
		return nil, c.err
	}
	return c.assertion, nil
}

func validDERAssertion(t *testing.T) *passkey.Assertion {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	digest := sha256.Sum256([]byte("whatever"))
	der, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	require.NoError(t, err)
	return &passkey.Assertion{Signature: der}
}

func TestNewSigner(t *testing.T) {
	auth := newTestAuthenticator(t)
	factory := testFactoryAddress()

	t.Run("address matches the pure derivation", func(t *testing.T) {
		signer, err := passkey.NewSigner(auth.CredentialIDBase64(), factory, ledger.TestNetworkPassphrase, auth)
		require.NoError(t, err)

		want, err := passkey.WalletAddress(auth.CredentialIDBase64(), factory, ledger.TestNetworkPassphrase)
		require.NoError(t, err)
		assert.Equal(t, want, signer.Address())
		assert.Equal(t, byte('C'), signer.Address()[0])
	})

	t.Run("nil authenticator", func(t *testing.T) {
		_, err := passkey.NewSigner(auth.CredentialIDBase64(), factory, ledger.TestNetworkPassphrase, nil)
		require.Error(t, err)
	})

	t.Run("invalid credential id", func(t *testing.T) {
		_, err := passkey.NewSigner("%%%", factory, ledger.TestNetworkPassphrase, auth)
		require.Error(t, err)

		var parseErr *passkey.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("invalid factory", func(t *testing.T) {
		_, err := passkey.NewSigner(auth.CredentialIDBase64(), "bogus", ledger.TestNetworkPassphrase, auth)
		require.Error(t, err)
	})
}

func TestSignerSignPayload(t *testing.T) {
	factory := testFactoryAddress()

	t.Run("full authenticator flow", func(t *testing.T) {
		auth := newTestAuthenticator(t)
		signer, err := passkey.NewSigner(auth.CredentialIDBase64(), factory, ledger.TestNetworkPassphrase, auth)
		require.NoError(t, err)

		payload := sha256.Sum256([]byte("authorization preimage"))
		sig, err := signer.SignPayload(context.Background(), payload[:])
		require.NoError(t, err)
		assert.Len(t, sig, passkey.CompactSignatureLen)
	})

	t.Run("challenge is the payload", func(t *testing.T) {
		capture := &capturingAuthenticator{assertion: validDERAssertion(t)}
		auth := newTestAuthenticator(t)
		signer, err := passkey.NewSigner(auth.CredentialIDBase64(), factory, ledger.TestNetworkPassphrase, capture)
		require.NoError(t, err)

		payload := []byte("entry digest bytes")
		_, err = signer.SignPayload(context.Background(), payload)
		require.NoError(t, err)

		assert.Equal(t, payload, capture.lastChallenge)
		assert.Equal(t, auth.CredentialID(), capture.lastCredentialID)
	})

	t.Run("authenticator failure propagates", func(t *testing.T) {
		capture := &capturingAuthenticator{err: fmt.Errorf("user cancelled")}
		auth := newTestAuthenticator(t)
		signer, err := passkey.NewSigner(auth.CredentialIDBase64(), factory, ledger.TestNetworkPassphrase, capture)
		require.NoError(t, err)

		_, err = signer.SignPayload(context.Background(), []byte("payload"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user cancelled")
	})

	t.Run("garbage signature from authenticator", func(t *testing.T) {
		capture := &capturingAuthenticator{assertion: &passkey.Assertion{Signature: []byte{0x01}}}
		auth := newTestAuthenticator(t)
		signer, err := passkey.NewSigner(auth.CredentialIDBase64(), factory, ledger.TestNetworkPassphrase, capture)
		require.NoError(t, err)

		_, err = signer.SignPayload(context.Background(), []byte("payload"))
		require.Error(t, err)

		var parseErr *passkey.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})
}

func TestSoftwareAuthenticatorAssertionVerifies(t *testing.T) {
	auth := newTestAuthenticator(t)

	challenge := sha256.Sum256([]byte("challenge"))
	assertion, err := auth.GetAssertion(context.Background(), auth.CredentialID(), challenge[:])
	require.NoError(t, err)

	compact, err := passkey.CompactSignature(assertion.Signature)
	require.NoError(t, err)

	require.NoError(t, auth.VerifyAssertion(assertion, compact))

	t.Run("unknown credential rejected", func(t *testing.T) {
		_, err := auth.GetAssertion(context.Background(), []byte("other"), challenge[:])
		require.Error(t, err)
	})
}
