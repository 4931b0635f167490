// Package keypair manages Meridian ed25519 account keys.
//
// A Full keypair holds both halves of an ed25519 key and can sign
// transaction envelopes and authorization entry payloads. Keypairs are
// created at random, from a strkey-encoded seed (S...), or loaded from a
// seed file on disk. Parse builds the verify-only half from an account
// address (M...).
package keypair

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"
	"strings"

	"github.com/meridianhq/meridian-go/ledger"
	"github.com/meridianhq/meridian-go/strkey"
)

// Full is an ed25519 keypair able to sign and verify.
type Full struct {
	priv ed25519.PrivateKey
}

// Random generates a new keypair from the operating system entropy source.
func Random() (*Full, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	return &Full{priv: priv}, nil
}

// FromSeed builds a keypair from a strkey seed (S...).
func FromSeed(seed string) (*Full, error) {
	raw, err := strkey.Decode(strkey.VersionSeed, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	return FromRawSeed(raw), nil
}

// FromRawSeed builds a keypair from 32 raw seed bytes. The seed length is
// assumed to have been validated by the caller.
func FromRawSeed(seed []byte) *Full {
	return &Full{priv: ed25519.NewKeyFromSeed(seed)}
}

// FromSeedFile loads a strkey seed from path. The first non-empty line that
// does not start with '#' is parsed as the seed; this allows key files to
// carry comment headers.
func FromSeedFile(path string) (*Full, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kp, err := FromSeed(line)
		if err != nil {
			return nil, fmt.Errorf("seed file %s: %w", path, err)
		}
		return kp, nil
	}
	return nil, fmt.Errorf("seed file %s contains no seed", path)
}

// Address returns the account address (M...) for this keypair.
func (kp *Full) Address() string {
	return strkey.MustEncode(strkey.VersionAccount, kp.priv.Public().(ed25519.PublicKey))
}

// Seed returns the strkey seed (S...) for this keypair.
func (kp *Full) Seed() string {
	return strkey.MustEncode(strkey.VersionSeed, kp.priv.Seed())
}

// RawPublicKey returns the raw 32-byte ed25519 public key.
func (kp *Full) RawPublicKey() [32]byte {
	var out [32]byte
	copy(out[:], kp.priv.Public().(ed25519.PublicKey))
	return out
}

// Hint returns the last four bytes of the public key, used to tag
// decorated signatures.
func (kp *Full) Hint() [4]byte {
	pub := kp.priv.Public().(ed25519.PublicKey)
	var hint [4]byte
	copy(hint[:], pub[len(pub)-4:])
	return hint
}

// Sign signs input with the private key.
func (kp *Full) Sign(input []byte) ([]byte, error) {
	if kp.priv == nil {
		return nil, fmt.Errorf("keypair has no private key")
	}
	return ed25519.Sign(kp.priv, input), nil
}

// SignDecorated signs input and pairs the signature with the public key
// hint, ready to embed in an envelope.
func (kp *Full) SignDecorated(input []byte) (ledger.DecoratedSignature, error) {
	sig, err := kp.Sign(input)
	if err != nil {
		return ledger.DecoratedSignature{}, err
	}
	return ledger.DecoratedSignature{Hint: kp.Hint(), Signature: sig}, nil
}

// SignPayload signs an authorization payload. It satisfies the signer
// capability consumed by the contract package; the context is accepted for
// interface compatibility and ignored for local keys.
func (kp *Full) SignPayload(_ context.Context, payload []byte) ([]byte, error) {
	return kp.Sign(payload)
}

// Verify reports whether sig is a valid signature of input by this keypair.
func (kp *Full) Verify(input, sig []byte) error {
	pub := kp.priv.Public().(ed25519.PublicKey)
	if !ed25519.Verify(pub, input, sig) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}

// Public is the verify-only half of a keypair, parsed from an account
// address. It can check signatures but never produce them.
type Public struct {
	pub ed25519.PublicKey
}

// Parse builds a verify-only keypair from an account address (M...).
func Parse(address string) (*Public, error) {
	raw, err := strkey.Decode(strkey.VersionAccount, address)
	if err != nil {
		return nil, fmt.Errorf("failed to decode address: %w", err)
	}
	return &Public{pub: ed25519.PublicKey(raw)}, nil
}

// Address returns the account address (M...) for this key.
func (kp *Public) Address() string {
	return strkey.MustEncode(strkey.VersionAccount, kp.pub)
}

// Hint returns the last four bytes of the public key.
func (kp *Public) Hint() [4]byte {
	var hint [4]byte
	copy(hint[:], kp.pub[len(kp.pub)-4:])
	return hint
}

// Verify reports whether sig is a valid signature of input by this key.
func (kp *Public) Verify(input, sig []byte) error {
	if !ed25519.Verify(kp.pub, input, sig) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}
