package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/near/borsh-go"
)

// Preimage tags keep the digests of different signed structures disjoint.
// A transaction hash can never collide with an authorization hash or a
// derived contract id, even over identical serialized bytes.
const (
	tagTransaction   uint32 = 2
	tagContractID    uint32 = 5
	tagAuthorization uint32 = 9
)

// NetworkID derives the 32-byte network id from a network passphrase.
func NetworkID(passphrase string) Hash {
	return sha256.Sum256([]byte(passphrase))
}

// TransactionHash computes the digest an envelope signature covers:
// SHA-256 over the network id, the transaction tag, and the Borsh bytes of
// the transaction.
func TransactionHash(networkID Hash, tx *Transaction) (Hash, error) {
	body, err := borsh.Serialize(*tx)
	if err != nil {
		return Hash{}, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	h := sha256.New()
	h.Write(networkID[:])
	h.Write(beUint32(tagTransaction))
	h.Write(body)

	var out Hash
	copy(out[:], h.Sum(nil))
	return out, nil
}

// AuthorizationHash computes the digest an address-credential signature
// covers: SHA-256 over the network id, the authorization tag, the
// credential nonce and expiration ledger, and the Borsh bytes of the
// authorized invocation tree. Entries with source-account credentials have
// no separate preimage.
func AuthorizationHash(networkID Hash, entry *AuthorizationEntry) (Hash, error) {
	if entry.Credentials.Enum != CredentialsTypeAddress {
		return Hash{}, fmt.Errorf("authorization entry has no address credentials to sign")
	}
	body, err := borsh.Serialize(entry.Invocation)
	if err != nil {
		return Hash{}, fmt.Errorf("failed to serialize invocation: %w", err)
	}

	creds := entry.Credentials.Address
	h := sha256.New()
	h.Write(networkID[:])
	h.Write(beUint32(tagAuthorization))
	h.Write(beInt64(creds.Nonce))
	h.Write(beUint32(creds.SignatureExpirationLedger))
	h.Write(body)

	var out Hash
	copy(out[:], h.Sum(nil))
	return out, nil
}

// DeriveContractID computes the id a contract receives when deployed by
// the given address with the given salt. The derivation is a pure function
// of its inputs: SHA-256 over the network id, the raw deployer address, the
// contract-id tag, and the salt.
func DeriveContractID(networkID Hash, deployer Address, salt Hash) Hash {
	h := sha256.New()
	h.Write(networkID[:])
	h.Write(deployer.Raw())
	h.Write(beUint32(tagContractID))
	h.Write(salt[:])

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func beUint32(v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return buf[:]
}

func beInt64(v int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return buf[:]
}
