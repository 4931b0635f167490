package passkey

import (
	"crypto/sha256"
	"fmt"

	"github.com/meridianhq/meridian-go/ledger"
)

// ContractSalt derives the 32-byte wallet salt from a WebAuthn credential
// id. The salt is a pure function of the decoded id: the same credential
// always maps to the same salt, and distinct credentials map to distinct
// salts.
func ContractSalt(credentialID string) (ledger.Hash, error) {
	raw, err := decodeB64URL(credentialID)
	if err != nil {
		return ledger.Hash{}, &ParseError{Subject: "credential id", Err: err}
	}
	return sha256.Sum256(raw), nil
}

// DeriveContractAddress computes the wallet address the factory contract
// deploys for the given salt on the given network. The derivation is a
// pure function: changing the salt, the factory address, or the network
// passphrase changes the result.
func DeriveContractAddress(salt ledger.Hash, factoryAddress, networkPassphrase string) (string, error) {
	deployer, err := ledger.ParseAddress(factoryAddress)
	if err != nil {
		return "", fmt.Errorf("invalid factory address: %w", err)
	}
	id := ledger.DeriveContractID(ledger.NetworkID(networkPassphrase), deployer, salt)
	return ledger.NewContractAddress(id).String(), nil
}

// WalletAddress combines ContractSalt and DeriveContractAddress for the
// common case of going straight from a credential id to its wallet
// address.
func WalletAddress(credentialID, factoryAddress, networkPassphrase string) (string, error) {
	salt, err := ContractSalt(credentialID)
	if err != nil {
		return "", err
	}
	return DeriveContractAddress(salt, factoryAddress, networkPassphrase)
}
