package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	"github.com/meridianhq/meridian-go/internal/webauthntest"
	"github.com/meridianhq/meridian-go/ledger"
	"github.com/meridianhq/meridian-go/passkey"
)

// Generates a deterministic passkey registration fixture for exercising the
// passkey CLI commands against a local gateway.

// The scalar is fixed so the fixture comes out identical on every run.
const fixtureKeyHex = "5c5bd53f0a9bb1f4fbbb1ebb6535c0c4d11f77c38cb69b07ecbd7a94c5a44d42"

func main() {
	auth, err := webauthntest.NewFromKeyHex([]byte("meridian fixture credential"), fixtureKeyHex)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := auth.RegistrationResponse()
	if err != nil {
		log.Fatal(err)
	}
	payload, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		log.Fatal(err)
	}

	key, err := passkey.ExtractPublicKey(resp)
	if err != nil {
		log.Fatal(err)
	}

	salt, err := passkey.ContractSalt(auth.CredentialIDBase64())
	if err != nil {
		log.Fatal(err)
	}

	var factoryID ledger.Hash
	for i := range factoryID {
		factoryID[i] = 0xFA
	}
	factory := ledger.NewContractAddress(factoryID).String()
	wallet, err := passkey.WalletAddress(auth.CredentialIDBase64(), factory, ledger.TestNetworkPassphrase)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Passkey Fixture")
	fmt.Println("===============")
	fmt.Printf("\nCredential ID (base64url): %s\n", auth.CredentialIDBase64())
	fmt.Printf("Public key (uncompressed): %s\n", hex.EncodeToString(key))
	fmt.Printf("Contract salt:             %s\n", salt.Hex())
	fmt.Printf("Factory (sample):          %s\n", factory)
	fmt.Printf("Wallet address:            %s\n", wallet)
	fmt.Println("\nRegistration response JSON:")
	fmt.Println(string(payload))
}
