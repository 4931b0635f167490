package cmd

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/meridianhq/meridian-go/passkey"
)

// PasskeyCommand creates the passkey commands
func PasskeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "passkey",
		Usage: "WebAuthn credential utilities for smart wallets",
		Commands: []*cli.Command{
			passkeyPubkeyCommand(),
			passkeySaltCommand(),
			passkeyAddressCommand(),
			passkeyCompactCommand(),
		},
	}
}

func passkeyPubkeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "pubkey",
		Usage: "Extract the P-256 public key from a registration response",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Path to a registration response JSON file",
			},
			&cli.StringFlag{
				Name:  "json",
				Usage: "Registration response JSON string",
			},
		},
		Action: runPasskeyPubkeyCommand,
	}
}

func runPasskeyPubkeyCommand(ctx context.Context, cmd *cli.Command) error {
	filePath := cmd.String("file")
	raw := cmd.String("json")

	if filePath == "" && raw == "" {
		return fmt.Errorf("either --file or --json must be provided")
	}
	if filePath != "" && raw != "" {
		return fmt.Errorf("only one of --file or --json should be provided")
	}

	data := []byte(raw)
	if filePath != "" {
		var err error
		data, err = os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read registration response: %w", err)
		}
	}

	var resp passkey.CredentialResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("failed to parse registration response: %w", err)
	}

	key, err := passkey.ExtractPublicKey(&resp)
	if err != nil {
		return fmt.Errorf("failed to extract public key: %w", err)
	}

	return printJSON(map[string]string{
		"publicKey": hex.EncodeToString(key),
	})
}

func passkeySaltCommand() *cli.Command {
	return &cli.Command{
		Name:  "salt",
		Usage: "Derive the wallet contract salt from a credential id",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "credential-id",
				Usage:    "Base64url credential id from registration",
				Required: true,
			},
		},
		Action: runPasskeySaltCommand,
	}
}

func runPasskeySaltCommand(ctx context.Context, cmd *cli.Command) error {
	salt, err := passkey.ContractSalt(cmd.String("credential-id"))
	if err != nil {
		return fmt.Errorf("failed to derive contract salt: %w", err)
	}

	return printJSON(map[string]string{
		"salt": salt.Hex(),
	})
}

func passkeyAddressCommand() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "Derive the smart wallet address for a credential",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "credential-id",
				Usage:    "Base64url credential id from registration",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "factory",
				Usage:    "Factory contract address (C...)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "network",
				Usage: "Network passphrase, or 'test'/'public'",
				Value: "test",
			},
		},
		Action: runPasskeyAddressCommand,
	}
}

func runPasskeyAddressCommand(ctx context.Context, cmd *cli.Command) error {
	address, err := passkey.WalletAddress(
		cmd.String("credential-id"),
		cmd.String("factory"),
		resolveNetworkPassphrase(cmd.String("network")),
	)
	if err != nil {
		return fmt.Errorf("failed to derive wallet address: %w", err)
	}

	return printJSON(map[string]string{
		"walletAddress": address,
	})
}

func passkeyCompactCommand() *cli.Command {
	return &cli.Command{
		Name:  "compact",
		Usage: "Convert a DER assertion signature to 64-byte compact form",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "signature",
				Usage:    "Base64-encoded DER ECDSA signature",
				Required: true,
			},
		},
		Action: runPasskeyCompactCommand,
	}
}

func runPasskeyCompactCommand(ctx context.Context, cmd *cli.Command) error {
	der, err := base64.StdEncoding.DecodeString(cmd.String("signature"))
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}

	compact, err := passkey.CompactSignature(der)
	if err != nil {
		return fmt.Errorf("failed to convert signature: %w", err)
	}

	return printJSON(map[string]string{
		"signature": hex.EncodeToString(compact),
	})
}
