package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian-go/internal/webauthntest"
)

func TestPasskeyCommand(t *testing.T) {
	cmd := PasskeyCommand()

	require.NotNil(t, cmd)
	require.Equal(t, "passkey", cmd.Name)
	require.Len(t, cmd.Commands, 4)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands {
		names[sub.Name] = true
	}
	require.True(t, names["pubkey"])
	require.True(t, names["salt"])
	require.True(t, names["address"])
	require.True(t, names["compact"])
}

func TestPasskeyPubkeyCommand(t *testing.T) {
	auth, err := webauthntest.New([]byte("cmd test credential"))
	require.NoError(t, err)
	resp, err := auth.RegistrationResponse()
	require.NoError(t, err)
	payload, err := json.Marshal(resp)
	require.NoError(t, err)

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "registration.json")
		require.NoError(t, os.WriteFile(path, payload, 0o600))

		app := PasskeyCommand()
		err := app.Run(context.Background(), []string{"passkey", "pubkey", "--file", path})
		require.NoError(t, err)
	})

	t.Run("from json", func(t *testing.T) {
		app := PasskeyCommand()
		err := app.Run(context.Background(), []string{"passkey", "pubkey", "--json", string(payload)})
		require.NoError(t, err)
	})

	t.Run("neither input", func(t *testing.T) {
		app := PasskeyCommand()
		err := app.Run(context.Background(), []string{"passkey", "pubkey"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "either --file or --json")
	})

	t.Run("both inputs", func(t *testing.T) {
		app := PasskeyCommand()
		err := app.Run(context.Background(), []string{"passkey", "pubkey", "--file", "x.json", "--json", "{}"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only one of --file or --json")
	})

	t.Run("malformed json", func(t *testing.T) {
		app := PasskeyCommand()
		err := app.Run(context.Background(), []string{"passkey", "pubkey", "--json", "not json"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse registration response")
	})
}

func TestPasskeySaltCommand(t *testing.T) {
	auth, err := webauthntest.New([]byte("cmd test credential"))
	require.NoError(t, err)

	app := PasskeyCommand()
	err = app.Run(context.Background(), []string{
		"passkey", "salt",
		"--credential-id", auth.CredentialIDBase64(),
	})
	require.NoError(t, err)
}

func TestPasskeyAddressCommand(t *testing.T) {
	auth, err := webauthntest.New([]byte("cmd test credential"))
	require.NoError(t, err)

	t.Run("derives address", func(t *testing.T) {
		app := PasskeyCommand()
		err := app.Run(context.Background(), []string{
			"passkey", "address",
			"--credential-id", auth.CredentialIDBase64(),
			"--factory", testWalletContract(),
			"--network", "public",
		})
		require.NoError(t, err)
	})

	t.Run("rejects malformed factory", func(t *testing.T) {
		app := PasskeyCommand()
		err := app.Run(context.Background(), []string{
			"passkey", "address",
			"--credential-id", auth.CredentialIDBase64(),
			"--factory", "not-an-address",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to derive wallet address")
	})
}

func TestPasskeyCompactCommand(t *testing.T) {
	auth, err := webauthntest.New([]byte("cmd test credential"))
	require.NoError(t, err)
	assertion, err := auth.GetAssertion(context.Background(), []byte("cmd test credential"), []byte("challenge"))
	require.NoError(t, err)

	t.Run("converts DER signature", func(t *testing.T) {
		app := PasskeyCommand()
		err := app.Run(context.Background(), []string{
			"passkey", "compact",
			"--signature", base64.StdEncoding.EncodeToString(assertion.Signature),
		})
		require.NoError(t, err)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		app := PasskeyCommand()
		err := app.Run(context.Background(), []string{
			"passkey", "compact",
			"--signature", "!!not-base64!!",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode signature")
	})
}
