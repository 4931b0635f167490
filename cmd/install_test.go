package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestInstallCommand(t *testing.T) {
	cmd := InstallCommand()

	require.NotNil(t, cmd)
	require.Equal(t, "install", cmd.Name)
	require.NotNil(t, cmd.Action)
	require.Len(t, cmd.Flags, 8)

	var hasCode bool
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == "code" {
			hasCode = true
			require.True(t, f.Required)
		}
	}
	require.True(t, hasCode)
}

func TestInstallCommandUnreadableCode(t *testing.T) {
	seedPath, _ := writeSeedFile(t)

	app := InstallCommand()
	err := app.Run(context.Background(), []string{
		"install",
		"--gateway", "https://gateway.test",
		"--seed-file", seedPath,
		"--code", filepath.Join(t.TempDir(), "absent.wasm"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read contract code")
}
