package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/meridianhq/meridian-go/contract"
)

// InstallCommand creates the install command
func InstallCommand() *cli.Command {
	flags := append(connectionFlags(), methodFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:     "code",
			Usage:    "Path to the contract code binary",
			Required: true,
		},
	)
	return &cli.Command{
		Name:   "install",
		Usage:  "Upload contract code to the ledger",
		Flags:  flags,
		Action: runInstallCommand,
	}
}

func runInstallCommand(ctx context.Context, cmd *cli.Command) error {
	opts, err := clientOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	method, err := methodOptionsFromFlags(cmd)
	if err != nil {
		return err
	}

	code, err := os.ReadFile(cmd.String("code"))
	if err != nil {
		return fmt.Errorf("failed to read contract code: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Installing %d bytes of contract code...\n", len(code))
	hash, err := contract.InstallContract(ctx, contract.InstallRequest{
		Options: opts,
		Code:    code,
		Method:  method,
	})
	if err != nil {
		return fmt.Errorf("install failed: %w", err)
	}

	return printJSON(map[string]interface{}{
		"codeHash": hash.Hex(),
	})
}
