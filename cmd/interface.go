package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/meridianhq/meridian-go/rpc"
)

// InterfaceCommand creates the interface command
func InterfaceCommand() *cli.Command {
	return &cli.Command{
		Name:  "interface",
		Usage: "Fetch the callable interface of a deployed contract",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "gateway",
				Usage:    "Gateway JSON-RPC endpoint URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "contract",
				Usage:    "Contract address (C...)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "save-code",
				Usage: "Save the installed contract code to a file at the specified path",
			},
		},
		Action: runInterfaceCommand,
	}
}

func runInterfaceCommand(ctx context.Context, cmd *cli.Command) error {
	gateway := rpc.NewClient(cmd.String("gateway"), &http.Client{})
	address := cmd.String("contract")

	iface, err := gateway.GetContractInterface(ctx, address)
	if err != nil {
		if rpc.IsNotFound(err) {
			return fmt.Errorf("no contract found at %s", address)
		}
		return fmt.Errorf("failed to fetch contract interface: %w", err)
	}

	if path := cmd.String("save-code"); path != "" {
		code, err := gateway.GetContractCode(ctx, iface.CodeHash)
		if err != nil {
			return fmt.Errorf("failed to fetch contract code: %w", err)
		}
		if err := os.WriteFile(path, code, 0o644); err != nil {
			return fmt.Errorf("failed to save contract code: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved %d bytes of contract code to %s\n", len(code), path)
	}

	return printJSON(iface)
}
