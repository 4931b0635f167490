package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/meridianhq/meridian-go/contract"
)

// InvokeCommand creates the invoke command
func InvokeCommand() *cli.Command {
	flags := append(connectionFlags(), methodFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:     "contract",
			Usage:    "Contract address (C...)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "method",
			Usage:    "Method name to invoke",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  "arg",
			Usage: "Base64 method argument (repeatable, ordered)",
		},
		&cli.BoolFlag{
			Name:  "restore",
			Usage: "Restore archived ledger entries when simulation requires it",
		},
		&cli.BoolFlag{
			Name:  "simulate-only",
			Usage: "Stop after simulation and print the classification",
		},
	)
	return &cli.Command{
		Name:   "invoke",
		Usage:  "Invoke a contract method and wait for the result",
		Flags:  flags,
		Action: runInvokeCommand,
	}
}

func runInvokeCommand(ctx context.Context, cmd *cli.Command) error {
	opts, err := clientOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	method, err := methodOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	args, err := parseValueArgs(cmd.StringSlice("arg"))
	if err != nil {
		return err
	}

	client, err := contract.NewClient(opts, cmd.String("contract"))
	if err != nil {
		return fmt.Errorf("failed to create contract client: %w", err)
	}

	at, err := client.BuildInvoke(ctx, cmd.String("method"), args, method)
	if err != nil {
		return fmt.Errorf("failed to assemble transaction: %w", err)
	}

	if cmd.Bool("simulate-only") {
		output := map[string]interface{}{
			"state":    at.State().String(),
			"readOnly": at.IsReadCall(),
		}
		if result, err := at.Result(); err == nil {
			output["result"] = result.MarshalBase64()
		}
		if signers := at.NeedsNonInvokerSigningBy(); len(signers) > 0 {
			output["needsSignaturesFrom"] = signers
		}
		return printJSON(output)
	}

	fmt.Fprintf(os.Stderr, "Invoking %s on %s...\n", cmd.String("method"), cmd.String("contract"))
	result, err := at.Execute(ctx)
	if err != nil {
		return fmt.Errorf("invocation failed: %w", err)
	}

	output := map[string]interface{}{
		"state":  at.State().String(),
		"result": result.MarshalBase64(),
	}
	if at.Hash() != "" {
		output["hash"] = at.Hash()
	}
	return printJSON(output)
}
