package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/meridianhq/meridian-go/contract"
	"github.com/meridianhq/meridian-go/ledger"
)

// DeployCommand creates the deploy command
func DeployCommand() *cli.Command {
	flags := append(connectionFlags(), methodFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:     "code-hash",
			Usage:    "Hash of previously installed contract code (hex)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "salt",
			Usage: "Deployment salt (hex); omit for a salt derived from the source account",
		},
		&cli.StringSliceFlag{
			Name:  "ctor-arg",
			Usage: "Base64 constructor argument (repeatable, ordered)",
		},
	)
	return &cli.Command{
		Name:   "deploy",
		Usage:  "Instantiate a contract from installed code",
		Flags:  flags,
		Action: runDeployCommand,
	}
}

func runDeployCommand(ctx context.Context, cmd *cli.Command) error {
	opts, err := clientOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	method, err := methodOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	ctorArgs, err := parseValueArgs(cmd.StringSlice("ctor-arg"))
	if err != nil {
		return err
	}

	codeHash, err := ledger.HashFromHex(cmd.String("code-hash"))
	if err != nil {
		return fmt.Errorf("invalid --code-hash: %w", err)
	}

	req := contract.DeployRequest{
		Options:         opts,
		CodeHash:        codeHash,
		ConstructorArgs: ctorArgs,
		Method:          method,
	}
	if s := cmd.String("salt"); s != "" {
		salt, err := ledger.HashFromHex(s)
		if err != nil {
			return fmt.Errorf("invalid --salt: %w", err)
		}
		req.Salt = &salt
	}

	fmt.Fprintf(os.Stderr, "Deploying contract from code %s...\n", cmd.String("code-hash"))
	client, err := contract.DeployContract(ctx, req)
	if err != nil {
		return fmt.Errorf("deploy failed: %w", err)
	}

	return printJSON(map[string]interface{}{
		"contractAddress": client.Address(),
	})
}
