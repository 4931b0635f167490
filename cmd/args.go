package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/meridianhq/meridian-go/contract"
	"github.com/meridianhq/meridian-go/keypair"
	"github.com/meridianhq/meridian-go/ledger"
	"github.com/meridianhq/meridian-go/rpc"
)

// connectionFlags are the flags shared by every command that signs and
// submits transactions.
func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "gateway",
			Usage:    "Gateway JSON-RPC endpoint URL",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "network",
			Usage: "Network: public, test, or a custom passphrase",
			Value: "test",
		},
		&cli.StringFlag{
			Name:     "seed-file",
			Usage:    "Path to the source account seed file (S...)",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log gateway traffic and state transitions to stderr",
		},
	}
}

// methodFlags tune a single transaction.
func methodFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "fee",
			Usage: "Inclusion fee",
			Value: strconv.Itoa(contract.DefaultBaseFee),
		},
		&cli.StringFlag{
			Name:  "timeout",
			Usage: "Polling timeout in seconds",
			Value: strconv.Itoa(contract.DefaultTimeoutSeconds),
		},
		&cli.BoolFlag{
			Name:  "no-simulate",
			Usage: "Skip simulation and submit with the supplied fee",
		},
	}
}

// resolveNetworkPassphrase maps the --network flag to a passphrase. The
// values "public" and "test" select the well-known Meridian networks; any
// other value is used as a passphrase verbatim.
func resolveNetworkPassphrase(network string) string {
	switch network {
	case "", "test":
		return ledger.TestNetworkPassphrase
	case "public":
		return ledger.PublicNetworkPassphrase
	default:
		return network
	}
}

// clientOptionsFromFlags builds contract client options from the shared
// connection flags.
func clientOptionsFromFlags(cmd *cli.Command) (contract.ClientOptions, error) {
	kp, err := keypair.FromSeedFile(cmd.String("seed-file"))
	if err != nil {
		return contract.ClientOptions{}, fmt.Errorf("failed to load source keypair: %w", err)
	}

	gateway := rpc.NewClient(cmd.String("gateway"), &http.Client{})
	if cmd.Bool("verbose") {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		gateway = gateway.WithLogger(logger)
	}

	return contract.ClientOptions{
		Gateway:           gateway,
		NetworkPassphrase: resolveNetworkPassphrase(cmd.String("network")),
		SourceKeypair:     kp,
		EnableLogging:     cmd.Bool("verbose"),
	}, nil
}

// methodOptionsFromFlags builds method options from the fee, timeout, and
// restore flags.
func methodOptionsFromFlags(cmd *cli.Command) (contract.MethodOptions, error) {
	opts := contract.DefaultMethodOptions()

	fee, err := strconv.ParseUint(cmd.String("fee"), 10, 32)
	if err != nil {
		return opts, fmt.Errorf("invalid --fee value %q: %w", cmd.String("fee"), err)
	}
	opts.Fee = uint32(fee)

	timeout, err := strconv.ParseUint(cmd.String("timeout"), 10, 32)
	if err != nil {
		return opts, fmt.Errorf("invalid --timeout value %q: %w", cmd.String("timeout"), err)
	}
	opts.TimeoutSeconds = uint32(timeout)

	opts.Simulate = !cmd.Bool("no-simulate")
	opts.Restore = cmd.Bool("restore")
	return opts, nil
}

// parseValueArgs decodes base64 --arg values into ledger values, preserving
// order.
func parseValueArgs(args []string) ([]ledger.Value, error) {
	values := make([]ledger.Value, 0, len(args))
	for i, arg := range args {
		v, err := ledger.ValueFromBase64(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode arg %d: %w", i, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// printJSON writes the command result to stdout.
func printJSON(output interface{}) error {
	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(jsonBytes))
	return nil
}
