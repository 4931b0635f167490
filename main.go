package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/meridianhq/meridian-go/cmd"
)

func main() {
	app := &cli.Command{
		Name:  "meridian-client",
		Usage: "Meridian Smart Contract Client",
		Commands: []*cli.Command{
			cmd.InvokeCommand(),
			cmd.InstallCommand(),
			cmd.DeployCommand(),
			cmd.InterfaceCommand(),
			cmd.PasskeyCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
