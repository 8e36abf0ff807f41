// Package cli wires the gateway's commands: serving the HTTP front end with
// the background history poller, and managing the tracked-wallet set.
package cli

import (
	"context"
	"os"

	"walletgate/internal/handlers/httpapi"
	"walletgate/internal/txingest"

	"github.com/urfave/cli/v3"
)

// Run parses os.Args and executes the selected command.
//
// Available commands:
//
//   - `serve`: Starts the HTTP gateway and the transaction-history poller.
//   - `track`: Registers a wallet for history ingestion.
//   - `untrack`: Unregisters a wallet from history ingestion.
func Run(ctx context.Context, server *httpapi.Server, ingest txingest.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "walletgate",
		Description:           "Command-line interface for running and managing the wallet gateway.",
		Usage:                 "walletgate [command] [flags]",
		Commands: []*cli.Command{
			serveCommand(server, ingest),
			trackWalletCommand(ingest),
			untrackWalletCommand(ingest),
		},
	}

	return app.Run(ctx, os.Args)
}
