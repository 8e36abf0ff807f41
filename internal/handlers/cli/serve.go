package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"walletgate/internal/handlers/httpapi"
	"walletgate/internal/pkg/logger"
	"walletgate/internal/txingest"

	"github.com/urfave/cli/v3"
)

// shutdownGracePeriod bounds how long in-flight requests may drain after a
// termination signal.
const shutdownGracePeriod = 10 * time.Second

// serveCommand returns a CLI command that starts the HTTP gateway together
// with the transaction-history poller.
//
// Usage example:
//
//	walletgate serve
//
// The process runs until it receives an interrupt (SIGINT or SIGTERM), then
// drains in-flight requests before exiting.
func serveCommand(server *httpapi.Server, ingest txingest.Service) *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Description: "Starts the wallet gateway and the transaction-history poller.",
		Usage:       "Runs the HTTP front end. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			if err := ingest.Start(ctx); err != nil {
				return err
			}
			defer ingest.Close()

			serveErr := make(chan error, 1)
			go func() {
				serveErr <- server.Start()
			}()

			select {
			case err := <-serveErr:
				return err
			case <-quit:
			}

			logger.Info(ctx, "shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGracePeriod)
			defer cancel()

			return server.Shutdown(shutdownCtx)
		},
	}
}
