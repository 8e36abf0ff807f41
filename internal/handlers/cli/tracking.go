package cli

import (
	"context"

	"walletgate/internal/txingest"

	"github.com/urfave/cli/v3"
)

// trackWalletCommand returns a CLI command that registers a wallet address
// for transaction-history ingestion on a specific network.
//
// Usage example:
//
//	walletgate track --network primary-mainnet --address 4Nd1mYQ...
func trackWalletCommand(ingest txingest.Service) *cli.Command {
	return &cli.Command{
		Name:        "track",
		Description: "Register a wallet so its transaction history is polled and stored.",
		Usage:       "Registers a wallet address for ingestion. Must provide both network and address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "network",
				Usage:    "Network identifier (e.g., primary-mainnet, secondary-devnet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Wallet address to start tracking",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				network = c.String("network")
				address = c.String("address")
			)

			return ingest.Track(ctx, network, address)
		},
	}
}

// untrackWalletCommand returns a CLI command that removes a wallet address
// from history ingestion on a specific network.
//
// Usage example:
//
//	walletgate untrack --network primary-mainnet --address 4Nd1mYQ...
func untrackWalletCommand(ingest txingest.Service) *cli.Command {
	return &cli.Command{
		Name:        "untrack",
		Description: "Unregister a wallet from transaction-history ingestion on a specific network.",
		Usage:       "Stops tracking a wallet address. Must provide both network and address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "network",
				Usage:    "Network identifier (e.g., primary-mainnet, secondary-devnet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Wallet address to stop tracking",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				network = c.String("network")
				address = c.String("address")
			)

			return ingest.Untrack(ctx, network, address)
		},
	}
}
