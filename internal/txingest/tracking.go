package txingest

import (
	"context"

	"walletgate/internal/pkg/validator"
)

// TrackedWallet identifies a wallet whose transaction history the ingester
// keeps in the transaction store, as a (network, address) pair. Both fields
// are required and validated before persistence.
type TrackedWallet struct {
	NetworkID string `validate:"required"` // network the address lives on
	Address   string `validate:"required"` // wallet address to ingest history for
}

// TrackingStorage persists the set of tracked wallets. Registrations are
// idempotent: tracking an already-tracked pair is a no-op, as is untracking an
// unknown one.
type TrackingStorage interface {
	// RegisterTrackedWallet adds the pair to the tracked set.
	RegisterTrackedWallet(ctx context.Context, wallet TrackedWallet) error

	// UnregisterTrackedWallet removes the pair from the tracked set.
	UnregisterTrackedWallet(ctx context.Context, wallet TrackedWallet) error

	// ListTrackedWallets returns every tracked address for the network.
	ListTrackedWallets(ctx context.Context, networkID string) ([]string, error)
}

// buildTrackedWallet constructs and validates a TrackedWallet from raw input.
func buildTrackedWallet(networkID, address string) (TrackedWallet, error) {
	wallet := TrackedWallet{
		NetworkID: networkID,
		Address:   address,
	}

	return wallet, validator.Validate(wallet)
}

// Track registers a wallet so the background poller starts ingesting its
// transaction history.
func (s *service) Track(ctx context.Context, networkID, address string) error {
	wallet, err := buildTrackedWallet(networkID, address)
	if err != nil {
		return err
	}

	return s.tracking.RegisterTrackedWallet(ctx, wallet)
}

// Untrack removes a wallet from ingestion. Already-stored history remains
// queryable.
func (s *service) Untrack(ctx context.Context, networkID, address string) error {
	wallet, err := buildTrackedWallet(networkID, address)
	if err != nil {
		return err
	}

	return s.tracking.UnregisterTrackedWallet(ctx, wallet)
}
