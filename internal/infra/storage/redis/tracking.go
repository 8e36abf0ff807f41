package redis

import (
	"context"
	"fmt"

	"walletgate/internal/txingest"
)

// trackingKeyPrefix is the namespace for tracked-wallet sets.
const trackingKeyPrefix = "ingest"

// trackedWalletsKey returns the set holding the tracked addresses of one
// network.
//
// Format: "ingest:tracked:{networkID}"
func trackedWalletsKey(networkID string) string {
	return fmt.Sprintf("%s:tracked:%s", trackingKeyPrefix, networkID)
}

// RegisterTrackedWallet implements txingest.TrackingStorage using a Redis set
// per network, so registration is naturally idempotent.
func (c *client) RegisterTrackedWallet(ctx context.Context, wallet txingest.TrackedWallet) error {
	return c.conn.SAdd(ctx, trackedWalletsKey(wallet.NetworkID), wallet.Address).Err()
}

// UnregisterTrackedWallet implements txingest.TrackingStorage.
func (c *client) UnregisterTrackedWallet(ctx context.Context, wallet txingest.TrackedWallet) error {
	return c.conn.SRem(ctx, trackedWalletsKey(wallet.NetworkID), wallet.Address).Err()
}

// ListTrackedWallets implements txingest.TrackingStorage.
func (c *client) ListTrackedWallets(ctx context.Context, networkID string) ([]string, error) {
	return c.conn.SMembers(ctx, trackedWalletsKey(networkID)).Result()
}

// Compile-time assertion that the redis client satisfies txingest.TrackingStorage.
var _ txingest.TrackingStorage = (*client)(nil)
