package redis

import (
	"context"
	"fmt"
	"time"

	"walletgate/internal/txingest"
)

// pollClaimKey reserves one ingestion poll cycle for a (network, address)
// pair.
//
// Format: "ingest:claim:{networkID}:{address}"
func pollClaimKey(networkID, address string) string {
	return fmt.Sprintf("%s:claim:%s:%s", trackingKeyPrefix, networkID, address)
}

// ClaimPoll implements txingest.PollClaimGuard with SET NX and a TTL: the
// first replica to set the key owns the cycle, everyone else skips the pair
// until the claim expires.
func (c *client) ClaimPoll(ctx context.Context, networkID, address string, ttl time.Duration) error {
	ok, err := c.conn.SetNX(ctx, pollClaimKey(networkID, address), "", ttl).Result()
	if err != nil {
		return err
	}

	if !ok {
		return txingest.ErrPollAlreadyClaimed
	}

	return nil
}

// Compile-time assertion that the redis client satisfies txingest.PollClaimGuard.
var _ txingest.PollClaimGuard = (*client)(nil)
