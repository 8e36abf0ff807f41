// Package native implements the gateway's home-chain dialect. Balances are
// smallest-unit integers wrapped in a slot context, and per-address history is
// available through a signature listing call, which makes this the only
// family the ingestion poller can source from.
package native

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"walletgate/internal/balance"
	"walletgate/internal/infra/blockchain"
	"walletgate/internal/pkg/transport/jsonrpc"
	"walletgate/internal/txhistory"
	"walletgate/internal/txingest"
)

// client talks to a native-family node via a JSON-RPC connection bound to one
// network endpoint.
type client struct {
	conn jsonrpc.Client
}

var (
	_ balance.ChainClient    = (*client)(nil)
	_ txingest.HistorySource = (*client)(nil)
)

// NewClient creates a native-dialect client over the given JSON-RPC
// connection.
func NewClient(conn jsonrpc.Client) *client {
	return &client{
		conn: conn,
	}
}

// balanceResult is the node's getBalance reply: the confirmed smallest-unit
// amount under a slot context. The amount is an unsigned 64-bit quantity on
// the wire and can exceed MaxInt64.
type balanceResult struct {
	Context struct {
		Slot int64 `json:"slot"`
	} `json:"context"`
	Value uint64 `json:"value"`
}

// FetchBalance implements balance.ChainClient. It issues exactly one RPC.
func (c *client) FetchBalance(ctx context.Context, address string) (*big.Int, error) {
	raw, err := c.conn.Fetch(ctx, "getBalance", address)
	if err != nil {
		return nil, blockchain.MapFetchError(err)
	}

	var result balanceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", balance.ErrMalformedResponse, err)
	}

	return new(big.Int).SetUint64(result.Value), nil
}

// signatureEntry is one row of a getSignaturesForAddress reply.
type signatureEntry struct {
	Signature string `json:"signature"`
	BlockTime int64  `json:"blockTime"`
}

// FetchRecentTransactions implements txingest.HistorySource. It lists the
// newest signatures for the address and keeps each raw entry as the record
// payload; the caller stamps address and provider before storing.
func (c *client) FetchRecentTransactions(ctx context.Context, address string, limit int) ([]txhistory.Record, error) {
	raw, err := c.conn.Fetch(ctx, "getSignaturesForAddress", address, map[string]any{"limit": limit})
	if err != nil {
		return nil, blockchain.MapFetchError(err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", balance.ErrMalformedResponse, err)
	}

	records := make([]txhistory.Record, 0, len(entries))
	for _, rawEntry := range entries {
		var entry signatureEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			return nil, fmt.Errorf("%w: %w", balance.ErrMalformedResponse, err)
		}

		if entry.Signature == "" {
			return nil, fmt.Errorf("%w: entry without signature", balance.ErrMalformedResponse)
		}

		records = append(records, txhistory.Record{
			Signature: entry.Signature,
			Timestamp: entry.BlockTime,
			Payload:   rawEntry,
		})
	}

	return records, nil
}
