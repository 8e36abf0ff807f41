// Package evm implements the secondary-family dialect for EVM-compatible
// nodes: balances are hex-encoded wei quantities read via eth_getBalance.
package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"walletgate/internal/balance"
	"walletgate/internal/infra/blockchain"
	"walletgate/internal/pkg/transport/jsonrpc"
	"walletgate/internal/pkg/types"
)

// client talks to an EVM node via a JSON-RPC connection bound to one network
// endpoint.
type client struct {
	conn jsonrpc.Client
}

var _ balance.ChainClient = (*client)(nil)

// NewClient creates an EVM-dialect client over the given JSON-RPC connection.
func NewClient(conn jsonrpc.Client) *client {
	return &client{
		conn: conn,
	}
}

// FetchBalance implements balance.ChainClient. It reads the latest-block
// balance as a hex wei quantity, issuing exactly one RPC.
func (c *client) FetchBalance(ctx context.Context, address string) (*big.Int, error) {
	raw, err := c.conn.Fetch(ctx, "eth_getBalance", address, "latest")
	if err != nil {
		return nil, blockchain.MapFetchError(err)
	}

	// The result is a JSON string like "0x1bc16d674ec80000"; types.Hex
	// validates the encoding on unmarshal.
	var quantity types.Hex
	if err := json.Unmarshal(raw, &quantity); err != nil {
		return nil, fmt.Errorf("%w: %w", balance.ErrMalformedResponse, err)
	}

	return quantity.BigInt(), nil
}
