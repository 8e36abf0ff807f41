package balance

import (
	"context"
	"errors"
	"math/big"
	"time"
)

// Upstream failure kinds. Chain clients translate their wire-level failures
// onto these sentinels so the HTTP layer can pick a status without knowing
// the dialect.
var (
	// ErrUpstreamTimeout indicates the upstream node did not answer within
	// the configured deadline. Retryable by the caller; the gateway itself
	// never retries a balance fetch.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrMalformedResponse indicates the upstream node answered with a
	// payload the dialect adapter could not decode.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrInvalidAddress indicates the upstream node rejected the address
	// format. Treated as a client error, never retried.
	ErrInvalidAddress = errors.New("invalid address")
)

// TokenBalance is a non-native token position attached to a wallet snapshot.
type TokenBalance struct {
	Mint   string
	Symbol string
	Amount float64
}

// Snapshot is a point-in-time balance for one (address, network) pair. It is
// superseded, never mutated, on refresh. USDValue is NativeAmount multiplied
// by the network's unit price at fetch time.
type Snapshot struct {
	Address      string
	NetworkID    string
	NativeAmount float64
	USDValue     float64
	Tokens       []TokenBalance
	FetchedAt    time.Time
}

// ChainClient fetches a wallet balance from one upstream network, in the
// chain's smallest unit (lamport-equivalents for the native family, wei for
// the secondary family). Implementations issue exactly one network call per
// invocation and own no retry policy.
type ChainClient interface {
	FetchBalance(ctx context.Context, address string) (*big.Int, error)
}
