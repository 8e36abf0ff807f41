// Package blockchain holds what the chain-family dialects share: the
// translation of transport- and provider-level failures into the gateway's
// upstream error kinds.
package blockchain

import (
	"context"
	"errors"
	"fmt"
	"net"

	"walletgate/internal/balance"
	"walletgate/internal/pkg/transport/jsonrpc"
)

// MapFetchError classifies a failed upstream call. Deadline and transport
// timeouts become balance.ErrUpstreamTimeout, a JSON-RPC invalid-params
// rejection becomes balance.ErrInvalidAddress, and anything else passes
// through for the caller to treat as a protocol failure.
func MapFetchError(err error) error {
	if err == nil {
		return nil
	}

	if isTimeout(err) {
		return fmt.Errorf("%w: %w", balance.ErrUpstreamTimeout, err)
	}

	var providerErr *jsonrpc.ProviderError
	if errors.As(err, &providerErr) && providerErr.Code == jsonrpc.CodeInvalidParams {
		return fmt.Errorf("%w: %s", balance.ErrInvalidAddress, providerErr.Message)
	}

	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
