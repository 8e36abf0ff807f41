// Package netregistry maps logical network identifiers to the upstream
// endpoints and chain-family dialects the gateway talks to. The table is
// assembled once at startup and never mutated afterwards.
package netregistry

import (
	"errors"
	"fmt"
)

// ErrNetworkNotFound is returned when a network identifier is not present in
// the registry. It is a client error: the caller supplied an unknown
// providerId, and the lookup is never retried.
var ErrNetworkNotFound = errors.New("network not found")

// ChainFamily selects the wire dialect used to talk to a network's RPC
// endpoint.
type ChainFamily string

const (
	// ChainFamilyNative is the gateway's home chain: balances are smallest-unit
	// integers divided by a fixed units-per-whole constant.
	ChainFamilyNative ChainFamily = "native"

	// ChainFamilySecondary is the EVM-dialect chain: balances are hex-encoded
	// wei quantities read via eth_getBalance.
	ChainFamilySecondary ChainFamily = "secondary"
)

// Known network identifiers. These are the providerId values wallet clients
// send.
const (
	NetworkPrimaryMainnet   = "primary-mainnet"
	NetworkPrimaryTestnet   = "primary-testnet"
	NetworkSecondaryMainnet = "secondary-mainnet"
	NetworkSecondaryDevnet  = "secondary-devnet"
	NetworkSecondaryTestnet = "secondary-testnet"
)

// NetworkDescriptor describes one upstream network. Descriptors are immutable;
// their identity is the NetworkID.
type NetworkDescriptor struct {
	NetworkID   string      // logical identifier, unique within the registry
	ChainFamily ChainFamily // wire dialect used against EndpointURL
	Testnet     bool        // true for testnet/devnet variants
	EndpointURL string      // JSON-RPC endpoint
	GraphQLURL  string      // priced-fee GraphQL service for this network

	// UnitsPerWhole is the number of smallest units in one whole coin
	// (e.g. 1e9 for the native chain, 1e18 wei for the EVM chain).
	UnitsPerWhole int64

	// UnitPriceUSD is the USD price of one whole coin, applied at fetch time.
	UnitPriceUSD float64
}

// Registry resolves network identifiers to their descriptors. It is safe for
// concurrent use since the table is read-only after construction.
type Registry struct {
	networks map[string]NetworkDescriptor
}

// New builds a registry from the given descriptors. Duplicate network
// identifiers are a wiring bug and fail construction.
func New(descriptors ...NetworkDescriptor) (*Registry, error) {
	networks := make(map[string]NetworkDescriptor, len(descriptors))
	for _, d := range descriptors {
		if _, exists := networks[d.NetworkID]; exists {
			return nil, fmt.Errorf("duplicate network id %q", d.NetworkID)
		}
		networks[d.NetworkID] = d
	}

	return &Registry{networks: networks}, nil
}

// Default returns the registry with the five networks the gateway serves,
// pointing at the production upstream endpoints.
func Default() *Registry {
	r, _ := New(
		NetworkDescriptor{
			NetworkID:     NetworkPrimaryMainnet,
			ChainFamily:   ChainFamilyNative,
			EndpointURL:   "https://rpc.primary.network",
			GraphQLURL:    "https://fees.primary.network/graphql",
			UnitsPerWhole: 1_000_000_000,
			UnitPriceUSD:  1.0,
		},
		NetworkDescriptor{
			NetworkID:     NetworkPrimaryTestnet,
			ChainFamily:   ChainFamilyNative,
			Testnet:       true,
			EndpointURL:   "https://rpc.testnet.primary.network",
			GraphQLURL:    "https://fees.testnet.primary.network/graphql",
			UnitsPerWhole: 1_000_000_000,
			UnitPriceUSD:  1.0,
		},
		NetworkDescriptor{
			NetworkID:     NetworkSecondaryMainnet,
			ChainFamily:   ChainFamilySecondary,
			EndpointURL:   "https://rpc.secondary.network",
			GraphQLURL:    "https://fees.secondary.network/graphql",
			UnitsPerWhole: 1_000_000_000_000_000_000,
			UnitPriceUSD:  1.0,
		},
		NetworkDescriptor{
			NetworkID:     NetworkSecondaryDevnet,
			ChainFamily:   ChainFamilySecondary,
			Testnet:       true,
			EndpointURL:   "https://rpc.devnet.secondary.network",
			GraphQLURL:    "https://fees.devnet.secondary.network/graphql",
			UnitsPerWhole: 1_000_000_000_000_000_000,
			UnitPriceUSD:  1.0,
		},
		NetworkDescriptor{
			NetworkID:     NetworkSecondaryTestnet,
			ChainFamily:   ChainFamilySecondary,
			Testnet:       true,
			EndpointURL:   "https://rpc.testnet.secondary.network",
			GraphQLURL:    "https://fees.testnet.secondary.network/graphql",
			UnitsPerWhole: 1_000_000_000_000_000_000,
			UnitPriceUSD:  1.0,
		},
	)
	return r
}

// Resolve returns the descriptor for the given network identifier, or
// ErrNetworkNotFound when the identifier is unknown.
func (r *Registry) Resolve(networkID string) (NetworkDescriptor, error) {
	d, ok := r.networks[networkID]
	if !ok {
		return NetworkDescriptor{}, fmt.Errorf("%w: %q", ErrNetworkNotFound, networkID)
	}
	return d, nil
}

// All returns every registered descriptor, in no particular order. Used at
// startup to construct one chain client per network.
func (r *Registry) All() []NetworkDescriptor {
	out := make([]NetworkDescriptor, 0, len(r.networks))
	for _, d := range r.networks {
		out = append(out, d)
	}
	return out
}
