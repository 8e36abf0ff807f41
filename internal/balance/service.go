// Package balance serves wallet balances with a short-TTL cache in front of
// the upstream chain clients. Concurrent lookups of the same (address,
// network) key are coalesced so a cache-miss episode costs at most one
// upstream call, and a failed fetch never populates the cache.
package balance

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"walletgate/internal/netregistry"
	"walletgate/internal/pkg/logger"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	// defaultTTL is how long a snapshot stays fresh before the next lookup
	// refetches it.
	defaultTTL = 2 * time.Second

	// defaultCacheCapacity bounds the snapshot cache. The upstream address
	// set is unbounded, so entries past the capacity are evicted least
	// recently used.
	defaultCacheCapacity = 4096

	// defaultUpstreamTimeout bounds a single upstream balance call so a
	// client request can never hang indefinitely.
	defaultUpstreamTimeout = 5 * time.Second
)

// Service answers balance queries for any registered network.
type Service interface {
	// GetBalance returns a fresh-or-cached snapshot for the given address on
	// the given network. Unknown networks fail fast with
	// netregistry.ErrNetworkNotFound and no upstream call.
	GetBalance(ctx context.Context, address, networkID string) (Snapshot, error)
}

type service struct {
	registry *netregistry.Registry
	clients  map[string]ChainClient // chain client per network id

	cache *expirable.LRU[string, Snapshot]
	group singleflight.Group

	upstreamTimeout time.Duration
	now             func() time.Time
}

var _ Service = (*service)(nil)

// config holds construction-time settings for the service.
type config struct {
	ttl             time.Duration
	cacheCapacity   int
	upstreamTimeout time.Duration
	now             func() time.Time
}

// Option configures the balance service.
type Option func(*config)

// WithTTL sets how long a snapshot is considered fresh. Default: 2 seconds.
func WithTTL(d time.Duration) Option {
	return func(c *config) {
		c.ttl = d
	}
}

// WithCacheCapacity caps the number of cached snapshots. Default: 4096.
func WithCacheCapacity(n int) Option {
	return func(c *config) {
		c.cacheCapacity = n
	}
}

// WithUpstreamTimeout bounds a single upstream balance call. Default: 5 seconds.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(c *config) {
		c.upstreamTimeout = d
	}
}

// WithClock overrides the time source used to stamp snapshots. Intended for
// tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// New creates a balance service over the given registry and per-network chain
// clients. The clients map must contain an entry for every network the
// registry can resolve.
func New(registry *netregistry.Registry, clients map[string]ChainClient, opts ...Option) *service {
	cfg := config{
		ttl:             defaultTTL,
		cacheCapacity:   defaultCacheCapacity,
		upstreamTimeout: defaultUpstreamTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		registry:        registry,
		clients:         clients,
		cache:           expirable.NewLRU[string, Snapshot](cfg.cacheCapacity, nil, cfg.ttl),
		upstreamTimeout: cfg.upstreamTimeout,
		now:             cfg.now,
	}
}

// snapshotKey identifies one cache/coalescing slot per (network, address).
func snapshotKey(networkID, address string) string {
	return networkID + "/" + address
}

// GetBalance implements Service.
//
// Lookup order: registry resolve, fresh cache hit, coalesced upstream fetch.
// All concurrent callers that miss on the same key share one upstream call
// and receive the same snapshot or the same error. Errors are returned to
// every waiter but never cached, so the next lookup starts from a clean miss.
func (s *service) GetBalance(ctx context.Context, address, networkID string) (Snapshot, error) {
	descriptor, err := s.registry.Resolve(networkID)
	if err != nil {
		return Snapshot{}, err
	}

	key := snapshotKey(networkID, address)
	if snapshot, ok := s.cache.Get(key); ok {
		return snapshot, nil
	}

	result, err, shared := s.group.Do(key, func() (any, error) {
		// A concurrent miss may already have refilled the slot while this
		// caller was queueing on the flight group.
		if snapshot, ok := s.cache.Get(key); ok {
			return snapshot, nil
		}

		snapshot, err := s.fetch(ctx, address, descriptor)
		if err != nil {
			return Snapshot{}, err
		}

		s.cache.Add(key, snapshot)
		return snapshot, nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	if shared {
		logger.Debug(ctx, "balance fetch coalesced",
			"balance.address", address,
			"balance.network", networkID,
		)
	}

	return result.(Snapshot), nil
}

// fetch performs the single upstream call for a cache-miss episode and prices
// the result. The fetch is detached from the triggering caller's cancellation:
// a client that disconnects mid-flight must not fail the fetch for the other
// coalesced waiters, so only the upstream timeout bounds it.
func (s *service) fetch(ctx context.Context, address string, descriptor netregistry.NetworkDescriptor) (Snapshot, error) {
	client, ok := s.clients[descriptor.NetworkID]
	if !ok {
		return Snapshot{}, fmt.Errorf("no chain client wired for network %q", descriptor.NetworkID)
	}

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.upstreamTimeout)
	defer cancel()

	smallestUnits, err := client.FetchBalance(fetchCtx, address)
	if err != nil {
		return Snapshot{}, err
	}

	native := toWholeUnits(smallestUnits, descriptor.UnitsPerWhole)
	return Snapshot{
		Address:      address,
		NetworkID:    descriptor.NetworkID,
		NativeAmount: native,
		USDValue:     native * descriptor.UnitPriceUSD,
		Tokens:       []TokenBalance{},
		FetchedAt:    s.now(),
	}, nil
}

// toWholeUnits converts a smallest-unit quantity to whole coins. Wei values
// exceed int64, so the division runs through big.Float.
func toWholeUnits(smallestUnits *big.Int, unitsPerWhole int64) float64 {
	amount := new(big.Float).SetInt(smallestUnits)
	amount.Quo(amount, new(big.Float).SetInt64(unitsPerWhole))

	native, _ := amount.Float64()
	return native
}
