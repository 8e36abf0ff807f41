// Package txingest feeds the transaction store. It keeps a durable registry
// of tracked (network, address) pairs and runs a background poller that
// fetches recent history for each pair from its upstream network and appends
// the records. Appends are idempotent downstream, so re-ingesting an already
// stored signature is harmless; poll cycles are claimed through a shared
// guard so gateway replicas do not poll the same pair concurrently.
package txingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"walletgate/internal/pkg/logger"
	"walletgate/internal/pkg/resilience/retry"
	"walletgate/internal/pkg/types"
	"walletgate/internal/txhistory"

	"github.com/google/uuid"
)

var (
	// ErrServiceAlreadyStarted is returned by Start when the poller is
	// already running.
	ErrServiceAlreadyStarted = errors.New("service already started")

	// ErrPollAlreadyClaimed signals that another replica holds the poll
	// claim for a (network, address) pair; the pair is skipped this cycle.
	ErrPollAlreadyClaimed = errors.New("poll already claimed")
)

const (
	defaultPollInterval = 30 * time.Second
	defaultFetchLimit   = 50
)

// HistorySource lists recent transactions for an address on one upstream
// network, newest first. Only native-family networks expose a per-address
// history RPC, so not every registered network has a source.
type HistorySource interface {
	FetchRecentTransactions(ctx context.Context, address string, limit int) ([]txhistory.Record, error)
}

// PollClaimGuard serializes poll cycles across gateway replicas. A claim
// lives for the given TTL; claiming an already-claimed pair returns
// ErrPollAlreadyClaimed.
type PollClaimGuard interface {
	ClaimPoll(ctx context.Context, networkID, address string, ttl time.Duration) error
}

// nopClaimGuard always grants claims. Used when the gateway runs as a single
// replica.
type nopClaimGuard struct{}

func (nopClaimGuard) ClaimPoll(context.Context, string, string, time.Duration) error {
	return nil
}

// Service exposes wallet tracking and the poller lifecycle.
type Service interface {
	Track(ctx context.Context, networkID, address string) error
	Untrack(ctx context.Context, networkID, address string) error

	// Start launches the background poller. It returns
	// ErrServiceAlreadyStarted if called twice without a Close in between.
	Start(ctx context.Context) error

	// Close stops the poller and waits for the in-flight cycle to finish.
	Close()
}

type service struct {
	mu        sync.Mutex
	isStarted bool
	cancel    context.CancelFunc
	done      chan struct{}

	sources  map[string]HistorySource
	tracking TrackingStorage
	history  txhistory.Service
	claims   PollClaimGuard
	retry    retry.Retry

	pollInterval time.Duration
	fetchLimit   int
}

var _ Service = (*service)(nil)

// config holds construction-time settings for the ingester.
type config struct {
	claims       PollClaimGuard
	retry        retry.Retry
	pollInterval time.Duration
	fetchLimit   int
}

// Option configures the ingestion service.
type Option func(*config)

// WithClaimGuard shares poll claims across replicas. Default: claims always
// granted.
func WithClaimGuard(g PollClaimGuard) Option {
	return func(c *config) {
		c.claims = g
	}
}

// WithRetry sets the retry policy for upstream history fetches. Default: no
// retries.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithPollInterval sets the delay between poll cycles. Default: 30 seconds.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithFetchLimit caps how many records one poll fetches per address.
// Default: 50.
func WithFetchLimit(n int) Option {
	return func(c *config) {
		c.fetchLimit = n
	}
}

// New creates the ingestion service. sources maps network ids to their
// upstream history listers; networks without an entry are not polled.
func New(sources map[string]HistorySource, tracking TrackingStorage, history txhistory.Service, opts ...Option) *service {
	cfg := config{
		claims:       nopClaimGuard{},
		retry:        nil,
		pollInterval: defaultPollInterval,
		fetchLimit:   defaultFetchLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		sources:      sources,
		tracking:     tracking,
		history:      history,
		claims:       cfg.claims,
		retry:        cfg.retry,
		pollInterval: cfg.pollInterval,
		fetchLimit:   cfg.fetchLimit,
	}
}

// Start implements Service.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.isStarted = true

	go s.run(ctx)
	return nil
}

// Close implements Service.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isStarted {
		return
	}

	s.cancel()
	<-s.done

	s.isStarted = false
	s.cancel = nil
	s.done = nil
}

// run executes poll cycles until the context is canceled. The first cycle
// runs immediately so a fresh deployment does not wait a full interval.
func (s *service) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.pollAllNetworks(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollAllNetworks(ctx)
		}
	}
}

// pollAllNetworks runs one ingestion cycle over every network with a history
// source. Failures are logged per pair and never abort the cycle.
func (s *service) pollAllNetworks(ctx context.Context) {
	logger.Debug(ctx, "ingestion cycle started", "ingest.cycle", uuid.NewString())

	for networkID, source := range s.sources {
		addresses, err := s.tracking.ListTrackedWallets(ctx, networkID)
		if err != nil {
			logger.Error(ctx, "listing tracked wallets failed",
				"ingest.network", networkID,
				"error", err,
			)
			continue
		}

		for _, address := range addresses {
			if ctx.Err() != nil {
				return
			}
			s.pollWallet(ctx, networkID, address, source)
		}
	}
}

// pollWallet claims, fetches, and appends history for one tracked pair. The
// claim TTL is slightly below the poll interval so this replica's own next
// cycle finds the claim expired.
func (s *service) pollWallet(ctx context.Context, networkID, address string, source HistorySource) {
	claimTTL := s.pollInterval * 9 / 10
	if err := s.claims.ClaimPoll(ctx, networkID, address, claimTTL); err != nil {
		if errors.Is(err, ErrPollAlreadyClaimed) {
			return
		}

		logger.Error(ctx, "poll claim failed",
			"ingest.network", networkID,
			"ingest.address", address,
			"error", err,
		)
		return
	}

	records, err := s.fetchRecent(ctx, address, source)
	if err != nil {
		logger.Error(ctx, "history fetch failed",
			"ingest.network", networkID,
			"ingest.address", address,
			"error", err,
		)
		return
	}

	appended := 0
	seen := types.NewSet[string]()
	for _, record := range records {
		// Upstream listings can repeat a signature across page boundaries;
		// skip repeats within the batch before hitting the store.
		if seen.Contains(record.Signature) {
			continue
		}
		seen.Add(record.Signature)

		record.Address = address
		record.ProviderID = networkID

		if err := s.history.Append(ctx, record); err != nil {
			logger.Error(ctx, "appending ingested record failed",
				"ingest.network", networkID,
				"ingest.address", address,
				"tx.signature", record.Signature,
				"error", err,
			)
			continue
		}
		appended++
	}

	logger.Debug(ctx, "wallet history polled",
		"ingest.network", networkID,
		"ingest.address", address,
		"ingest.fetched", len(records),
		"ingest.appended", appended,
	)
}

// fetchRecent wraps the upstream fetch with the configured retry policy.
func (s *service) fetchRecent(ctx context.Context, address string, source HistorySource) ([]txhistory.Record, error) {
	if s.retry == nil {
		return source.FetchRecentTransactions(ctx, address, s.fetchLimit)
	}

	var records []txhistory.Record
	err := s.retry.Execute(ctx, func() error {
		var fetchErr error
		records, fetchErr = source.FetchRecentTransactions(ctx, address, s.fetchLimit)
		return fetchErr
	})
	return records, err
}
