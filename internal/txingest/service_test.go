package txingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"walletgate/internal/pkg/logger"
	"walletgate/internal/pkg/validator"
	"walletgate/internal/txhistory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init(logger.WithLevel("error"))
}

// trackingFake is an in-memory TrackingStorage.
type trackingFake struct {
	mu      sync.Mutex
	tracked map[string][]string
	listErr error
}

func newTrackingFake() *trackingFake {
	return &trackingFake{tracked: make(map[string][]string)}
}

func (f *trackingFake) RegisterTrackedWallet(ctx context.Context, w TrackedWallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, addr := range f.tracked[w.NetworkID] {
		if addr == w.Address {
			return nil
		}
	}
	f.tracked[w.NetworkID] = append(f.tracked[w.NetworkID], w.Address)
	return nil
}

func (f *trackingFake) UnregisterTrackedWallet(ctx context.Context, w TrackedWallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.tracked[w.NetworkID][:0]
	for _, addr := range f.tracked[w.NetworkID] {
		if addr != w.Address {
			kept = append(kept, addr)
		}
	}
	f.tracked[w.NetworkID] = kept
	return nil
}

func (f *trackingFake) ListTrackedWallets(ctx context.Context, networkID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.tracked[networkID]...), nil
}

// historyFake records appended transactions and satisfies txhistory.Service.
type historyFake struct {
	mu       sync.Mutex
	appended []txhistory.Record
}

func (f *historyFake) Append(ctx context.Context, record txhistory.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, record)
	return nil
}

func (f *historyFake) Query(ctx context.Context, address, providerID string, window txhistory.PageRequest) (txhistory.Page, error) {
	return txhistory.Page{}, nil
}

func (f *historyFake) records() []txhistory.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]txhistory.Record(nil), f.appended...)
}

// sourceFake serves a fixed batch of records.
type sourceFake struct {
	mu      sync.Mutex
	batch   []txhistory.Record
	fetches int
	err     error
}

func (f *sourceFake) FetchRecentTransactions(ctx context.Context, address string, limit int) ([]txhistory.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

func (f *sourceFake) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// claimFake grants or denies every claim.
type claimFake struct {
	mu     sync.Mutex
	deny   bool
	claims int
}

func (f *claimFake) ClaimPoll(ctx context.Context, networkID, address string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.claims++
	if f.deny {
		return ErrPollAlreadyClaimed
	}
	return nil
}

func TestTracking(t *testing.T) {
	t.Run("track and untrack round trip", func(t *testing.T) {
		tracking := newTrackingFake()
		svc := New(nil, tracking, &historyFake{})

		require.NoError(t, svc.Track(t.Context(), "primary-mainnet", "abc"))

		addrs, err := tracking.ListTrackedWallets(t.Context(), "primary-mainnet")
		require.NoError(t, err)
		assert.Equal(t, []string{"abc"}, addrs)

		require.NoError(t, svc.Untrack(t.Context(), "primary-mainnet", "abc"))

		addrs, err = tracking.ListTrackedWallets(t.Context(), "primary-mainnet")
		require.NoError(t, err)
		assert.Empty(t, addrs)
	})

	t.Run("rejects incomplete identifiers", func(t *testing.T) {
		svc := New(nil, newTrackingFake(), &historyFake{})

		assert.ErrorIs(t, svc.Track(t.Context(), "", "abc"), validator.ErrValidationFailed)
		assert.ErrorIs(t, svc.Track(t.Context(), "primary-mainnet", ""), validator.ErrValidationFailed)
		assert.ErrorIs(t, svc.Untrack(t.Context(), "", ""), validator.ErrValidationFailed)
	})
}

func TestPolling(t *testing.T) {
	t.Run("ingests history for every tracked wallet", func(t *testing.T) {
		tracking := newTrackingFake()
		history := &historyFake{}
		source := &sourceFake{batch: []txhistory.Record{
			{Signature: "sig-1", Timestamp: 100, Payload: []byte(`{}`)},
			{Signature: "sig-2", Timestamp: 200, Payload: []byte(`{}`)},
		}}

		svc := New(map[string]HistorySource{"primary-mainnet": source}, tracking, history,
			WithPollInterval(time.Hour), // only the immediate first cycle runs
		)
		require.NoError(t, svc.Track(t.Context(), "primary-mainnet", "abc"))

		require.NoError(t, svc.Start(t.Context()))
		defer svc.Close()

		require.Eventually(t, func() bool {
			return len(history.records()) == 2
		}, time.Second, 10*time.Millisecond)

		for _, r := range history.records() {
			assert.Equal(t, "abc", r.Address)
			assert.Equal(t, "primary-mainnet", r.ProviderID)
		}
	})

	t.Run("duplicate signatures within a batch are appended once", func(t *testing.T) {
		tracking := newTrackingFake()
		history := &historyFake{}
		source := &sourceFake{batch: []txhistory.Record{
			{Signature: "sig-1", Timestamp: 100, Payload: []byte(`{}`)},
			{Signature: "sig-1", Timestamp: 100, Payload: []byte(`{}`)},
		}}

		svc := New(map[string]HistorySource{"primary-mainnet": source}, tracking, history,
			WithPollInterval(time.Hour),
		)
		require.NoError(t, svc.Track(t.Context(), "primary-mainnet", "abc"))

		require.NoError(t, svc.Start(t.Context()))
		defer svc.Close()

		require.Eventually(t, func() bool {
			return source.fetchCount() >= 1
		}, time.Second, 10*time.Millisecond)
		svc.Close()

		assert.Len(t, history.records(), 1)
	})

	t.Run("denied claims skip the wallet", func(t *testing.T) {
		tracking := newTrackingFake()
		history := &historyFake{}
		source := &sourceFake{batch: []txhistory.Record{{Signature: "sig-1", Timestamp: 1, Payload: []byte(`{}`)}}}
		claims := &claimFake{deny: true}

		svc := New(map[string]HistorySource{"primary-mainnet": source}, tracking, history,
			WithPollInterval(time.Hour),
			WithClaimGuard(claims),
		)
		require.NoError(t, svc.Track(t.Context(), "primary-mainnet", "abc"))

		require.NoError(t, svc.Start(t.Context()))
		svc.Close()

		assert.Zero(t, source.fetchCount())
		assert.Empty(t, history.records())
	})

	t.Run("fetch failures do not abort the cycle for other wallets", func(t *testing.T) {
		tracking := newTrackingFake()
		history := &historyFake{}
		failing := &sourceFake{err: errors.New("node unavailable")}
		healthy := &sourceFake{batch: []txhistory.Record{{Signature: "sig-1", Timestamp: 1, Payload: []byte(`{}`)}}}

		svc := New(map[string]HistorySource{
			"primary-mainnet": failing,
			"primary-testnet": healthy,
		}, tracking, history, WithPollInterval(time.Hour))

		require.NoError(t, svc.Track(t.Context(), "primary-mainnet", "abc"))
		require.NoError(t, svc.Track(t.Context(), "primary-testnet", "abc"))

		require.NoError(t, svc.Start(t.Context()))

		require.Eventually(t, func() bool {
			return healthy.fetchCount() >= 1 && failing.fetchCount() >= 1
		}, time.Second, 10*time.Millisecond)
		svc.Close()

		assert.Len(t, history.records(), 1)
	})

	t.Run("start twice fails until closed", func(t *testing.T) {
		svc := New(nil, newTrackingFake(), &historyFake{}, WithPollInterval(time.Hour))

		require.NoError(t, svc.Start(t.Context()))
		assert.ErrorIs(t, svc.Start(t.Context()), ErrServiceAlreadyStarted)

		svc.Close()
		require.NoError(t, svc.Start(t.Context()))
		svc.Close()
	})
}
