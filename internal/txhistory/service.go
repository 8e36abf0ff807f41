// Package txhistory owns the durable transaction log the gateway serves
// paginated history queries from. The ingestion path appends; the query path
// reads; both tolerate replays because duplicate signatures are no-ops.
package txhistory

import (
	"context"
	"errors"
	"fmt"

	"walletgate/internal/pkg/logger"
	"walletgate/internal/pkg/validator"
)

// ErrStorage wraps failures of the persistent backend. It is fatal to the
// affected request only; the process keeps serving.
var ErrStorage = errors.New("transaction storage unavailable")

const defaultPageLimit = 10

// Service exposes the transaction log to the ingestion and query paths.
type Service interface {
	// Append stores one transaction record. Re-appending a record with a
	// signature already present for its provider is an idempotent no-op.
	Append(ctx context.Context, record Record) error

	// Query returns one page of records for the (address, providerID) pair,
	// most recent first.
	Query(ctx context.Context, address, providerID string, window PageRequest) (Page, error)
}

type service struct {
	storage Storage
}

var _ Service = (*service)(nil)

// New creates a transaction history service over the given storage backend.
func New(storage Storage) *service {
	return &service{
		storage: storage,
	}
}

// Append implements Service.
func (s *service) Append(ctx context.Context, record Record) error {
	if err := validator.Validate(record); err != nil {
		return err
	}

	inserted, err := s.storage.AppendTransaction(ctx, record)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if !inserted {
		logger.Debug(ctx, "duplicate transaction record ignored",
			"tx.provider", record.ProviderID,
			"tx.signature", record.Signature,
		)
	}

	return nil
}

// query input, validated as a unit so parameter errors surface together.
type queryInput struct {
	Address    string `validate:"required"`
	ProviderID string `validate:"required"`
	Window     PageRequest
}

// Query implements Service. A zero window limit falls back to the default
// page size; negative or oversized windows are validation errors.
func (s *service) Query(ctx context.Context, address, providerID string, window PageRequest) (Page, error) {
	input := queryInput{
		Address:    address,
		ProviderID: providerID,
		Window:     window,
	}
	if err := validator.Validate(input); err != nil {
		return Page{}, err
	}

	limit := window.Limit
	if limit == 0 {
		limit = defaultPageLimit
	}

	records, total, err := s.storage.QueryTransactions(ctx, address, providerID, int64(limit), int64(window.Offset))
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return Page{
		Records:    records,
		HasMore:    int64(window.Offset)+int64(len(records)) < total,
		TotalCount: total,
	}, nil
}
