package txhistory

import (
	"context"
	"encoding/json"
)

// Record is one transaction attributed to a wallet on a network. Records are
// immutable once written and uniquely identified by (ProviderID, Signature);
// the payload is kept opaque for the wallet client to interpret.
type Record struct {
	Address    string `validate:"required"`
	ProviderID string `validate:"required"`
	Signature  string `validate:"required"`
	Timestamp  int64  `validate:"min=0"`
	Payload    json.RawMessage
}

// PageRequest is the caller-supplied pagination window. A zero Limit means
// "use the default page size".
type PageRequest struct {
	Limit  int `validate:"min=0,max=100"`
	Offset int `validate:"min=0"`
}

// Page is one query result: records ordered most-recent-first, plus the
// counters computed at query time.
type Page struct {
	Records    []Record
	HasMore    bool
	TotalCount int64
}

// Storage is the durable backend for transaction records.
//
// Implementations must order records by timestamp descending with the
// signature as tiebreaker, and must keep appends of an already-stored
// (providerID, signature) pair as no-ops. The deterministic sort key keeps
// offset pagination free of duplicates while duplicate or older records are
// ingested mid-session; a brand-new head record still shifts every rank down
// one, which is inherent to the offset-based contract.
type Storage interface {
	// AppendTransaction stores the record. It reports false, without error,
	// when the (providerID, signature) pair was already present.
	AppendTransaction(ctx context.Context, record Record) (inserted bool, err error)

	// QueryTransactions returns one page for the (address, providerID) pair,
	// newest first, along with the total record count for the pair.
	QueryTransactions(ctx context.Context, address, providerID string, limit, offset int64) ([]Record, int64, error)
}
