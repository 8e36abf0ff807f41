package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"walletgate/internal/txhistory"

	"github.com/redis/go-redis/v9"
)

// txHistoryKeyPrefix is the base namespace for the transaction log.
const txHistoryKeyPrefix = "txhistory"

// txIndexKey is the sorted set holding one member per signature for an
// (address, provider) pair, scored by the record timestamp. ZRANGE REV over
// (score, member) gives a deterministic order, so re-ingesting duplicates or
// backfilling older records never repeats a row across page reads. A new
// head record shifts offsets by one; the wire contract has no cursor to
// anchor against that.
//
// Format: "txhistory:index:{providerID}:{address}"
func txIndexKey(providerID, address string) string {
	return fmt.Sprintf("%s:index:%s:%s", txHistoryKeyPrefix, providerID, address)
}

// txRecordKey stores the record body for a (provider, signature) identity.
//
// Format: "txhistory:record:{providerID}:{signature}"
func txRecordKey(providerID, signature string) string {
	return fmt.Sprintf("%s:record:%s:%s", txHistoryKeyPrefix, providerID, signature)
}

// storedRecord is the persisted record body. Address and provider are not
// repeated here: both are implied by the index the signature was reached
// through, and the identity key.
type storedRecord struct {
	Signature string          `json:"signature"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// AppendTransaction implements txhistory.Storage.
//
// The record body is written unconditionally (bodies are immutable, so a
// rewrite is byte-identical), then the signature is added to the pair's index
// with ZADD NX, which is the dedupe authority: a signature already indexed
// reports a duplicate without touching the index. Writing the body first
// keeps a crash between the two steps recoverable, since the next re-ingest
// of the same record completes the index entry.
func (c *client) AppendTransaction(ctx context.Context, record txhistory.Record) (bool, error) {
	body, err := json.Marshal(storedRecord{
		Signature: record.Signature,
		Timestamp: record.Timestamp,
		Payload:   record.Payload,
	})
	if err != nil {
		return false, err
	}

	if err := c.conn.Set(ctx, txRecordKey(record.ProviderID, record.Signature), body, 0).Err(); err != nil {
		return false, err
	}

	added, err := c.conn.ZAddNX(ctx, txIndexKey(record.ProviderID, record.Address), redis.Z{
		Score:  float64(record.Timestamp),
		Member: record.Signature,
	}).Result()
	if err != nil {
		return false, err
	}

	return added == 1, nil
}

// QueryTransactions implements txhistory.Storage. It slices the pair's index
// newest-first and hydrates each signature from its record key, never loading
// the full history. The count and the slice run in one MULTI/EXEC so an
// append racing the read cannot make the page disagree with its total.
func (c *client) QueryTransactions(ctx context.Context, address, providerID string, limit, offset int64) ([]txhistory.Record, int64, error) {
	indexKey := txIndexKey(providerID, address)

	var (
		countCmd *redis.IntCmd
		rangeCmd *redis.StringSliceCmd
	)
	if _, err := c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		countCmd = pipe.ZCard(ctx, indexKey)
		rangeCmd = pipe.ZRevRange(ctx, indexKey, offset, offset+limit-1)
		return nil
	}); err != nil {
		return nil, 0, err
	}

	total := countCmd.Val()
	signatures := rangeCmd.Val()
	if len(signatures) == 0 {
		return nil, total, nil
	}

	recordKeys := make([]string, len(signatures))
	for i, signature := range signatures {
		recordKeys[i] = txRecordKey(providerID, signature)
	}

	bodies, err := c.conn.MGet(ctx, recordKeys...).Result()
	if err != nil {
		return nil, 0, err
	}

	records := make([]txhistory.Record, 0, len(signatures))
	for i, raw := range bodies {
		body, ok := raw.(string)
		if !ok {
			// Bodies are written before their index entry, so a missing one
			// means the key was removed out of band. Skip it; the next
			// re-ingest of the signature rewrites the body.
			continue
		}

		var stored storedRecord
		if err := json.Unmarshal([]byte(body), &stored); err != nil {
			return nil, 0, fmt.Errorf("corrupt record %s: %w", recordKeys[i], err)
		}

		records = append(records, txhistory.Record{
			Address:    address,
			ProviderID: providerID,
			Signature:  stored.Signature,
			Timestamp:  stored.Timestamp,
			Payload:    stored.Payload,
		})
	}

	return records, total, nil
}

// Compile-time assertion that the redis client satisfies txhistory.Storage.
var _ txhistory.Storage = (*client)(nil)
