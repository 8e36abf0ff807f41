package httpapi

import (
	"encoding/json"
	"net/http"

	"walletgate/internal/txhistory"
)

// transactionQueryRequest is the body of POST /transactions. Limit and offset
// are optional; zero values select the service defaults.
type transactionQueryRequest struct {
	Address    string `json:"address"`
	ProviderID string `json:"providerId"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// transactionQueryResponse is the wire shape of a history page.
type transactionQueryResponse struct {
	Transactions []transactionEntry `json:"transactions"`
	HasMore      bool               `json:"hasMore"`
	TotalCount   int64              `json:"totalCount"`
}

type transactionEntry struct {
	Signature string          `json:"signature"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// handleTransactionQuery serves POST /transactions.
func (a *api) handleTransactionQuery(w http.ResponseWriter, r *http.Request) {
	var req transactionQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, "request body must be valid JSON")
		return
	}

	page, err := a.history.Query(r.Context(), req.Address, req.ProviderID, txhistory.PageRequest{
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionQueryResponse(page))
}

func toTransactionQueryResponse(page txhistory.Page) transactionQueryResponse {
	entries := make([]transactionEntry, 0, len(page.Records))
	for _, record := range page.Records {
		entries = append(entries, transactionEntry{
			Signature: record.Signature,
			Timestamp: record.Timestamp,
			Payload:   record.Payload,
		})
	}

	return transactionQueryResponse{
		Transactions: entries,
		HasMore:      page.HasMore,
		TotalCount:   page.TotalCount,
	}
}
