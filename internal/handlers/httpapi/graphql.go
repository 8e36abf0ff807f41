package httpapi

import (
	"encoding/json"
	"net/http"

	"walletgate/internal/netregistry"
)

// graphqlRequest is the body of POST /v2/graphql. The query and variables are
// opaque to the gateway; providerId selects the fee service and defaults to
// the primary mainnet.
type graphqlRequest struct {
	ProviderID string          `json:"providerId"`
	Query      string          `json:"query"`
	Variables  json.RawMessage `json:"variables"`
}

// handleGraphQL serves POST /v2/graphql by forwarding to the resolved
// network's priced-fee service and passing the reply through with its status.
func (a *api) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, "request body must be valid JSON")
		return
	}

	if req.ProviderID == "" {
		req.ProviderID = netregistry.NetworkPrimaryMainnet
	}

	res, err := a.bridge.Forward(r.Context(), req.ProviderID, req.Query, req.Variables)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Status)
	_, _ = w.Write(res.Body)
}
