package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"walletgate/internal/balance"
	"walletgate/internal/gqlbridge"
	"walletgate/internal/netregistry"
	"walletgate/internal/pkg/logger"
	"walletgate/internal/pkg/transport/jsonrpc"
	"walletgate/internal/pkg/validator"
	"walletgate/internal/txhistory"
)

// Machine-readable error kinds carried in every error response.
const (
	kindClientError     = "client_error"
	kindUnknownNetwork  = "unknown_network"
	kindInvalidAddress  = "invalid_address"
	kindUpstreamTimeout = "upstream_timeout"
	kindUpstreamError   = "upstream_protocol_error"
	kindStorageError    = "storage_error"
	kindInternalError   = "internal_error"
)

// errorBody is the uniform error payload. The gateway never embeds errors in
// a success-shaped response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// classifyError is the single place internal failures are mapped to a wire
// status and kind. Every service propagates typed errors up to here.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, validator.ErrValidationFailed):
		return http.StatusBadRequest, kindClientError
	case errors.Is(err, netregistry.ErrNetworkNotFound):
		return http.StatusBadRequest, kindUnknownNetwork
	case errors.Is(err, balance.ErrInvalidAddress):
		return http.StatusBadRequest, kindInvalidAddress
	case errors.Is(err, balance.ErrUpstreamTimeout), errors.Is(err, gqlbridge.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout, kindUpstreamTimeout
	case errors.Is(err, balance.ErrMalformedResponse), errors.Is(err, jsonrpc.ErrProviderReturnedError):
		return http.StatusBadGateway, kindUpstreamError
	case errors.Is(err, txhistory.ErrStorage):
		return http.StatusInternalServerError, kindStorageError
	default:
		return http.StatusInternalServerError, kindInternalError
	}
}

// writeError maps the error and writes the uniform error payload.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classifyError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed",
			"http.method", r.Method,
			"http.path", r.URL.Path,
			"http.status", status,
			"error", err,
		)
	}

	writeJSON(w, status, errorBody{Error: errorDetail{
		Kind:    kind,
		Message: err.Error(),
	}})
}

// writeClientError short-circuits parameter problems detected by the handler
// itself, before any service call.
func writeClientError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
		Kind:    kindClientError,
		Message: message,
	}})
}

// writeJSON serializes the payload with the proper content type.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
