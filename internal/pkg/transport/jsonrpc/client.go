// Package jsonrpc implements a generic JSON-RPC 2.0 client over HTTP. It is
// dialect-agnostic: chain-specific adapters decide methods and parameter
// encodings, this package only speaks the envelope.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrProviderReturnedError indicates that the remote JSON-RPC server answered
// with an error object instead of a result.
var ErrProviderReturnedError = errors.New("provider error")

// CodeInvalidParams is the JSON-RPC 2.0 error code servers return for
// malformed parameters, which for this gateway usually means a bad address.
const CodeInvalidParams = -32602

// ProviderError carries the code and message of a JSON-RPC error object. It
// unwraps to ErrProviderReturnedError so callers can match the class with
// errors.Is and still inspect the code with errors.As.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: [%d] %s", ErrProviderReturnedError, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return ErrProviderReturnedError
}

// response represents a standard JSON-RPC 2.0 response envelope.
type response struct {
	JsonRPC string `json:"jsonrpc"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Result json.RawMessage `json:"result"`
}

// Err returns a *ProviderError if the response carries a JSON-RPC error
// object, nil otherwise.
func (r response) Err() error {
	if r.Error == nil {
		return nil
	}

	return &ProviderError{
		Code:    r.Error.Code,
		Message: r.Error.Message,
	}
}

// Client is the interface for a generic JSON-RPC client, abstracted for
// mocking in tests.
type Client interface {
	// Fetch sends a JSON-RPC request with the given method name and
	// parameters and returns the raw result.
	Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// client is the default Client implementation, bound to a single provider
// endpoint.
type client struct {
	providerEndpoint string
	httpClient       *http.Client
}

var _ Client = (*client)(nil)

// NewClient returns a Client that sends JSON-RPC requests to the specified
// provider endpoint using the given HTTP client.
func NewClient(httpClient *http.Client, providerEndpoint string) *client {
	return &client{
		providerEndpoint: providerEndpoint,
		httpClient:       httpClient,
	}
}

// Fetch posts a JSON-RPC request with a UUID request id and decodes the
// response envelope, returning the raw result or the provider's error.
func (c *client) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      uuid.NewString(),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.providerEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var data response
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}

	return data.Result, data.Err()
}
