// Package gqlbridge forwards opaque GraphQL queries to the priced-fee service
// of a resolved network. It is a thin protocol bridge: the query and the
// response both pass through unmodified, the gateway only picks the endpoint
// and bounds the call.
package gqlbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"walletgate/internal/netregistry"
	"walletgate/internal/pkg/validator"
)

// ErrUpstreamTimeout indicates the fee service did not answer within the
// client timeout.
var ErrUpstreamTimeout = errors.New("fee service timeout")

// Response is the fee service's reply, passed through with its status code.
type Response struct {
	Status int
	Body   json.RawMessage
}

// Service forwards GraphQL requests upstream.
type Service interface {
	// Forward posts the query and variables to the fee service of the given
	// network and returns the reply unmodified. Unknown networks fail with
	// netregistry.ErrNetworkNotFound before any upstream call.
	Forward(ctx context.Context, networkID, query string, variables json.RawMessage) (Response, error)
}

type service struct {
	registry   *netregistry.Registry
	httpClient *http.Client
}

var _ Service = (*service)(nil)

// New creates a bridge over the given registry. The HTTP client carries the
// upstream timeout.
func New(registry *netregistry.Registry, httpClient *http.Client) *service {
	return &service{
		registry:   registry,
		httpClient: httpClient,
	}
}

// forwardInput validates the pieces of a forward call as one unit.
type forwardInput struct {
	NetworkID string `validate:"required"`
	Query     string `validate:"required"`
}

// Forward implements Service.
func (s *service) Forward(ctx context.Context, networkID, query string, variables json.RawMessage) (Response, error) {
	input := forwardInput{
		NetworkID: networkID,
		Query:     query,
	}
	if err := validator.Validate(input); err != nil {
		return Response{}, err
	}

	descriptor, err := s.registry.Resolve(networkID)
	if err != nil {
		return Response{}, err
	}

	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, descriptor.GraphQLURL, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Response{}, fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)
		}
		return Response{}, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, err
	}

	return Response{
		Status: res.StatusCode,
		Body:   raw,
	}, nil
}

// isTimeout matches both context deadlines and transport-level timeouts.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
