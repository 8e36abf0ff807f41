package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"walletgate/internal/balance"
	"walletgate/internal/gqlbridge"
	"walletgate/internal/netregistry"
	"walletgate/internal/pkg/logger"
	"walletgate/internal/pkg/validator"
	"walletgate/internal/txhistory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init(logger.WithLevel("error"))
}

// balanceFake serves a canned snapshot or error and counts calls.
type balanceFake struct {
	snapshot balance.Snapshot
	err      error
	calls    int
}

func (f *balanceFake) GetBalance(ctx context.Context, address, networkID string) (balance.Snapshot, error) {
	f.calls++
	return f.snapshot, f.err
}

// historyFake serves a canned page and captures the query.
type historyFake struct {
	page txhistory.Page
	err  error

	gotAddress  string
	gotProvider string
	gotWindow   txhistory.PageRequest
}

func (f *historyFake) Append(ctx context.Context, record txhistory.Record) error {
	return nil
}

func (f *historyFake) Query(ctx context.Context, address, providerID string, window txhistory.PageRequest) (txhistory.Page, error) {
	f.gotAddress = address
	f.gotProvider = providerID
	f.gotWindow = window
	return f.page, f.err
}

// bridgeFake serves a canned upstream reply and captures the call.
type bridgeFake struct {
	res gqlbridge.Response
	err error

	gotNetwork string
	gotQuery   string
}

func (f *bridgeFake) Forward(ctx context.Context, networkID, query string, variables json.RawMessage) (gqlbridge.Response, error) {
	f.gotNetwork = networkID
	f.gotQuery = query
	return f.res, f.err
}

func newTestAPI(b *balanceFake, h *historyFake, g *bridgeFake) *api {
	if b == nil {
		b = &balanceFake{}
	}
	if h == nil {
		h = &historyFake{}
	}
	if g == nil {
		g = &bridgeFake{}
	}
	return &api{balance: b, history: h, bridge: g}
}

func decodeErrorKind(t *testing.T, body []byte) string {
	t.Helper()

	var payload errorBody
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NotEmpty(t, payload.Error.Message)
	return payload.Error.Kind
}

func TestHandleWalletBalance(t *testing.T) {
	t.Run("returns the priced snapshot", func(t *testing.T) {
		b := &balanceFake{snapshot: balance.Snapshot{
			NativeAmount: 1.5,
			USDValue:     1.5,
			Tokens:       []balance.TokenBalance{},
		}}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/wallet/abc?providerId=primary-mainnet", nil)
		newTestAPI(b, nil, nil).routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"balance":1.5,"balanceUSD":1.5,"tokens":[]}`, rec.Body.String())
		assert.Equal(t, 1, b.calls)
	})

	t.Run("missing providerId is a client error with no service call", func(t *testing.T) {
		b := &balanceFake{}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/wallet/abc", nil)
		newTestAPI(b, nil, nil).routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, kindClientError, decodeErrorKind(t, rec.Body.Bytes()))
		assert.Zero(t, b.calls)
	})

	t.Run("unknown network maps to 400", func(t *testing.T) {
		b := &balanceFake{err: fmt.Errorf("%w: %q", netregistry.ErrNetworkNotFound, "unknown-network")}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/wallet/abc?providerId=unknown-network", nil)
		newTestAPI(b, nil, nil).routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, kindUnknownNetwork, decodeErrorKind(t, rec.Body.Bytes()))
	})

	t.Run("upstream timeout maps to 504", func(t *testing.T) {
		b := &balanceFake{err: balance.ErrUpstreamTimeout}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/wallet/abc?providerId=primary-mainnet", nil)
		newTestAPI(b, nil, nil).routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.Equal(t, kindUpstreamTimeout, decodeErrorKind(t, rec.Body.Bytes()))
	})

	t.Run("malformed upstream response maps to 502", func(t *testing.T) {
		b := &balanceFake{err: balance.ErrMalformedResponse}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/wallet/abc?providerId=primary-mainnet", nil)
		newTestAPI(b, nil, nil).routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, kindUpstreamError, decodeErrorKind(t, rec.Body.Bytes()))
	})

	t.Run("invalid address maps to 400", func(t *testing.T) {
		b := &balanceFake{err: balance.ErrInvalidAddress}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/wallet/abc?providerId=primary-mainnet", nil)
		newTestAPI(b, nil, nil).routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, kindInvalidAddress, decodeErrorKind(t, rec.Body.Bytes()))
	})
}

func TestHandleTransactionQuery(t *testing.T) {
	t.Run("returns the page with counters", func(t *testing.T) {
		h := &historyFake{page: txhistory.Page{
			Records: []txhistory.Record{
				{Signature: "sig-c", Timestamp: 300, Payload: []byte(`{"slot":3}`)},
				{Signature: "sig-b", Timestamp: 200, Payload: []byte(`{"slot":2}`)},
			},
			HasMore:    true,
			TotalCount: 3,
		}}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/transactions",
			strings.NewReader(`{"address":"abc","providerId":"x1","limit":2,"offset":0}`))
		newTestAPI(nil, h, nil).routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"transactions": [
				{"signature":"sig-c","timestamp":300,"payload":{"slot":3}},
				{"signature":"sig-b","timestamp":200,"payload":{"slot":2}}
			],
			"hasMore": true,
			"totalCount": 3
		}`, rec.Body.String())

		assert.Equal(t, "abc", h.gotAddress)
		assert.Equal(t, "x1", h.gotProvider)
		assert.Equal(t, txhistory.PageRequest{Limit: 2, Offset: 0}, h.gotWindow)
	})

	t.Run("empty page serializes as an empty list", func(t *testing.T) {
		h := &historyFake{page: txhistory.Page{}}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/transactions",
			strings.NewReader(`{"address":"abc","providerId":"x1"}`))
		newTestAPI(nil, h, nil).routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"transactions":[],"hasMore":false,"totalCount":0}`, rec.Body.String())
	})

	t.Run("malformed body is a client error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader("{not json"))
		newTestAPI(nil, nil, nil).routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, kindClientError, decodeErrorKind(t, rec.Body.Bytes()))
	})

	t.Run("validation failures map to 400", func(t *testing.T) {
		h := &historyFake{err: fmt.Errorf("%w: negative limit", validator.ErrValidationFailed)}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/transactions",
			strings.NewReader(`{"address":"abc","providerId":"x1","limit":-1}`))
		newTestAPI(nil, h, nil).routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, kindClientError, decodeErrorKind(t, rec.Body.Bytes()))
	})

	t.Run("storage failures map to 500", func(t *testing.T) {
		h := &historyFake{err: fmt.Errorf("%w: connection refused", txhistory.ErrStorage)}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/transactions",
			strings.NewReader(`{"address":"abc","providerId":"x1"}`))
		newTestAPI(nil, h, nil).routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, kindStorageError, decodeErrorKind(t, rec.Body.Bytes()))
	})
}

func TestHandleGraphQL(t *testing.T) {
	t.Run("forwards and passes the upstream reply through", func(t *testing.T) {
		g := &bridgeFake{res: gqlbridge.Response{
			Status: http.StatusOK,
			Body:   []byte(`{"data":{"fee":{"priced":"0.000005"}}}`),
		}}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v2/graphql",
			strings.NewReader(`{"providerId":"secondary-mainnet","query":"{ fees }"}`))
		newTestAPI(nil, nil, g).routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"fee":{"priced":"0.000005"}}}`, rec.Body.String())
		assert.Equal(t, "secondary-mainnet", g.gotNetwork)
		assert.Equal(t, "{ fees }", g.gotQuery)
	})

	t.Run("providerId defaults to the primary mainnet", func(t *testing.T) {
		g := &bridgeFake{res: gqlbridge.Response{Status: http.StatusOK, Body: []byte(`{}`)}}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v2/graphql",
			strings.NewReader(`{"query":"{ fees }"}`))
		newTestAPI(nil, nil, g).routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, netregistry.NetworkPrimaryMainnet, g.gotNetwork)
	})

	t.Run("upstream non-200 passes through unmodified", func(t *testing.T) {
		g := &bridgeFake{res: gqlbridge.Response{
			Status: http.StatusUnprocessableEntity,
			Body:   []byte(`{"errors":[{"message":"unknown field"}]}`),
		}}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v2/graphql",
			strings.NewReader(`{"query":"{ nope }"}`))
		newTestAPI(nil, nil, g).routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown field")
	})

	t.Run("fee service timeout maps to 504", func(t *testing.T) {
		g := &bridgeFake{err: gqlbridge.ErrUpstreamTimeout}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v2/graphql",
			strings.NewReader(`{"query":"{ fees }"}`))
		newTestAPI(nil, nil, g).routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.Equal(t, kindUpstreamTimeout, decodeErrorKind(t, rec.Body.Bytes()))
	})
}

func TestHandleDiagnostic(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	newTestAPI(nil, nil, nil).routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "walletgate is running")
}
