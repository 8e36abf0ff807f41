// Package httpapi exposes the gateway's REST surface to wallet clients: the
// balance endpoint, the paginated transaction-history endpoint, the GraphQL
// fee bridge, and a reachability page. Handlers validate parameters, dispatch
// to the domain services, and map typed failures to wire statuses; they hold
// no state beyond the request.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"walletgate/internal/balance"
	"walletgate/internal/gqlbridge"
	"walletgate/internal/pkg/logger"
	"walletgate/internal/txhistory"

	"github.com/gorilla/mux"
)

const (
	defaultListenAddr   = ":8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
)

// Server is the gateway's HTTP front end.
type Server struct {
	httpServer *http.Server
}

// api groups the services the handlers dispatch to.
type api struct {
	balance balance.Service
	history txhistory.Service
	bridge  gqlbridge.Service
}

// config holds construction-time settings for the server.
type config struct {
	listenAddr   string
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Option configures the HTTP server.
type Option func(*config)

// WithListenAddr sets the listen address. Default: ":8080".
func WithListenAddr(addr string) Option {
	return func(c *config) {
		c.listenAddr = addr
	}
}

// WithReadTimeout sets the server read timeout. Default: 15 seconds.
func WithReadTimeout(d time.Duration) Option {
	return func(c *config) {
		c.readTimeout = d
	}
}

// WithWriteTimeout sets the server write timeout. Default: 15 seconds.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) {
		c.writeTimeout = d
	}
}

// NewServer wires the REST surface over the given services.
func NewServer(balanceSvc balance.Service, historySvc txhistory.Service, bridgeSvc gqlbridge.Service, opts ...Option) *Server {
	cfg := config{
		listenAddr:   defaultListenAddr,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &api{
		balance: balanceSvc,
		history: historySvc,
		bridge:  bridgeSvc,
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.listenAddr,
			Handler:      a.routes(),
			ReadTimeout:  cfg.readTimeout,
			WriteTimeout: cfg.writeTimeout,
		},
	}
}

// routes builds the endpoint table.
func (a *api) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/wallet/{address}", a.handleWalletBalance).Methods(http.MethodGet)
	r.HandleFunc("/transactions", a.handleTransactionQuery).Methods(http.MethodPost)
	r.HandleFunc("/v2/graphql", a.handleGraphQL).Methods(http.MethodPost)
	r.HandleFunc("/test", a.handleDiagnostic).Methods(http.MethodGet)
	return r
}

// Start serves until Shutdown is called. It returns nil on a clean shutdown.
func (s *Server) Start() error {
	logger.Info(context.Background(), "http server listening", "http.addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
