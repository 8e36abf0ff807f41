package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"walletgate/internal/balance"
	"walletgate/internal/gqlbridge"
	"walletgate/internal/handlers/cli"
	"walletgate/internal/handlers/httpapi"
	"walletgate/internal/infra/blockchain/evm"
	"walletgate/internal/infra/blockchain/native"
	redisstorage "walletgate/internal/infra/storage/redis"
	"walletgate/internal/netregistry"
	"walletgate/internal/pkg/logger"
	"walletgate/internal/pkg/resilience/retry"
	"walletgate/internal/pkg/telemetry"
	httptransport "walletgate/internal/pkg/transport/http"
	"walletgate/internal/pkg/transport/jsonrpc"
	"walletgate/internal/txhistory"
	"walletgate/internal/txingest"

	"github.com/kelseyhightower/envconfig"
)

const serviceName = "walletgate"

// appConfig is populated from WALLETGATE_-prefixed environment variables.
type appConfig struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	HTTPListenAddr string `envconfig:"HTTP_LISTEN_ADDR" default:":8080"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	BalanceCacheTTL      time.Duration `envconfig:"BALANCE_CACHE_TTL" default:"2s"`
	BalanceCacheCapacity int           `envconfig:"BALANCE_CACHE_CAPACITY" default:"4096"`
	UpstreamTimeout      time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"5s"`

	IngestPollInterval time.Duration `envconfig:"INGEST_POLL_INTERVAL" default:"30s"`
	IngestFetchLimit   int           `envconfig:"INGEST_FETCH_LIMIT" default:"50"`
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	if err := envconfig.Process(serviceName, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "init telemetry: %v\n", err)
			os.Exit(1)
		}
		defer shutdown(ctx)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	registry := netregistry.Default()

	rpcHTTPClient := httptransport.NewClient(
		httptransport.WithTimeout(cfg.UpstreamTimeout),
	).StandardClient()

	chainClients := make(map[string]balance.ChainClient)
	historySources := make(map[string]txingest.HistorySource)
	for _, descriptor := range registry.All() {
		conn := jsonrpc.NewClient(rpcHTTPClient, descriptor.EndpointURL)

		switch descriptor.ChainFamily {
		case netregistry.ChainFamilyNative:
			c := native.NewClient(conn)
			chainClients[descriptor.NetworkID] = c
			historySources[descriptor.NetworkID] = c
		case netregistry.ChainFamilySecondary:
			chainClients[descriptor.NetworkID] = evm.NewClient(conn)
		}
	}

	store, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal(ctx, "connect to redis", "error", err)
	}
	defer store.Close()

	balanceSvc := balance.New(registry, chainClients,
		balance.WithTTL(cfg.BalanceCacheTTL),
		balance.WithCacheCapacity(cfg.BalanceCacheCapacity),
		balance.WithUpstreamTimeout(cfg.UpstreamTimeout),
	)

	historySvc := txhistory.New(store)

	ingestSvc := txingest.New(historySources, store, historySvc,
		txingest.WithClaimGuard(store),
		txingest.WithRetry(retry.New()),
		txingest.WithPollInterval(cfg.IngestPollInterval),
		txingest.WithFetchLimit(cfg.IngestFetchLimit),
	)

	bridgeSvc := gqlbridge.New(registry, rpcHTTPClient)

	server := httpapi.NewServer(balanceSvc, historySvc, bridgeSvc,
		httpapi.WithListenAddr(cfg.HTTPListenAddr),
	)

	if err := cli.Run(ctx, server, ingestSvc); err != nil {
		logger.Fatal(ctx, "walletgate exited", "error", err)
	}
}
