package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gobwas/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/gateway"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/hub"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/journal"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/marketdata"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/registry"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/repository"
	"github.com/shubham-shewale/watchlist-sync/pkg/config"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := repository.NewRedisStore(rdb)
	bus := repository.NewRedisBus(rdb)
	defer bus.Close()

	reg := registry.NewRegistry(store)

	fetcher := marketdata.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey,
		marketdata.WithTimeout(time.Duration(cfg.Provider.TimeoutSeconds)*time.Second),
		marketdata.WithLogger(logger),
	)

	var jr journal.Recorder = journal.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		jr = journal.New(journal.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
	}

	// Dependency Injection: the Hub depends on the store/bus interfaces
	wsHub := hub.NewHub(reg, fetcher, bus, jr, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}

		client := gateway.NewClient(conn, wsHub, logger)
		client.Start()
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}

	go func() {
		logger.Info("Server Started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	srv.Shutdown(context.Background())
	if err := jr.Close(); err != nil {
		logger.Error("Error closing journal", zap.Error(err))
	}
	logger.Info("Shutdown Complete")
}
