package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/feedforge/marketsim/cmd/simulator/internal/market"
	"github.com/feedforge/marketsim/cmd/simulator/internal/publish"
	"github.com/feedforge/marketsim/cmd/simulator/internal/server"
	"github.com/feedforge/marketsim/pkg/config"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize Zap Logger
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	// 3. Build the instrument registry with the fixed default catalog
	rnd := market.RealRand{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
	instruments := market.NewRegistry(market.DefaultCatalog(), market.RealClock{}, rnd)

	// 4. Optional downstream sinks
	var sinks []server.Sink

	var kafkaPub *publish.KafkaPublisher
	if cfg.Kafka.Enabled {
		publish.EnsureTopic(logger, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		kafkaPub = publish.NewKafkaPublisher(logger, publish.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		sinks = append(sinks, kafkaPub)
		logger.Info("Kafka publishing enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	var redisPub *publish.RedisPublisher
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		redisPub = publish.NewRedisPublisher(logger, rdb)
		sinks = append(sinks, redisPub)
		logger.Info("Redis snapshot publishing enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Start the broadcast server
	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr(),
		UpdateInterval: cfg.Server.UpdateInterval(),
	}, logger, instruments, sinks)

	if err := srv.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	// 6. Optional WebSocket endpoint sharing the same client registry
	var httpSrv *http.Server
	if cfg.Server.WSAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", srv.WSHandler())
		httpSrv = &http.Server{Addr: cfg.Server.WSAddr, Handler: mux}

		go func() {
			logger.Info("WebSocket endpoint started", zap.String("addr", cfg.Server.WSAddr))
			if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
				logger.Fatal("HTTP Error", zap.Error(err))
			}
		}()
	}

	// 7. Wait for Shutdown Signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")

	if httpSrv != nil {
		httpSrv.Shutdown(context.Background())
	}
	srv.Stop()

	// 8. Flush sink buffers
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("Error closing Kafka writer", zap.Error(err))
		}
	}
	if redisPub != nil {
		if err := redisPub.Close(); err != nil {
			logger.Error("Error closing Redis client", zap.Error(err))
		}
	}

	logger.Info("Simulator exited cleanly")
}
