package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"lightning-cross/api"
	"lightning-cross/config"
	"lightning-cross/gateway"
	"lightning-cross/logging"
	"lightning-cross/matching"
	"lightning-cross/orderbook"
	"lightning-cross/publish"
)

func main() {
	// Load config from .env file and environment variables
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Log.File != "" {
		logger, err = logging.NewLoggerWithFile(cfg.Log.Level, cfg.Log.File)
	} else {
		logger, err = logging.NewLogger(cfg.Log.Level)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("symbol", cfg.Engine.Symbol),
		zap.Int32("tick_scale", cfg.Engine.TickScale),
		zap.Stringer("ladder", cfg.Engine.Ladder),
		zap.Stringer("execution_price", cfg.Engine.ExecutionPrice),
		zap.String("tcp_addr", cfg.Gateway.Addr),
		zap.String("http_addr", cfg.API.Addr),
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Matching ----
	feed := matching.NewTradeFeed(0, matching.NewTape(cfg.Engine.TapeSize), logger.Named("feed"))
	engine := matching.NewMatchingEngine(cfg.Engine.Symbol,
		matching.WithQueueSize(cfg.Engine.QueueSize),
		matching.WithTradeFeed(feed),
		matching.WithLogger(logger.Named("engine")),
		matching.WithBookOptions(
			orderbook.WithLadderType(cfg.Engine.Ladder),
			orderbook.WithExecutionPrice(cfg.Engine.ExecutionPrice),
		),
	)
	engine.Start()

	var wg sync.WaitGroup

	// ---- Kafka (optional) ----
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := publish.NewPublisher(
			publish.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic),
			cfg.Engine.Symbol, cfg.Engine.TickScale, logger.Named("kafka"))
		// Subscribe before any order can arrive; the buffer absorbs broker round-trips
		trades, unsubscribe := feed.Subscribe(cfg.Kafka.Buffer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer unsubscribe()
			publisher.Run(ctx, trades)
			if err := publisher.Close(); err != nil {
				logger.Warn("kafka writer close failed", zap.Error(err))
			}
		}()
		logger.Info("kafka publisher enabled",
			zap.String("topic", cfg.Kafka.Topic),
			zap.Int("buffer", cfg.Kafka.Buffer))
	}

	// ---- HTTP API ----
	apiServer := api.NewServer(engine, feed, cfg.Engine.TickScale, cfg.API.CORSOrigins, logger.Named("api"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := apiServer.ListenAndServe(ctx, cfg.API.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", zap.Error(err))
			stop()
		}
	}()

	// ---- TCP gateway ----
	tcpServer := gateway.NewServer(engine, cfg.Engine.TickScale, cfg.Gateway.ReadTimeout, logger.Named("gateway"))
	if err := tcpServer.ListenAndServe(ctx, cfg.Gateway.Addr); err != nil {
		logger.Error("tcp gateway failed", zap.Error(err))
		stop()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	wg.Wait()
	engine.Stop()
	feed.Close()
	logger.Info("stopped", zap.Uint64("trades", feed.Tape().Total()), zap.Uint64("dropped", feed.Dropped()))
}
