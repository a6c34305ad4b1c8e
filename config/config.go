package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"lightning-cross/domain"
	"lightning-cross/matching"
	"lightning-cross/orderbook"
)

type Engine struct {
	Symbol         string
	TickScale      int32 // decimal places per tick
	QueueSize      int
	TapeSize       int
	Ladder         orderbook.LadderType
	ExecutionPrice orderbook.ExecutionPrice
}

type Gateway struct {
	Addr        string
	ReadTimeout time.Duration
}

type API struct {
	Addr        string
	CORSOrigins []string
}

type Kafka struct {
	Brokers []string // empty disables publishing
	Topic   string
	Buffer  int // trades the publisher may fall behind the feed before losing any
}

type Log struct {
	Level string
	File  string // empty logs to stdout only
}

type Config struct {
	Engine  Engine
	Gateway Gateway
	API     API
	Kafka   Kafka
	Log     Log
}

func Default() Config {
	return Config{
		Engine: Engine{
			Symbol:         "LIGHT",
			TickScale:      domain.DefaultTickScale,
			QueueSize:      matching.DefaultQueueSize,
			TapeSize:       matching.DefaultTapeSize,
			Ladder:         orderbook.TreeLadder,
			ExecutionPrice: orderbook.PriceAtMaker,
		},
		Gateway: Gateway{
			Addr:        ":8080",
			ReadTimeout: 5 * time.Second,
		},
		API: API{
			Addr:        ":8081",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Kafka: Kafka{
			Topic:  "trades",
			Buffer: matching.DefaultSubscriberBuffer,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load loads configuration from a .env file (if it exists) and environment variables
// Priority: ENV > .env file > defaults
func Load(envPath string) (Config, error) {
	cfg := Default()

	// A named file must load; the default .env is optional
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return cfg, fmt.Errorf("load %s: %w", envPath, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg.Engine.Symbol = getEnv("ENGINE_SYMBOL", cfg.Engine.Symbol)
	cfg.Gateway.Addr = getEnv("ENGINE_TCP_ADDR", cfg.Gateway.Addr)
	cfg.API.Addr = getEnv("ENGINE_HTTP_ADDR", cfg.API.Addr)
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	if v := os.Getenv("ENGINE_TICK_SCALE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 18 {
			return cfg, fmt.Errorf("ENGINE_TICK_SCALE: want 0..18, got %q", v)
		}
		cfg.Engine.TickScale = int32(n)
	}
	if err := positiveInt("ENGINE_QUEUE_SIZE", &cfg.Engine.QueueSize); err != nil {
		return cfg, err
	}
	if err := positiveInt("ENGINE_TAPE_SIZE", &cfg.Engine.TapeSize); err != nil {
		return cfg, err
	}
	if err := positiveInt("KAFKA_BUFFER", &cfg.Kafka.Buffer); err != nil {
		return cfg, err
	}
	if v := os.Getenv("ENGINE_LADDER"); v != "" {
		lt, ok := orderbook.ParseLadderType(v)
		if !ok {
			return cfg, fmt.Errorf("ENGINE_LADDER: want tree or list, got %q", v)
		}
		cfg.Engine.Ladder = lt
	}
	if v := os.Getenv("ENGINE_EXECUTION_PRICE"); v != "" {
		p, ok := orderbook.ParseExecutionPrice(v)
		if !ok {
			return cfg, fmt.Errorf("ENGINE_EXECUTION_PRICE: want maker or ask, got %q", v)
		}
		cfg.Engine.ExecutionPrice = p
	}

	readTimeoutMs := int(cfg.Gateway.ReadTimeout / time.Millisecond)
	if err := positiveInt("ENGINE_READ_TIMEOUT_MS", &readTimeoutMs); err != nil {
		return cfg, err
	}
	cfg.Gateway.ReadTimeout = time.Duration(readTimeoutMs) * time.Millisecond

	if v := os.Getenv("ENGINE_CORS_ORIGINS"); v != "" {
		cfg.API.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}

	return cfg, nil
}

func positiveInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s: want a positive integer, got %q", key, v)
	}
	*dst = n
	return nil
}

// splitList parses a comma-separated list, dropping blanks
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
