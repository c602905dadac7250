package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
	"github.com/iqbalbaharum/hyper-sdk/internal/observability"
	"github.com/iqbalbaharum/hyper-sdk/internal/types"
	"github.com/joho/godotenv"
)

const (
	defaultPort          = "8080"
	defaultMigrationsDir = "migrations"
	defaultMySqlDbName   = "hyper"
)

type Config struct {
	Port string
	Log  observability.LogConfig

	RpcHttpUrl string
	RpcWsUrl   string

	Sender     common.Address
	Deployment types.Deployment

	RedisAddr     string
	RedisPassword string
	RedisDb       int

	MySqlDsn      string
	MySqlDbName   string
	MigrationsDir string
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return fromEnv()
}

func fromEnv() (*Config, error) {
	c := &Config{
		Port: getEnv("PORT", defaultPort),
		Log: observability.LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
			File:   os.Getenv("LOG_FILE"),
		},
		RpcHttpUrl:    os.Getenv("RPC_HTTP_URL"),
		RpcWsUrl:      os.Getenv("RPC_WS_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		MySqlDsn:      os.Getenv("MYSQL_DSN"),
		MySqlDbName:   getEnv("MYSQL_DB_NAME", defaultMySqlDbName),
		MigrationsDir: getEnv("MIGRATIONS_DIR", defaultMigrationsDir),
	}

	if c.RpcHttpUrl == "" && c.RpcWsUrl == "" {
		return nil, errors.New("one of RPC_HTTP_URL or RPC_WS_URL is required")
	}

	var err error
	if c.Sender, err = address("SENDER_ADDRESS", true); err != nil {
		return nil, err
	}
	if c.Deployment.Hyper, err = address("HYPER_ADDRESS", false); err != nil {
		return nil, err
	}
	if c.Deployment.Forwarder, err = address("FORWARDER_ADDRESS", false); err != nil {
		return nil, err
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		if c.RedisDb, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("REDIS_DB: %w", err)
		}
	}

	return c, nil
}

func address(key string, required bool) (common.Address, error) {
	v := os.Getenv(key)
	if v == "" {
		if required {
			return common.Address{}, fmt.Errorf("%s is required", key)
		}
		return common.Address{}, nil
	}

	a, err := coder.ParseAddress(v)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", key, err)
	}

	return a, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
