// Package config reads the daemon settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/contracts"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/realtime"
	"go.uber.org/zap"
)

// Networks accepted by NETWORK.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// CORSConfig mirrors the CORS_* variables.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
}

// RateLimitConfig is the per-client request budget of the local API.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// Config is the complete daemon configuration.
type Config struct {
	Stage string
	Port  string

	Network   chain.Network
	RPCURL    string
	Addresses contracts.Addresses

	// WalletRPCURL is the injected wallet endpoint; empty means no wallet.
	WalletRPCURL string
	// APIBaseURL is the REST backend; empty runs without it.
	APIBaseURL    string
	SessionCookie string
	RealtimeURL   string

	BalancePollInterval    time.Duration
	ConfirmTimeout         time.Duration
	ReceiptPollInterval    time.Duration
	RealtimeReconnectDelay time.Duration

	// APIKey guards the local API; empty leaves it open.
	APIKey    string
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

// Load builds a Config from environment variables, applying defaults for
// anything unset. Malformed durations fall back to their default with a
// warning; malformed addresses and unknown networks are errors.
func Load() (*Config, error) {
	cfg := &Config{
		Stage:         getEnvWithDefault("STAGE", constants.DevEnvironment),
		Port:          getEnvWithDefault("PORT", "8090"),
		WalletRPCURL:  os.Getenv("WALLET_RPC_URL"),
		APIBaseURL:    strings.TrimSuffix(os.Getenv("API_BASE_URL"), "/"),
		SessionCookie: os.Getenv("SESSION_COOKIE"),
		APIKey:        os.Getenv("LOCAL_API_KEY"),
	}

	switch network := strings.ToLower(getEnvWithDefault("NETWORK", NetworkMainnet)); network {
	case NetworkMainnet:
		cfg.Network = chain.BSCMainnet()
	case NetworkTestnet:
		cfg.Network = chain.BSCTestnet()
	default:
		return nil, fmt.Errorf("unsupported NETWORK %q", network)
	}
	cfg.RPCURL = getEnvWithDefault("RPC_URL", cfg.Network.RPCURLs[0])

	addresses := contracts.DefaultAddresses()
	for _, entry := range []struct {
		key  string
		dest *common.Address
	}{
		{"TOKEN_CONTRACT_ADDRESS", &addresses.Token},
		{"PAYMENT_CONTRACT_ADDRESS", &addresses.Payment},
		{"FEE_RELAYER_CONTRACT_ADDRESS", &addresses.FeeRelayer},
	} {
		value := os.Getenv(entry.key)
		if value == "" {
			continue
		}
		if !common.IsHexAddress(value) {
			return nil, fmt.Errorf("%s is not a valid address: %q", entry.key, value)
		}
		*entry.dest = common.HexToAddress(value)
	}
	cfg.Addresses = addresses

	cfg.RealtimeURL = os.Getenv("REALTIME_URL")
	if cfg.RealtimeURL == "" && cfg.APIBaseURL != "" {
		cfg.RealtimeURL = realtime.URLFromBase(cfg.APIBaseURL)
	}

	cfg.BalancePollInterval = getDuration("BALANCE_POLL_INTERVAL", 30*time.Second)
	cfg.ConfirmTimeout = getDuration("TX_CONFIRM_TIMEOUT", 3*time.Minute)
	cfg.ReceiptPollInterval = getDuration("TX_RECEIPT_POLL_INTERVAL", 2*time.Second)
	cfg.RealtimeReconnectDelay = getDuration("REALTIME_RECONNECT_DELAY", 5*time.Second)

	cfg.CORS = CORSConfig{
		AllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "DELETE", "OPTIONS"}),
		AllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-Correlation-ID"}),
		ExposedHeaders:   getList("CORS_EXPOSED_HEADERS", []string{"X-Correlation-ID", "X-Payment-URI"}),
		AllowCredentials: os.Getenv("CORS_ALLOW_CREDENTIALS") == "true",
	}

	var err error
	if cfg.RateLimit.RequestsPerSecond, err = getInt("RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = getInt("RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Duration("default", defaultValue),
			zap.Error(err))
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func getList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
