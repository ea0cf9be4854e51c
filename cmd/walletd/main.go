package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nepalipay/nepalipay-web3/internal/client/backend"
	httpClient "github.com/nepalipay/nepalipay-web3/internal/client/http"
	"github.com/nepalipay/nepalipay-web3/internal/client/wallet"
	"github.com/nepalipay/nepalipay-web3/internal/config"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/realtime"
	"github.com/nepalipay/nepalipay-web3/internal/server"
	"github.com/nepalipay/nepalipay-web3/internal/session"
	"github.com/nepalipay/nepalipay-web3/internal/transaction"
	"go.uber.org/zap"
)

// @title           NepaliPay Wallet Daemon
// @version         1.0
// @description     Local API over the NepaliPay wallet session: connection, balances, transactions and notifications.
// @host            localhost:8090
// @BasePath        /
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}

	logger.InitLogger(cfg.Stage)
	defer func() { _ = logger.Sync() }()

	if cfg.Stage == constants.ProdEnvironment {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chainClient, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		logger.Fatal("Failed to connect to chain RPC", zap.String("url", cfg.RPCURL), zap.Error(err))
	}
	defer chainClient.Close()

	deps := session.Deps{Chain: chainClient}
	realtimeHeader := http.Header{}

	if cfg.WalletRPCURL != "" {
		w, err := wallet.Dial(ctx, cfg.WalletRPCURL)
		if err != nil {
			logger.Fatal("Failed to connect to wallet", zap.String("url", cfg.WalletRPCURL), zap.Error(err))
		}
		defer w.Close()
		deps.Wallet = w
	} else {
		logger.Warn("WALLET_RPC_URL not set, running without a wallet")
	}

	if cfg.APIBaseURL != "" {
		var opts []httpClient.ClientOption
		if cfg.Stage != constants.ProdEnvironment {
			opts = append(opts, httpClient.WithMiddleware(httpClient.LoggingMiddleware(logger.Named("backend.wire"))))
		}
		if cfg.SessionCookie != "" {
			opts = append(opts, httpClient.WithDefaultHeader("Cookie", cfg.SessionCookie))
			realtimeHeader.Set("Cookie", cfg.SessionCookie)
		}
		deps.Backend = backend.NewClient(cfg.APIBaseURL, opts...)
	}

	s, err := session.New(session.Config{
		Network:   cfg.Network,
		Addresses: cfg.Addresses,
		Transaction: transaction.Config{
			ConfirmTimeout: cfg.ConfirmTimeout,
			PollInterval:   cfg.ReceiptPollInterval,
		},
		Realtime: realtime.Config{
			URL:            cfg.RealtimeURL,
			ReconnectDelay: cfg.RealtimeReconnectDelay,
			Header:         realtimeHeader,
		},
		PollInterval: cfg.BalancePollInterval,
	}, deps)
	if err != nil {
		logger.Fatal("Failed to create session", zap.Error(err))
	}
	defer s.Close()

	if deps.Backend != nil {
		if _, err := s.Login(ctx); err != nil {
			logger.Warn("Sign-in failed, continuing signed out", zap.Error(err))
		}
	} else if err := s.Manager.Restore(ctx); err != nil {
		logger.Debug("Wallet restore failed", zap.Error(err))
	}

	srv := server.New(s, server.Options{
		CORS:      cfg.CORS,
		RateLimit: cfg.RateLimit,
		APIKey:    cfg.APIKey,
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%s", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 20 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("addr", httpServer.Addr),
			zap.String("network", cfg.Network.Name),
			zap.String("stage", cfg.Stage))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
