// Package server exposes a wallet session to a local view layer over HTTP.
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/nepalipay/nepalipay-web3/docs"
	"github.com/nepalipay/nepalipay-web3/internal/auth"
	"github.com/nepalipay/nepalipay-web3/internal/config"
	"github.com/nepalipay/nepalipay-web3/internal/handlers"
	"github.com/nepalipay/nepalipay-web3/internal/middleware"
	"github.com/nepalipay/nepalipay-web3/internal/session"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server owns the router and the middleware that needs shutting down.
type Server struct {
	router      *gin.Engine
	rateLimiter *middleware.RateLimiter
}

// Options configures the router middleware.
type Options struct {
	CORS      config.CORSConfig
	RateLimit config.RateLimitConfig
	// APIKey guards every route but /health and the docs; empty leaves the
	// API open.
	APIKey string
}

// New builds the router for a session.
func New(s *session.Session, opts Options) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.RequestLoggingMiddleware())
	router.Use(configureCORS(opts.CORS))

	srv := &Server{router: router}
	if opts.RateLimit.RequestsPerSecond > 0 {
		srv.rateLimiter = middleware.NewRateLimiter(opts.RateLimit.RequestsPerSecond, opts.RateLimit.Burst)
		router.Use(srv.rateLimiter.Middleware())
	}
	router.Use(auth.EnsureValidAPIKey(opts.APIKey))

	initializeRoutes(router, handlers.NewCommonServices(s))
	return srv
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops background middleware work.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func initializeRoutes(router *gin.Engine, common *handlers.CommonServices) {
	healthHandler := handlers.NewHealthHandler(common)
	sessionHandler := handlers.NewSessionHandler(common)
	connectionHandler := handlers.NewConnectionHandler(common)
	balanceHandler := handlers.NewBalanceHandler(common)
	transactionHandler := handlers.NewTransactionHandler(common)
	receiveHandler := handlers.NewReceiveHandler(common)
	realtimeHandler := handlers.NewRealtimeHandler(common)
	notificationHandler := handlers.NewNotificationHandler(common)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/session", sessionHandler.GetSession)
		v1.POST("/session", sessionHandler.Login)
		v1.DELETE("/session", sessionHandler.Logout)

		v1.GET("/connection", connectionHandler.GetConnection)
		v1.POST("/connection", connectionHandler.Connect)
		v1.DELETE("/connection", connectionHandler.Disconnect)

		v1.GET("/balances", balanceHandler.GetBalances)
		v1.POST("/balances/refresh", balanceHandler.RefreshBalances)
		v1.GET("/quote", balanceHandler.GetQuote)
		v1.POST("/payment-intents", balanceHandler.CreatePaymentIntent)

		transactions := v1.Group("/transactions")
		{
			transactions.GET("", transactionHandler.ListTransactions)
			transactions.POST("", transactionHandler.CreateTransaction)
			transactions.POST("/estimate", transactionHandler.EstimateFee)
		}

		v1.GET("/receive/qr", receiveHandler.GetReceiveQR)

		v1.GET("/realtime", realtimeHandler.GetStatus)
		v1.POST("/realtime/messages", realtimeHandler.SendMessage)

		v1.GET("/notifications", notificationHandler.Stream)
	}
}

func configureCORS(cfg config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	if len(cfg.AllowedMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowedMethods
	}
	if len(cfg.AllowedHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowedHeaders
	}
	corsConfig.ExposeHeaders = cfg.ExposedHeaders
	corsConfig.AllowCredentials = cfg.AllowCredentials
	return cors.New(corsConfig)
}
