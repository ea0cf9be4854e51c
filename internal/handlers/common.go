package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/balance"
	httpClient "github.com/nepalipay/nepalipay-web3/internal/client/http"
	"github.com/nepalipay/nepalipay-web3/internal/middleware"
	"github.com/nepalipay/nepalipay-web3/internal/realtime"
	"github.com/nepalipay/nepalipay-web3/internal/session"
	"github.com/nepalipay/nepalipay-web3/internal/transaction"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"go.uber.org/zap"
)

// CommonServices holds common dependencies used across handlers
type CommonServices struct {
	session *session.Session
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string         `json:"error"`
	Code  walleterr.Code `json:"code,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(s *session.Session) *CommonServices {
	return &CommonServices{session: s}
}

// sendError is a helper function that combines logging and error response
// It logs the error with the given message and sends a JSON error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	middleware.LogWithCorrelationID(c.Request.Context()).Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// handleWalletError maps a wallet-layer error to an HTTP status and responds
// with its user-facing message.
func handleWalletError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	status := statusFor(err)
	code := walleterr.CodeOf(err)
	message := walleterr.MessageOf(err)
	switch {
	case errors.Is(err, balance.ErrUnknownChannel), errors.Is(err, transaction.ErrUnknownKind):
		message = err.Error()
	case errors.Is(err, realtime.ErrNotConnected):
		message = "Real-time channel is not connected."
	}

	log := middleware.LogWithCorrelationID(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error("Wallet request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
	} else {
		log.Debug("Wallet request rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, balance.ErrUnknownChannel), errors.Is(err, transaction.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, realtime.ErrNotConnected):
		return http.StatusServiceUnavailable
	}

	switch walleterr.CodeOf(err) {
	case walleterr.InvalidAmount, walleterr.InvalidTarget:
		return http.StatusBadRequest
	case walleterr.Unauthenticated:
		return http.StatusUnauthorized
	case walleterr.UserRejected:
		return http.StatusForbidden
	case walleterr.NotConnected, walleterr.WrongNetwork, walleterr.DuplicateInFlight:
		return http.StatusConflict
	case walleterr.InsufficientBalance:
		return http.StatusUnprocessableEntity
	case walleterr.WalletNotFound:
		return http.StatusServiceUnavailable
	case walleterr.ConnectionFailed, walleterr.ContractCallFailed,
		walleterr.TransactionReverted, walleterr.NetworkFetchFailed:
		return http.StatusBadGateway
	}

	var upstream *httpClient.HTTPError
	if errors.As(err, &upstream) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// sendSuccessMessage is a helper function that sends a success message
func sendSuccessMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, SuccessResponse{Message: message})
}
