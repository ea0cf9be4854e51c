package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/client/backend"
	"github.com/nepalipay/nepalipay-web3/internal/transaction"
)

// TransactionHandler submits and lists wallet transactions
type TransactionHandler struct {
	common *CommonServices
}

// TransactionListResponse groups in-flight and finished transactions with
// the user's ledger history
type TransactionListResponse struct {
	Active  []transaction.PendingTransaction `json:"active"`
	Recent  []transaction.PendingTransaction `json:"recent"`
	History []backend.TransactionRecord      `json:"history"`
}

func NewTransactionHandler(common *CommonServices) *TransactionHandler {
	return &TransactionHandler{common: common}
}

// CreateTransaction godoc
// @Summary      Submit a transaction
// @Description  Validates the request and starts it in the background. Progress is reported
// @Description  through the transaction list and the notification stream.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request  body      transaction.Request  true  "Transaction request"
// @Success      202      {object}  transaction.PendingTransaction
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      422      {object}  ErrorResponse
// @Router       /api/v1/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req transaction.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, err := h.common.session.Transactions.Start(c.Request.Context(), req)
	if err != nil {
		handleWalletError(c, err)
		return
	}
	sendSuccess(c, http.StatusAccepted, tx)
}

// ListTransactions godoc
// @Summary      List transactions
// @Description  Local in-flight and recent transactions, plus the ledger history when signed in
// @Tags         transactions
// @Produce      json
// @Success      200  {object}  TransactionListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /api/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	history, err := h.common.session.History(c.Request.Context())
	if err != nil {
		handleWalletError(c, err)
		return
	}
	if history == nil {
		history = []backend.TransactionRecord{}
	}
	sendSuccess(c, http.StatusOK, TransactionListResponse{
		Active:  h.common.session.Transactions.Active(),
		Recent:  h.common.session.Transactions.Recent(),
		History: history,
	})
}

// EstimateFee godoc
// @Summary      Estimate transaction fees
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request  body      transaction.Request  true  "Transaction request"
// @Success      200      {object}  transaction.Estimate
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /api/v1/transactions/estimate [post]
func (h *TransactionHandler) EstimateFee(c *gin.Context) {
	var req transaction.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	estimate, err := h.common.session.Transactions.EstimateFee(c.Request.Context(), req)
	if err != nil {
		handleWalletError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, estimate)
}
