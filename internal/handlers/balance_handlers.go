package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/balance"
	"github.com/nepalipay/nepalipay-web3/internal/client/backend"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/units"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/shopspring/decimal"
)

// BalanceHandler serves balances, the exchange rate and fiat quotes
type BalanceHandler struct {
	common *CommonServices
}

// QuoteRequest is the query for a fiat quote
type QuoteRequest struct {
	Amount  string `form:"amount" binding:"required"`
	Channel string `form:"channel"`
}

// PaymentIntentRequest is a card purchase of Amount tokens
type PaymentIntentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// PaymentIntentResponse pairs the processor's intent with the card quote
type PaymentIntentResponse struct {
	Quote  balance.Quote          `json:"quote"`
	Intent *backend.PaymentIntent `json:"intent"`
}

func NewBalanceHandler(common *CommonServices) *BalanceHandler {
	return &BalanceHandler{common: common}
}

// GetBalances godoc
// @Summary      Get the latest balance snapshot
// @Description  Returns the last successful snapshot without touching the network
// @Tags         balances
// @Produce      json
// @Success      200  {object}  balance.Snapshot
// @Router       /api/v1/balances [get]
func (h *BalanceHandler) GetBalances(c *gin.Context) {
	sendSuccess(c, http.StatusOK, h.common.session.Balances.Snapshot())
}

// RefreshBalances godoc
// @Summary      Refresh balances
// @Description  Fetches native and token balances and the exchange rate
// @Tags         balances
// @Produce      json
// @Success      200  {object}  balance.Snapshot
// @Failure      409  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /api/v1/balances/refresh [post]
func (h *BalanceHandler) RefreshBalances(c *gin.Context) {
	snap, err := h.common.session.Balances.Refresh(c.Request.Context())
	if err != nil {
		handleWalletError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, snap)
}

// GetQuote godoc
// @Summary      Quote a token purchase
// @Tags         balances
// @Produce      json
// @Param        amount   query  string  true   "Token amount"
// @Param        channel  query  string  false  "card, bank_transfer or wallet"
// @Success      200  {object}  balance.Quote
// @Failure      400  {object}  ErrorResponse
// @Router       /api/v1/quote [get]
func (h *BalanceHandler) GetQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid quote request", err)
		return
	}
	if req.Channel == "" {
		req.Channel = string(balance.ChannelCard)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		handleWalletError(c, walleterr.Wrap(walleterr.ErrInvalidAmount, err))
		return
	}

	quote, err := h.common.session.Balances.Quote(c.Request.Context(), amount, balance.Channel(req.Channel))
	if err != nil {
		handleWalletError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, quote)
}

// CreatePaymentIntent godoc
// @Summary      Start a card purchase
// @Description  Quotes the amount through the card channel and opens a payment intent with the API
// @Tags         balances
// @Accept       json
// @Produce      json
// @Param        request  body      PaymentIntentRequest  true  "Token amount"
// @Success      201      {object}  PaymentIntentResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse
// @Router       /api/v1/payment-intents [post]
func (h *BalanceHandler) CreatePaymentIntent(c *gin.Context) {
	var req PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := units.ParseAmount(req.Amount, constants.TokenDecimals)
	if err != nil {
		handleWalletError(c, walleterr.Wrap(walleterr.ErrInvalidAmount, err))
		return
	}

	ctx := c.Request.Context()
	quote, err := h.common.session.Balances.Quote(ctx, amount, balance.ChannelCard)
	if err != nil {
		handleWalletError(c, err)
		return
	}
	intent, err := h.common.session.CreatePaymentIntent(ctx, amount)
	if err != nil {
		handleWalletError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, PaymentIntentResponse{Quote: quote, Intent: intent})
}
