package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/units"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// ReceiveHandler renders payment requests for the connected account
type ReceiveHandler struct {
	common *CommonServices
}

// ReceiveResponse is the JSON form of a payment request
type ReceiveResponse struct {
	Address string `json:"address"`
	URI     string `json:"uri"`
	QRCode  string `json:"qrCode"`
}

func NewReceiveHandler(common *CommonServices) *ReceiveHandler {
	return &ReceiveHandler{common: common}
}

// GetReceiveQR godoc
// @Summary      Payment request QR code
// @Description  Encodes an EIP-681 token transfer request to the connected account
// @Tags         receive
// @Produce      png
// @Produce      json
// @Param        amount  query  string  false  "Requested token amount"
// @Param        size    query  int     false  "Image size in pixels"
// @Param        format  query  string  false  "png (default) or json"
// @Success      200
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /api/v1/receive/qr [get]
func (h *ReceiveHandler) GetReceiveQR(c *gin.Context) {
	state := h.common.session.Manager.State()
	if state.Status != chain.StatusConnected {
		handleWalletError(c, walleterr.ErrNotConnected)
		return
	}

	size := defaultQRSize
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxQRSize {
			sendError(c, http.StatusBadRequest, "Invalid QR code size", err)
			return
		}
		size = parsed
	}

	var baseUnits string
	if raw := c.Query("amount"); raw != "" {
		amount, err := units.ParseAmount(raw, constants.TokenDecimals)
		if err != nil {
			handleWalletError(c, walleterr.Wrap(walleterr.ErrInvalidAmount, err))
			return
		}
		base, err := units.ToBaseUnits(amount, constants.TokenDecimals)
		if err != nil {
			handleWalletError(c, walleterr.Wrap(walleterr.ErrInvalidAmount, err))
			return
		}
		baseUnits = base.String()
	}

	token := h.common.session.Registry.Addresses().Token
	recipient := state.Address()
	uri := paymentURI(token, state.ChainID, recipient, baseUnits)

	qr, err := qrcode.New(uri, qrcode.Medium)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to create QR code", err)
		return
	}
	png, err := qr.PNG(size)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to generate PNG", err)
		return
	}

	if c.Query("format") == "json" {
		sendSuccess(c, http.StatusOK, ReceiveResponse{
			Address: recipient.Hex(),
			URI:     uri,
			QRCode:  fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png)),
		})
		return
	}
	c.Header("X-Payment-URI", uri)
	c.Data(http.StatusOK, "image/png", png)
}

// paymentURI builds an EIP-681 ERC-20 transfer request. baseUnits may be
// empty to let the payer choose the amount.
func paymentURI(token common.Address, chainID uint64, recipient common.Address, baseUnits string) string {
	query := url.Values{}
	query.Set("address", recipient.Hex())
	if baseUnits != "" {
		query.Set("uint256", baseUnits)
	}
	return fmt.Sprintf("ethereum:%s@%d/transfer?%s", token.Hex(), chainID, query.Encode())
}
