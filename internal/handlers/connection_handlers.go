package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
)

// ConnectionHandler exposes the wallet connection lifecycle
type ConnectionHandler struct {
	common *CommonServices
}

// ConnectionResponse is the connection state together with the network the
// daemon expects the wallet to be on
type ConnectionResponse struct {
	chain.ConnectionState
	ShortAccount string        `json:"shortAccount,omitempty"`
	NetworkName  string        `json:"networkName"`
	Network      chain.Network `json:"network"`
}

func NewConnectionHandler(common *CommonServices) *ConnectionHandler {
	return &ConnectionHandler{common: common}
}

// GetConnection godoc
// @Summary      Get connection state
// @Tags         connection
// @Produce      json
// @Success      200  {object}  ConnectionResponse
// @Router       /api/v1/connection [get]
func (h *ConnectionHandler) GetConnection(c *gin.Context) {
	sendSuccess(c, http.StatusOK, h.response())
}

// Connect godoc
// @Summary      Connect the wallet
// @Description  Requests account access and switches the wallet to the expected network
// @Tags         connection
// @Produce      json
// @Success      200  {object}  ConnectionResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /api/v1/connection [post]
func (h *ConnectionHandler) Connect(c *gin.Context) {
	if err := h.common.session.Manager.Connect(c.Request.Context()); err != nil {
		handleWalletError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, h.response())
}

// Disconnect godoc
// @Summary      Disconnect the wallet
// @Tags         connection
// @Produce      json
// @Success      200  {object}  ConnectionResponse
// @Router       /api/v1/connection [delete]
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	h.common.session.Manager.Disconnect()
	sendSuccess(c, http.StatusOK, h.response())
}

func (h *ConnectionHandler) response() ConnectionResponse {
	state := h.common.session.Manager.State()
	return ConnectionResponse{
		ConnectionState: state,
		ShortAccount:    chain.ShortAddress(state.Account),
		NetworkName:     chain.NetworkName(state.ChainID),
		Network:         h.common.session.Manager.Network(),
	}
}
