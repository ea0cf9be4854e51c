package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/realtime"
)

// RealtimeHandler forwards messages to the push channel
type RealtimeHandler struct {
	common *CommonServices
}

// RealtimeStatusResponse reports the push channel state
type RealtimeStatusResponse struct {
	State realtime.State `json:"state"`
}

func NewRealtimeHandler(common *CommonServices) *RealtimeHandler {
	return &RealtimeHandler{common: common}
}

// GetStatus godoc
// @Summary      Push channel state
// @Tags         realtime
// @Produce      json
// @Success      200  {object}  RealtimeStatusResponse
// @Router       /api/v1/realtime [get]
func (h *RealtimeHandler) GetStatus(c *gin.Context) {
	sendSuccess(c, http.StatusOK, RealtimeStatusResponse{State: h.common.session.Realtime.State()})
}

// SendMessage godoc
// @Summary      Send a message on the push channel
// @Description  Messages are not queued; the request fails while the channel is down
// @Tags         realtime
// @Accept       json
// @Produce      json
// @Param        message  body      realtime.Message  true  "Message"
// @Success      202      {object}  SuccessResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse
// @Router       /api/v1/realtime/messages [post]
func (h *RealtimeHandler) SendMessage(c *gin.Context) {
	var msg realtime.Message
	if err := c.ShouldBindJSON(&msg); err != nil || msg.Type == "" {
		sendError(c, http.StatusBadRequest, "Invalid message", err)
		return
	}

	if err := h.common.session.Realtime.SendMessage(msg); err != nil {
		handleWalletError(c, err)
		return
	}
	sendSuccessMessage(c, http.StatusAccepted, "Message sent")
}
