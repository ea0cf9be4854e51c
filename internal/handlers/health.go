package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/chain"
	"github.com/nepalipay/nepalipay-web3/internal/realtime"
)

// HealthResponse is the health check payload
type HealthResponse struct {
	Status     string         `json:"status"`
	Connection chain.Status   `json:"connection"`
	Realtime   realtime.State `json:"realtime"`
}

type HealthHandler struct {
	common *CommonServices
}

func NewHealthHandler(common *CommonServices) *HealthHandler {
	return &HealthHandler{common: common}
}

// Health godoc
// @Summary      Health check
// @Description  Checks if the daemon is running and reports wallet and push channel state
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Connection: h.common.session.Manager.State().Status,
		Realtime:   h.common.session.Realtime.State(),
	})
}
