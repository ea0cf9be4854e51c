package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/walleterr"
)

// SessionHandler signs the user in and out of the backend session
type SessionHandler struct {
	common *CommonServices
}

func NewSessionHandler(common *CommonServices) *SessionHandler {
	return &SessionHandler{common: common}
}

// GetSession godoc
// @Summary      Current user
// @Tags         session
// @Produce      json
// @Success      200  {object}  backend.User
// @Failure      401  {object}  ErrorResponse
// @Router       /api/v1/session [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	user := h.common.session.User()
	if user == nil {
		handleWalletError(c, walleterr.ErrUnauthenticated)
		return
	}
	sendSuccess(c, http.StatusOK, user)
}

// Login godoc
// @Summary      Load the session user
// @Description  Loads the user from the backend, opens the push channel and restores an
// @Description  already authorised wallet without prompting
// @Tags         session
// @Produce      json
// @Success      200  {object}  backend.User
// @Failure      401  {object}  ErrorResponse
// @Router       /api/v1/session [post]
func (h *SessionHandler) Login(c *gin.Context) {
	user, err := h.common.session.Login(c.Request.Context())
	if err != nil {
		handleWalletError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, user)
}

// Logout godoc
// @Summary      End the session
// @Tags         session
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Router       /api/v1/session [delete]
func (h *SessionHandler) Logout(c *gin.Context) {
	h.common.session.Logout()
	sendSuccessMessage(c, http.StatusOK, "Signed out")
}
