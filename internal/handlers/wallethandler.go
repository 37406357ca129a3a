package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobagent-labs/web3-job-agent/internal/wallet"
)

type WalletHandler struct {
	Provider *wallet.Provider
}

func NewWalletHandler(provider *wallet.Provider) *WalletHandler {
	return &WalletHandler{Provider: provider}
}

// GetConfig is the GET /wallet/config endpoint: the static configuration
// the front end feeds to its wallet-connect stack.
func (h *WalletHandler) GetConfig(c *gin.Context) {
	cfg := h.Provider.Config()
	// The project id is an opaque credential; the front end reads it from
	// here so it is not baked into the bundle.
	c.JSON(http.StatusOK, cfg)
}
