package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/modulegate-backend/internal/http/middleware"
	"github.com/yungbote/modulegate-backend/internal/http/response"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
	"github.com/yungbote/modulegate-backend/internal/services"
)

type RewardsHandler struct {
	log     *logger.Logger
	rewards services.RewardsService
}

func NewRewardsHandler(log *logger.Logger, rewards services.RewardsService) *RewardsHandler {
	return &RewardsHandler{log: log.With("handler", "RewardsHandler"), rewards: rewards}
}

// GET /api/me/rewards
func (h *RewardsHandler) GetMine(c *gin.Context) {
	out, err := h.rewards.GetSummary(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.log.Warn("load rewards failed", "error", err)
		response.RespondWithError(c, err)
		return
	}
	response.RespondOK(c, out)
}
