package public

import (
	"strconv"
	"strings"

	handlershared "github.com/cardmint/internal/http/handlers/shared"
	"github.com/cardmint/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListRewards 奖励查询面，状态随当前持有数量实时计算
func (h *Handler) ListRewards(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var productID uint
	if raw := strings.TrimSpace(c.Query("product_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		productID = uint(parsed)
	}
	rewards, err := h.RewardService.ListRewards(c.Request.Context(), userID, productID)
	if err != nil {
		respondWithMappedError(c, err, rewardQueryErrorRules, response.CodeInternal, "error.reward_fetch_failed")
		return
	}
	response.Success(c, rewards)
}

// ClaimReward 领取奖励，失败时在 data.rewards 返回刷新后的奖励列表
func (h *Handler) ClaimReward(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	rewardID, ok := parseIDParam(c, "id", "error.reward_id_invalid")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	result, err := h.ClaimService.AttemptClaim(ctx, rewardID, userID)
	if err != nil {
		var data interface{}
		if rewards, listErr := h.RewardService.ListRewards(ctx, userID, 0); listErr == nil {
			data = gin.H{"rewards": rewards}
		} else {
			handlershared.RequestLog(c).Warnw("reward_list_refresh_failed", "user_id", userID, "error", listErr)
		}
		handlershared.RespondWithMappedErrorData(c, err, rewardClaimErrorRules, response.CodeInternal, "error.claim_failed", data)
		return
	}
	response.Success(c, result)
}
