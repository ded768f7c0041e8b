package public

import (
	"net/http"
	"strings"

	"github.com/cardmint/internal/http/response"
	"github.com/cardmint/internal/render"

	"github.com/gin-gonic/gin"
)

// GenerateClaimLink 生成卡片转赠领取链接
func (h *Handler) GenerateClaimLink(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	cardID, ok := parseIDParam(c, "id", "error.card_id_invalid")
	if !ok {
		return
	}
	result, err := h.ClaimLinkService.Generate(c.Request.Context(), cardID, userID, isAdmin(c))
	if err != nil {
		respondWithMappedError(c, err, claimLinkGenerateErrorRules, response.CodeInternal, "error.claim_link_create_failed")
		return
	}
	response.Success(c, result)
}

// ConsumeClaimLink 消费领取链接
func (h *Handler) ConsumeClaimLink(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		respondError(c, response.CodeBadRequest, "error.claim_link_not_found", nil)
		return
	}
	card, err := h.ClaimLinkService.Consume(c.Request.Context(), token, userID)
	if err != nil {
		respondWithMappedError(c, err, claimLinkConsumeErrorRules, response.CodeInternal, "error.claim_link_consume_failed")
		return
	}
	response.Success(c, gin.H{
		"card_id":     card.ID,
		"unique_code": card.UniqueCode,
		"card_type":   card.CardType,
		"acquired_at": card.AcquiredAt,
	})
}

// GetClaimLinkQR 渲染领取链接二维码
func (h *Handler) GetClaimLinkQR(c *gin.Context) {
	format, err := render.ParseFormat(c.DefaultQuery("format", string(render.FormatPNG)))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.export_format_invalid", nil)
		return
	}
	blob, err := h.ClaimLinkService.RenderQR(c.Request.Context(), c.Param("token"), format)
	if err != nil {
		respondWithMappedError(c, err, claimLinkQRErrorRules, response.CodeInternal, "error.render_failed")
		return
	}
	c.Data(http.StatusOK, format.MIME(), blob)
}
