package admin

import (
	"errors"
	"strings"

	"github.com/cardmint/internal/cardcode"
	handlershared "github.com/cardmint/internal/http/handlers/shared"
	"github.com/cardmint/internal/http/response"
	"github.com/cardmint/internal/i18n"
	"github.com/cardmint/internal/service"

	"github.com/gin-gonic/gin"
)

// ValidateCardCodeRequest 校验卡号请求
type ValidateCardCodeRequest struct {
	Code string `json:"code"`
}

// AllocateCardsRequest 区间分配请求
type AllocateCardsRequest struct {
	ProductID     uint   `json:"product_id" binding:"required"`
	ReferenceCode string `json:"reference_code" binding:"omitempty,card_code"`
	StartSerial   string `json:"start_serial" binding:"required,card_serial"`
	EndSerial     string `json:"end_serial" binding:"required,card_serial"`
	CardType      string `json:"card_type" binding:"omitempty,oneof=normal special"`
}

var cardAllocateErrorRules = []handlershared.MappedError{
	{Target: service.ErrCardProductRequired, Code: response.CodeBadRequest, Key: "error.card_product_required"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrCardTypeInvalid, Code: response.CodeBadRequest, Key: "error.card_type_invalid"},
	{Target: service.ErrCardPrefixMissing, Code: response.CodeBadRequest, Key: "error.card_prefix_missing"},
	{Target: service.ErrCardPrefixMismatch, Code: response.CodeConflict, Key: "error.card_prefix_mismatch"},
	{Target: cardcode.ErrInvalidCodeFormat, Code: response.CodeBadRequest, Key: "error.card_code_invalid"},
	{Target: cardcode.ErrInvalidSerialFormat, Code: response.CodeBadRequest, Key: "error.card_serial_invalid"},
	{Target: cardcode.ErrInvalidPrefix, Code: response.CodeBadRequest, Key: "error.card_prefix_invalid"},
	{Target: cardcode.ErrEmptyRange, Code: response.CodeBadRequest, Key: "error.card_range_empty"},
	{Target: cardcode.ErrRangeTooLarge, Code: response.CodeBadRequest, Key: "error.card_range_too_large"},
	{Target: service.ErrCardFetchFailed, Code: response.CodeInternal, Key: "error.card_fetch_failed"},
}

// ValidateCardCode 校验卡号格式
func (h *Handler) ValidateCardCode(c *gin.Context) {
	var req ValidateCardCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	parsed, err := h.CardAllocationService.ValidateCode(req.Code)
	if err != nil {
		response.Success(c, gin.H{
			"valid":  false,
			"reason": i18n.T(i18n.ResolveLocale(c), "error.card_code_invalid"),
		})
		return
	}
	response.Success(c, gin.H{
		"valid":  true,
		"prefix": parsed.Prefix,
		"serial": parsed.Serial,
	})
}

// AllocateCards 按序列号区间分配卡片
func (h *Handler) AllocateCards(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req AllocateCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.CardAllocationService.AllocateRange(service.AllocateRangeInput{
		ProductID:     req.ProductID,
		ReferenceCode: req.ReferenceCode,
		StartSerial:   req.StartSerial,
		EndSerial:     req.EndSerial,
		CardType:      req.CardType,
		AdminID:       adminID,
	})
	if err != nil {
		if errors.Is(err, service.ErrCardCodeConflict) {
			msg := i18n.T(i18n.ResolveLocale(c), "error.card_code_conflict")
			conflict := strings.TrimPrefix(err.Error(), service.ErrCardCodeConflict.Error())
			response.ErrorWithData(c, response.CodeConflict, msg, gin.H{
				"conflict_code": strings.TrimSpace(strings.TrimPrefix(conflict, ":")),
			})
			return
		}
		respondWithMappedError(c, err, cardAllocateErrorRules, response.CodeInternal, "error.card_allocate_failed")
		return
	}

	codes := make([]string, 0, len(result.Cards))
	for _, card := range result.Cards {
		codes = append(codes, card.UniqueCode)
	}
	response.Success(c, gin.H{
		"batch":   result.Batch,
		"created": len(result.Cards),
		"codes":   codes,
	})
}

// ListCards 获取卡片列表
func (h *Handler) ListCards(c *gin.Context) {
	productID, ok := parseOptionalUintQuery(c, "product_id", "error.bad_request")
	if !ok {
		return
	}
	batchID, ok := parseOptionalUintQuery(c, "batch_id", "error.bad_request")
	if !ok {
		return
	}
	page, pageSize := handlershared.ReadPagination(c)

	cards, total, err := h.CardAllocationService.ListCards(service.CardListInput{
		ProductID: productID,
		BatchID:   batchID,
		CardType:  c.Query("card_type"),
		Code:      c.Query("code"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.card_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, cards, response.NewPagination(page, pageSize, total))
}

// ListCardBatches 获取分配批次列表
func (h *Handler) ListCardBatches(c *gin.Context) {
	productID, ok := parseOptionalUintQuery(c, "product_id", "error.bad_request")
	if !ok {
		return
	}
	page, pageSize := handlershared.ReadPagination(c)

	batches, total, err := h.CardAllocationService.ListBatches(productID, strings.TrimSpace(c.Query("batch_no")), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.card_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, batches, response.NewPagination(page, pageSize, total))
}

// IssueCardPayload 为缺失载荷的卡片补发载荷
func (h *Handler) IssueCardPayload(c *gin.Context) {
	cardID, ok := parseIDParam(c, "id", "error.card_id_invalid")
	if !ok {
		return
	}
	card, err := h.CardAllocationService.IssuePayload(cardID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCardNotFound):
			respondError(c, response.CodeNotFound, "error.card_not_found", nil)
		case errors.Is(err, service.ErrCardPayloadIssued):
			respondError(c, response.CodeConflict, "error.card_payload_issued", nil)
		default:
			respondError(c, response.CodeInternal, "error.card_update_failed", err)
		}
		return
	}
	response.Success(c, card)
}
