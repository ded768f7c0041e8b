package admin

import (
	"errors"

	"github.com/cardmint/internal/cardcode"
	"github.com/cardmint/internal/http/response"
	"github.com/cardmint/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Name        string `json:"name" binding:"required"`
	CodePrefix  string `json:"code_prefix"`
	Description string `json:"description"`
}

// CreateRewardRequest 创建奖励请求
type CreateRewardRequest struct {
	ProductID           uint            `json:"product_id" binding:"required"`
	Name                string          `json:"name" binding:"required"`
	ValueAmount         decimal.Decimal `json:"value_amount"`
	RequiredNormalCount int             `json:"required_normal_count" binding:"gte=0"`
	SpecialBatchID      *uint           `json:"special_batch_id"`
	SortOrder           int             `json:"sort_order"`
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Create(service.CreateProductInput{
		Slug:        req.Slug,
		Name:        req.Name,
		CodePrefix:  req.CodePrefix,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductInvalid):
			respondError(c, response.CodeBadRequest, "error.product_invalid", nil)
		case errors.Is(err, cardcode.ErrInvalidPrefix):
			respondError(c, response.CodeBadRequest, "error.card_prefix_invalid", nil)
		case errors.Is(err, service.ErrProductSlugExists):
			respondError(c, response.CodeConflict, "error.product_slug_exists", nil)
		default:
			respondError(c, response.CodeInternal, "error.product_create_failed", err)
		}
		return
	}
	response.Success(c, product)
}

// ListProducts 获取商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.ProductService.List(false)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	response.Success(c, products)
}

// CreateReward 创建奖励
func (h *Handler) CreateReward(c *gin.Context) {
	var req CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	reward, err := h.RewardService.CreateReward(c.Request.Context(), service.CreateRewardInput{
		ProductID:           req.ProductID,
		Name:                req.Name,
		ValueAmount:         req.ValueAmount,
		RequiredNormalCount: req.RequiredNormalCount,
		SpecialBatchID:      req.SpecialBatchID,
		SortOrder:           req.SortOrder,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCardProductRequired), errors.Is(err, service.ErrRewardInvalid):
			respondError(c, response.CodeBadRequest, "error.reward_invalid", nil)
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, response.CodeNotFound, "error.product_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.reward_create_failed", err)
		}
		return
	}
	response.Success(c, reward)
}
