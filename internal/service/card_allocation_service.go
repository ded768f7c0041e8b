package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cardmint/internal/cardcode"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const cardBatchNoPrefix = "CB"

// CardAllocationService 卡号区间分配服务
type CardAllocationService struct {
	cardRepo     repository.CardRepository
	batchRepo    repository.CardBatchRepository
	productRepo  repository.ProductRepository
	maxRangeSize int
}

// AllocateRangeInput 区间分配输入
type AllocateRangeInput struct {
	ProductID     uint
	ReferenceCode string
	StartSerial   string
	EndSerial     string
	CardType      string
	AdminID       uint
}

// AllocateRangeResult 区间分配结果
type AllocateRangeResult struct {
	Batch *models.CardBatch
	Cards []models.Card
}

// CardListInput 卡片列表输入
type CardListInput struct {
	ProductID uint
	BatchID   uint
	CardType  string
	Code      string
	Page      int
	PageSize  int
}

// NewCardAllocationService 创建卡号分配服务
func NewCardAllocationService(cardRepo repository.CardRepository, batchRepo repository.CardBatchRepository, productRepo repository.ProductRepository, maxRangeSize int) *CardAllocationService {
	if maxRangeSize <= 0 {
		maxRangeSize = cardcode.DefaultMaxRangeSize
	}
	return &CardAllocationService{
		cardRepo:     cardRepo,
		batchRepo:    batchRepo,
		productRepo:  productRepo,
		maxRangeSize: maxRangeSize,
	}
}

// ValidateCode 校验并拆分完整卡号
func (s *CardAllocationService) ValidateCode(code string) (cardcode.Code, error) {
	return cardcode.ParseCode(strings.TrimSpace(code))
}

// AllocateRange 在一个事务内生成批次与区间内全部卡片
func (s *CardAllocationService) AllocateRange(input AllocateRangeInput) (*AllocateRangeResult, error) {
	if input.ProductID == 0 {
		return nil, ErrCardProductRequired
	}
	cardType, err := normalizeCardType(input.CardType)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, ErrCardFetchFailed
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	prefix, err := s.resolvePrefix(product, input.ReferenceCode)
	if err != nil {
		return nil, err
	}
	span, err := cardcode.NewRange(prefix, strings.TrimSpace(input.StartSerial), strings.TrimSpace(input.EndSerial), s.maxRangeSize)
	if err != nil {
		return nil, err
	}
	codes, err := span.Codes()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	batch := &models.CardBatch{
		BatchNo:     generateCardBatchNo(now),
		ProductID:   product.ID,
		Prefix:      prefix,
		StartSerial: cardcode.FormatSerial(span.Start),
		EndSerial:   cardcode.FormatSerial(span.End),
		CardType:    cardType,
		Quantity:    len(codes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.AdminID > 0 {
		adminID := input.AdminID
		batch.CreatedBy = &adminID
	}
	cards := make([]models.Card, 0, len(codes))
	for _, code := range codes {
		cards = append(cards, models.Card{
			ProductID:         product.ID,
			UniqueCode:        code,
			CardType:          cardType,
			RenderablePayload: newRenderablePayload(),
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		cardRepo := s.cardRepo.WithTx(tx)
		existing, err := cardRepo.FindExistingCodes(codes)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: %s", ErrCardCodeConflict, existing[0])
		}
		if err := s.lockPrefix(tx, product, prefix); err != nil {
			return err
		}
		if err := cardRepo.CreateBatch(batch, cards); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrCardCodeConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCardCodeConflict) || errors.Is(err, ErrCardPrefixMismatch) || errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		logger.Errorw("card_allocation_failed", "product_id", product.ID, "prefix", prefix, "error", err)
		return nil, ErrCardAllocateFailed
	}

	logger.Infow("card_range_allocated",
		"product_id", product.ID,
		"batch_no", batch.BatchNo,
		"start_serial", batch.StartSerial,
		"end_serial", batch.EndSerial,
		"count", len(cards),
	)
	return &AllocateRangeResult{Batch: batch, Cards: cards}, nil
}

// resolvePrefix 前缀优先取参考卡号，其次取商品配置；已有卡片的商品前缀不可变更
func (s *CardAllocationService) resolvePrefix(product *models.Product, referenceCode string) (string, error) {
	referenceCode = strings.TrimSpace(referenceCode)
	configured := strings.TrimSpace(product.CodePrefix)
	if referenceCode == "" {
		if configured == "" {
			return "", ErrCardPrefixMissing
		}
		if err := cardcode.ValidatePrefix(configured); err != nil {
			return "", err
		}
		return configured, nil
	}

	prefix, err := cardcode.PrefixOf(referenceCode)
	if err != nil {
		return "", err
	}
	if configured == "" || configured == prefix {
		return prefix, nil
	}
	count, err := s.cardRepo.CountByProduct(product.ID)
	if err != nil {
		return "", ErrCardFetchFailed
	}
	if count > 0 {
		return "", ErrCardPrefixMismatch
	}
	return prefix, nil
}

// lockPrefix 在分配事务内以最新商品行确认前缀：更换前缀时重新统计卡片数，
// 并以条件更新占住商品行，前缀已被并发分配改写时返回 ErrCardPrefixMismatch
func (s *CardAllocationService) lockPrefix(tx *gorm.DB, product *models.Product, prefix string) error {
	current, err := s.productRepo.WithTx(tx).GetByID(product.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrProductNotFound
	}
	if current.CodePrefix != prefix {
		count, err := s.cardRepo.WithTx(tx).CountByProduct(product.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrCardPrefixMismatch
		}
	}
	affected, err := s.productRepo.WithTx(tx).SwapCodePrefix(product.ID, current.CodePrefix, prefix)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCardPrefixMismatch
	}
	product.CodePrefix = prefix
	return nil
}

// ListCards 获取卡片列表
func (s *CardAllocationService) ListCards(input CardListInput) ([]models.Card, int64, error) {
	cards, total, err := s.cardRepo.List(repository.CardListFilter{
		ProductID: input.ProductID,
		BatchID:   input.BatchID,
		CardType:  strings.TrimSpace(input.CardType),
		Code:      strings.TrimSpace(input.Code),
		Page:      input.Page,
		PageSize:  input.PageSize,
	})
	if err != nil {
		return nil, 0, ErrCardFetchFailed
	}
	return cards, total, nil
}

// ListBatches 获取批次列表
func (s *CardAllocationService) ListBatches(productID uint, batchNo string, page, pageSize int) ([]models.CardBatch, int64, error) {
	batches, total, err := s.batchRepo.List(repository.CardBatchListFilter{
		ProductID: productID,
		BatchNo:   batchNo,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, 0, ErrCardFetchFailed
	}
	return batches, total, nil
}

// GetCard 获取单张卡片
func (s *CardAllocationService) GetCard(id uint) (*models.Card, error) {
	card, err := s.cardRepo.GetByID(id)
	if err != nil {
		return nil, ErrCardFetchFailed
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// IssuePayload 为未签发载荷的卡片补发载荷
func (s *CardAllocationService) IssuePayload(id uint) (*models.Card, error) {
	card, err := s.GetCard(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(card.RenderablePayload) != "" {
		return nil, ErrCardPayloadIssued
	}
	payload := newRenderablePayload()
	if err := s.cardRepo.UpdatePayload(card.ID, payload); err != nil {
		return nil, ErrCardUpdateFailed
	}
	card.RenderablePayload = payload
	return card, nil
}

func normalizeCardType(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", models.CardTypeNormal:
		return models.CardTypeNormal, nil
	case models.CardTypeSpecial:
		return models.CardTypeSpecial, nil
	default:
		return "", ErrCardTypeInvalid
	}
}

func generateCardBatchNo(now time.Time) string {
	return strings.ToUpper(fmt.Sprintf("%s%s%s", cardBatchNoPrefix, now.Format("20060102150405"), randomHex(4)))
}

func newRenderablePayload() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
