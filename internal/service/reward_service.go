package service

import (
	"context"
	"strings"
	"time"

	"github.com/cardmint/internal/cache"
	"github.com/cardmint/internal/claim"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/repository"

	"github.com/shopspring/decimal"
)

// RewardService 奖励查询服务
type RewardService struct {
	rewardRepo  repository.RewardRepository
	claimRepo   repository.RewardClaimRepository
	cardRepo    repository.CardRepository
	productRepo repository.ProductRepository
	batchRepo   repository.CardBatchRepository
}

// RewardView 领取人视角下的奖励状态
type RewardView struct {
	RewardID            uint         `json:"reward_id"`
	ProductID           uint         `json:"product_id"`
	Name                string       `json:"name"`
	ValueAmount         string       `json:"value_amount"`
	OwnedNormalCount    int          `json:"owned_normal_count"`
	RequiredNormalCount int          `json:"required_normal_count"`
	ClaimStatus         claim.Status `json:"claim_status"`
	ClaimedAt           *time.Time   `json:"claimed_at,omitempty"`
}

// CreateRewardInput 创建奖励输入
type CreateRewardInput struct {
	ProductID           uint
	Name                string
	ValueAmount         decimal.Decimal
	RequiredNormalCount int
	SpecialBatchID      *uint
	SortOrder           int
}

// NewRewardService 创建奖励服务
func NewRewardService(
	rewardRepo repository.RewardRepository,
	claimRepo repository.RewardClaimRepository,
	cardRepo repository.CardRepository,
	productRepo repository.ProductRepository,
	batchRepo repository.CardBatchRepository,
) *RewardService {
	return &RewardService{
		rewardRepo:  rewardRepo,
		claimRepo:   claimRepo,
		cardRepo:    cardRepo,
		productRepo: productRepo,
		batchRepo:   batchRepo,
	}
}

// CreateReward 创建奖励定义
func (s *RewardService) CreateReward(ctx context.Context, input CreateRewardInput) (*models.Reward, error) {
	name := strings.TrimSpace(input.Name)
	if input.ProductID == 0 {
		return nil, ErrCardProductRequired
	}
	if name == "" || input.RequiredNormalCount < 0 || input.ValueAmount.IsNegative() {
		return nil, ErrRewardInvalid
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, ErrProductFetchFailed
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if input.SpecialBatchID != nil {
		batch, err := s.batchRepo.GetByID(*input.SpecialBatchID)
		if err != nil {
			return nil, ErrCardFetchFailed
		}
		// 特殊卡批次必须属于同一商品
		if batch == nil || batch.ProductID != product.ID || batch.CardType != models.CardTypeSpecial {
			return nil, ErrRewardInvalid
		}
	}
	reward := &models.Reward{
		ProductID:           input.ProductID,
		Name:                name,
		ValueAmount:         models.NewMoneyFromDecimal(input.ValueAmount),
		RequiredNormalCount: input.RequiredNormalCount,
		SpecialBatchID:      input.SpecialBatchID,
		IsActive:            true,
		SortOrder:           input.SortOrder,
	}
	if err := s.rewardRepo.Create(reward); err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx, reward.ProductID)
	return reward, nil
}

// ListRewards 奖励查询面：每次调用都基于当前持有数量重新计算状态
func (s *RewardService) ListRewards(ctx context.Context, userID, productID uint) ([]RewardView, error) {
	entries, err := s.loadCatalog(ctx, productID)
	if err != nil {
		return nil, ErrRewardFetchFailed
	}
	owned, err := s.cardRepo.CountOwnedNormalByProduct(userID)
	if err != nil {
		return nil, ErrRewardFetchFailed
	}
	claims, err := s.claimRepo.ListByUser(userID)
	if err != nil {
		return nil, ErrRewardFetchFailed
	}
	claimedAt := make(map[uint]time.Time, len(claims))
	for _, item := range claims {
		claimedAt[item.RewardID] = item.CreatedAt
	}

	views := make([]RewardView, 0, len(entries))
	for _, entry := range entries {
		var at *time.Time
		if ts, ok := claimedAt[entry.ID]; ok {
			at = &ts
		}
		views = append(views, buildRewardView(entry, int(owned[entry.ProductID]), at))
	}
	return views, nil
}

// GetRewardView 读取单个奖励的权威状态
func (s *RewardService) GetRewardView(userID, rewardID uint) (*RewardView, *models.Reward, error) {
	reward, err := s.rewardRepo.GetByID(rewardID)
	if err != nil {
		return nil, nil, ErrRewardFetchFailed
	}
	if reward == nil || !reward.IsActive {
		return nil, nil, ErrRewardNotFound
	}
	owned, err := s.cardRepo.CountOwnedNormal(userID, reward.ProductID)
	if err != nil {
		return nil, nil, ErrRewardFetchFailed
	}
	record, err := s.claimRepo.GetByRewardAndUser(reward.ID, userID)
	if err != nil {
		return nil, nil, ErrRewardFetchFailed
	}
	var at *time.Time
	if record != nil {
		at = &record.CreatedAt
	}
	view := buildRewardView(toRewardEntry(reward), int(owned), at)
	return &view, reward, nil
}

func (s *RewardService) loadCatalog(ctx context.Context, productID uint) ([]cache.RewardEntry, error) {
	if entries, hit, err := cache.GetRewardCatalog(ctx, productID); err == nil && hit {
		return entries, nil
	} else if err != nil {
		logger.Warnw("reward_catalog_cache_get_failed", "product_id", productID, "error", err)
	}
	rewards, err := s.rewardRepo.List(repository.RewardListFilter{ProductID: productID, OnlyActive: true})
	if err != nil {
		return nil, err
	}
	entries := make([]cache.RewardEntry, 0, len(rewards))
	for i := range rewards {
		entries = append(entries, toRewardEntry(&rewards[i]))
	}
	if err := cache.SetRewardCatalog(ctx, productID, entries); err != nil {
		logger.Warnw("reward_catalog_cache_set_failed", "product_id", productID, "error", err)
	}
	return entries, nil
}

func (s *RewardService) invalidateCatalog(ctx context.Context, productID uint) {
	for _, key := range []uint{0, productID} {
		if err := cache.DelRewardCatalog(ctx, key); err != nil {
			logger.Warnw("reward_catalog_cache_del_failed", "product_id", key, "error", err)
		}
	}
}

func toRewardEntry(reward *models.Reward) cache.RewardEntry {
	entry := cache.RewardEntry{
		ID:                  reward.ID,
		ProductID:           reward.ProductID,
		Name:                reward.Name,
		ValueAmount:         reward.ValueAmount.String(),
		RequiredNormalCount: reward.RequiredNormalCount,
	}
	if reward.SpecialBatchID != nil {
		entry.SpecialBatchID = *reward.SpecialBatchID
	}
	return entry
}

func buildRewardView(entry cache.RewardEntry, owned int, claimedAt *time.Time) RewardView {
	persisted := claim.StatusLocked
	if claimedAt != nil {
		persisted = claim.StatusClaimed
	}
	view := claim.NewView(owned, entry.RequiredNormalCount, persisted)
	return RewardView{
		RewardID:            entry.ID,
		ProductID:           entry.ProductID,
		Name:                entry.Name,
		ValueAmount:         entry.ValueAmount,
		OwnedNormalCount:    view.Owned,
		RequiredNormalCount: view.Required,
		ClaimStatus:         view.Status,
		ClaimedAt:           claimedAt,
	}
}
