package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cardmint/internal/cache"
	"github.com/cardmint/internal/claim"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/repository"

	"gorm.io/gorm"
)

// ClaimService 奖励领取服务
type ClaimService struct {
	rewardService *RewardService
	claimRepo     repository.RewardClaimRepository
	cardRepo      repository.CardRepository
	lockTTL       time.Duration

	inflight sync.Map
}

// ClaimResult 领取结果
type ClaimResult struct {
	Reward  RewardView          `json:"reward"`
	Claim   *models.RewardClaim `json:"claim"`
	Card    *models.Card        `json:"card,omitempty"`
	Rewards []RewardView        `json:"rewards"`
}

// NewClaimService 创建领取服务
func NewClaimService(rewardService *RewardService, claimRepo repository.RewardClaimRepository, cardRepo repository.CardRepository, lockTTL time.Duration) *ClaimService {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &ClaimService{
		rewardService: rewardService,
		claimRepo:     claimRepo,
		cardRepo:      cardRepo,
		lockTTL:       lockTTL,
	}
}

// AttemptClaim 发起领取：本地预检 → 互斥 → 事务内由存储裁决 → 成功后推进本地状态
func (s *ClaimService) AttemptClaim(ctx context.Context, rewardID, userID uint) (*ClaimResult, error) {
	if userID == 0 {
		return nil, ErrClaimantRequired
	}
	current, reward, err := s.rewardService.GetRewardView(userID, rewardID)
	if err != nil {
		return nil, err
	}
	view := claim.View{
		Owned:    current.OwnedNormalCount,
		Required: current.RequiredNormalCount,
		Status:   current.ClaimStatus,
	}
	if !view.CanClaim() {
		if view.Status == claim.StatusClaimed {
			return nil, ErrRewardAlreadyClaimed
		}
		return nil, ErrRewardLocked
	}

	release, err := s.acquire(ctx, rewardID, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	record, granted, err := s.storeClaim(reward, userID)
	if err != nil {
		logger.Warnw("reward_claim_rejected", "reward_id", rewardID, "user_id", userID, "error", err)
		return nil, err
	}

	if err := view.MarkClaimed(); err != nil {
		// 存储已确认领取，本地视图以存储为准
		logger.Warnw("reward_claim_local_transition_failed", "reward_id", rewardID, "user_id", userID, "error", err)
		view.Status = claim.StatusClaimed
	}
	current.ClaimStatus = view.Status
	current.ClaimedAt = &record.CreatedAt

	logger.Infow("reward_claimed", "reward_id", rewardID, "user_id", userID, "claim_id", record.ID)

	rewards, err := s.rewardService.ListRewards(ctx, userID, 0)
	if err != nil {
		logger.Warnw("reward_list_refresh_failed", "user_id", userID, "error", err)
		rewards = []RewardView{*current}
	}
	return &ClaimResult{
		Reward:  *current,
		Claim:   record,
		Card:    granted,
		Rewards: rewards,
	}, nil
}

// acquire 进程内与 Redis 双重互斥，同一领取人对同一奖励同时只允许一个请求
func (s *ClaimService) acquire(ctx context.Context, rewardID, userID uint) (func(), error) {
	key := fmt.Sprintf("%d:%d", rewardID, userID)
	if _, loaded := s.inflight.LoadOrStore(key, struct{}{}); loaded {
		return nil, ErrClaimInProgress
	}
	lock, err := cache.AcquireClaimLock(ctx, rewardID, userID, s.lockTTL)
	if err != nil {
		s.inflight.Delete(key)
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, ErrClaimInProgress
		}
		logger.Errorw("reward_claim_lock_failed", "reward_id", rewardID, "user_id", userID, "error", err)
		return nil, ErrClaimFailed
	}
	return func() {
		if lock != nil {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := lock.Release(releaseCtx); err != nil {
				logger.Warnw("reward_claim_lock_release_failed", "reward_id", rewardID, "user_id", userID, "error", err)
			}
		}
		s.inflight.Delete(key)
	}, nil
}

// storeClaim 事务内重新计数并写入领取记录，唯一约束保证同一领取人只成功一次
func (s *ClaimService) storeClaim(reward *models.Reward, userID uint) (*models.RewardClaim, *models.Card, error) {
	var (
		record  *models.RewardClaim
		granted *models.Card
	)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		cardRepo := s.cardRepo.WithTx(tx)
		owned, err := cardRepo.CountOwnedNormal(userID, reward.ProductID)
		if err != nil {
			return err
		}
		if int(owned) < reward.RequiredNormalCount {
			return ErrRewardLocked
		}

		now := time.Now()
		item := &models.RewardClaim{
			RewardID:  reward.ID,
			UserID:    userID,
			OwnedAt:   int(owned),
			CreatedAt: now,
		}
		if reward.SpecialBatchID != nil {
			card, err := cardRepo.FindUnownedInBatch(*reward.SpecialBatchID, models.CardTypeSpecial)
			if err != nil {
				return err
			}
			if card == nil {
				return ErrRewardOutOfStock
			}
			affected, err := cardRepo.ClaimUnowned(card.ID, userID, now)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrClaimInProgress
			}
			card.OwnerUserID = &userID
			card.AcquiredAt = &now
			item.CardID = &card.ID
			granted = card
		}
		if err := s.claimRepo.WithTx(tx).Create(item); err != nil {
			if errors.Is(err, repository.ErrDuplicateClaim) {
				return ErrRewardAlreadyClaimed
			}
			return err
		}
		record = item
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRewardLocked),
			errors.Is(err, ErrRewardAlreadyClaimed),
			errors.Is(err, ErrRewardOutOfStock),
			errors.Is(err, ErrClaimInProgress):
			return nil, nil, err
		}
		logger.Errorw("reward_claim_store_failed", "reward_id", reward.ID, "user_id", userID, "error", err)
		return nil, nil, ErrClaimFailed
	}
	return record, granted, nil
}
