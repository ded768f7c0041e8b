package repository

import (
	"errors"

	"github.com/cardmint/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateClaim 同一用户重复领取同一奖励
var ErrDuplicateClaim = errors.New("reward already claimed by user")

// RewardClaimRepository 领取记录数据访问接口
type RewardClaimRepository interface {
	Create(claim *models.RewardClaim) error
	GetByRewardAndUser(rewardID, userID uint) (*models.RewardClaim, error)
	ListByUser(userID uint) ([]models.RewardClaim, error)
	WithTx(tx *gorm.DB) *GormRewardClaimRepository
}

// GormRewardClaimRepository GORM 实现
type GormRewardClaimRepository struct {
	db *gorm.DB
}

// NewRewardClaimRepository 创建领取记录仓库
func NewRewardClaimRepository(db *gorm.DB) *GormRewardClaimRepository {
	return &GormRewardClaimRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRewardClaimRepository) WithTx(tx *gorm.DB) *GormRewardClaimRepository {
	if tx == nil {
		return r
	}
	return &GormRewardClaimRepository{db: tx}
}

// Create 写入领取记录，唯一约束冲突返回 ErrDuplicateClaim
func (r *GormRewardClaimRepository) Create(claim *models.RewardClaim) error {
	if claim == nil || claim.RewardID == 0 || claim.UserID == 0 {
		return errors.New("invalid reward claim")
	}
	if err := r.db.Create(claim).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateClaim
		}
		return err
	}
	return nil
}

// GetByRewardAndUser 查询用户对某奖励的领取记录
func (r *GormRewardClaimRepository) GetByRewardAndUser(rewardID, userID uint) (*models.RewardClaim, error) {
	if rewardID == 0 || userID == 0 {
		return nil, nil
	}
	var claim models.RewardClaim
	if err := r.db.Where("reward_id = ? AND user_id = ?", rewardID, userID).First(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

// ListByUser 查询用户全部领取记录
func (r *GormRewardClaimRepository) ListByUser(userID uint) ([]models.RewardClaim, error) {
	if userID == 0 {
		return []models.RewardClaim{}, nil
	}
	var claims []models.RewardClaim
	if err := r.db.Where("user_id = ?", userID).Order("id asc").Find(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}
