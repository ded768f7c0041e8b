package repository

import (
	"errors"

	"github.com/cardmint/internal/models"

	"gorm.io/gorm"
)

// RewardRepository 奖励数据访问接口
type RewardRepository interface {
	Create(reward *models.Reward) error
	GetByID(id uint) (*models.Reward, error)
	List(filter RewardListFilter) ([]models.Reward, error)
	WithTx(tx *gorm.DB) *GormRewardRepository
}

// GormRewardRepository GORM 实现
type GormRewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository 创建奖励仓库
func NewRewardRepository(db *gorm.DB) *GormRewardRepository {
	return &GormRewardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRewardRepository) WithTx(tx *gorm.DB) *GormRewardRepository {
	if tx == nil {
		return r
	}
	return &GormRewardRepository{db: tx}
}

// Create 创建奖励
func (r *GormRewardRepository) Create(reward *models.Reward) error {
	if reward == nil {
		return errors.New("reward is nil")
	}
	return r.db.Create(reward).Error
}

// GetByID 根据 ID 获取奖励
func (r *GormRewardRepository) GetByID(id uint) (*models.Reward, error) {
	if id == 0 {
		return nil, nil
	}
	var reward models.Reward
	if err := r.db.First(&reward, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// List 查询奖励列表
func (r *GormRewardRepository) List(filter RewardListFilter) ([]models.Reward, error) {
	query := r.db.Model(&models.Reward{})
	if filter.ProductID > 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	var rewards []models.Reward
	if err := query.Order("sort_order desc, id asc").Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}
