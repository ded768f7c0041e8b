package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/cardmint/internal/models"

	"gorm.io/gorm"
)

// ClaimLinkRepository 领取链接数据访问接口
type ClaimLinkRepository interface {
	Create(link *models.ClaimLink) error
	GetByToken(token string) (*models.ClaimLink, error)
	ListActiveByCard(cardID uint, now time.Time) ([]models.ClaimLink, error)
	RevokeActiveByCard(cardID uint, now time.Time) (int64, error)
	Consume(token string, userID uint, now time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormClaimLinkRepository
}

// GormClaimLinkRepository GORM 实现
type GormClaimLinkRepository struct {
	db *gorm.DB
}

// NewClaimLinkRepository 创建领取链接仓库
func NewClaimLinkRepository(db *gorm.DB) *GormClaimLinkRepository {
	return &GormClaimLinkRepository{db: db}
}

// WithTx 绑定事务
func (r *GormClaimLinkRepository) WithTx(tx *gorm.DB) *GormClaimLinkRepository {
	if tx == nil {
		return r
	}
	return &GormClaimLinkRepository{db: tx}
}

// Create 创建领取链接
func (r *GormClaimLinkRepository) Create(link *models.ClaimLink) error {
	if link == nil || strings.TrimSpace(link.Token) == "" {
		return errors.New("invalid claim link")
	}
	return r.db.Create(link).Error
}

// GetByToken 根据令牌查询
func (r *GormClaimLinkRepository) GetByToken(token string) (*models.ClaimLink, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	var link models.ClaimLink
	if err := r.db.Where("token = ?", token).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// ListActiveByCard 查询卡片当前有效的链接
func (r *GormClaimLinkRepository) ListActiveByCard(cardID uint, now time.Time) ([]models.ClaimLink, error) {
	var links []models.ClaimLink
	if err := r.db.Where("card_id = ? AND status = ? AND expires_at > ?", cardID, models.ClaimLinkStatusActive, now).
		Order("id asc").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// RevokeActiveByCard 作废卡片的全部未使用链接
func (r *GormClaimLinkRepository) RevokeActiveByCard(cardID uint, now time.Time) (int64, error) {
	if cardID == 0 {
		return 0, errors.New("invalid card id")
	}
	result := r.db.Model(&models.ClaimLink{}).
		Where("card_id = ? AND status = ?", cardID, models.ClaimLinkStatusActive).
		Updates(map[string]interface{}{
			"status":     models.ClaimLinkStatusRevoked,
			"revoked_at": now,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// Consume 条件更新消费链接，返回受影响行数（0 表示已被使用或已过期）
func (r *GormClaimLinkRepository) Consume(token string, userID uint, now time.Time) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" || userID == 0 {
		return 0, errors.New("invalid claim link consume")
	}
	result := r.db.Model(&models.ClaimLink{}).
		Where("token = ? AND status = ? AND expires_at > ?", token, models.ClaimLinkStatusActive, now).
		Updates(map[string]interface{}{
			"status":      models.ClaimLinkStatusConsumed,
			"consumed_by": userID,
			"consumed_at": now,
			"updated_at":  now,
		})
	return result.RowsAffected, result.Error
}
