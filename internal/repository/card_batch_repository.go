package repository

import (
	"errors"
	"strings"

	"github.com/cardmint/internal/models"

	"gorm.io/gorm"
)

// CardBatchRepository 卡片批次数据访问接口
type CardBatchRepository interface {
	GetByID(id uint) (*models.CardBatch, error)
	List(filter CardBatchListFilter) ([]models.CardBatch, int64, error)
	WithTx(tx *gorm.DB) *GormCardBatchRepository
}

// GormCardBatchRepository GORM 实现
type GormCardBatchRepository struct {
	db *gorm.DB
}

// NewCardBatchRepository 创建批次仓库
func NewCardBatchRepository(db *gorm.DB) *GormCardBatchRepository {
	return &GormCardBatchRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCardBatchRepository) WithTx(tx *gorm.DB) *GormCardBatchRepository {
	if tx == nil {
		return r
	}
	return &GormCardBatchRepository{db: tx}
}

// GetByID 获取批次
func (r *GormCardBatchRepository) GetByID(id uint) (*models.CardBatch, error) {
	if id == 0 {
		return nil, errors.New("invalid batch id")
	}
	var batch models.CardBatch
	if err := r.db.First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// List 获取批次列表
func (r *GormCardBatchRepository) List(filter CardBatchListFilter) ([]models.CardBatch, int64, error) {
	query := r.db.Model(&models.CardBatch{})
	if filter.ProductID > 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if batchNo := strings.TrimSpace(strings.ToUpper(filter.BatchNo)); batchNo != "" {
		query = query.Where(likeCondition(r.db, "batch_no"), "%"+batchNo+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var items []models.CardBatch
	if err := query.Order("id desc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
