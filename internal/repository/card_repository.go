package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/cardmint/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// codeLookupChunk 单次 IN 查询的卡号数量上限
const codeLookupChunk = 500

// CardRepository 卡片仓储接口
type CardRepository interface {
	CreateBatch(batch *models.CardBatch, cards []models.Card) error
	FindExistingCodes(codes []string) ([]string, error)
	GetByID(id uint) (*models.Card, error)
	GetByIDForUpdate(id uint) (*models.Card, error)
	List(filter CardListFilter) ([]models.Card, int64, error)
	ListByIDs(ids []uint) ([]models.Card, error)
	ListByBatch(batchID uint, limit int) ([]models.Card, error)
	CountByProduct(productID uint) (int64, error)
	CountOwnedNormal(userID, productID uint) (int64, error)
	CountOwnedNormalByProduct(userID uint) (map[uint]int64, error)
	UpdatePayload(id uint, payload string) error
	AssignOwner(id, userID uint, at time.Time) error
	FindUnownedInBatch(batchID uint, cardType string) (*models.Card, error)
	ClaimUnowned(id, userID uint, at time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormCardRepository
}

// GormCardRepository GORM 卡片仓储实现
type GormCardRepository struct {
	db *gorm.DB
}

// NewCardRepository 创建卡片仓储
func NewCardRepository(db *gorm.DB) *GormCardRepository {
	return &GormCardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCardRepository) WithTx(tx *gorm.DB) *GormCardRepository {
	if tx == nil {
		return r
	}
	return &GormCardRepository{db: tx}
}

// CreateBatch 创建批次与卡片，调用方负责包在事务内
func (r *GormCardRepository) CreateBatch(batch *models.CardBatch, cards []models.Card) error {
	if batch == nil {
		return errors.New("invalid card batch")
	}
	if err := r.db.Create(batch).Error; err != nil {
		return err
	}
	if len(cards) == 0 {
		return nil
	}
	for idx := range cards {
		cards[idx].BatchID = &batch.ID
		if cards[idx].ProductID == 0 {
			cards[idx].ProductID = batch.ProductID
		}
	}
	return r.db.CreateInBatches(&cards, 200).Error
}

// FindExistingCodes 返回已存在的卡号（含软删除）
func (r *GormCardRepository) FindExistingCodes(codes []string) ([]string, error) {
	existing := make([]string, 0)
	for start := 0; start < len(codes); start += codeLookupChunk {
		end := start + codeLookupChunk
		if end > len(codes) {
			end = len(codes)
		}
		var found []string
		if err := r.db.Unscoped().Model(&models.Card{}).
			Where("unique_code IN ?", codes[start:end]).
			Pluck("unique_code", &found).Error; err != nil {
			return nil, err
		}
		existing = append(existing, found...)
	}
	return existing, nil
}

// GetByID 根据 ID 查询卡片
func (r *GormCardRepository) GetByID(id uint) (*models.Card, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.Card
	if err := r.db.Preload("Batch").First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByIDForUpdate 加锁查询卡片
func (r *GormCardRepository) GetByIDForUpdate(id uint) (*models.Card, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.Card
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// List 查询卡片列表
func (r *GormCardRepository) List(filter CardListFilter) ([]models.Card, int64, error) {
	query := r.db.Model(&models.Card{})
	if filter.ProductID > 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.BatchID > 0 {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if cardType := strings.TrimSpace(filter.CardType); cardType != "" {
		query = query.Where("card_type = ?", cardType)
	}
	if code := strings.TrimSpace(filter.Code); code != "" {
		query = query.Where(likeCondition(r.db, "unique_code"), "%"+code+"%")
	}
	if filter.OwnerUserID > 0 {
		query = query.Where("owner_user_id = ?", filter.OwnerUserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var cards []models.Card
	if err := query.Order("unique_code asc").Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// ListByIDs 按 ID 列表查询卡片
func (r *GormCardRepository) ListByIDs(ids []uint) ([]models.Card, error) {
	if len(ids) == 0 {
		return []models.Card{}, nil
	}
	var cards []models.Card
	if err := r.db.Where("id IN ?", ids).Order("unique_code asc").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ListByBatch 查询批次下的卡片，limit <= 0 表示不限制
func (r *GormCardRepository) ListByBatch(batchID uint, limit int) ([]models.Card, error) {
	if batchID == 0 {
		return []models.Card{}, nil
	}
	query := r.db.Where("batch_id = ?", batchID).Order("unique_code asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var cards []models.Card
	if err := query.Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// CountByProduct 统计商品下已分配卡片数量
func (r *GormCardRepository) CountByProduct(productID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Card{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountOwnedNormal 统计用户持有的某商品普通卡数量
func (r *GormCardRepository) CountOwnedNormal(userID, productID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.Model(&models.Card{}).
		Where("owner_user_id = ? AND product_id = ? AND card_type = ?", userID, productID, models.CardTypeNormal).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type ownedCountRow struct {
	ProductID uint
	Total     int64
}

// CountOwnedNormalByProduct 按商品汇总用户持有的普通卡数量
func (r *GormCardRepository) CountOwnedNormalByProduct(userID uint) (map[uint]int64, error) {
	result := make(map[uint]int64)
	if userID == 0 {
		return result, nil
	}
	var rows []ownedCountRow
	if err := r.db.Model(&models.Card{}).
		Select("product_id, COUNT(*) AS total").
		Where("owner_user_id = ? AND card_type = ?", userID, models.CardTypeNormal).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ProductID] = row.Total
	}
	return result, nil
}

// UpdatePayload 写入渲染载荷
func (r *GormCardRepository) UpdatePayload(id uint, payload string) error {
	if id == 0 {
		return errors.New("invalid card id")
	}
	return r.db.Model(&models.Card{}).Where("id = ?", id).Updates(map[string]interface{}{
		"renderable_payload": payload,
		"updated_at":         time.Now(),
	}).Error
}

// AssignOwner 变更卡片持有人
func (r *GormCardRepository) AssignOwner(id, userID uint, at time.Time) error {
	if id == 0 || userID == 0 {
		return errors.New("invalid card owner")
	}
	return r.db.Model(&models.Card{}).Where("id = ?", id).Updates(map[string]interface{}{
		"owner_user_id": userID,
		"acquired_at":   at,
		"updated_at":    at,
	}).Error
}

// FindUnownedInBatch 查找批次内一张无人持有的卡片
func (r *GormCardRepository) FindUnownedInBatch(batchID uint, cardType string) (*models.Card, error) {
	if batchID == 0 {
		return nil, nil
	}
	var card models.Card
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("batch_id = ? AND card_type = ? AND owner_user_id IS NULL", batchID, cardType).
		Order("unique_code asc").
		First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// ClaimUnowned 条件更新：仅当卡片无人持有时写入持有人
func (r *GormCardRepository) ClaimUnowned(id, userID uint, at time.Time) (int64, error) {
	if id == 0 || userID == 0 {
		return 0, errors.New("invalid card owner")
	}
	result := r.db.Model(&models.Card{}).
		Where("id = ? AND owner_user_id IS NULL", id).
		Updates(map[string]interface{}{
			"owner_user_id": userID,
			"acquired_at":   at,
			"updated_at":    at,
		})
	return result.RowsAffected, result.Error
}
