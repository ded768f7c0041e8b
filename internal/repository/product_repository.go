package repository

import (
	"errors"
	"strings"

	"github.com/cardmint/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	List(onlyActive bool) ([]models.Product, error)
	SwapCodePrefix(id uint, expected, prefix string) (int64, error)
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	if product == nil {
		return errors.New("product is nil")
	}
	return r.db.Create(product).Error
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug 根据 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// List 获取商品列表
func (r *GormProductRepository) List(onlyActive bool) ([]models.Product, error) {
	query := r.db.Model(&models.Product{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var products []models.Product
	if err := query.Order("id asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SwapCodePrefix 仅当当前前缀仍为 expected 或已是 prefix 时写入，返回命中行数
func (r *GormProductRepository) SwapCodePrefix(id uint, expected, prefix string) (int64, error) {
	if id == 0 {
		return 0, errors.New("invalid product id")
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND code_prefix IN ?", id, []string{expected, prefix}).
		Update("code_prefix", prefix)
	return result.RowsAffected, result.Error
}
