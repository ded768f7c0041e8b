package service

import (
	"strings"

	"github.com/cardmint/internal/cardcode"
	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/repository"
)

// ProductService 商品业务服务
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	Slug        string
	Name        string
	CodePrefix  string
	Description string
}

// Create 创建商品，前缀可留空由首个参考卡号确定
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	name := strings.TrimSpace(input.Name)
	prefix := strings.TrimSpace(input.CodePrefix)
	if slug == "" || name == "" {
		return nil, ErrProductInvalid
	}
	if prefix != "" {
		if err := cardcode.ValidatePrefix(prefix); err != nil {
			return nil, err
		}
	}
	existing, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, ErrProductFetchFailed
	}
	if existing != nil {
		return nil, ErrProductSlugExists
	}
	product := &models.Product{
		Slug:        slug,
		Name:        name,
		CodePrefix:  prefix,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}
	if err := s.repo.Create(product); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrProductSlugExists
		}
		return nil, err
	}
	return product, nil
}

// List 获取商品列表
func (s *ProductService) List(onlyActive bool) ([]models.Product, error) {
	products, err := s.repo.List(onlyActive)
	if err != nil {
		return nil, ErrProductFetchFailed
	}
	return products, nil
}
