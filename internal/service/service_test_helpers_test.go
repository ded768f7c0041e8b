package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db          *gorm.DB
	productRepo *repository.GormProductRepository
	cardRepo    *repository.GormCardRepository
	batchRepo   *repository.GormCardBatchRepository
	rewardRepo  *repository.GormRewardRepository
	claimRepo   *repository.GormRewardClaimRepository
	linkRepo    *repository.GormClaimLinkRepository
	jobRepo     *repository.GormExportJobRepository
}

func setupServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &serviceFixture{
		db:          db,
		productRepo: repository.NewProductRepository(db),
		cardRepo:    repository.NewCardRepository(db),
		batchRepo:   repository.NewCardBatchRepository(db),
		rewardRepo:  repository.NewRewardRepository(db),
		claimRepo:   repository.NewRewardClaimRepository(db),
		linkRepo:    repository.NewClaimLinkRepository(db),
		jobRepo:     repository.NewExportJobRepository(db),
	}
}

func (f *serviceFixture) allocationService() *CardAllocationService {
	return NewCardAllocationService(f.cardRepo, f.batchRepo, f.productRepo, 100)
}

func (f *serviceFixture) rewardService() *RewardService {
	return NewRewardService(f.rewardRepo, f.claimRepo, f.cardRepo, f.productRepo, f.batchRepo)
}

func (f *serviceFixture) createProduct(t *testing.T, slug, prefix string) *models.Product {
	t.Helper()
	product := &models.Product{Slug: slug, Name: slug, CodePrefix: prefix, IsActive: true}
	if err := f.productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (f *serviceFixture) allocate(t *testing.T, productID uint, start, end, cardType string) *AllocateRangeResult {
	t.Helper()
	result, err := f.allocationService().AllocateRange(AllocateRangeInput{
		ProductID:   productID,
		StartSerial: start,
		EndSerial:   end,
		CardType:    cardType,
		AdminID:     1,
	})
	if err != nil {
		t.Fatalf("allocate %s-%s failed: %v", start, end, err)
	}
	return result
}

func (f *serviceFixture) giveCards(t *testing.T, cards []models.Card, userID uint) {
	t.Helper()
	for _, card := range cards {
		if err := f.cardRepo.AssignOwner(card.ID, userID, time.Now()); err != nil {
			t.Fatalf("assign owner failed: %v", err)
		}
	}
}
