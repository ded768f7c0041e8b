package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/cardmint/internal/config"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/repository"
	"github.com/cardmint/internal/service"

	"github.com/shopspring/decimal"
)

const (
	demoSlug   = "starter-series"
	demoPrefix = "123-456-789-00001-"
)

func main() {
	var adminID, userID uint
	flag.UintVar(&adminID, "admin", 1, "演示管理员 ID")
	flag.UintVar(&userID, "user", 1001, "演示领取人 ID")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	productRepo := repository.NewProductRepository(models.DB)
	cardRepo := repository.NewCardRepository(models.DB)
	batchRepo := repository.NewCardBatchRepository(models.DB)
	rewardRepo := repository.NewRewardRepository(models.DB)
	claimRepo := repository.NewRewardClaimRepository(models.DB)

	productService := service.NewProductService(productRepo)
	allocationService := service.NewCardAllocationService(cardRepo, batchRepo, productRepo, cfg.Card.MaxRangeSize)
	rewardService := service.NewRewardService(rewardRepo, claimRepo, cardRepo, productRepo, batchRepo)

	// 商品
	product, err := productRepo.GetBySlug(demoSlug)
	if err != nil {
		stdLog.Fatalf("Failed to load product: %v", err)
	}
	if product == nil {
		product, err = productService.Create(service.CreateProductInput{
			Slug:        demoSlug,
			Name:        "Starter Series",
			CodePrefix:  demoPrefix,
			Description: "Demo series with normal and special cards",
		})
		if err != nil {
			stdLog.Fatalf("Failed to create product: %v", err)
		}
		stdLog.Printf("Created product: %s (#%d)", product.Slug, product.ID)
	} else {
		stdLog.Printf("Product already exists: %s", product.Slug)
	}

	// 卡片区间
	normalBatch := allocate(allocationService, product.ID, "00001", "00050", models.CardTypeNormal, adminID)
	specialBatch := allocate(allocationService, product.ID, "90001", "90005", models.CardTypeSpecial, adminID)

	// 奖励
	rewards := []service.CreateRewardInput{
		{ProductID: product.ID, Name: "Collector badge", ValueAmount: decimal.NewFromInt(5), RequiredNormalCount: 3, SortOrder: 1},
		{ProductID: product.ID, Name: "Holo card", ValueAmount: decimal.NewFromInt(20), RequiredNormalCount: 10, SortOrder: 2},
	}
	if specialBatch != nil {
		rewards[1].SpecialBatchID = &specialBatch.ID
	}
	existing, err := rewardRepo.List(repository.RewardListFilter{ProductID: product.ID})
	if err != nil {
		stdLog.Fatalf("Failed to load rewards: %v", err)
	}
	if len(existing) == 0 {
		for _, input := range rewards {
			reward, err := rewardService.CreateReward(ctx, input)
			if err != nil {
				stdLog.Printf("Failed to create reward %s: %v", input.Name, err)
				continue
			}
			stdLog.Printf("Created reward: %s (#%d)", reward.Name, reward.ID)
		}
	} else {
		stdLog.Printf("Rewards already exist: %d", len(existing))
	}

	// 演示用户持有前三张普通卡
	if normalBatch != nil {
		cards, err := cardRepo.ListByBatch(normalBatch.ID, 3)
		if err != nil {
			stdLog.Printf("Failed to load demo cards: %v", err)
		}
		for _, card := range cards {
			if err := cardRepo.AssignOwner(card.ID, userID, time.Now()); err != nil {
				stdLog.Printf("Failed to assign card %s: %v", card.UniqueCode, err)
			}
		}
	}

	// 演示令牌
	authService := service.NewAuthService(cfg.JWT)
	adminToken, _, err := authService.GenerateToken(adminID, true)
	if err != nil {
		stdLog.Fatalf("Failed to sign admin token: %v", err)
	}
	userToken, _, err := authService.GenerateToken(userID, false)
	if err != nil {
		stdLog.Fatalf("Failed to sign user token: %v", err)
	}
	fmt.Printf("admin token (#%d): %s\n", adminID, adminToken)
	fmt.Printf("user token  (#%d): %s\n", userID, userToken)
}

func allocate(svc *service.CardAllocationService, productID uint, start, end, cardType string, adminID uint) *models.CardBatch {
	stdLog := logger.StdLogger()
	result, err := svc.AllocateRange(service.AllocateRangeInput{
		ProductID:   productID,
		StartSerial: start,
		EndSerial:   end,
		CardType:    cardType,
		AdminID:     adminID,
	})
	if err != nil {
		if errors.Is(err, service.ErrCardCodeConflict) {
			stdLog.Printf("Range %s-%s already allocated", start, end)
			return nil
		}
		stdLog.Fatalf("Failed to allocate range %s-%s: %v", start, end, err)
	}
	stdLog.Printf("Allocated %d %s cards in batch %s", len(result.Cards), cardType, result.Batch.BatchNo)
	return result.Batch
}
