package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cardmint/internal/claim"
	"github.com/cardmint/internal/models"

	"github.com/shopspring/decimal"
)

func setupClaimTest(t *testing.T, required int) (*serviceFixture, *ClaimService, *models.Reward, []models.Card) {
	t.Helper()
	f := setupServiceFixture(t)
	product := f.createProduct(t, "series-a", testPrefix)
	normal := f.allocate(t, product.ID, "00001", "00005", models.CardTypeNormal)

	rewardService := f.rewardService()
	reward, err := rewardService.CreateReward(context.Background(), CreateRewardInput{
		ProductID:           product.ID,
		Name:                "Badge",
		ValueAmount:         decimal.NewFromInt(5),
		RequiredNormalCount: required,
	})
	if err != nil {
		t.Fatalf("create reward failed: %v", err)
	}
	return f, NewClaimService(rewardService, f.claimRepo, f.cardRepo, time.Second), reward, normal.Cards
}

func TestListRewardsReflectsOwnership(t *testing.T) {
	f, claims, reward, cards := setupClaimTest(t, 3)
	ctx := context.Background()

	views, err := claims.rewardService.ListRewards(ctx, 7, 0)
	if err != nil {
		t.Fatalf("list rewards failed: %v", err)
	}
	if len(views) != 1 || views[0].ClaimStatus != claim.StatusLocked || views[0].OwnedNormalCount != 0 {
		t.Fatalf("unexpected views: %+v", views)
	}

	f.giveCards(t, cards[:3], 7)
	views, err = claims.rewardService.ListRewards(ctx, 7, reward.ProductID)
	if err != nil {
		t.Fatalf("list rewards failed: %v", err)
	}
	if views[0].ClaimStatus != claim.StatusEligible || views[0].OwnedNormalCount != 3 || views[0].RequiredNormalCount != 3 {
		t.Fatalf("expected eligible view, got %+v", views[0])
	}
}

func TestAttemptClaimLockedAndClaimed(t *testing.T) {
	f, claims, reward, cards := setupClaimTest(t, 2)
	ctx := context.Background()

	if _, err := claims.AttemptClaim(ctx, reward.ID, 7); !errors.Is(err, ErrRewardLocked) {
		t.Fatalf("expected locked, got %v", err)
	}

	f.giveCards(t, cards[:2], 7)
	result, err := claims.AttemptClaim(ctx, reward.ID, 7)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if result.Reward.ClaimStatus != claim.StatusClaimed || result.Claim == nil || result.Claim.OwnedAt != 2 {
		t.Fatalf("unexpected claim result: %+v", result)
	}

	if _, err := claims.AttemptClaim(ctx, reward.ID, 7); !errors.Is(err, ErrRewardAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}

	// 领取后即使卡片减少仍保持已领取
	if err := f.db.Model(&models.Card{}).Where("owner_user_id = ?", 7).Update("owner_user_id", nil).Error; err != nil {
		t.Fatalf("drop ownership failed: %v", err)
	}
	views, err := claims.rewardService.ListRewards(ctx, 7, 0)
	if err != nil {
		t.Fatalf("list rewards failed: %v", err)
	}
	if views[0].ClaimStatus != claim.StatusClaimed {
		t.Fatalf("claimed status must be sticky, got %s", views[0].ClaimStatus)
	}
}

func TestAttemptClaimUnknownReward(t *testing.T) {
	_, claims, _, _ := setupClaimTest(t, 1)
	if _, err := claims.AttemptClaim(context.Background(), 999, 7); !errors.Is(err, ErrRewardNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := claims.AttemptClaim(context.Background(), 1, 0); !errors.Is(err, ErrClaimantRequired) {
		t.Fatalf("expected claimant required, got %v", err)
	}
}

func TestAttemptClaimConcurrentSingleSuccess(t *testing.T) {
	f, claims, reward, cards := setupClaimTest(t, 1)
	f.giveCards(t, cards[:1], 7)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := claims.AttemptClaim(context.Background(), reward.ID, 7)
			switch {
			case err == nil:
				mu.Lock()
				successes++
				mu.Unlock()
			case errors.Is(err, ErrClaimInProgress), errors.Is(err, ErrRewardAlreadyClaimed):
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
	var stored int64
	if err := f.db.Model(&models.RewardClaim{}).Where("reward_id = ? AND user_id = ?", reward.ID, 7).Count(&stored).Error; err != nil {
		t.Fatalf("count claims failed: %v", err)
	}
	if stored != 1 {
		t.Fatalf("expected one stored claim, got %d", stored)
	}
}

func TestAttemptClaimGrantsSpecialCard(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	product := f.createProduct(t, "series-a", testPrefix)
	normal := f.allocate(t, product.ID, "00001", "00004", models.CardTypeNormal)
	special := f.allocate(t, product.ID, "90001", "90001", models.CardTypeSpecial)

	rewardService := f.rewardService()
	batchID := special.Batch.ID
	reward, err := rewardService.CreateReward(ctx, CreateRewardInput{
		ProductID:           product.ID,
		Name:                "Holo",
		RequiredNormalCount: 2,
		SpecialBatchID:      &batchID,
	})
	if err != nil {
		t.Fatalf("create reward failed: %v", err)
	}
	claims := NewClaimService(rewardService, f.claimRepo, f.cardRepo, time.Second)

	f.giveCards(t, normal.Cards[:2], 7)
	result, err := claims.AttemptClaim(ctx, reward.ID, 7)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if result.Card == nil || result.Card.UniqueCode != testPrefix+"90001" {
		t.Fatalf("expected special card granted, got %+v", result.Card)
	}

	f.giveCards(t, normal.Cards[2:], 8)
	if _, err := claims.AttemptClaim(ctx, reward.ID, 8); !errors.Is(err, ErrRewardOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
}

func TestCreateRewardValidation(t *testing.T) {
	f := setupServiceFixture(t)
	svc := f.rewardService()
	ctx := context.Background()

	if _, err := svc.CreateReward(ctx, CreateRewardInput{Name: "x"}); !errors.Is(err, ErrCardProductRequired) {
		t.Fatalf("expected product required, got %v", err)
	}
	if _, err := svc.CreateReward(ctx, CreateRewardInput{ProductID: 1, Name: " "}); !errors.Is(err, ErrRewardInvalid) {
		t.Fatalf("expected invalid reward, got %v", err)
	}
	if _, err := svc.CreateReward(ctx, CreateRewardInput{ProductID: 1, Name: "x", RequiredNormalCount: -1}); !errors.Is(err, ErrRewardInvalid) {
		t.Fatalf("expected invalid reward, got %v", err)
	}
	if _, err := svc.CreateReward(ctx, CreateRewardInput{ProductID: 999, Name: "x"}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}

func TestCreateRewardSpecialBatchOwnership(t *testing.T) {
	f := setupServiceFixture(t)
	svc := f.rewardService()
	ctx := context.Background()

	product := f.createProduct(t, "series-a", testPrefix)
	other := f.createProduct(t, "series-b", "987-654-321-00002-")
	normal := f.allocate(t, product.ID, "00001", "00002", models.CardTypeNormal)
	special := f.allocate(t, product.ID, "90001", "90001", models.CardTypeSpecial)
	foreign := f.allocate(t, other.ID, "90001", "90001", models.CardTypeSpecial)
	missing := uint(9999)

	cases := []struct {
		name    string
		batchID uint
		want    error
	}{
		{name: "special batch of product", batchID: special.Batch.ID, want: nil},
		{name: "normal batch", batchID: normal.Batch.ID, want: ErrRewardInvalid},
		{name: "batch of another product", batchID: foreign.Batch.ID, want: ErrRewardInvalid},
		{name: "unknown batch", batchID: missing, want: ErrRewardInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batchID := tc.batchID
			reward, err := svc.CreateReward(ctx, CreateRewardInput{
				ProductID:           product.ID,
				Name:                "Holo",
				RequiredNormalCount: 1,
				SpecialBatchID:      &batchID,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if tc.want == nil && (reward == nil || reward.SpecialBatchID == nil || *reward.SpecialBatchID != batchID) {
				t.Fatalf("unexpected reward: %+v", reward)
			}
		})
	}
}
