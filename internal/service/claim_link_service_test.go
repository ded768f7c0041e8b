package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/render"
)

func setupClaimLinkTest(t *testing.T) (*serviceFixture, *ClaimLinkService, models.Card) {
	t.Helper()
	f := setupServiceFixture(t)
	product := f.createProduct(t, "series-a", testPrefix)
	result := f.allocate(t, product.ID, "00001", "00001", models.CardTypeNormal)
	f.giveCards(t, result.Cards, 7)
	renderer := render.NewFromOptions(render.Options{Backend: "vector", Size: 64})
	t.Cleanup(renderer.Close)
	svc := NewClaimLinkService(f.linkRepo, f.cardRepo, renderer, "https://cards.example.com/claim/", time.Hour)
	return f, svc, result.Cards[0]
}

func TestClaimLinkGenerateRevokesPrevious(t *testing.T) {
	f, svc, card := setupClaimLinkTest(t)
	ctx := context.Background()

	first, err := svc.Generate(ctx, card.ID, 7, false)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.HasPrefix(first.ClaimURL, "https://cards.example.com/claim/") || first.RenderablePayload != first.ClaimURL {
		t.Fatalf("unexpected link: %+v", first)
	}
	second, err := svc.Generate(ctx, card.ID, 7, false)
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if first.Token == second.Token {
		t.Fatalf("expected fresh token")
	}

	if _, err := svc.Consume(ctx, first.Token, 8); !errors.Is(err, ErrClaimLinkRevoked) {
		t.Fatalf("expected revoked link, got %v", err)
	}
	var active int64
	if err := f.db.Model(&models.ClaimLink{}).Where("card_id = ? AND status = ?", card.ID, models.ClaimLinkStatusActive).Count(&active).Error; err != nil {
		t.Fatalf("count links failed: %v", err)
	}
	if active != 1 {
		t.Fatalf("expected one active link, got %d", active)
	}
}

func TestClaimLinkGenerateRequiresOwnership(t *testing.T) {
	_, svc, card := setupClaimLinkTest(t)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, card.ID, 8, false); !errors.Is(err, ErrClaimLinkForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Generate(ctx, card.ID, 99, true); err != nil {
		t.Fatalf("admin generate failed: %v", err)
	}
	if _, err := svc.Generate(ctx, 9999, 7, false); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected card not found, got %v", err)
	}
}

func TestClaimLinkConsumeOnce(t *testing.T) {
	_, svc, card := setupClaimLinkTest(t)
	ctx := context.Background()

	link, err := svc.Generate(ctx, card.ID, 7, false)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := svc.Consume(ctx, link.Token, 7); !errors.Is(err, ErrClaimLinkSelfConsume) {
		t.Fatalf("expected self consume rejection, got %v", err)
	}

	transferred, err := svc.Consume(ctx, link.Token, 8)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if transferred.OwnerUserID == nil || *transferred.OwnerUserID != 8 {
		t.Fatalf("expected ownership transferred, got %+v", transferred.OwnerUserID)
	}

	if _, err := svc.Consume(ctx, link.Token, 9); !errors.Is(err, ErrClaimLinkUsed) {
		t.Fatalf("expected used link, got %v", err)
	}
	if _, err := svc.Consume(ctx, "missing-token", 9); !errors.Is(err, ErrClaimLinkNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClaimLinkExpired(t *testing.T) {
	f, svc, card := setupClaimLinkTest(t)
	ctx := context.Background()

	link, err := svc.Generate(ctx, card.ID, 7, false)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := f.db.Model(&models.ClaimLink{}).Where("token = ?", link.Token).Update("expires_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("expire link failed: %v", err)
	}
	if _, err := svc.Consume(ctx, link.Token, 8); !errors.Is(err, ErrClaimLinkExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if _, err := svc.RenderQR(ctx, link.Token, render.FormatPNG); !errors.Is(err, ErrClaimLinkExpired) {
		t.Fatalf("expected expired qr, got %v", err)
	}
}

func TestClaimLinkRenderQR(t *testing.T) {
	_, svc, card := setupClaimLinkTest(t)
	ctx := context.Background()

	link, err := svc.Generate(ctx, card.ID, 7, false)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	blob, err := svc.RenderQR(ctx, link.Token, render.FormatPNG)
	if err != nil {
		t.Fatalf("render qr failed: %v", err)
	}
	if len(blob) < 8 || string(blob[1:4]) != "PNG" {
		t.Fatalf("expected png bytes")
	}
}
