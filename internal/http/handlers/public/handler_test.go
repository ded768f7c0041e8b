package public

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/cardmint/internal/constants"
	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/provider"
	"github.com/cardmint/internal/render"
	"github.com/cardmint/internal/repository"
	"github.com/cardmint/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type publicFixture struct {
	engine   *gin.Engine
	reward   *models.Reward
	cards    []models.Card
	cardRepo *repository.GormCardRepository
}

func setupPublicHandlerTest(t *testing.T) *publicFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	productRepo := repository.NewProductRepository(db)
	cardRepo := repository.NewCardRepository(db)
	batchRepo := repository.NewCardBatchRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	claimRepo := repository.NewRewardClaimRepository(db)
	renderer := render.NewFromOptions(render.Options{Backend: render.BackendVector, Size: 64})
	t.Cleanup(renderer.Close)

	product := &models.Product{Slug: "series-a", Name: "Series A", CodePrefix: "123-456-789-00001-", IsActive: true}
	if err := productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	allocation := service.NewCardAllocationService(cardRepo, batchRepo, productRepo, 100)
	allocated, err := allocation.AllocateRange(service.AllocateRangeInput{ProductID: product.ID, StartSerial: "00001", EndSerial: "00003"})
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}

	c := &provider.Container{Renderer: renderer}
	c.RewardService = service.NewRewardService(rewardRepo, claimRepo, cardRepo, productRepo, batchRepo)
	c.ClaimService = service.NewClaimService(c.RewardService, claimRepo, cardRepo, time.Second)
	c.ClaimLinkService = service.NewClaimLinkService(repository.NewClaimLinkRepository(db), cardRepo, renderer, "https://cards.example.com/claim", time.Hour)
	reward, err := c.RewardService.CreateReward(context.Background(), service.CreateRewardInput{
		ProductID:           product.ID,
		Name:                "Badge",
		RequiredNormalCount: 2,
	})
	if err != nil {
		t.Fatalf("create reward failed: %v", err)
	}

	h := New(c)
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		if raw := ctx.GetHeader("X-Test-User"); raw != "" {
			id, _ := strconv.Atoi(raw)
			ctx.Set(constants.ContextKeyUserID, uint(id))
			ctx.Set(constants.ContextKeyIsAdmin, false)
		}
		ctx.Next()
	})
	r.GET("/rewards", h.ListRewards)
	r.POST("/rewards/:id/claim", h.ClaimReward)
	r.POST("/cards/:id/claim-link", h.GenerateClaimLink)
	r.POST("/claim-links/:token/consume", h.ConsumeClaimLink)
	r.GET("/claim-links/:token/qr", h.GetClaimLinkQR)

	return &publicFixture{engine: r, reward: reward, cards: allocated.Cards, cardRepo: cardRepo}
}

func (f *publicFixture) do(t *testing.T, method, path string, userID uint) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Accept-Language", "en-US")
	if userID > 0 {
		req.Header.Set("X-Test-User", strconv.Itoa(int(userID)))
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func decodeFailureRewards(t *testing.T, resp envelope) []service.RewardView {
	t.Helper()
	var data struct {
		Rewards []service.RewardView `json:"rewards"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode failure data failed: %v", err)
	}
	return data.Rewards
}

func (f *publicFixture) own(t *testing.T, userID uint, cards ...models.Card) {
	t.Helper()
	for _, card := range cards {
		if err := f.cardRepo.AssignOwner(card.ID, userID, time.Now()); err != nil {
			t.Fatalf("assign owner failed: %v", err)
		}
	}
}

func TestRewardEndpointsRequireIdentity(t *testing.T) {
	f := setupPublicHandlerTest(t)
	if resp := decodeEnvelope(t, f.do(t, http.MethodGet, "/rewards", 0)); resp.StatusCode != 401 {
		t.Fatalf("expected unauthorized, got %+v", resp)
	}
}

func TestClaimRewardFlow(t *testing.T) {
	f := setupPublicHandlerTest(t)
	claimPath := fmt.Sprintf("/rewards/%d/claim", f.reward.ID)

	resp := decodeEnvelope(t, f.do(t, http.MethodPost, claimPath, 7))
	if resp.StatusCode != 400 || resp.Msg != "Reward requirements are not met yet" {
		t.Fatalf("expected locked reward, got %+v", resp)
	}
	if rewards := decodeFailureRewards(t, resp); len(rewards) != 1 || rewards[0].ClaimStatus != "locked" {
		t.Fatalf("expected refreshed locked reward, got %+v", rewards)
	}

	f.own(t, 7, f.cards[0], f.cards[1])
	resp = decodeEnvelope(t, f.do(t, http.MethodGet, "/rewards", 7))
	var views []service.RewardView
	if err := json.Unmarshal(resp.Data, &views); err != nil {
		t.Fatalf("decode rewards failed: %v", err)
	}
	if len(views) != 1 || views[0].ClaimStatus != "eligible" {
		t.Fatalf("expected eligible reward, got %+v", views)
	}

	resp = decodeEnvelope(t, f.do(t, http.MethodPost, claimPath, 7))
	if resp.StatusCode != 0 {
		t.Fatalf("claim failed: %+v", resp)
	}
	resp = decodeEnvelope(t, f.do(t, http.MethodPost, claimPath, 7))
	if resp.StatusCode != 409 {
		t.Fatalf("expected already claimed, got %+v", resp)
	}
	if rewards := decodeFailureRewards(t, resp); len(rewards) != 1 || rewards[0].ClaimStatus != "claimed" {
		t.Fatalf("expected refreshed claimed reward, got %+v", rewards)
	}
	resp = decodeEnvelope(t, f.do(t, http.MethodPost, "/rewards/abc/claim", 7))
	if resp.StatusCode != 400 {
		t.Fatalf("expected invalid id, got %+v", resp)
	}
}

func TestClaimLinkFlow(t *testing.T) {
	f := setupPublicHandlerTest(t)
	f.own(t, 7, f.cards[2])
	linkPath := fmt.Sprintf("/cards/%d/claim-link", f.cards[2].ID)

	if resp := decodeEnvelope(t, f.do(t, http.MethodPost, linkPath, 8)); resp.StatusCode != 403 {
		t.Fatalf("expected forbidden, got %+v", resp)
	}

	resp := decodeEnvelope(t, f.do(t, http.MethodPost, linkPath, 7))
	if resp.StatusCode != 0 {
		t.Fatalf("generate failed: %+v", resp)
	}
	var link service.ClaimLinkResult
	if err := json.Unmarshal(resp.Data, &link); err != nil {
		t.Fatalf("decode link failed: %v", err)
	}

	qr := f.do(t, http.MethodGet, "/claim-links/"+link.Token+"/qr?format=webp", 0)
	if qr.Code != http.StatusOK || qr.Header().Get("Content-Type") != "image/webp" {
		t.Fatalf("unexpected qr response: %d %s", qr.Code, qr.Header().Get("Content-Type"))
	}

	consumePath := "/claim-links/" + link.Token + "/consume"
	if resp := decodeEnvelope(t, f.do(t, http.MethodPost, consumePath, 8)); resp.StatusCode != 0 {
		t.Fatalf("consume failed: %+v", resp)
	}
	if resp := decodeEnvelope(t, f.do(t, http.MethodPost, consumePath, 9)); resp.StatusCode != 409 {
		t.Fatalf("expected used link, got %+v", resp)
	}
	if resp := decodeEnvelope(t, f.do(t, http.MethodPost, "/claim-links/nope/consume", 9)); resp.StatusCode != 404 {
		t.Fatalf("expected link not found, got %+v", resp)
	}
}
