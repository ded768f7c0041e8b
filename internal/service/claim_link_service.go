package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/render"
	"github.com/cardmint/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimLinkService 卡片领取链接服务
type ClaimLinkService struct {
	linkRepo repository.ClaimLinkRepository
	cardRepo repository.CardRepository
	renderer *render.Renderer
	baseURL  string
	ttl      time.Duration
}

// ClaimLinkResult 生成链接结果
type ClaimLinkResult struct {
	Token             string    `json:"token"`
	ClaimURL          string    `json:"claim_url"`
	RenderablePayload string    `json:"renderable_payload"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// NewClaimLinkService 创建领取链接服务
func NewClaimLinkService(linkRepo repository.ClaimLinkRepository, cardRepo repository.CardRepository, renderer *render.Renderer, baseURL string, ttl time.Duration) *ClaimLinkService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ClaimLinkService{
		linkRepo: linkRepo,
		cardRepo: cardRepo,
		renderer: renderer,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		ttl:      ttl,
	}
}

// BuildClaimURL 根据令牌拼接领取地址
func (s *ClaimLinkService) BuildClaimURL(token string) string {
	if s.baseURL == "" {
		return token
	}
	return s.baseURL + "/" + token
}

// Generate 生成单次有效的领取链接；同一卡片旧链接全部作废
func (s *ClaimLinkService) Generate(ctx context.Context, cardID, actorID uint, isAdmin bool) (*ClaimLinkResult, error) {
	if cardID == 0 {
		return nil, ErrCardNotFound
	}
	card, err := s.cardRepo.GetByID(cardID)
	if err != nil {
		return nil, ErrCardFetchFailed
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	if !isAdmin && (card.OwnerUserID == nil || *card.OwnerUserID != actorID) {
		return nil, ErrClaimLinkForbidden
	}

	now := time.Now()
	link := &models.ClaimLink{
		Token:     uuid.NewString(),
		CardID:    card.ID,
		CreatedBy: actorID,
		Status:    models.ClaimLinkStatusActive,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		linkRepo := s.linkRepo.WithTx(tx)
		revoked, err := linkRepo.RevokeActiveByCard(card.ID, now)
		if err != nil {
			return err
		}
		if revoked > 0 {
			logger.Infow("claim_link_revoked", "card_id", card.ID, "count", revoked)
		}
		return linkRepo.Create(link)
	})
	if err != nil {
		logger.Errorw("claim_link_create_failed", "card_id", card.ID, "error", err)
		return nil, ErrClaimLinkCreateFailed
	}

	claimURL := s.BuildClaimURL(link.Token)
	return &ClaimLinkResult{
		Token:             link.Token,
		ClaimURL:          claimURL,
		RenderablePayload: claimURL,
		ExpiresAt:         link.ExpiresAt,
	}, nil
}

// Consume 消费领取链接并转移卡片持有人，每个令牌只会成功一次
func (s *ClaimLinkService) Consume(ctx context.Context, token string, userID uint) (*models.Card, error) {
	token = strings.TrimSpace(token)
	if userID == 0 {
		return nil, ErrClaimantRequired
	}
	link, err := s.linkRepo.GetByToken(token)
	if err != nil {
		return nil, ErrClaimLinkConsumeFailed
	}
	if link == nil {
		return nil, ErrClaimLinkNotFound
	}
	if err := linkStatusError(link, time.Now()); err != nil {
		return nil, err
	}

	var card *models.Card
	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cardRepo := s.cardRepo.WithTx(tx)
		locked, err := cardRepo.GetByIDForUpdate(link.CardID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrCardNotFound
		}
		if locked.OwnerUserID != nil && *locked.OwnerUserID == userID {
			return ErrClaimLinkSelfConsume
		}
		now := time.Now()
		affected, err := s.linkRepo.WithTx(tx).Consume(token, userID, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrClaimLinkUsed
		}
		if err := cardRepo.AssignOwner(locked.ID, userID, now); err != nil {
			return err
		}
		locked.OwnerUserID = &userID
		locked.AcquiredAt = &now
		card = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrClaimLinkUsed) {
			// 条件更新未命中：可能已被消费、作废或刚好过期
			if latest, getErr := s.linkRepo.GetByToken(token); getErr == nil && latest != nil {
				if statusErr := linkStatusError(latest, time.Now()); statusErr != nil {
					return nil, statusErr
				}
			}
			return nil, ErrClaimLinkUsed
		}
		if errors.Is(err, ErrCardNotFound) || errors.Is(err, ErrClaimLinkSelfConsume) {
			return nil, err
		}
		logger.Errorw("claim_link_consume_failed", "card_id", link.CardID, "error", err)
		return nil, ErrClaimLinkConsumeFailed
	}
	logger.Infow("claim_link_consumed", "card_id", card.ID, "user_id", userID)
	return card, nil
}

// RenderQR 将领取地址渲染为图片
func (s *ClaimLinkService) RenderQR(ctx context.Context, token string, format render.Format) ([]byte, error) {
	link, err := s.linkRepo.GetByToken(strings.TrimSpace(token))
	if err != nil {
		return nil, ErrClaimLinkConsumeFailed
	}
	if link == nil {
		return nil, ErrClaimLinkNotFound
	}
	if err := linkStatusError(link, time.Now()); err != nil {
		return nil, err
	}
	blob, err := s.renderer.Render(ctx, s.BuildClaimURL(link.Token), format)
	if err != nil {
		if errors.Is(err, render.ErrUnsupportedFormat) {
			return nil, err
		}
		logger.Warnw("claim_link_qr_render_failed", "card_id", link.CardID, "error", err)
		return nil, ErrRenderFailed
	}
	return blob, nil
}

func linkStatusError(link *models.ClaimLink, now time.Time) error {
	switch link.Status {
	case models.ClaimLinkStatusConsumed:
		return ErrClaimLinkUsed
	case models.ClaimLinkStatusRevoked:
		return ErrClaimLinkRevoked
	}
	if !link.ExpiresAt.After(now) {
		return ErrClaimLinkExpired
	}
	return nil
}
