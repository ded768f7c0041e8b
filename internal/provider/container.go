package provider

import (
	"github.com/cardmint/internal/cache"
	"github.com/cardmint/internal/config"
	"github.com/cardmint/internal/export"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/queue"
	"github.com/cardmint/internal/render"
	"github.com/cardmint/internal/repository"
	"github.com/cardmint/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Renderer    *render.Renderer
	Packager    *export.Packager

	// Repositories
	ProductRepo     repository.ProductRepository
	CardRepo        repository.CardRepository
	CardBatchRepo   repository.CardBatchRepository
	RewardRepo      repository.RewardRepository
	RewardClaimRepo repository.RewardClaimRepository
	ClaimLinkRepo   repository.ClaimLinkRepository
	ExportJobRepo   repository.ExportJobRepository

	// Services
	AuthService           *service.AuthService
	ProductService        *service.ProductService
	CardAllocationService *service.CardAllocationService
	RewardService         *service.RewardService
	ClaimService          *service.ClaimService
	ClaimLinkService      *service.ClaimLinkService
	ExportService         *service.ExportService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	renderer := render.NewFromOptions(render.Options{
		Backend:        cfg.Render.Backend,
		Size:           cfg.Render.Size,
		JPEGQuality:    cfg.Render.JPEGQuality,
		BrowserTimeout: cfg.Render.BrowserTimeout(),
	})

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Renderer:    renderer,
		Packager:    export.NewPackager(renderer, cfg.Export.Concurrency),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

// Close 释放容器持有的外部资源
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Renderer != nil {
		c.Renderer.Close()
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ProductRepo = repository.NewProductRepository(db)
	c.CardRepo = repository.NewCardRepository(db)
	c.CardBatchRepo = repository.NewCardBatchRepository(db)
	c.RewardRepo = repository.NewRewardRepository(db)
	c.RewardClaimRepo = repository.NewRewardClaimRepository(db)
	c.ClaimLinkRepo = repository.NewClaimLinkRepository(db)
	c.ExportJobRepo = repository.NewExportJobRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config.JWT)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CardAllocationService = service.NewCardAllocationService(c.CardRepo, c.CardBatchRepo, c.ProductRepo, c.Config.Card.MaxRangeSize)
	c.RewardService = service.NewRewardService(c.RewardRepo, c.RewardClaimRepo, c.CardRepo, c.ProductRepo, c.CardBatchRepo)
	c.ClaimService = service.NewClaimService(c.RewardService, c.RewardClaimRepo, c.CardRepo, c.Config.Claim.LockTTL())
	c.ClaimLinkService = service.NewClaimLinkService(c.ClaimLinkRepo, c.CardRepo, c.Renderer, c.Config.Claim.BaseURL, c.Config.Claim.LinkTTL())
	c.ExportService = service.NewExportService(
		c.CardRepo,
		c.CardBatchRepo,
		c.ExportJobRepo,
		c.Renderer,
		c.Packager,
		c.QueueClient,
		service.ExportServiceOptions{
			Dir:      c.Config.Export.Dir,
			MaxItems: c.Config.Export.MaxItems,
		},
	)
}
