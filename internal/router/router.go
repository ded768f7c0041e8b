package router

import (
	"sort"
	"strings"

	"github.com/cardmint/internal/cache"
	"github.com/cardmint/internal/config"
	adminhandlers "github.com/cardmint/internal/http/handlers/admin"
	publichandlers "github.com/cardmint/internal/http/handlers/public"
	handlershared "github.com/cardmint/internal/http/handlers/shared"
	"github.com/cardmint/internal/http/response"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	handlershared.RegisterValidators()
	r := gin.New()

	// 初始化 Handler（按领取人/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisClient := cache.Client()
	claimRule := RateLimitRule{
		Prefix:        cache.Key("rate", "claim"),
		WindowSeconds: cfg.Security.ClaimRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ClaimRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.ClaimRateLimit.BlockSeconds,
		MessageKey:    "error.claim_rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 领取人接口（需鉴权）
		user := apiV1.Group("")
		user.Use(IdentityMiddleware(c.AuthService))
		{
			user.GET("/rewards", publicHandler.ListRewards)
			user.POST("/rewards/:id/claim", RateLimitMiddleware(redisClient, claimRule, KeyByUserID), publicHandler.ClaimReward)
			user.POST("/cards/:id/claim-link", publicHandler.GenerateClaimLink)
			user.POST("/claim-links/:token/consume", publicHandler.ConsumeClaimLink)
			user.GET("/claim-links/:token/qr", publicHandler.GetClaimLinkQR)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		authorized := admin.Use(IdentityMiddleware(c.AuthService), AdminOnlyMiddleware())
		{
			// 商品与奖励
			authorized.GET("/products", adminHandler.ListProducts)
			authorized.POST("/products", adminHandler.CreateProduct)
			authorized.POST("/rewards", adminHandler.CreateReward)

			// 卡号分配
			authorized.POST("/cards/validate-code", adminHandler.ValidateCardCode)
			authorized.POST("/cards/allocate", adminHandler.AllocateCards)
			authorized.GET("/cards", adminHandler.ListCards)
			authorized.GET("/card-batches", adminHandler.ListCardBatches)
			authorized.POST("/cards/:id/payload", adminHandler.IssueCardPayload)
			authorized.GET("/cards/:id/artifact", adminHandler.GetCardArtifact)

			// 批量导出
			authorized.POST("/cards/export", adminHandler.ExportCards)
			authorized.POST("/card-exports", adminHandler.CreateExportJob)
			authorized.GET("/card-exports", adminHandler.ListExportJobs)
			authorized.GET("/card-exports/:id", adminHandler.GetExportJob)
			authorized.GET("/card-exports/:id/download", adminHandler.DownloadExportJob)

			authorized.GET("/routes", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminRouteCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminRouteCatalogItem struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

func buildAdminRouteCatalog(engine *gin.Engine) []adminRouteCatalogItem {
	if engine == nil {
		return []adminRouteCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminRouteCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		key := method + ":" + item.Path
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, adminRouteCatalogItem{
			Module: deriveAdminRouteModule(item.Path),
			Method: method,
			Path:   item.Path,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Path == items[j].Path {
				return items[i].Method < items[j].Method
			}
			return items[i].Path < items[j].Path
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminRouteModule(path string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(path), "/api/v1/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
