package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/cardmint/internal/app"
	"github.com/cardmint/internal/config"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
)

func main() {
	var (
		mode        string
		migrateOnly bool
	)
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.BoolVar(&migrateOnly, "migrate-only", false, "仅执行数据库迁移后退出")
	flag.Parse()

	mode, err := app.ParseMode(mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	printStartupBanner(mode)

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	checkJWTSecret(cfg, stdLog)

	if err := openDatabase(cfg); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}
	if migrateOnly {
		logger.Infow("migrate_only_done", "driver", cfg.Database.Driver)
		return
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func openDatabase(cfg *config.Config) error {
	pool := cfg.Database.Pool
	return models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           pool.MaxOpenConns,
		MaxIdleConns:           pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode == "debug")
}

// checkJWTSecret release 模式拒绝弱密钥，其它模式仅告警
func checkJWTSecret(cfg *config.Config, stdLog *log.Logger) {
	if !isWeakSecret(cfg.JWT.SecretKey) {
		return
	}
	if cfg.Server.Mode == "release" {
		stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
	}
	logger.Warnw("jwt_secret_weak", "mode", cfg.Server.Mode)
}

func printStartupBanner(mode string) {
	fmt.Println(ansiCyan + ansiBold + "cardmint" + ansiReset + ansiDim + "  collectible card codes, rewards and claim links" + ansiReset)
	fmt.Println(ansiDim + "mode: " + mode + ansiReset)
	fmt.Println(ansiDim + strings.Repeat("-", 62) + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range []string{"change-me", "change-in-production", "your-secret-key"} {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
