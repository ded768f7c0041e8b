package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cardmint/internal/config"
	"github.com/cardmint/internal/logger"

	"go.uber.org/zap"
)

// 进程模式
const (
	ModeAll    = "all"    // HTTP + worker
	ModeAPI    = "api"    // 仅 HTTP
	ModeWorker = "worker" // 仅导出任务消费
)

const defaultShutdownTimeout = 15 * time.Second

// Options 启动参数
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// ParseMode 归一化模式字符串，空值视为 all
func ParseMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	switch mode {
	case "":
		return ModeAll, nil
	case ModeAll, ModeAPI, ModeWorker:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want all, api or worker)", raw)
	}
}

func (m Options) withDefaults() Options {
	if m.Logger == nil {
		m.Logger = logger.S()
	}
	if m.ShutdownTimeout <= 0 {
		m.ShutdownTimeout = defaultShutdownTimeout
	}
	if strings.TrimSpace(m.Mode) == "" {
		m.Mode = ModeAll
	}
	return m
}
