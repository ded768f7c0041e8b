package app

import (
	"errors"

	"github.com/cardmint/internal/config"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/provider"
	"github.com/cardmint/internal/router"
	"github.com/cardmint/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(listenAddr(cfg), engine))
	}

	// 导出任务 Worker；all 模式下队列关闭时只提供同步导出
	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled {
			workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
			if err != nil {
				container.Close()
				return nil, err
			}
			services = append(services, workerService)
		} else if mode == ModeWorker {
			container.Close()
			return nil, errors.New("worker mode requires queue.enabled")
		} else {
			logger.Warnw("app_worker_skipped", "reason", "queue_disabled")
		}
	}

	if len(services) == 0 {
		container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.OnShutdown(container.Close)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = opts.withDefaults()
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

func listenAddr(cfg *config.Config) string {
	return cfg.Server.Host + ":" + cfg.Server.Port
}
