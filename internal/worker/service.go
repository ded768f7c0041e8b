package worker

import (
	"context"
	"errors"

	"github.com/cardmint/internal/config"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 将 asynq server 适配为 Runner 托管的服务
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 创建 worker 服务，队列未启用时报错
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{server: asynq.NewServer(opt, serverCfg), mux: mux}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费并阻塞到 ctx 结束；asynq 自身不监听信号
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	logger.Infow("worker_consuming", "queues", []string{queue.DefaultQueue, queue.ExportQueue})
	<-ctx.Done()
	return nil
}

// Stop 等待在途任务完成后关闭，超时由 asynq ShutdownTimeout 控制
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}
