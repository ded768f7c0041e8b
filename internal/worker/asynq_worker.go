package worker

import (
	"context"
	"errors"

	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/provider"
	"github.com/cardmint/internal/queue"
	"github.com/cardmint/internal/service"

	"github.com/hibiken/asynq"
)

// ExportRunner 导出任务执行能力
type ExportRunner interface {
	RunJob(ctx context.Context, jobID uint) error
}

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	runner ExportRunner
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	consumer := &Consumer{Container: c}
	if c != nil && c.ExportService != nil {
		consumer.runner = exportServiceRunner{svc: c.ExportService}
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCardExport, c.handleCardExport)
}

func (c *Consumer) handleCardExport(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_card_export_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseCardExportPayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_card_export_invalid_payload", "error", err)
		return errors.Join(err, asynq.SkipRetry)
	}
	if c.runner == nil {
		logger.Warnw("worker_card_export_skip_runner_nil", "job_id", payload.JobID)
		return nil
	}
	if err := c.runner.RunJob(ctx, payload.JobID); err != nil {
		if errors.Is(err, service.ErrExportJobNotFound) {
			logger.Debugw("worker_card_export_skip_job_not_found", "job_id", payload.JobID)
			return nil
		}
		logger.Warnw("worker_card_export_failed", "job_id", payload.JobID, "error", err)
		return err
	}
	return nil
}

type exportServiceRunner struct {
	svc *service.ExportService
}

func (r exportServiceRunner) RunJob(ctx context.Context, jobID uint) error {
	_, err := r.svc.RunJob(ctx, jobID)
	return err
}
