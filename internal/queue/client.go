package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cardmint/internal/config"
	"github.com/cardmint/internal/constants"
	"github.com/cardmint/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列
	DefaultQueue = constants.QueueDefault
	// ExportQueue 导出队列
	ExportQueue = constants.QueueExport

	exportMaxRetry        = 2
	exportTaskTimeout     = time.Hour
	exportTaskRetention   = 24 * time.Hour
	serverShutdownTimeout = 30 * time.Second
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue is disabled")

// Client asynq 客户端；队列关闭时所有投递返回 ErrQueueDisabled
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 是否可以投递任务
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueCardExport 投递导出任务；同一任务单重复投递视为成功
func (c *Client) EnqueueCardExport(payload CardExportPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	task, err := NewCardExportTask(payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{
		asynq.Queue(ExportQueue),
		asynq.TaskID(exportTaskID(payload.JobID)),
		asynq.MaxRetry(exportMaxRetry),
		asynq.Timeout(exportTaskTimeout),
		asynq.Retention(exportTaskRetention),
	}, opts...)
	info, err := c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Infow("queue_export_task_exists", "job_id", payload.JobID)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Debugw("queue_export_task_enqueued", "job_id", payload.JobID, "task_id", info.ID, "queue", info.Queue)
	return nil
}

func exportTaskID(jobID uint) string {
	return fmt.Sprintf("%s:%d", TaskCardExport, jobID)
}

// BuildServerConfig 生成 worker 端 asynq 配置，日志与错误统一走 zap
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{DefaultQueue: 1, ExportQueue: 1}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return redisOpt(cfg), asynq.Config{
		Concurrency:     concurrency,
		Queues:          queues,
		ShutdownTimeout: serverShutdownTimeout,
		Logger:          logger.S().Named("asynq"),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warnw("queue_task_failed",
				"task", task.Type(),
				"retried", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
	}
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
