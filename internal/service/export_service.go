package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cardmint/internal/export"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/models"
	"github.com/cardmint/internal/queue"
	"github.com/cardmint/internal/render"
	"github.com/cardmint/internal/repository"

	"github.com/hibiken/asynq"
)

const (
	exportJobNoPrefix      = "EX"
	defaultExportMaxItems  = 10000
	defaultExportDirectory = "./exports"
)

// ExportQueue 导出任务投递能力
type ExportQueue interface {
	Enabled() bool
	EnqueueCardExport(payload queue.CardExportPayload, opts ...asynq.Option) error
}

// ExportService 卡片图片批量导出服务
type ExportService struct {
	cardRepo  repository.CardRepository
	batchRepo repository.CardBatchRepository
	jobRepo   repository.ExportJobRepository
	renderer  *render.Renderer
	packager  *export.Packager
	queue     ExportQueue
	dir       string
	maxItems  int
}

// ExportServiceOptions 导出服务参数
type ExportServiceOptions struct {
	Dir      string
	MaxItems int
}

// ExportInput 导出选择条件，CardIDs 优先于 BatchID
type ExportInput struct {
	CardIDs         []uint
	BatchID         uint
	Format          string
	RequireNonEmpty bool
	AdminID         uint
}

// ExportOutput 同步导出结果
type ExportOutput struct {
	Filename string
	Result   *export.Result
}

// NewExportService 创建导出服务
func NewExportService(
	cardRepo repository.CardRepository,
	batchRepo repository.CardBatchRepository,
	jobRepo repository.ExportJobRepository,
	renderer *render.Renderer,
	packager *export.Packager,
	exportQueue ExportQueue,
	opts ExportServiceOptions,
) *ExportService {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = defaultExportDirectory
	}
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = defaultExportMaxItems
	}
	return &ExportService{
		cardRepo:  cardRepo,
		batchRepo: batchRepo,
		jobRepo:   jobRepo,
		renderer:  renderer,
		packager:  packager,
		queue:     exportQueue,
		dir:       dir,
		maxItems:  maxItems,
	}
}

// ExportSync 同步渲染并打包，单张失败只记录跳过
func (s *ExportService) ExportSync(ctx context.Context, input ExportInput) (*ExportOutput, error) {
	format, err := render.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}
	items, label, err := s.selectItems(input.CardIDs, input.BatchID)
	if err != nil {
		return nil, err
	}
	result, err := s.packager.Package(ctx, items, format, export.Options{RequireNonEmpty: input.RequireNonEmpty})
	if err != nil {
		if errors.Is(err, export.ErrEmptyExport) {
			return nil, ErrExportEmpty
		}
		if errors.Is(err, render.ErrUnsupportedFormat) {
			return nil, err
		}
		logger.Errorw("card_export_failed", "label", label, "error", err)
		return nil, ErrExportFailed
	}
	logger.Infow("card_export_completed",
		"label", label,
		"format", string(format),
		"entries", result.Entries,
		"skipped", len(result.Skipped),
		"admin_id", input.AdminID,
	)
	return &ExportOutput{
		Filename: fmt.Sprintf("cards-%s-%s.zip", label, time.Now().Format("20060102150405")),
		Result:   result,
	}, nil
}

// CreateJob 创建异步导出任务并投递队列
func (s *ExportService) CreateJob(ctx context.Context, input ExportInput) (*models.ExportJob, error) {
	if s.queue == nil || !s.queue.Enabled() {
		return nil, ErrQueueUnavailable
	}
	format, err := render.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}
	job := &models.ExportJob{
		JobNo:        generateExportJobNo(time.Now()),
		Format:       string(format),
		RequireItems: input.RequireNonEmpty,
		Status:       models.ExportJobStatusPending,
	}
	switch {
	case len(input.CardIDs) > 0:
		if len(input.CardIDs) > s.maxItems {
			return nil, ErrExportTooManyCards
		}
		job.CardIDs = models.UintArray(input.CardIDs)
	case input.BatchID > 0:
		batch, err := s.batchRepo.GetByID(input.BatchID)
		if err != nil {
			return nil, ErrCardFetchFailed
		}
		if batch == nil {
			return nil, ErrCardBatchNotFound
		}
		batchID := batch.ID
		job.BatchID = &batchID
	default:
		return nil, ErrExportNoCards
	}
	if input.AdminID > 0 {
		adminID := input.AdminID
		job.CreatedBy = &adminID
	}
	if err := s.jobRepo.Create(job); err != nil {
		logger.Errorw("export_job_create_failed", "error", err)
		return nil, ErrExportFailed
	}
	if err := s.queue.EnqueueCardExport(queue.CardExportPayload{JobID: job.ID}); err != nil {
		logger.Errorw("export_job_enqueue_failed", "job_id", job.ID, "error", err)
		_ = s.settleFailed(job, "enqueue failed: "+err.Error())
		return nil, ErrQueueUnavailable
	}
	logger.Infow("export_job_enqueued", "job_id", job.ID, "job_no", job.JobNo)
	return job, nil
}

// RunJob 执行导出任务，结束时任务必定处于 done 或 failed；
// 上下文取消或结果落库失败时返回错误，任务可被再次执行
func (s *ExportService) RunJob(ctx context.Context, jobID uint) (*models.ExportJob, error) {
	job, err := s.jobRepo.GetByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrExportJobNotFound
	}
	if job.Status == models.ExportJobStatusDone {
		return job, nil
	}

	started := time.Now()
	job.Status = models.ExportJobStatusRunning
	job.StartedAt = &started
	job.ErrorMessage = ""
	if err := s.jobRepo.Update(job); err != nil {
		return nil, err
	}

	format, err := render.ParseFormat(job.Format)
	if err != nil {
		return job, s.settleFailed(job, err.Error())
	}
	var batchID uint
	if job.BatchID != nil {
		batchID = *job.BatchID
	}
	items, _, err := s.selectItems([]uint(job.CardIDs), batchID)
	if err != nil {
		return job, s.settleFailed(job, err.Error())
	}
	result, err := s.packager.Package(ctx, items, format, export.Options{RequireNonEmpty: job.RequireItems})
	if ctxErr := ctx.Err(); ctxErr != nil {
		// 取消后的结果不完整，标记失败并返回错误交由队列重试
		_ = s.settleFailed(job, "canceled: "+ctxErr.Error())
		return job, ctxErr
	}
	if err != nil {
		return job, s.settleFailed(job, err.Error())
	}
	path, err := s.writeArchive(job.JobNo, result.Archive)
	if err != nil {
		return job, s.settleFailed(job, err.Error())
	}

	finished := time.Now()
	job.Status = models.ExportJobStatusDone
	job.EntryCount = result.Entries
	job.SkippedCount = len(result.Skipped)
	job.SkippedCodes = skippedCodes(result.Skipped)
	job.FilePath = path
	job.FinishedAt = &finished
	if err := s.jobRepo.Update(job); err != nil {
		logger.Errorw("export_job_persist_failed", "job_id", job.ID, "error", err)
		_ = os.Remove(path)
		job.FilePath = ""
		job.EntryCount = 0
		job.SkippedCount = 0
		job.SkippedCodes = nil
		_ = s.settleFailed(job, "persist result: "+err.Error())
		return job, err
	}
	logger.Infow("export_job_done",
		"job_id", job.ID,
		"job_no", job.JobNo,
		"entries", job.EntryCount,
		"skipped", job.SkippedCount,
		"elapsed_ms", finished.Sub(started).Milliseconds(),
	)
	return job, nil
}

// GetJob 获取导出任务
func (s *ExportService) GetJob(id uint) (*models.ExportJob, error) {
	job, err := s.jobRepo.GetByID(id)
	if err != nil {
		return nil, ErrExportFailed
	}
	if job == nil {
		return nil, ErrExportJobNotFound
	}
	return job, nil
}

// ListJobs 分页获取导出任务
func (s *ExportService) ListJobs(page, pageSize int) ([]models.ExportJob, int64, error) {
	jobs, total, err := s.jobRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, ErrExportFailed
	}
	return jobs, total, nil
}

// OpenJobArchive 返回已完成任务的归档路径与下载文件名
func (s *ExportService) OpenJobArchive(id uint) (*models.ExportJob, string, error) {
	job, err := s.GetJob(id)
	if err != nil {
		return nil, "", err
	}
	if job.Status != models.ExportJobStatusDone {
		return job, "", ErrExportJobNotReady
	}
	if strings.TrimSpace(job.FilePath) == "" {
		return job, "", ErrExportArchiveGone
	}
	if _, err := os.Stat(job.FilePath); err != nil {
		logger.Warnw("export_job_archive_missing", "job_id", job.ID, "path", job.FilePath, "error", err)
		return job, "", ErrExportArchiveGone
	}
	return job, fmt.Sprintf("cards-%s.zip", job.JobNo), nil
}

// RenderCardArtifact 渲染单张卡片图片
func (s *ExportService) RenderCardArtifact(ctx context.Context, cardID uint, rawFormat string) ([]byte, render.Format, *models.Card, error) {
	format, err := render.ParseFormat(rawFormat)
	if err != nil {
		return nil, "", nil, err
	}
	card, err := s.cardRepo.GetByID(cardID)
	if err != nil {
		return nil, "", nil, ErrCardFetchFailed
	}
	if card == nil {
		return nil, "", nil, ErrCardNotFound
	}
	if strings.TrimSpace(card.RenderablePayload) == "" {
		return nil, "", card, ErrCardPayloadMissing
	}
	blob, err := s.renderer.Render(ctx, card.RenderablePayload, format)
	if err != nil {
		logger.Warnw("card_artifact_render_failed", "card_id", card.ID, "error", err)
		return nil, "", card, ErrRenderFailed
	}
	return blob, format, card, nil
}

// JobArchivePath 任务归档文件位置
func (s *ExportService) JobArchivePath(jobNo string) string {
	return filepath.Join(s.dir, jobNo+".zip")
}

func (s *ExportService) selectItems(cardIDs []uint, batchID uint) ([]export.Item, string, error) {
	var (
		cards []models.Card
		label string
		err   error
	)
	switch {
	case len(cardIDs) > 0:
		if len(cardIDs) > s.maxItems {
			return nil, "", ErrExportTooManyCards
		}
		cards, err = s.cardRepo.ListByIDs(cardIDs)
		if err != nil {
			return nil, "", ErrCardFetchFailed
		}
		label = "selected"
	case batchID > 0:
		batch, getErr := s.batchRepo.GetByID(batchID)
		if getErr != nil {
			return nil, "", ErrCardFetchFailed
		}
		if batch == nil {
			return nil, "", ErrCardBatchNotFound
		}
		cards, err = s.cardRepo.ListByBatch(batch.ID, s.maxItems+1)
		if err != nil {
			return nil, "", ErrCardFetchFailed
		}
		if len(cards) > s.maxItems {
			return nil, "", ErrExportTooManyCards
		}
		label = batch.BatchNo
	default:
		return nil, "", ErrExportNoCards
	}
	if len(cards) == 0 {
		return nil, "", ErrExportNoCards
	}
	items := make([]export.Item, 0, len(cards))
	for _, card := range cards {
		items = append(items, export.Item{Code: card.UniqueCode, Payload: card.RenderablePayload})
	}
	return items, label, nil
}

func (s *ExportService) writeArchive(jobNo string, archive []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	path := s.JobArchivePath(jobNo)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, archive, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// settleFailed 记录失败状态；返回值仅在持久化失败时非空
func (s *ExportService) settleFailed(job *models.ExportJob, reason string) error {
	finished := time.Now()
	job.Status = models.ExportJobStatusFailed
	job.ErrorMessage = reason
	job.FinishedAt = &finished
	if err := s.jobRepo.Update(job); err != nil {
		logger.Errorw("export_job_settle_failed", "job_id", job.ID, "error", err)
		return err
	}
	logger.Warnw("export_job_failed", "job_id", job.ID, "job_no", job.JobNo, "reason", reason)
	return nil
}

func skippedCodes(items []export.SkippedItem) models.StringArray {
	codes := make(models.StringArray, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.Code+":"+item.Reason)
	}
	return codes
}

func generateExportJobNo(now time.Time) string {
	return strings.ToUpper(fmt.Sprintf("%s%s%s", exportJobNoPrefix, now.Format("20060102150405"), randomHex(4)))
}
