package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	handlershared "github.com/cardmint/internal/http/handlers/shared"
	"github.com/cardmint/internal/http/response"
	"github.com/cardmint/internal/render"
	"github.com/cardmint/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	headerExportEntries = "X-Export-Entries"
	headerExportSkipped = "X-Export-Skipped"
)

// ExportCardsRequest 批量导出请求，ids 优先于 batch_id
type ExportCardsRequest struct {
	IDs             []uint `json:"ids" binding:"omitempty,dive,gt=0"`
	BatchID         uint   `json:"batch_id"`
	Format          string `json:"format" binding:"omitempty,oneof=png jpg jpeg webp"`
	RequireNonEmpty bool   `json:"require_non_empty"`
}

var exportErrorRules = []handlershared.MappedError{
	{Target: render.ErrUnsupportedFormat, Code: response.CodeBadRequest, Key: "error.export_format_invalid"},
	{Target: service.ErrExportNoCards, Code: response.CodeBadRequest, Key: "error.export_no_cards"},
	{Target: service.ErrExportTooManyCards, Code: response.CodeBadRequest, Key: "error.export_too_many_cards"},
	{Target: service.ErrExportEmpty, Code: response.CodeBadRequest, Key: "error.export_empty"},
	{Target: service.ErrCardBatchNotFound, Code: response.CodeNotFound, Key: "error.card_batch_not_found"},
	{Target: service.ErrQueueUnavailable, Code: response.CodeUnavailable, Key: "error.queue_unavailable"},
	{Target: service.ErrCardFetchFailed, Code: response.CodeInternal, Key: "error.card_fetch_failed"},
}

var exportJobErrorRules = []handlershared.MappedError{
	{Target: service.ErrExportJobNotFound, Code: response.CodeNotFound, Key: "error.export_job_not_found"},
	{Target: service.ErrExportJobNotReady, Code: response.CodeConflict, Key: "error.export_job_not_ready"},
	{Target: service.ErrExportArchiveGone, Code: response.CodeGone, Key: "error.export_archive_missing"},
}

// ExportCards 同步导出卡片图片 zip
func (h *Handler) ExportCards(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req ExportCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	output, err := h.ExportService.ExportSync(c.Request.Context(), service.ExportInput{
		CardIDs:         req.IDs,
		BatchID:         req.BatchID,
		Format:          req.Format,
		RequireNonEmpty: req.RequireNonEmpty,
		AdminID:         adminID,
	})
	if err != nil {
		respondWithMappedError(c, err, exportErrorRules, response.CodeInternal, "error.export_failed")
		return
	}

	result := output.Result
	skipped := make([]string, 0, len(result.Skipped))
	for _, item := range result.Skipped {
		skipped = append(skipped, item.Code)
	}
	if len(skipped) > 0 {
		requestLog(c).Warnw("admin_card_export_partial", "entries", result.Entries, "skipped", len(skipped))
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.Filename))
	c.Header(headerExportEntries, strconv.Itoa(result.Entries))
	c.Header(headerExportSkipped, strconv.Itoa(len(skipped)))
	c.Data(http.StatusOK, "application/zip", result.Archive)
}

// CreateExportJob 创建异步导出任务
func (h *Handler) CreateExportJob(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req ExportCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	job, err := h.ExportService.CreateJob(c.Request.Context(), service.ExportInput{
		CardIDs:         req.IDs,
		BatchID:         req.BatchID,
		Format:          req.Format,
		RequireNonEmpty: req.RequireNonEmpty,
		AdminID:         adminID,
	})
	if err != nil {
		respondWithMappedError(c, err, exportErrorRules, response.CodeInternal, "error.export_failed")
		return
	}
	response.Success(c, job)
}

// ListExportJobs 获取导出任务列表
func (h *Handler) ListExportJobs(c *gin.Context) {
	page, pageSize := handlershared.ReadPagination(c)
	jobs, total, err := h.ExportService.ListJobs(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.export_failed", err)
		return
	}
	response.SuccessWithPage(c, jobs, response.NewPagination(page, pageSize, total))
}

// GetExportJob 获取导出任务详情
func (h *Handler) GetExportJob(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id", "error.export_job_id_invalid")
	if !ok {
		return
	}
	job, err := h.ExportService.GetJob(jobID)
	if err != nil {
		respondWithMappedError(c, err, exportJobErrorRules, response.CodeInternal, "error.export_failed")
		return
	}
	response.Success(c, job)
}

// DownloadExportJob 下载已完成任务的归档
func (h *Handler) DownloadExportJob(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id", "error.export_job_id_invalid")
	if !ok {
		return
	}
	job, filename, err := h.ExportService.OpenJobArchive(jobID)
	if err != nil {
		respondWithMappedError(c, err, exportJobErrorRules, response.CodeInternal, "error.export_failed")
		return
	}
	c.Header(headerExportEntries, strconv.Itoa(job.EntryCount))
	c.Header(headerExportSkipped, strconv.Itoa(job.SkippedCount))
	c.FileAttachment(job.FilePath, filename)
}

// GetCardArtifact 渲染单张卡片图片
func (h *Handler) GetCardArtifact(c *gin.Context) {
	cardID, ok := parseIDParam(c, "id", "error.card_id_invalid")
	if !ok {
		return
	}
	blob, format, _, err := h.ExportService.RenderCardArtifact(c.Request.Context(), cardID, c.DefaultQuery("format", string(render.FormatPNG)))
	if err != nil {
		switch {
		case errors.Is(err, render.ErrUnsupportedFormat):
			respondError(c, response.CodeBadRequest, "error.export_format_invalid", nil)
		case errors.Is(err, service.ErrCardNotFound):
			respondError(c, response.CodeNotFound, "error.card_not_found", nil)
		case errors.Is(err, service.ErrCardPayloadMissing):
			respondError(c, response.CodeBadRequest, "error.card_payload_missing", nil)
		default:
			respondError(c, response.CodeInternal, "error.render_failed", err)
		}
		return
	}
	c.Data(http.StatusOK, format.MIME(), blob)
}
