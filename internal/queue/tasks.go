package queue

import (
	"encoding/json"
	"errors"

	"github.com/cardmint/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCardExport 卡片批量导出任务
	TaskCardExport = constants.TaskCardExport
)

// CardExportPayload 批量导出任务载荷
type CardExportPayload struct {
	JobID uint `json:"job_id"`
}

// NewCardExportTask 创建批量导出任务
func NewCardExportTask(payload CardExportPayload) (*asynq.Task, error) {
	if payload.JobID == 0 {
		return nil, errors.New("export job id is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCardExport, body), nil
}

// ParseCardExportPayload 解析批量导出任务载荷
func ParseCardExportPayload(body []byte) (CardExportPayload, error) {
	var payload CardExportPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, err
	}
	if payload.JobID == 0 {
		return payload, errors.New("export job id is required")
	}
	return payload, nil
}
