package models

import (
	"time"

	"github.com/cardmint/internal/constants"
)

const (
	ExportJobStatusPending = constants.ExportJobStatusPending
	ExportJobStatusRunning = constants.ExportJobStatusRunning
	ExportJobStatusDone    = constants.ExportJobStatusDone
	ExportJobStatusFailed  = constants.ExportJobStatusFailed
)

// ExportJob 异步批量导出任务
type ExportJob struct {
	ID            uint        `gorm:"primarykey" json:"id"`                                            // 主键
	JobNo         string      `gorm:"type:varchar(48);uniqueIndex;not null" json:"job_no"`             // 任务号
	Format        string      `gorm:"type:varchar(8);not null" json:"format"`                          // 图片格式
	BatchID       *uint       `gorm:"index" json:"batch_id,omitempty"`                                 // 按批次导出
	CardIDs       UintArray   `gorm:"type:text" json:"card_ids"`                                       // 按卡片ID导出
	RequireItems  bool        `gorm:"not null;default:false" json:"require_non_empty"`                 // 空结果视为失败
	Status        string      `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"` // 状态
	EntryCount    int         `gorm:"not null;default:0" json:"entry_count"`                           // 成功条目数
	SkippedCount  int         `gorm:"not null;default:0" json:"skipped_count"`                         // 跳过条目数
	SkippedCodes  StringArray `gorm:"type:text" json:"skipped_codes"`                                  // 跳过的卡号
	FilePath      string      `gorm:"type:varchar(255)" json:"-"`                                      // 归档文件路径
	ErrorMessage  string      `gorm:"type:text" json:"error_message"`                                  // 失败原因
	CreatedBy     *uint       `gorm:"index" json:"created_by,omitempty"`                               // 创建管理员ID
	StartedAt     *time.Time  `json:"started_at"`                                                      // 开始时间
	FinishedAt    *time.Time  `json:"finished_at"`                                                     // 完成时间
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt     time.Time   `json:"updated_at"`                                                      // 更新时间
}

// TableName 指定表名
func (ExportJob) TableName() string {
	return "export_jobs"
}
