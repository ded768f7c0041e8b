package models

import (
	"time"

	"gorm.io/gorm"
)

// CardBatch 一次序列号区间分配
type CardBatch struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                  // 主键
	BatchNo     string         `gorm:"type:varchar(48);uniqueIndex;not null" json:"batch_no"` // 批次号
	ProductID   uint           `gorm:"index;not null" json:"product_id"`                      // 商品ID
	Prefix      string         `gorm:"type:varchar(32);not null" json:"prefix"`               // 卡号前缀
	StartSerial string         `gorm:"type:varchar(8);not null" json:"start_serial"`          // 起始序列号
	EndSerial   string         `gorm:"type:varchar(8);not null" json:"end_serial"`            // 结束序列号
	CardType    string         `gorm:"type:varchar(16);not null" json:"card_type"`            // 卡片类型
	Quantity    int            `gorm:"not null;default:0" json:"quantity"`                    // 生成数量
	CreatedBy   *uint          `gorm:"index" json:"created_by,omitempty"`                     // 创建管理员ID
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间
}

// TableName 指定表名
func (CardBatch) TableName() string {
	return "card_batches"
}
