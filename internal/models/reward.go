package models

import (
	"time"

	"gorm.io/gorm"
)

// Reward 集齐普通卡后可领取的奖励
type Reward struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                                      // 主键
	ProductID           uint           `gorm:"index;not null" json:"product_id"`                          // 商品ID
	Name                string         `gorm:"type:varchar(120);not null" json:"name"`                    // 奖励名称
	ValueAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value_amount"` // 市场价值
	RequiredNormalCount int            `gorm:"not null;default:0" json:"required_normal_count"`           // 所需普通卡数量
	SpecialBatchID      *uint          `gorm:"index" json:"special_batch_id,omitempty"`                   // 奖励发放的特殊卡批次
	IsActive            bool           `gorm:"default:true;index" json:"is_active"`                       // 是否启用
	SortOrder           int            `gorm:"default:0;index" json:"sort_order"`                         // 排序权重
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt           time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Reward) TableName() string {
	return "rewards"
}
