package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 卡片所属商品（系列）
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                  // 主键
	Slug        string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`     // 唯一标识
	Name        string         `gorm:"type:varchar(120);not null" json:"name"`                // 名称
	CodePrefix  string         `gorm:"type:varchar(32);not null;default:''" json:"code_prefix"` // 卡号前缀（如 123-456-789-00001-）
	Description string         `gorm:"type:text" json:"description"`                          // 描述
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`                   // 是否启用
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
