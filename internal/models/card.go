package models

import (
	"time"

	"github.com/cardmint/internal/constants"

	"gorm.io/gorm"
)

const (
	CardTypeNormal  = constants.CardTypeNormal
	CardTypeSpecial = constants.CardTypeSpecial
)

// Card 已分配的实体卡
type Card struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                                 // 主键
	ProductID         uint           `gorm:"index;not null" json:"product_id"`                                     // 商品ID
	BatchID           *uint          `gorm:"index" json:"batch_id,omitempty"`                                      // 批次ID
	UniqueCode        string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"unique_code"`             // 卡号
	CardType          string         `gorm:"type:varchar(16);index;not null;default:'normal'" json:"card_type"`    // 卡片类型（normal/special）
	RenderablePayload string         `gorm:"type:text" json:"renderable_payload"`                                  // 二维码载荷
	OwnerUserID       *uint          `gorm:"index" json:"owner_user_id,omitempty"`                                 // 持有用户ID
	AcquiredAt        *time.Time     `json:"acquired_at"`                                                          // 获得时间
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt         time.Time      `json:"updated_at"`                                                           // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                       // 软删除时间
	Batch             *CardBatch     `gorm:"foreignKey:BatchID" json:"batch,omitempty"`                            // 批次信息
}

// TableName 指定表名
func (Card) TableName() string {
	return "cards"
}
