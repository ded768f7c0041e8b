package models

import (
	"time"

	"github.com/cardmint/internal/constants"
)

const (
	ClaimLinkStatusActive   = constants.ClaimLinkStatusActive
	ClaimLinkStatusConsumed = constants.ClaimLinkStatusConsumed
	ClaimLinkStatusRevoked  = constants.ClaimLinkStatusRevoked
)

// ClaimLink 卡片转赠领取链接
type ClaimLink struct {
	ID         uint       `gorm:"primarykey" json:"id"`                                           // 主键
	Token      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`             // 领取令牌
	CardID     uint       `gorm:"index;not null" json:"card_id"`                                  // 卡片ID
	CreatedBy  uint       `gorm:"index;not null" json:"created_by"`                               // 生成人
	Status     string     `gorm:"type:varchar(16);index;not null;default:'active'" json:"status"` // 状态
	ExpiresAt  time.Time  `gorm:"index;not null" json:"expires_at"`                               // 过期时间
	ConsumedBy *uint      `gorm:"index" json:"consumed_by,omitempty"`                             // 领取用户
	ConsumedAt *time.Time `json:"consumed_at"`                                                    // 领取时间
	RevokedAt  *time.Time `json:"revoked_at"`                                                     // 作废时间
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt  time.Time  `json:"updated_at"`                                                     // 更新时间
}

// TableName 指定表名
func (ClaimLink) TableName() string {
	return "claim_links"
}
