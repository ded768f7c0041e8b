package models

import "time"

// RewardClaim 奖励领取记录，同一用户对同一奖励只能有一条
type RewardClaim struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                          // 主键
	RewardID  uint      `gorm:"not null;uniqueIndex:idx_reward_claims_reward_user" json:"reward_id"` // 奖励ID
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reward_claims_reward_user;index" json:"user_id"` // 用户ID
	CardID    *uint     `gorm:"index" json:"card_id,omitempty"`                                // 发放的特殊卡
	OwnedAt   int       `gorm:"not null;default:0" json:"owned_at"`                            // 领取时持有的普通卡数量
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                       // 领取时间
}

// TableName 指定表名
func (RewardClaim) TableName() string {
	return "reward_claims"
}
