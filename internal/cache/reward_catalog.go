package cache

import (
	"context"
	"fmt"
	"time"
)

const rewardCatalogCacheTTL = time.Minute

// RewardEntry 奖励定义快照，不含任何用户维度的领取状态
type RewardEntry struct {
	ID                  uint   `json:"id"`
	ProductID           uint   `json:"product_id"`
	Name                string `json:"name"`
	ValueAmount         string `json:"value_amount"`
	RequiredNormalCount int    `json:"required_normal_count"`
	SpecialBatchID      uint   `json:"special_batch_id"`
}

func rewardCatalogKey(productID uint) string {
	return fmt.Sprintf("reward:catalog:%d", productID)
}

// GetRewardCatalog 获取奖励定义缓存，productID 为 0 表示全部
func GetRewardCatalog(ctx context.Context, productID uint) ([]RewardEntry, bool, error) {
	var entries []RewardEntry
	hit, err := GetJSON(ctx, rewardCatalogKey(productID), &entries)
	if err != nil || !hit {
		return nil, hit, err
	}
	return entries, true, nil
}

// SetRewardCatalog 写入奖励定义缓存
func SetRewardCatalog(ctx context.Context, productID uint, entries []RewardEntry) error {
	return SetJSON(ctx, rewardCatalogKey(productID), entries, rewardCatalogCacheTTL)
}

// DelRewardCatalog 删除奖励定义缓存
func DelRewardCatalog(ctx context.Context, productID uint) error {
	return Del(ctx, rewardCatalogKey(productID))
}
