package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld 锁已被其他请求持有
var ErrLockHeld = errors.New("lock already held")

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock 已获取的分布式锁
type Lock struct {
	key   string
	token string
}

func claimLockKey(rewardID, userID uint) string {
	return fmt.Sprintf("claim:lock:%d:%d", rewardID, userID)
}

// AcquireClaimLock 以 SET NX PX 获取领取锁；Redis 未启用时返回 nil, nil
func AcquireClaimLock(ctx context.Context, rewardID, userID uint, ttl time.Duration) (*Lock, error) {
	h := snapshot()
	if h == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	key := joinKey(h.prefix, claimLockKey(rewardID, userID))
	token := uuid.NewString()
	ok, err := h.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &Lock{key: key, token: token}, nil
}

// Release 仅释放自己持有的锁
func (l *Lock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	h := snapshot()
	if h == nil {
		return nil
	}
	return releaseLockScript.Run(ctx, h.client, []string{l.key}, l.token).Err()
}
