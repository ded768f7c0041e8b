package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cardmint/internal/config"
	"github.com/cardmint/internal/constants"

	"github.com/redis/go-redis/v9"
)

type handle struct {
	client *redis.Client
	prefix string
}

var (
	mu      sync.RWMutex
	current *handle
)

// InitRedis 按配置创建 Redis 客户端；未启用时缓存相关调用全部降级为空操作
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		swap(nil)
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	swap(&handle{client: client, prefix: normalizePrefix(cfg.Prefix)})
	return nil
}

// UseClient 注入外部客户端，传 nil 等同于禁用
func UseClient(client *redis.Client, prefix string) {
	if client == nil {
		swap(nil)
		return
	}
	swap(&handle{client: client, prefix: normalizePrefix(prefix)})
}

// Close 关闭并清空当前客户端
func Close() error {
	mu.Lock()
	h := current
	current = nil
	mu.Unlock()
	if h == nil {
		return nil
	}
	return h.client.Close()
}

// Ping 检查连通性，未启用时返回 nil
func Ping(ctx context.Context) error {
	h := snapshot()
	if h == nil {
		return nil
	}
	return h.client.Ping(ctx).Err()
}

// Enabled 是否已配置 Redis
func Enabled() bool {
	return snapshot() != nil
}

// Client 当前客户端，未启用时为 nil
func Client() *redis.Client {
	if h := snapshot(); h != nil {
		return h.client
	}
	return nil
}

// Key 拼接带前缀的 key；未启用时使用默认前缀
func Key(parts ...string) string {
	prefix := constants.RedisPrefixDefault
	if h := snapshot(); h != nil {
		prefix = h.prefix
	}
	return joinKey(prefix, parts...)
}

// GetJSON 读取 JSON 缓存，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	h := snapshot()
	if h == nil {
		return false, nil
	}
	raw, err := h.client.Get(ctx, joinKey(h.prefix, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	h := snapshot()
	if h == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return h.client.Set(ctx, joinKey(h.prefix, key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	h := snapshot()
	if h == nil {
		return nil
	}
	return h.client.Del(ctx, joinKey(h.prefix, key)).Err()
}

func snapshot() *handle {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func swap(next *handle) {
	mu.Lock()
	prev := current
	current = next
	mu.Unlock()
	if prev != nil && (next == nil || prev.client != next.client) {
		_ = prev.client.Close()
	}
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		return constants.RedisPrefixDefault
	}
	return prefix
}

func joinKey(prefix string, parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, prefix)
	for _, part := range parts {
		if part = strings.Trim(strings.TrimSpace(part), ":"); part != "" {
			segments = append(segments, part)
		}
	}
	return strings.Join(segments, ":")
}
