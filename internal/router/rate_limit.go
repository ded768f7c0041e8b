package router

import (
	"fmt"
	"strings"

	"github.com/cardmint/internal/constants"
	"github.com/cardmint/internal/http/response"
	"github.com/cardmint/internal/i18n"
	"github.com/cardmint/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流主体标识
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则；BlockSeconds > 0 时超限后额外封禁
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// KEYS[1] 计数 key，KEYS[2] 封禁 key
// 返回 {count, ttl}；count 为 -1 表示处于封禁期
var windowScript = redis.NewScript(`
local blocked = redis.call("TTL", KEYS[2])
if blocked > 0 then
	return {-1, blocked}
end
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
local block = tonumber(ARGV[3])
if current > tonumber(ARGV[2]) and block > 0 then
	redis.call("SET", KEYS[2], "1", "EX", block)
	ttl = block
end
return {current, ttl}
`)

type windowState struct {
	count   int64
	ttl     int64
	blocked bool
}

// RateLimitMiddleware 基于 Redis 的领取频率限制，未配置 Redis 时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}

		subject := ""
		if keyFunc != nil {
			subject = strings.TrimSpace(keyFunc(c))
		}
		if subject == "" {
			subject = c.ClientIP()
		}
		key := subject
		if rule.Prefix != "" {
			key = rule.Prefix + ":" + subject
		}

		raw, err := windowScript.Run(c.Request.Context(), client,
			[]string{key, key + ":block"},
			rule.WindowSeconds, rule.MaxRequests, rule.BlockSeconds,
		).Result()
		state, ok := decodeWindow(raw)
		if err != nil || !ok {
			logger.Warnw("rate_limit_unavailable", "key", key, "error", err)
			response.Error(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable"))
			c.Abort()
			return
		}

		if state.blocked || state.count > int64(rule.MaxRequests) {
			wait := state.ttl
			if wait < 1 {
				wait = int64(rule.WindowSeconds)
			}
			msgKey := strings.TrimSpace(rule.MessageKey)
			if msgKey == "" {
				msgKey = "error.rate_limited"
			}
			logger.Infow("rate_limit_rejected", "key", key, "blocked", state.blocked, "retry_after", wait)
			response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), msgKey, wait))
			c.Abort()
			return
		}
		c.Next()
	}
}

func decodeWindow(raw interface{}) (windowState, bool) {
	values, ok := raw.([]interface{})
	if !ok || len(values) < 2 {
		return windowState{}, false
	}
	count, ok := values[0].(int64)
	if !ok {
		return windowState{}, false
	}
	ttl, _ := values[1].(int64)
	if count < 0 {
		return windowState{ttl: ttl, blocked: true}, true
	}
	return windowState{count: count, ttl: ttl}, true
}

// KeyByIP 按客户端 IP 限流
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUserID 按已鉴权身份限流，未鉴权时回退到 IP
func KeyByUserID(c *gin.Context) string {
	if value, ok := c.Get(constants.ContextKeyUserID); ok {
		if id, ok := value.(uint); ok && id > 0 {
			return fmt.Sprintf("user:%d", id)
		}
	}
	return c.ClientIP()
}
