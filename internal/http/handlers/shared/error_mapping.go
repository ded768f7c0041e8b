package shared

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// RespondWithMappedError 按规则顺序匹配业务错误，未命中时使用兜底响应并记录原始错误。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	RespondWithMappedErrorData(c, err, rules, fallbackCode, fallbackKey, nil)
}

// RespondWithMappedErrorData 同 RespondWithMappedError，错误响应附带 data。
func RespondWithMappedErrorData(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string, data interface{}) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondErrorWithData(c, rule.Code, rule.Key, nil, data)
			return
		}
	}
	RespondErrorWithData(c, fallbackCode, fallbackKey, err, data)
}
