package shared

import (
	"github.com/cardmint/internal/http/response"
	"github.com/cardmint/internal/i18n"
	"github.com/cardmint/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 携带 request_id 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString("request_id"); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 按请求语言翻译 key 后返回错误；err 非空时记录原始错误
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithData(c, code, key, err, nil)
}

// RespondErrorWithData 同 RespondError，响应附带 data
func RespondErrorWithData(c *gin.Context, code int, key string, err error, data interface{}) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"key", key,
			"path", c.FullPath(),
			"error", err,
		)
	}
	response.ErrorWithData(c, code, msg, data)
}
