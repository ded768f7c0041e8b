package shared

import (
	"github.com/cardmint/internal/constants"
	"github.com/cardmint/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		if v == 0 {
			RespondError(c, response.CodeUnauthorized, invalidKey, nil)
			return 0, false
		}
		return v, true
	case int:
		if v <= 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v <= 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
}

// GetUserID 读取当前身份 ID。
func GetUserID(c *gin.Context) (uint, bool) {
	return GetContextUintWithKeys(c, constants.ContextKeyUserID, "error.user_id_invalid", "error.user_id_type_invalid")
}

// IsAdmin 当前身份是否为管理员。
func IsAdmin(c *gin.Context) bool {
	value, ok := c.Get(constants.ContextKeyIsAdmin)
	if !ok {
		return false
	}
	flag, ok := value.(bool)
	return ok && flag
}
