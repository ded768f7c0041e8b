package public

import (
	"strconv"
	"strings"

	handlershared "github.com/cardmint/internal/http/handlers/shared"
	"github.com/cardmint/internal/http/response"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetUserID(c)
}

func isAdmin(c *gin.Context) bool {
	return handlershared.IsAdmin(c)
}

func parseIDParam(c *gin.Context, name, invalidKey string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return uint(id), true
}
