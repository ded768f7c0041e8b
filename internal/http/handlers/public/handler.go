package public

import "github.com/cardmint/internal/provider"

// Handler 领取人侧接口，所有方法都要求已鉴权身份
type Handler struct {
	*provider.Container
}

// New 创建领取人侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
