package admin

import "github.com/cardmint/internal/provider"

// Handler 管理端接口，路由层已保证身份为管理员
type Handler struct {
	*provider.Container
}

// New 创建管理端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
