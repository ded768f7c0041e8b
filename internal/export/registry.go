package export

import (
	"sync"

	"github.com/cardmint/internal/render"
)

// SurfaceRegistry 单次导出内 卡号 → 矢量图 的映射
// 每个卡号写入一次、读取一次，导出结束后整体丢弃。
type SurfaceRegistry struct {
	mu       sync.Mutex
	surfaces map[string]render.Surface
}

// NewSurfaceRegistry 创建注册表
func NewSurfaceRegistry(capacity int) *SurfaceRegistry {
	if capacity < 0 {
		capacity = 0
	}
	return &SurfaceRegistry{surfaces: make(map[string]render.Surface, capacity)}
}

// Register 登记矢量图，重复登记返回 false
func (r *SurfaceRegistry) Register(code string, surface render.Surface) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surfaces[code]; ok {
		return false
	}
	r.surfaces[code] = surface
	return true
}

// Take 取出并移除矢量图
func (r *SurfaceRegistry) Take(code string) (render.Surface, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	surface, ok := r.surfaces[code]
	if ok {
		delete(r.surfaces, code)
	}
	return surface, ok
}

// Len 当前未被取出的数量
func (r *SurfaceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.surfaces)
}
