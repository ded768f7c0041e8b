package render

import (
	"context"
	"strings"
	"time"
)

const (
	BackendVector  = "vector"
	BackendBrowser = "browser"
)

// Options 渲染配置
type Options struct {
	Backend        string
	Size           int
	JPEGQuality    int
	BrowserTimeout time.Duration
}

// Renderer 卡号图片渲染器：编码 → 规范化 → 栅格化 → 导出
type Renderer struct {
	encoder    *Encoder
	rasterizer Rasterizer
}

// New 创建渲染器
func New(encoder *Encoder, rasterizer Rasterizer) *Renderer {
	if encoder == nil {
		encoder = NewEncoder(DefaultSize)
	}
	if rasterizer == nil {
		rasterizer = NewVectorRasterizer(DefaultJPEGQuality)
	}
	return &Renderer{encoder: encoder, rasterizer: rasterizer}
}

// NewFromOptions 按配置选择栅格化后端
func NewFromOptions(opts Options) *Renderer {
	encoder := NewEncoder(opts.Size)
	var rasterizer Rasterizer
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendBrowser:
		rasterizer = NewBrowserRasterizer(opts.BrowserTimeout, opts.JPEGQuality)
	default:
		rasterizer = NewVectorRasterizer(opts.JPEGQuality)
	}
	return New(encoder, rasterizer)
}

// Encoder 返回矢量编码器
func (r *Renderer) Encoder() *Encoder {
	return r.encoder
}

// Prepare 将载荷编码为矢量图
func (r *Renderer) Prepare(payload string) (Surface, error) {
	return r.encoder.Encode(payload)
}

// Render 渲染单个载荷
func (r *Renderer) Render(ctx context.Context, payload string, format Format) ([]byte, error) {
	surface, err := r.encoder.Encode(payload)
	if err != nil {
		return nil, err
	}
	return r.RenderSurface(ctx, surface, format)
}

// RenderSurface 栅格化已编码的矢量图
func (r *Renderer) RenderSurface(ctx context.Context, surface Surface, format Format) ([]byte, error) {
	if surface.Empty() {
		return nil, ErrSurfaceMissing
	}
	switch format {
	case FormatPNG, FormatJPEG, FormatWEBP:
	default:
		return nil, ErrUnsupportedFormat
	}
	markup, err := NormalizeNamespaces(surface.Markup)
	if err != nil {
		return nil, err
	}
	return r.rasterizer.Rasterize(ctx, []byte(markup), surface.Width, surface.Height, format)
}

// Close 释放栅格化后端持有的资源
func (r *Renderer) Close() {
	if closer, ok := r.rasterizer.(interface{ Close() }); ok {
		closer.Close()
	}
}
