package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const (
	// DefaultSize 矢量图逻辑尺寸
	DefaultSize = 128
	MinSize     = 100
	MaxSize     = 150
	quietZone   = 4
)

var (
	ErrEmptyPayload   = errors.New("renderable payload is empty")
	ErrSurfaceMissing = errors.New("vector surface is missing")
)

// Surface 单个卡号对应的矢量图
type Surface struct {
	Markup string
	Width  int
	Height int
}

// Empty 是否为空
func (s Surface) Empty() bool {
	return strings.TrimSpace(s.Markup) == "" || s.Width <= 0 || s.Height <= 0
}

// Encoder 将载荷编码为二维码矢量图
type Encoder struct {
	size  int
	level qr.ErrorCorrectionLevel
}

// NewEncoder 创建编码器，size 未设置时取默认值，超出范围时收敛到 [MinSize, MaxSize]
func NewEncoder(size int) *Encoder {
	switch {
	case size <= 0:
		size = DefaultSize
	case size < MinSize:
		size = MinSize
	case size > MaxSize:
		size = MaxSize
	}
	return &Encoder{size: size, level: qr.M}
}

// Size 逻辑尺寸
func (e *Encoder) Size() int {
	return e.size
}

// Encode 生成二维码 SVG
// 输出不含命名空间声明，由 NormalizeNamespaces 统一补齐。
func (e *Encoder) Encode(payload string) (Surface, error) {
	if strings.TrimSpace(payload) == "" {
		return Surface{}, ErrEmptyPayload
	}
	code, err := qr.Encode(payload, e.level, qr.Auto)
	if err != nil {
		return Surface{}, fmt.Errorf("encode qr failed: %w", err)
	}
	return Surface{
		Markup: buildMarkup(code, e.size),
		Width:  e.size,
		Height: e.size,
	}, nil
}

func buildMarkup(code barcode.Barcode, size int) string {
	bounds := code.Bounds()
	modules := bounds.Dx()
	viewBox := modules + quietZone*2

	var path strings.Builder
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !isDark(code, x, y) {
				continue
			}
			fmt.Fprintf(&path, "M%d %dh1v1h-1z", x-bounds.Min.X+quietZone, y-bounds.Min.Y+quietZone)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, size, size, viewBox, viewBox)
	fmt.Fprintf(&b, `<path fill="#000000" d="%s"/>`, path.String())
	b.WriteString(`</svg>`)
	return b.String()
}

func isDark(code barcode.Barcode, x, y int) bool {
	r, g, bl, a := code.At(x, y).RGBA()
	if a == 0 {
		return false
	}
	return (r+g+bl)/3 < 0x8000
}
