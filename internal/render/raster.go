package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// DefaultJPEGQuality JPEG 默认质量
const DefaultJPEGQuality = 90

// Rasterizer 将规范化后的 SVG 绘制为目标格式的位图
type Rasterizer interface {
	Rasterize(ctx context.Context, markup []byte, width, height int, format Format) ([]byte, error)
}

// VectorRasterizer 纯 Go SVG 栅格化实现
type VectorRasterizer struct {
	jpegQuality int
}

// NewVectorRasterizer 创建纯 Go 栅格化器
func NewVectorRasterizer(jpegQuality int) *VectorRasterizer {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &VectorRasterizer{jpegQuality: jpegQuality}
}

// Rasterize 解析 SVG 并绘制到与矢量图同尺寸的画布
func (r *VectorRasterizer) Rasterize(ctx context.Context, markup []byte, width, height int, format Format) ([]byte, error) {
	if len(markup) == 0 || width <= 0 || height <= 0 {
		return nil, ErrSurfaceMissing
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(markup), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("load svg failed: %w", err)
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	if format.Opaque() {
		draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	}
	scanner := rasterx.NewScannerGV(width, height, canvas, canvas.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)

	return EncodeImage(canvas, format, r.jpegQuality)
}

// EncodeImage 将画布编码为目标格式
func EncodeImage(img image.Image, format Format, jpegQuality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png failed: %w", err)
		}
	case FormatJPEG:
		if jpegQuality <= 0 || jpegQuality > 100 {
			jpegQuality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg failed: %w", err)
		}
	case FormatWEBP:
		if err := nativewebp.Encode(&buf, img, nil); err != nil {
			return nil, fmt.Errorf("encode webp failed: %w", err)
		}
	default:
		return nil, ErrUnsupportedFormat
	}
	return buf.Bytes(), nil
}

// flatten 合成到白色不透明背景
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}
