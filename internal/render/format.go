package render

import (
	"errors"
	"strings"
)

// Format 输出图片格式
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWEBP Format = "webp"
)

var ErrUnsupportedFormat = errors.New("unsupported artifact format")

// ParseFormat 解析格式字符串，空值默认 PNG
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWEBP, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Extension 归档文件扩展名
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatWEBP:
		return "webp"
	default:
		return "png"
	}
}

// MIME 对应的 MIME 类型
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWEBP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Opaque 目标格式是否不支持透明通道
func (f Format) Opaque() bool {
	return f == FormatJPEG
}
