package render

import "strings"

const (
	svgNamespace   = `xmlns="http://www.w3.org/2000/svg"`
	xlinkNamespace = `xmlns:xlink="http://www.w3.org/1999/xlink"`
)

// NormalizeNamespaces 为根 svg 元素补齐 SVG 与 xlink 命名空间声明
func NormalizeNamespaces(markup string) (string, error) {
	start := strings.Index(markup, "<svg")
	if start < 0 {
		return "", ErrSurfaceMissing
	}
	end := strings.Index(markup[start:], ">")
	if end < 0 {
		return "", ErrSurfaceMissing
	}
	end += start
	tag := markup[start:end]

	var inject []string
	if !strings.Contains(tag, "xmlns=") {
		inject = append(inject, svgNamespace)
	}
	if !strings.Contains(tag, "xmlns:xlink=") {
		inject = append(inject, xlinkNamespace)
	}
	if len(inject) == 0 {
		return markup, nil
	}

	insertAt := start + len("<svg")
	var b strings.Builder
	b.Grow(len(markup) + len(svgNamespace) + len(xlinkNamespace) + 2)
	b.WriteString(markup[:insertAt])
	for _, attr := range inject {
		b.WriteByte(' ')
		b.WriteString(attr)
	}
	b.WriteString(markup[insertAt:])
	return b.String(), nil
}
