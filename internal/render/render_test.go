package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

type recordingRasterizer struct {
	markup string
	width  int
	height int
	format Format
}

func (r *recordingRasterizer) Rasterize(_ context.Context, markup []byte, width, height int, format Format) ([]byte, error) {
	r.markup = string(markup)
	r.width = width
	r.height = height
	r.format = format
	return []byte("ok"), nil
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		raw  string
		want Format
		ext  string
		mime string
	}{
		{"", FormatPNG, "png", "image/png"},
		{"PNG", FormatPNG, "png", "image/png"},
		{"jpg", FormatJPEG, "jpg", "image/jpeg"},
		{"jpeg", FormatJPEG, "jpg", "image/jpeg"},
		{" webp ", FormatWEBP, "webp", "image/webp"},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.raw)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.raw, err)
		}
		if got != tc.want || got.Extension() != tc.ext || got.MIME() != tc.mime {
			t.Fatalf("parse %q got %s/%s/%s", tc.raw, got, got.Extension(), got.MIME())
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("gif want ErrUnsupportedFormat got %v", err)
	}
}

func TestNormalizeNamespaces(t *testing.T) {
	got, err := NormalizeNamespaces(`<svg width="10" height="10"><path d="M0 0h1v1h-1z"/></svg>`)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !strings.HasPrefix(got, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="10"`) {
		t.Fatalf("unexpected normalized markup: %s", got)
	}

	again, err := NormalizeNamespaces(got)
	if err != nil {
		t.Fatalf("normalize twice failed: %v", err)
	}
	if again != got {
		t.Fatalf("normalize should be idempotent:\n%s\n%s", got, again)
	}

	partial, err := NormalizeNamespaces(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	if err != nil {
		t.Fatalf("normalize partial failed: %v", err)
	}
	if strings.Count(partial, "xmlns=") != 1 || !strings.Contains(partial, "xmlns:xlink=") {
		t.Fatalf("partial namespaces not completed: %s", partial)
	}

	if _, err := NormalizeNamespaces("<div></div>"); !errors.Is(err, ErrSurfaceMissing) {
		t.Fatalf("missing svg want ErrSurfaceMissing got %v", err)
	}
}

func TestEncoderEncode(t *testing.T) {
	encoder := NewEncoder(128)
	surface, err := encoder.Encode("https://cards.example.com/claim/abc")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if surface.Width != 128 || surface.Height != 128 {
		t.Fatalf("surface size want 128 got %dx%d", surface.Width, surface.Height)
	}
	if strings.Contains(surface.Markup, "xmlns") {
		t.Fatalf("encoder should leave namespaces to the normalizer")
	}
	if !strings.Contains(surface.Markup, `<path fill="#000000" d="M`) {
		t.Fatalf("markup has no modules: %s", surface.Markup)
	}

	if _, err := encoder.Encode("   "); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("blank payload want ErrEmptyPayload got %v", err)
	}
}

func TestNewEncoderClampsSize(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultSize},
		{in: -5, want: DefaultSize},
		{in: 1, want: MinSize},
		{in: 32, want: MinSize},
		{in: 120, want: 120},
		{in: 2048, want: MaxSize},
	}
	for _, tc := range cases {
		if got := NewEncoder(tc.in).Size(); got != tc.want {
			t.Fatalf("size %d: want %d got %d", tc.in, tc.want, got)
		}
	}
}

func TestRendererPassesNormalizedMarkup(t *testing.T) {
	rec := &recordingRasterizer{}
	renderer := New(NewEncoder(120), rec)
	out, err := renderer.Render(context.Background(), "payload-1", FormatWEBP)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if string(out) != "ok" {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(rec.markup, svgNamespace) || !strings.Contains(rec.markup, xlinkNamespace) {
		t.Fatalf("rasterizer received markup without namespaces: %s", rec.markup)
	}
	if rec.width != 120 || rec.height != 120 || rec.format != FormatWEBP {
		t.Fatalf("unexpected rasterize args %dx%d %s", rec.width, rec.height, rec.format)
	}

	if _, err := renderer.RenderSurface(context.Background(), Surface{}, FormatPNG); !errors.Is(err, ErrSurfaceMissing) {
		t.Fatalf("empty surface want ErrSurfaceMissing got %v", err)
	}
	if _, err := renderer.Render(context.Background(), "payload-1", Format("bmp")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("bmp want ErrUnsupportedFormat got %v", err)
	}
}

func TestVectorRendererPNGIsTransparent(t *testing.T) {
	renderer := New(NewEncoder(128), NewVectorRasterizer(0))
	out, err := renderer.Render(context.Background(), "card-payload-png", FormatPNG)
	if err != nil {
		t.Fatalf("render png failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode png failed: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 128, 128) {
		t.Fatalf("png bounds want 128x128 got %v", img.Bounds())
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("quiet zone should be transparent in png, alpha=%d", a)
	}
	if !hasDarkPixel(img) {
		t.Fatalf("png has no dark modules")
	}
}

func TestVectorRendererJPEGHasWhiteBackground(t *testing.T) {
	renderer := New(NewEncoder(128), NewVectorRasterizer(95))
	out, err := renderer.Render(context.Background(), "card-payload-jpeg", FormatJPEG)
	if err != nil {
		t.Fatalf("render jpeg failed: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode jpeg failed: %v", err)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if r < 0xf000 || g < 0xf000 || b < 0xf000 {
		t.Fatalf("jpeg background should be white, got %d/%d/%d", r, g, b)
	}
	if !hasDarkPixel(img) {
		t.Fatalf("jpeg has no dark modules")
	}
}

func TestVectorRendererWEBP(t *testing.T) {
	renderer := New(NewEncoder(128), NewVectorRasterizer(0))
	out, err := renderer.Render(context.Background(), "card-payload-webp", FormatWEBP)
	if err != nil {
		t.Fatalf("render webp failed: %v", err)
	}
	if len(out) < 12 || string(out[0:4]) != "RIFF" || string(out[8:12]) != "WEBP" {
		t.Fatalf("output is not a webp container")
	}
}

func TestVectorRasterizerHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewVectorRasterizer(0).Rasterize(ctx, []byte(`<svg></svg>`), 10, 10, FormatPNG)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got %v", err)
	}
}

func TestBuildRasterizeExpr(t *testing.T) {
	expr, err := buildRasterizeExpr(`<svg a="1"></svg>`, 128, 96, FormatJPEG, 80)
	if err != nil {
		t.Fatalf("build expr failed: %v", err)
	}
	if !strings.Contains(expr, `"<svg a=\"1\"></svg>", 128, 96, "image/jpeg", 0.80, true)`) {
		t.Fatalf("unexpected expr tail: %s", expr[len(expr)-120:])
	}
	if !strings.Contains(expr, "URL.revokeObjectURL(url)") {
		t.Fatalf("object url must be revoked after load")
	}

	pngExpr, err := buildRasterizeExpr(`<svg></svg>`, 10, 10, FormatPNG, 80)
	if err != nil {
		t.Fatalf("build png expr failed: %v", err)
	}
	if !strings.HasSuffix(pngExpr, `"image/png", undefined, false)`) {
		t.Fatalf("unexpected png expr tail: %s", pngExpr[len(pngExpr)-60:])
	}
}

func TestDecodeDataURL(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	got, err := decodeDataURL("data:image/png;base64,"+base64.StdEncoding.EncodeToString(raw), FormatPNG)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("decoded bytes mismatch")
	}
	if _, err := decodeDataURL("data:image/png;base64,AAAA", FormatWEBP); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("format fallback want ErrUnsupportedFormat got %v", err)
	}
}

func hasDarkPixel(img image.Image) bool {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a > 0x8000 && (r+g+b)/3 < 0x4000 {
				return true
			}
		}
	}
	return false
}
