package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const defaultBrowserTimeout = 15 * time.Second

// rasterizeScript 通过 object URL 加载 SVG，绘制到 canvas 后导出 data URL。
// object URL 在图片加载完成（或失败）后立即释放。
const rasterizeScript = `(async (svg, width, height, mime, quality, opaque) => {
	const blob = new Blob([svg], { type: "image/svg+xml;charset=utf-8" });
	const url = URL.createObjectURL(blob);
	const img = await new Promise((resolve, reject) => {
		const el = new Image();
		el.onload = () => { URL.revokeObjectURL(url); resolve(el); };
		el.onerror = () => { URL.revokeObjectURL(url); reject(new Error("svg image load failed")); };
		el.src = url;
	});
	const canvas = document.createElement("canvas");
	canvas.width = width;
	canvas.height = height;
	const ctx = canvas.getContext("2d");
	if (opaque) {
		ctx.fillStyle = "#ffffff";
		ctx.fillRect(0, 0, width, height);
	}
	ctx.drawImage(img, 0, 0, width, height);
	return canvas.toDataURL(mime, quality);
})(%s, %d, %d, %s, %s, %t)`

var ErrBrowserUnavailable = errors.New("headless browser unavailable")

// BrowserRasterizer 基于无头 Chrome 的栅格化实现
type BrowserRasterizer struct {
	timeout     time.Duration
	jpegQuality int

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// NewBrowserRasterizer 创建浏览器栅格化器，浏览器在首次使用时启动
func NewBrowserRasterizer(timeout time.Duration, jpegQuality int) *BrowserRasterizer {
	if timeout <= 0 {
		timeout = defaultBrowserTimeout
	}
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &BrowserRasterizer{timeout: timeout, jpegQuality: jpegQuality}
}

// Rasterize 在独立标签页中完成一次栅格化
func (r *BrowserRasterizer) Rasterize(ctx context.Context, markup []byte, width, height int, format Format) ([]byte, error) {
	if len(markup) == 0 || width <= 0 || height <= 0 {
		return nil, ErrSurfaceMissing
	}
	browserCtx, err := r.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	expr, err := buildRasterizeExpr(string(markup), width, height, format, r.jpegQuality)
	if err != nil {
		return nil, err
	}

	var dataURL string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.Evaluate(expr, &dataURL, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("browser rasterize failed: %w", err)
	}
	return decodeDataURL(dataURL, format)
}

// Close 关闭浏览器进程
func (r *BrowserRasterizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelBrowser != nil {
		r.cancelBrowser()
	}
	if r.cancelAlloc != nil {
		r.cancelAlloc()
	}
	r.browserCtx = nil
	r.cancelBrowser = nil
	r.cancelAlloc = nil
}

func (r *BrowserRasterizer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browserCtx != nil && r.browserCtx.Err() == nil {
		return r.browserCtx, nil
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}
	r.browserCtx = browserCtx
	r.cancelAlloc = cancelAlloc
	r.cancelBrowser = cancelBrowser
	return browserCtx, nil
}

func buildRasterizeExpr(markup string, width, height int, format Format, jpegQuality int) (string, error) {
	svgArg, err := jsString(markup)
	if err != nil {
		return "", err
	}
	mimeArg, err := jsString(format.MIME())
	if err != nil {
		return "", err
	}
	quality := "undefined"
	if format == FormatJPEG {
		quality = fmt.Sprintf("%.2f", float64(jpegQuality)/100)
	}
	return fmt.Sprintf(rasterizeScript, svgArg, width, height, mimeArg, quality, format.Opaque()), nil
}

func jsString(value string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decodeDataURL(dataURL string, format Format) ([]byte, error) {
	prefix := "data:" + format.MIME() + ";base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		// 浏览器不支持目标格式时会回退为 PNG
		return nil, fmt.Errorf("%w: browser returned %.32q", ErrUnsupportedFormat, dataURL)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		return nil, fmt.Errorf("decode data url failed: %w", err)
	}
	return raw, nil
}
