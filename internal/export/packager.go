package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cardmint/internal/cardcode"
	"github.com/cardmint/internal/logger"
	"github.com/cardmint/internal/render"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"
)

const (
	SkipReasonInvalidCode    = "invalid_code"
	SkipReasonDuplicate      = "duplicate"
	SkipReasonPayloadMissing = "payload_missing"
	SkipReasonCanceled       = "canceled"
	SkipReasonPanic          = "panic"
)

var ErrEmptyExport = errors.New("export produced no artifacts")

// ArtifactRenderer 打包器依赖的渲染能力
type ArtifactRenderer interface {
	Prepare(payload string) (render.Surface, error)
	RenderSurface(ctx context.Context, surface render.Surface, format render.Format) ([]byte, error)
}

// Item 待导出的卡号
type Item struct {
	Code    string
	Payload string
}

// SkippedItem 被跳过的卡号及原因
type SkippedItem struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Options 打包选项
type Options struct {
	Concurrency     int
	RequireNonEmpty bool
}

// Result 打包结果
type Result struct {
	Archive []byte
	Format  render.Format
	Entries int
	Names   []string
	Skipped []SkippedItem
}

// Packager 批量渲染并打包为 zip
type Packager struct {
	renderer    ArtifactRenderer
	concurrency int
}

// NewPackager 创建打包器，concurrency <= 0 时使用 CPU 核数
func NewPackager(renderer ArtifactRenderer, concurrency int) *Packager {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Packager{renderer: renderer, concurrency: concurrency}
}

// EntryName 归档内文件名
func EntryName(code string, format render.Format) string {
	return code + "." + format.Extension()
}

type collector struct {
	mu      sync.Mutex
	entries map[string][]byte
	skipped []SkippedItem
}

func (c *collector) add(name string, blob []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = blob
}

func (c *collector) skip(code, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped = append(c.skipped, SkippedItem{Code: code, Reason: reason})
}

// Package 并发渲染所有卡号，单项失败只跳过该项
func (p *Packager) Package(ctx context.Context, items []Item, format render.Format, opts Options) (*Result, error) {
	switch format {
	case render.FormatPNG, render.FormatJPEG, render.FormatWEBP:
	default:
		return nil, render.ErrUnsupportedFormat
	}
	if p.renderer == nil {
		return nil, errors.New("export renderer is nil")
	}

	out := &collector{entries: make(map[string][]byte, len(items))}
	registry := NewSurfaceRegistry(len(items))
	prepareErrs := make(map[string]error)
	pending := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		code := strings.TrimSpace(item.Code)
		if !cardcode.IsValidCode(code) {
			out.skip(code, SkipReasonInvalidCode)
			continue
		}
		if _, ok := seen[code]; ok {
			out.skip(code, SkipReasonDuplicate)
			continue
		}
		seen[code] = struct{}{}
		pending = append(pending, code)

		payload := strings.TrimSpace(item.Payload)
		if payload == "" {
			continue
		}
		surface, err := p.renderer.Prepare(payload)
		if err != nil {
			prepareErrs[code] = err
			continue
		}
		registry.Register(code, surface)
	}

	concurrency := p.concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}
	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, code := range pending {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorw("export_item_panic", "code", code, "panic", r)
					out.skip(code, SkipReasonPanic)
				}
			}()
			if ctx.Err() != nil {
				out.skip(code, SkipReasonCanceled)
				return nil
			}
			surface, ok := registry.Take(code)
			if !ok {
				reason := SkipReasonPayloadMissing
				if prepErr, failed := prepareErrs[code]; failed {
					reason = prepErr.Error()
				}
				out.skip(code, reason)
				return nil
			}
			blob, renderErr := p.renderer.RenderSurface(ctx, surface, format)
			if renderErr != nil {
				out.skip(code, renderErr.Error())
				return nil
			}
			out.add(EntryName(code, format), blob)
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range out.skipped {
		logger.Warnw("export_item_skipped", "code", item.Code, "reason", item.Reason)
	}
	sort.Slice(out.skipped, func(i, j int) bool {
		return out.skipped[i].Code < out.skipped[j].Code
	})

	archive, names, err := buildArchive(out.entries, time.Now())
	if err != nil {
		return nil, err
	}
	result := &Result{
		Archive: archive,
		Format:  format,
		Entries: len(names),
		Names:   names,
		Skipped: out.skipped,
	}
	if result.Entries == 0 && opts.RequireNonEmpty {
		return result, ErrEmptyExport
	}
	return result, nil
}

// buildArchive 生成扁平 zip，无目录与清单文件
func buildArchive(entries map[string][]byte, modified time.Time) ([]byte, []string, error) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := writer.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			_ = writer.Close()
			return nil, nil, fmt.Errorf("create zip entry %s failed: %w", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			_ = writer.Close()
			return nil, nil, fmt.Errorf("write zip entry %s failed: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, nil, fmt.Errorf("close zip failed: %w", err)
	}
	return buf.Bytes(), names, nil
}
