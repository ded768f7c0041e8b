package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/cardmint/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	LocaleZH = "zh-CN"
	LocaleTW = "zh-TW"
	LocaleEN = "en-US"

	// DefaultLocale 未识别语言时的回退语言
	DefaultLocale = LocaleZH
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	loadOnce sync.Once
	catalog  map[string]map[string]string
)

func load() {
	catalog = make(map[string]map[string]string)
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		logger.Errorw("i18n_catalog_read_failed", "error", err)
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		raw, err := localeFS.ReadFile(path.Join("locales", name))
		if err != nil {
			logger.Errorw("i18n_locale_read_failed", "file", name, "error", err)
			continue
		}
		messages := make(map[string]string)
		if err := json.Unmarshal(raw, &messages); err != nil {
			logger.Errorw("i18n_locale_parse_failed", "file", name, "error", err)
			continue
		}
		catalog[strings.TrimSuffix(name, ".json")] = messages
	}
}

// NormalizeLocale 将任意语言标识归一到已支持的语言
func NormalizeLocale(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "":
		return DefaultLocale
	case strings.HasPrefix(value, "zh-tw"), strings.HasPrefix(value, "zh-hk"), strings.HasPrefix(value, "zh-hant"):
		return LocaleTW
	case strings.HasPrefix(value, "zh"):
		return LocaleZH
	case strings.HasPrefix(value, "en"):
		return LocaleEN
	default:
		return DefaultLocale
	}
}

// ResolveLocale 从请求解析语言：lang 查询参数优先，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return DefaultLocale
	}
	first := strings.Split(header, ",")[0]
	first = strings.Split(first, ";")[0]
	return NormalizeLocale(first)
}

// T 翻译消息，缺失时依次回退默认语言与 key 本身
func T(locale, key string) string {
	loadOnce.Do(load)
	if messages, ok := catalog[NormalizeLocale(locale)]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if messages, ok := catalog[DefaultLocale]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	return key
}

// Sprintf 翻译后按参数格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
