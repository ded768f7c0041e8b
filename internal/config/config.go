package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cardmint/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Card     CardConfig     `mapstructure:"card"`
	Claim    ClaimConfig    `mapstructure:"claim"`
	Render   RenderConfig   `mapstructure:"render"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Output     string `mapstructure:"output"` // console / stdout / file，空值按 mode 推导
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Output:     c.Output,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	ClaimRateLimit RateLimitConfig `mapstructure:"claim_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// CardConfig 卡号分配配置
type CardConfig struct {
	MaxRangeSize int `mapstructure:"max_range_size"`
}

// ClaimConfig 领取配置
type ClaimConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	LinkTTLMinutes int    `mapstructure:"link_ttl_minutes"`
	LockTTLSeconds int    `mapstructure:"lock_ttl_seconds"`
}

// LinkTTL 领取链接有效期
func (c ClaimConfig) LinkTTL() time.Duration {
	if c.LinkTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.LinkTTLMinutes) * time.Minute
}

// LockTTL 领取互斥锁有效期
func (c ClaimConfig) LockTTL() time.Duration {
	if c.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// RenderConfig 图片渲染配置
type RenderConfig struct {
	Backend               string `mapstructure:"backend"` // vector / browser
	Size                  int    `mapstructure:"size"`
	JPEGQuality           int    `mapstructure:"jpeg_quality"`
	BrowserTimeoutSeconds int    `mapstructure:"browser_timeout_seconds"`
}

// BrowserTimeout 浏览器渲染超时
func (c RenderConfig) BrowserTimeout() time.Duration {
	if c.BrowserTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.BrowserTimeoutSeconds) * time.Second
}

// ExportConfig 批量导出配置
type ExportConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	Dir         string `mapstructure:"dir"`
	MaxItems    int    `mapstructure:"max_items"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "")
	v.SetDefault("log.output", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "cardmint.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/cardmint.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "cm")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.queues", map[string]int{
		"default": 10,
		"export":  3,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.claim_rate_limit.window_seconds", 60)
	v.SetDefault("security.claim_rate_limit.max_requests", 10)
	v.SetDefault("security.claim_rate_limit.block_seconds", 120)
	v.SetDefault("card.max_range_size", 10000)
	v.SetDefault("claim.base_url", "http://localhost:8080/claim")
	v.SetDefault("claim.link_ttl_minutes", 1440)
	v.SetDefault("claim.lock_ttl_seconds", 10)
	v.SetDefault("render.backend", "vector")
	v.SetDefault("render.size", 128)
	v.SetDefault("render.jpeg_quality", 90)
	v.SetDefault("render.browser_timeout_seconds", 15)
	v.SetDefault("export.concurrency", 0)
	v.SetDefault("export.dir", "./exports")
	v.SetDefault("export.max_items", 10000)
}
