package constants

// 卡片类型常量
const (
	CardTypeNormal  = "normal"
	CardTypeSpecial = "special"
)

// 领取链接状态常量
const (
	ClaimLinkStatusActive   = "active"
	ClaimLinkStatusConsumed = "consumed"
	ClaimLinkStatusRevoked  = "revoked"
)

// 导出任务状态常量
const (
	ExportJobStatusPending = "pending"
	ExportJobStatusRunning = "running"
	ExportJobStatusDone    = "done"
	ExportJobStatusFailed  = "failed"
)

// 渲染后端常量
const (
	RenderBackendVector  = "vector"
	RenderBackendBrowser = "browser"
)

// 队列常量
const (
	QueueDefault   = "default"
	QueueExport    = "export"
	TaskCardExport = "card:export"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "cm"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleZhTW = "zh-TW"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleZhTW, LocaleEnUS}

// 上下文键常量
const (
	ContextKeyUserID  = "user_id"
	ContextKeyIsAdmin = "is_admin"
)
