package model

import (
	"strings"
	"time"
)

// ==================== Key 类型常量 ====================

// APIKeyType 租户类型，决定 key 能看到哪一片商品/接口
type APIKeyType string

const (
	APIKeyTypePremium     APIKeyType = "premium"      // 高级账号商品
	APIKeyTypeGameAccount APIKeyType = "game_account" // 游戏账号商品
	APIKeyTypeGameTopup   APIKeyType = "game_topup"   // 游戏充值商品
	APIKeyTypeSMM         APIKeyType = "smm"          // SMM 面板转售
)

// StyleFilter 由 key 类型推导商品 style 过滤值
// 未知类型返回空串，表示不过滤（而不是静默隐藏全部商品）
func (t APIKeyType) StyleFilter() string {
	switch t {
	case APIKeyTypePremium:
		return "premium"
	case APIKeyTypeGameAccount:
		return "game_account"
	case APIKeyTypeGameTopup:
		return "game_topup"
	default:
		return ""
	}
}

// ==================== 审批状态常量 ====================

const (
	APIKeyStatusPending  = "pending"  // 待审批
	APIKeyStatusApproved = "approved" // 已审批
	APIKeyStatusRejected = "rejected" // 已拒绝
)

// 限流默认值
const (
	DefaultRateLimitPerMinute = 60
	DefaultRateLimitPerDay    = 10000
)

// ==================== APIKey ====================

// APIKey 租户接入凭证，每行对应一个外部调用方
type APIKey struct {
	BaseModel

	Key    string `gorm:"size:128;uniqueIndex;not null;comment:密钥串" json:"-"`
	UserID int64  `gorm:"index;not null;comment:归属用户ID" json:"user_id"`
	Name   string `gorm:"size:100;comment:易读名称" json:"name"`

	Type   APIKeyType `gorm:"size:32;index;default:premium;comment:租户类型" json:"type"`
	Status string     `gorm:"size:20;index;default:pending;comment:审批状态" json:"status"`

	// 不带列默认值：带 default 标签时 GORM 会把零值 false 从 INSERT 里
	// 剔掉、回填成 true，停用状态就写不进去了
	IsActive bool `json:"is_active"`

	// 限流配置，0 表示使用默认值
	RateLimitPerMinute int `gorm:"default:0" json:"rate_limit_per_minute"`
	RateLimitPerDay    int `gorm:"default:0" json:"rate_limit_per_day"`

	// IP 白名单，逗号分隔；空串表示不限制
	AllowedIPs string `gorm:"size:1024" json:"allowed_ips"`

	// 使用统计，每次成功鉴权后更新
	LastUsedAt   *time.Time `gorm:"comment:最后使用时间" json:"last_used_at"`
	RequestCount int64      `gorm:"default:0;comment:累计请求数" json:"request_count"`
}

func (APIKey) TableName() string {
	return "api_keys"
}

// Usable 仅 active 且已审批的 key 允许鉴权通过
func (k *APIKey) Usable() bool {
	return k.IsActive && k.Status == APIKeyStatusApproved
}

// MinuteLimit 每分钟限额（未配置时取默认值）
func (k *APIKey) MinuteLimit() int {
	if k.RateLimitPerMinute > 0 {
		return k.RateLimitPerMinute
	}
	return DefaultRateLimitPerMinute
}

// DayLimit 每日限额（未配置时取默认值）
func (k *APIKey) DayLimit() int {
	if k.RateLimitPerDay > 0 {
		return k.RateLimitPerDay
	}
	return DefaultRateLimitPerDay
}

// AllowedIPList 解析白名单，逐项去空格，过滤空项
func (k *APIKey) AllowedIPList() []string {
	if strings.TrimSpace(k.AllowedIPs) == "" {
		return nil
	}
	parts := strings.Split(k.AllowedIPs, ",")
	ips := make([]string, 0, len(parts))
	for _, p := range parts {
		if ip := strings.TrimSpace(p); ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

// IPAllowed 白名单为空时放行所有来源
func (k *APIKey) IPAllowed(ip string) bool {
	list := k.AllowedIPList()
	if len(list) == 0 {
		return true
	}
	for _, allowed := range list {
		if allowed == ip {
			return true
		}
	}
	return false
}
