package model

import "time"

// UsageLog 网关请求流水
// 限流窗口计数直接对这张表做 count，所以不走软删除，created_at 必须有索引
type UsageLog struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	APIKeyID int64 `gorm:"index;not null;comment:关联的APIKey"`

	Endpoint   string `gorm:"size:255;comment:请求资源路径"`
	Method     string `gorm:"size:10"`
	StatusCode int    `gorm:"comment:最终响应状态码"`
	LatencyMs  int64  `gorm:"comment:耗时(毫秒)"`

	IPAddress string `gorm:"size:64"`
	UserAgent string `gorm:"size:512"`
}

func (UsageLog) TableName() string {
	return "usage_logs"
}
