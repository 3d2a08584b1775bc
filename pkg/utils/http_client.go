package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewAPIClient 创建统一配置的 Resty 客户端
// 上游 SMM 面板和告警投递共用这套超时/UA 设置
func NewAPIClient(timeout time.Duration) *resty.Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Panel-Gateway/1.0")
}
