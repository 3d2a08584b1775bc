package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"panel_api_v1_202608/internal/model"
)

// ==================== 配置 ====================

// NotifyConfig 告警投递配置
type NotifyConfig struct {
	// WebhookURL 通知函数入口，空串表示告警功能关闭
	WebhookURL string
	Timeout    time.Duration
}

// ==================== 服务实现 ====================

// NotifyService 用量告警投递
// 投递失败只记日志：告警是尽力而为的旁路，绝不影响请求主链路
type NotifyService struct {
	config *NotifyConfig
	client *resty.Client
	logger *zap.Logger
}

// NewNotifyService 创建告警服务
func NewNotifyService(config *NotifyConfig, client *resty.Client, logger *zap.Logger) *NotifyService {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &NotifyService{
		config: config,
		client: client,
		logger: logger,
	}
}

// usageWarningPayload 告警消息体
type usageWarningPayload struct {
	APIKeyID   int64  `json:"api_key_id"`
	KeyName    string `json:"key_name"`
	UserID     int64  `json:"user_id"`
	Percent    int    `json:"percent"`
	DayUsage   int64  `json:"day_usage"`
	DayLimit   int    `json:"day_limit"`
	Subject    string `json:"subject"`
	BodyHTML   string `json:"body_html"`
	OccurredAt string `json:"occurred_at"`
}

// SendUsageWarningDetached 异步投递用量告警
// 调用方发出即返回，结果不回传；goroutine 自带超时上下文，不借用请求上下文
// （请求早就结束了）
func (s *NotifyService) SendUsageWarningDetached(apiKey *model.APIKey, percent int, dayUsage int64) {
	if s.config.WebhookURL == "" {
		return
	}

	payload := usageWarningPayload{
		APIKeyID: apiKey.ID,
		KeyName:  apiKey.Name,
		UserID:   apiKey.UserID,
		Percent:  percent,
		DayUsage: dayUsage,
		DayLimit: apiKey.DayLimit(),
		Subject:  fmt.Sprintf("API 用量告警：%s 已达每日限额的 %d%%", apiKey.Name, percent),
		BodyHTML: fmt.Sprintf(
			"<p>API Key <b>%s</b> 今日已使用 %d 次，达到每日限额 %d 的 %d%%。</p>",
			apiKey.Name, dayUsage, apiKey.DayLimit(), percent),
		OccurredAt: time.Now().Format(time.RFC3339),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
		defer cancel()

		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post(s.config.WebhookURL)
		if err != nil {
			s.logger.Warn("用量告警投递失败",
				zap.Int64("api_key_id", apiKey.ID),
				zap.Error(err))
			return
		}
		if resp.StatusCode() >= 300 {
			s.logger.Warn("用量告警被拒收",
				zap.Int64("api_key_id", apiKey.ID),
				zap.Int("status", resp.StatusCode()))
		}
	}()
}
