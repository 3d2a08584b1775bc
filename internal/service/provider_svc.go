package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"panel_api_v1_202608/internal/repository"
)

// ==================== 错误类型 ====================

// ProviderError 上游业务错误（HTTP 层成功但响应体带 error 字段）
// 与网络/解析错误区分开：业务错误原样透传给调用方，其余归为内部错误
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// ==================== 响应结构 ====================

// ProviderBalance 上游余额响应
type ProviderBalance struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// ProviderOrder 上游下单响应
type ProviderOrder struct {
	OrderID int64           `json:"order"`
	Raw     json.RawMessage `json:"-"`
}

// ==================== 服务实现 ====================

// ProviderService SMM 上游客户端
// 接入配置存在 smm_configs 表里，每次调用现查，改配置不用重启
type ProviderService struct {
	smmRepo repository.SMMRepository
	client  *resty.Client
	logger  *zap.Logger
}

// NewProviderService 创建上游客户端
func NewProviderService(smmRepo repository.SMMRepository, client *resty.Client, logger *zap.Logger) *ProviderService {
	return &ProviderService{
		smmRepo: smmRepo,
		client:  client,
		logger:  logger,
	}
}

// ==================== 公共方法 ====================

// Services 查询上游服务列表，响应原样透传
func (s *ProviderService) Services(ctx context.Context) (json.RawMessage, error) {
	return s.call(ctx, map[string]string{"action": "services"})
}

// Balance 查询上游余额，currency 缺省补 USD
func (s *ProviderService) Balance(ctx context.Context) (*ProviderBalance, error) {
	raw, err := s.call(ctx, map[string]string{"action": "balance"})
	if err != nil {
		return nil, err
	}

	var balance ProviderBalance
	if err := json.Unmarshal(raw, &balance); err != nil {
		return nil, fmt.Errorf("解析上游余额响应失败: %w", err)
	}
	if balance.Currency == "" {
		balance.Currency = "USD"
	}
	return &balance, nil
}

// AddOrder 上游下单
func (s *ProviderService) AddOrder(ctx context.Context, serviceID int64, link string, quantity int) (*ProviderOrder, error) {
	raw, err := s.call(ctx, map[string]string{
		"action":   "add",
		"service":  strconv.FormatInt(serviceID, 10),
		"link":     link,
		"quantity": strconv.Itoa(quantity),
	})
	if err != nil {
		return nil, err
	}

	var order ProviderOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("解析上游下单响应失败: %w", err)
	}
	if order.OrderID == 0 {
		return nil, &ProviderError{Message: "provider did not return an order id"}
	}
	order.Raw = raw
	return &order, nil
}

// Status 查询订单状态，所有字段原样透传
func (s *ProviderService) Status(ctx context.Context, externalOrderID int64) (json.RawMessage, error) {
	return s.call(ctx, map[string]string{
		"action": "status",
		"order":  strconv.FormatInt(externalOrderID, 10),
	})
}

// Refill 申请补量
func (s *ProviderService) Refill(ctx context.Context, externalOrderID int64) (json.RawMessage, error) {
	return s.call(ctx, map[string]string{
		"action": "refill",
		"order":  strconv.FormatInt(externalOrderID, 10),
	})
}

// ==================== 内部方法 ====================

// apiURL 拼接上游入口
// 配置里通常只存裸域名；带 scheme 的完整地址原样使用（测试环境用 http）
func apiURL(domain string) string {
	if strings.Contains(domain, "://") {
		return strings.TrimRight(domain, "/") + "/api/v2"
	}
	return "https://" + strings.TrimRight(domain, "/") + "/api/v2"
}

// call 发起一次上游请求：form 编码，key + action + 附加字段
func (s *ProviderService) call(ctx context.Context, fields map[string]string) (json.RawMessage, error) {
	config, err := s.smmRepo.GetActiveConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取上游配置失败: %w", err)
	}

	form := map[string]string{"key": config.APIKey}
	for k, v := range fields {
		form[k] = v
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(apiURL(config.Domain))
	if err != nil {
		s.logger.Error("上游请求失败",
			zap.String("action", fields["action"]),
			zap.Error(err))
		return nil, fmt.Errorf("provider request failed: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() != 200 {
		s.logger.Error("上游返回非 200",
			zap.String("action", fields["action"]),
			zap.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("provider returned HTTP %d", resp.StatusCode())
	}

	// 上游约定：业务失败时返回 {"error": "..."}
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Error != "" {
		return nil, &ProviderError{Message: probe.Error}
	}

	return json.RawMessage(body), nil
}
