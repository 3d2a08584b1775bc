package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"panel_api_v1_202608/internal/model"
	"panel_api_v1_202608/internal/repository"
)

// ==================== 错误类型 ====================

// ErrServiceNotFound 服务映射不存在或未启用
var ErrServiceNotFound = errors.New("service not found")

// InsufficientBalanceError 余额不足，携带需要/可用金额供响应体使用
type InsufficientBalanceError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return "Insufficient balance"
}

// ==================== 请求/结果结构 ====================

// PlaceOrderInput 下单入参（字段齐全性由 controller 校验）
type PlaceOrderInput struct {
	ServiceID int64
	Link      string
	Quantity  int
}

// PlaceOrderResult 下单结果
type PlaceOrderResult struct {
	OrderNo         string          `json:"order_id"`
	ExternalOrderID int64           `json:"external_order_id"`
	Charge          decimal.Decimal `json:"charge"`
	Status          string          `json:"status"`
}

// ==================== 服务实现 ====================

// OrderService SMM 下单编排：算价 → 余额预检 → 上游下单 → 原子扣款落单
type OrderService struct {
	smmRepo     repository.SMMRepository
	profileRepo repository.ProfileRepository
	provider    *ProviderService
	logger      *zap.Logger
}

// NewOrderService 创建下单服务
func NewOrderService(
	smmRepo repository.SMMRepository,
	profileRepo repository.ProfileRepository,
	provider *ProviderService,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		smmRepo:     smmRepo,
		profileRepo: profileRepo,
		provider:    provider,
		logger:      logger,
	}
}

// ComputeCharge 计费：final_rate = rate * (1 + markup/100)，charge = final_rate / 1000 * quantity
func ComputeCharge(svc *model.SMMService, quantity int) decimal.Decimal {
	return svc.FinalRate().
		Div(decimal.NewFromInt(1000)).
		Mul(decimal.NewFromInt(int64(quantity)))
}

// NewOrderNo 生成内部订单号：SMM-<毫秒时间戳 base36 大写>
func NewOrderNo(now time.Time) string {
	return "SMM-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
}

// PlaceOrder 下单主流程
//
// 顺序是刻意的：先查余额再调上游，余额不够时上游完全无感知。
// 上游接单之后条件扣款仍可能因并发订单失败，此时上游订单已产生、
// 款项未扣——这里只能大声记日志，不做上游侧撤单补偿（见 DESIGN.md）。
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	// 1. 服务映射
	svc, err := s.smmRepo.GetServiceByExternalID(ctx, input.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	// 2. 算价
	charge := ComputeCharge(svc, input.Quantity)

	// 3. 余额预检（快速失败路径，最终一致性由第 5 步的条件扣款兜底）
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Balance.LessThan(charge) {
		return nil, &InsufficientBalanceError{
			Required:  charge,
			Available: profile.Balance,
		}
	}

	// 4. 上游下单
	providerOrder, err := s.provider.AddOrder(ctx, input.ServiceID, input.Link, input.Quantity)
	if err != nil {
		return nil, err
	}

	// 5. 原子扣款 + 落单
	order := &model.SMMOrder{
		OrderNo:         NewOrderNo(time.Now()),
		UserID:          userID,
		ServiceID:       input.ServiceID,
		ExternalOrderID: providerOrder.OrderID,
		Link:            input.Link,
		Quantity:        input.Quantity,
		Charge:          charge,
		Status:          model.SMMOrderStatusPending,
		ProviderPayload: []byte(providerOrder.Raw),
	}

	if err := s.profileRepo.DeductBalanceAndCreateOrder(ctx, userID, charge, order); err != nil {
		// 上游订单已被接受但本地提交失败，没有撤单补偿，必须留痕
		s.logger.Error("上游已接单但本地扣款落单失败，需人工对账",
			zap.Int64("user_id", userID),
			zap.Int64("external_order_id", providerOrder.OrderID),
			zap.String("charge", charge.String()),
			zap.Error(err))
		if errors.Is(err, repository.ErrInsufficientBalance) {
			available := decimal.Zero
			if fresh, ferr := s.profileRepo.GetByUserID(ctx, userID); ferr == nil {
				available = fresh.Balance
			}
			return nil, &InsufficientBalanceError{
				Required:  charge,
				Available: available,
			}
		}
		return nil, err
	}

	return &PlaceOrderResult{
		OrderNo:         order.OrderNo,
		ExternalOrderID: providerOrder.OrderID,
		Charge:          charge,
		Status:          order.Status,
	}, nil
}

// ListOrders 查询租户订单列表
func (s *OrderService) ListOrders(ctx context.Context, userID int64, limit, offset int) ([]model.SMMOrder, int64, error) {
	return s.smmRepo.ListOrdersByUser(ctx, userID, limit, offset)
}
