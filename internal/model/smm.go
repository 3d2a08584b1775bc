package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ==================== 上游配置 ====================

// SMMConfig 上游供应商接入配置，同一时刻只应有一行 active
type SMMConfig struct {
	BaseModel

	Domain   string `gorm:"size:255;not null;comment:供应商域名" json:"domain"`
	APIKey   string `gorm:"size:255;not null;comment:供应商密钥" json:"-"`
	IsActive bool   `gorm:"index" json:"is_active"`
}

func (SMMConfig) TableName() string {
	return "smm_configs"
}

// ==================== 服务映射 ====================

// SMMService 内部服务与上游 service id 的映射，带加价率
type SMMService struct {
	BaseModel

	ServiceID int64  `gorm:"uniqueIndex;not null;comment:上游服务ID" json:"service_id"`
	Name      string `gorm:"size:255" json:"name"`

	Rate          decimal.Decimal `gorm:"type:decimal(12,4);default:0;comment:上游千次单价" json:"rate"`
	MarkupPercent decimal.Decimal `gorm:"type:decimal(6,2);default:0;comment:加价百分比" json:"markup_percent"`

	IsActive bool `gorm:"index" json:"is_active"`
}

func (SMMService) TableName() string {
	return "smm_services"
}

// FinalRate 对外报价 = 上游单价 * (1 + 加价率/100)
func (s *SMMService) FinalRate() decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return s.Rate.Mul(hundred.Add(s.MarkupPercent)).Div(hundred)
}

// ==================== 订单 ====================

// 订单状态常量（后续状态流转由面板侧处理，网关只写入 Pending）
const (
	SMMOrderStatusPending    = "Pending"
	SMMOrderStatusInProgress = "In progress"
	SMMOrderStatusCompleted  = "Completed"
	SMMOrderStatusPartial    = "Partial"
	SMMOrderStatusCanceled   = "Canceled"
)

// SMMOrder 转售订单，与余额扣减同一事务写入
type SMMOrder struct {
	BaseModel

	OrderNo string `gorm:"size:64;uniqueIndex;not null;comment:内部订单号" json:"order_no"`
	UserID  int64  `gorm:"index;not null" json:"user_id"`

	ServiceID       int64  `gorm:"index;not null;comment:上游服务ID" json:"service_id"`
	ExternalOrderID int64  `gorm:"index;comment:上游订单ID" json:"external_order_id"`
	Link            string `gorm:"size:1024;not null" json:"link"`
	Quantity        int    `gorm:"not null" json:"quantity"`

	Charge decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"charge"`
	Status string          `gorm:"size:32;index;default:Pending" json:"status"`

	// 上游下单的原始响应，排障用
	ProviderPayload datatypes.JSON `gorm:"type:jsonb" json:"-"`
}

func (SMMOrder) TableName() string {
	return "smm_orders"
}

// ==================== 余额 ====================

// Profile 租户余额账户
type Profile struct {
	BaseModel

	UserID  int64           `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance decimal.Decimal `gorm:"type:decimal(14,4);default:0" json:"balance"`
}

func (Profile) TableName() string {
	return "profiles"
}
