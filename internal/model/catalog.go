package model

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ==================== 分类 ====================

// Category 商品分类，按 style 隔离不同租户类型可见的分类
type Category struct {
	BaseModel

	Slug     string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Style    string `gorm:"size:32;index;comment:premium/game_account/game_topup" json:"style"`
	IsActive bool   `gorm:"index" json:"is_active"`

	SortOrder int `gorm:"default:0;index" json:"sort_order"`
}

func (Category) TableName() string {
	return "categories"
}

// ==================== 商品 ====================

type Product struct {
	BaseModel

	Slug       string    `gorm:"size:150;uniqueIndex;not null" json:"slug"`
	CategoryID int64     `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	// style 隔离核心字段：与 APIKeyType.StyleFilter 对齐
	Style string `gorm:"size:32;index;comment:商品面向的租户类型" json:"style"`

	Price        decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"price"`
	CurrencyCode string          `gorm:"size:5;default:'USD'" json:"currency_code"`

	IsActive   bool `gorm:"index" json:"is_active"`
	IsFeatured bool `gorm:"default:false;index" json:"is_featured"`
	SortOrder  int  `gorm:"default:0;index" json:"sort_order"`

	Tags pq.StringArray `gorm:"type:text[]" json:"tags"`

	// --- 关联关系 ---
	Images   []ProductImage   `gorm:"foreignKey:ProductID" json:"images,omitempty"`
	Packages []ProductPackage `gorm:"foreignKey:ProductID" json:"packages,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

type ProductImage struct {
	BaseModel

	ProductID int64  `gorm:"index;not null" json:"product_id"`
	URL       string `gorm:"size:512;not null" json:"url"`
	Rank      int    `gorm:"default:0" json:"rank"`
}

func (ProductImage) TableName() string {
	return "product_images"
}

// ProductPackage 商品子套餐（面额/档位）
type ProductPackage struct {
	BaseModel

	ProductID int64           `gorm:"index;not null" json:"product_id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"price"`
	SortOrder int             `gorm:"default:0" json:"sort_order"`
	IsActive  bool            `json:"is_active"`
}

func (ProductPackage) TableName() string {
	return "product_packages"
}

// ==================== 限时抢购 ====================

type FlashSale struct {
	BaseModel

	Name      string    `gorm:"size:255;not null" json:"name"`
	StartDate time.Time `gorm:"index;not null" json:"start_date"`
	EndDate   time.Time `gorm:"index;not null" json:"end_date"`
	IsActive  bool      `json:"is_active"`

	Items []FlashSaleItem `gorm:"foreignKey:FlashSaleID" json:"items"`
}

func (FlashSale) TableName() string {
	return "flash_sales"
}

type FlashSaleItem struct {
	BaseModel

	FlashSaleID int64    `gorm:"index;not null" json:"flash_sale_id"`
	ProductID   int64    `gorm:"index;not null" json:"product_id"`
	Product     *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"discount_percent"`
	SalePrice       decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"sale_price"`

	// 可选库存计数，0 表示未启用
	SoldCount  int `gorm:"default:0" json:"sold_count"`
	StockLimit int `gorm:"default:0" json:"stock_limit"`
}

func (FlashSaleItem) TableName() string {
	return "flash_sale_items"
}

// ==================== 账号库存 ====================

// 库存状态常量
const (
	InventoryStatusAvailable = "available" // 可售
	InventoryStatusReserved  = "reserved"  // 已锁定
	InventoryStatusSold      = "sold"      // 已售出
)

// AccountInventory 游戏账号库存行
// 对外只暴露 available 数量，绝不返回原始库存记录
type AccountInventory struct {
	BaseModel

	ProductID int64  `gorm:"index;not null" json:"product_id"`
	Status    string `gorm:"size:20;index;default:available" json:"status"`

	// 账号凭据密文，仅内部发货流程使用，任何序列化都不带出去
	Payload string `gorm:"type:text" json:"-"`
}

func (AccountInventory) TableName() string {
	return "account_inventories"
}
