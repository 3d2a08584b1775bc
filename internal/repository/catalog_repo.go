package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"panel_api_v1_202608/internal/model"
)

// ==================== 过滤条件 ====================

// ProductFilter 商品列表过滤条件
type ProductFilter struct {
	Style        string // 空串表示不过滤
	CategorySlug string
	FeaturedOnly bool
	Limit        int
	Offset       int
}

// ==================== 接口定义 ====================

// CatalogRepository 目录只读仓储接口
// 网关对目录数据只读不写，写入由后台侧完成
type CatalogRepository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	GetProductBySlug(ctx context.Context, slug, style string) (*model.Product, error)
	ListCategories(ctx context.Context, style string) ([]model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	ListActiveFlashSales(ctx context.Context, now time.Time) ([]model.FlashSale, error)
	CountAvailableInventory(ctx context.Context, productID int64) (int64, error)
}

// ==================== 仓储实现 ====================

type catalogRepo struct {
	db *gorm.DB
}

// NewCatalogRepository 创建目录仓储
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db: db}
}

// ListProducts 分页查询上架商品，按人工排序字段排序
func (r *catalogRepo) ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("is_active = ?", true)

	if filter.Style != "" {
		query = query.Where("style = ?", filter.Style)
	}
	if filter.CategorySlug != "" {
		category, err := r.GetCategoryBySlug(ctx, filter.CategorySlug)
		if err != nil {
			// 分类不存在时返回空列表而不是报错，与按分类筛不到商品一致
			if err == gorm.ErrRecordNotFound {
				return []model.Product{}, 0, nil
			}
			return nil, 0, err
		}
		query = query.Where("category_id = ?", category.ID)
	}
	if filter.FeaturedOnly {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var products []model.Product
	err := query.
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		Order("sort_order ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&products).Error
	return products, total, err
}

// GetProductBySlug 按 slug 查询单个上架商品
// style 非空时强制匹配，风格不符与不存在同样返回 ErrRecordNotFound
func (r *catalogRepo) GetProductBySlug(ctx context.Context, slug, style string) (*model.Product, error) {
	query := r.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true)
	if style != "" {
		query = query.Where("style = ?", style)
	}

	var product model.Product
	err := query.
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		Preload("Packages", "is_active = ?", true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *catalogRepo) ListCategories(ctx context.Context, style string) ([]model.Category, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if style != "" {
		query = query.Where("style = ?", style)
	}

	var categories []model.Category
	err := query.Order("sort_order ASC, id ASC").Find(&categories).Error
	return categories, err
}

func (r *catalogRepo) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ListActiveFlashSales 查询进行中的抢购活动（start <= now <= end），带商品明细
func (r *catalogRepo) ListActiveFlashSales(ctx context.Context, now time.Time) ([]model.FlashSale, error) {
	var sales []model.FlashSale
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Preload("Items.Product").
		Order("start_date ASC").
		Find(&sales).Error
	return sales, err
}

// CountAvailableInventory 统计可售库存数量
// 只返回计数，库存明细（账号凭据）绝不出网关
func (r *catalogRepo) CountAvailableInventory(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AccountInventory{}).
		Where("product_id = ? AND status = ?", productID, model.InventoryStatusAvailable).
		Count(&count).Error
	return count, err
}
