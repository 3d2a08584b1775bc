package service

import (
	"context"
	"time"

	"panel_api_v1_202608/internal/model"
	"panel_api_v1_202608/internal/repository"
)

// ==================== 服务实现 ====================

// CatalogService 目录查询：商品/分类/抢购/库存，全部按 key 类型做 style 隔离
type CatalogService struct {
	catalogRepo repository.CatalogRepository
}

// NewCatalogService 创建目录服务
func NewCatalogService(catalogRepo repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo}
}

// ==================== 商品 ====================

// ListProducts 分页查商品，style 由 key 类型推导后注入 filter
func (s *CatalogService) ListProducts(ctx context.Context, keyType model.APIKeyType, filter repository.ProductFilter) ([]model.Product, int64, error) {
	filter.Style = keyType.StyleFilter()
	return s.catalogRepo.ListProducts(ctx, filter)
}

// GetProduct 按 slug 查单个商品，style 不匹配视同不存在
func (s *CatalogService) GetProduct(ctx context.Context, keyType model.APIKeyType, slug string) (*model.Product, error) {
	return s.catalogRepo.GetProductBySlug(ctx, slug, keyType.StyleFilter())
}

// ==================== 分类 ====================

// ListCategories 分类列表（game_topup 的禁入由 controller 层处理）
func (s *CatalogService) ListCategories(ctx context.Context, keyType model.APIKeyType) ([]model.Category, error) {
	return s.catalogRepo.ListCategories(ctx, keyType.StyleFilter())
}

// ==================== 限时抢购 ====================

// ListActiveFlashSales 进行中的抢购活动
// 活动按时间窗从库里查出后，在内存里按 style 过滤明细；
// 过滤后一件商品都不剩的活动整个丢弃
func (s *CatalogService) ListActiveFlashSales(ctx context.Context, keyType model.APIKeyType) ([]model.FlashSale, error) {
	sales, err := s.catalogRepo.ListActiveFlashSales(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	style := keyType.StyleFilter()
	if style == "" {
		return sales, nil
	}

	filtered := make([]model.FlashSale, 0, len(sales))
	for _, sale := range sales {
		items := make([]model.FlashSaleItem, 0, len(sale.Items))
		for _, item := range sale.Items {
			if item.Product != nil && item.Product.Style == style {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		sale.Items = items
		filtered = append(filtered, sale)
	}
	return filtered, nil
}

// ==================== 账号库存 ====================

// CountAvailableInventory 可售库存计数，只给数字不给明细
func (s *CatalogService) CountAvailableInventory(ctx context.Context, productID int64) (int64, error) {
	return s.catalogRepo.CountAvailableInventory(ctx, productID)
}
