package repository

import (
	"context"

	"gorm.io/gorm"

	"panel_api_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// SMMRepository SMM 配置/服务/订单仓储接口
type SMMRepository interface {
	GetActiveConfig(ctx context.Context) (*model.SMMConfig, error)
	GetServiceByExternalID(ctx context.Context, serviceID int64) (*model.SMMService, error)
	GetOrderByNo(ctx context.Context, orderNo string) (*model.SMMOrder, error)
	ListOrdersByUser(ctx context.Context, userID int64, limit, offset int) ([]model.SMMOrder, int64, error)
}

// ==================== 仓储实现 ====================

type smmRepo struct {
	db *gorm.DB
}

// NewSMMRepository 创建 SMM 仓储
func NewSMMRepository(db *gorm.DB) SMMRepository {
	return &smmRepo{db: db}
}

// GetActiveConfig 取当前生效的上游配置，约定只有一行 active
func (r *smmRepo) GetActiveConfig(ctx context.Context) (*model.SMMConfig, error) {
	var config model.SMMConfig
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id DESC").
		First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// GetServiceByExternalID 按上游服务 ID 查映射
func (r *smmRepo) GetServiceByExternalID(ctx context.Context, serviceID int64) (*model.SMMService, error) {
	var svc model.SMMService
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND is_active = ?", serviceID, true).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *smmRepo) GetOrderByNo(ctx context.Context, orderNo string) (*model.SMMOrder, error) {
	var order model.SMMOrder
	err := r.db.WithContext(ctx).
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *smmRepo) ListOrdersByUser(ctx context.Context, userID int64, limit, offset int) ([]model.SMMOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.SMMOrder{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}

	var orders []model.SMMOrder
	err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, total, err
}
