package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"panel_api_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// UsageLogRepository 请求流水仓储接口
type UsageLogRepository interface {
	Create(ctx context.Context, entry *model.UsageLog) error
	CountSince(ctx context.Context, apiKeyID int64, since time.Time) (int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ==================== 仓储实现 ====================

type usageLogRepo struct {
	db *gorm.DB
}

// NewUsageLogRepository 创建流水仓储
func NewUsageLogRepository(db *gorm.DB) UsageLogRepository {
	return &usageLogRepo{db: db}
}

func (r *usageLogRepo) Create(ctx context.Context, entry *model.UsageLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// CountSince 统计 key 在 since 之后的流水条数，滑动窗口限流的计数来源
func (r *usageLogRepo) CountSince(ctx context.Context, apiKeyID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UsageLog{}).
		Where("api_key_id = ? AND created_at >= ?", apiKeyID, since).
		Count(&count).Error
	return count, err
}

// DeleteBefore 清理历史流水，返回删除行数
func (r *usageLogRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.UsageLog{})
	return result.RowsAffected, result.Error
}
