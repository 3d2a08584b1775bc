package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"panel_api_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// APIKeyRepository APIKey 仓储接口
type APIKeyRepository interface {
	GetByKey(ctx context.Context, key string) (*model.APIKey, error)
	GetByID(ctx context.Context, id int64) (*model.APIKey, error)
	Create(ctx context.Context, apiKey *model.APIKey) error
	Touch(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]model.APIKey, error)
}

// ==================== 仓储实现 ====================

type apiKeyRepo struct {
	db *gorm.DB
}

// NewAPIKeyRepository 创建 APIKey 仓储
func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepo{db: db}
}

// GetByKey 按密钥串精确查找
// 注意：不在这里判断 active/approved，调用方统一用 Usable 判断，
// 避免"不存在"和"已停用"走不同错误路径泄露 key 枚举信息
func (r *apiKeyRepo) GetByKey(ctx context.Context, key string) (*model.APIKey, error) {
	var apiKey model.APIKey
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&apiKey).Error
	if err != nil {
		return nil, err
	}
	return &apiKey, nil
}

func (r *apiKeyRepo) GetByID(ctx context.Context, id int64) (*model.APIKey, error) {
	var apiKey model.APIKey
	err := r.db.WithContext(ctx).First(&apiKey, id).Error
	if err != nil {
		return nil, err
	}
	return &apiKey, nil
}

// Create 创建新 key，密钥串未指定时自动生成
func (r *apiKeyRepo) Create(ctx context.Context, apiKey *model.APIKey) error {
	if apiKey.Key == "" {
		apiKey.Key = "pk_" + uuid.NewString()
	}
	if apiKey.Status == "" {
		apiKey.Status = model.APIKeyStatusPending
	}
	return r.db.WithContext(ctx).Create(apiKey).Error
}

// Touch 鉴权通过后刷新使用时间并累加请求计数
// 用 gorm.Expr 原子自增，避免读改写竞态
func (r *apiKeyRepo) Touch(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.APIKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_used_at":  &now,
			"request_count": gorm.Expr("request_count + 1"),
		}).Error
}

func (r *apiKeyRepo) ListByUser(ctx context.Context, userID int64) ([]model.APIKey, error) {
	var keys []model.APIKey
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&keys).Error
	return keys, err
}
