package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"panel_api_v1_202608/internal/model"
)

// ErrInsufficientBalance 余额不足（包括提交时余额被并发订单扣走的情况）
var ErrInsufficientBalance = errors.New("insufficient balance")

// ==================== 接口定义 ====================

// ProfileRepository 余额账户仓储接口
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)

	// DeductBalanceAndCreateOrder 扣减余额并写入订单，单事务全有或全无。
	// 扣减是条件更新（balance >= charge 才生效），两个并发订单同时通过
	// 余额预检时，最多只有一个能在这里提交成功，另一个拿到 ErrInsufficientBalance。
	DeductBalanceAndCreateOrder(ctx context.Context, userID int64, charge decimal.Decimal, order *model.SMMOrder) error
}

// ==================== 仓储实现 ====================

type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepository 创建余额仓储
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) DeductBalanceAndCreateOrder(ctx context.Context, userID int64, charge decimal.Decimal, order *model.SMMOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Profile{}).
			Where("user_id = ? AND balance >= ?", userID, charge).
			Update("balance", gorm.Expr("balance - ?", charge))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		return tx.Create(order).Error
	})
}
