package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"panel_api_v1_202608/internal/model"
)

// ==================== 测试辅助 ====================

func setupProfileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "连接测试数据库失败")
	require.NoError(t, db.AutoMigrate(&model.Profile{}, &model.SMMOrder{}), "数据库迁移失败")
	return db
}

func testOrder(no string) *model.SMMOrder {
	return &model.SMMOrder{
		OrderNo: no, UserID: 7, ServiceID: 101,
		Link: "https://example.com", Quantity: 1000,
		Charge: decimal.RequireFromString("12"),
		Status: model.SMMOrderStatusPending,
	}
}

func orderCount(db *gorm.DB) int64 {
	var count int64
	db.Model(&model.SMMOrder{}).Count(&count)
	return count
}

// ==================== 原子扣款 + 落单 ====================

func TestDeductBalanceAndCreateOrder_Success(t *testing.T) {
	db := setupProfileTestDB(t)
	db.Create(&model.Profile{UserID: 7, Balance: decimal.RequireFromString("50000")})
	repo := NewProfileRepository(db)

	err := repo.DeductBalanceAndCreateOrder(context.Background(), 7,
		decimal.RequireFromString("12"), testOrder("SMM-A"))
	require.NoError(t, err)

	profile, err := repo.GetByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, profile.Balance.Equal(decimal.RequireFromString("49988")),
		"余额期望 49988，实际 %s", profile.Balance)
	assert.EqualValues(t, 1, orderCount(db))
}

// 余额不够：条件更新打不中任何行，订单也不能留下来
func TestDeductBalanceAndCreateOrder_Insufficient(t *testing.T) {
	db := setupProfileTestDB(t)
	db.Create(&model.Profile{UserID: 7, Balance: decimal.RequireFromString("5")})
	repo := NewProfileRepository(db)

	err := repo.DeductBalanceAndCreateOrder(context.Background(), 7,
		decimal.RequireFromString("12"), testOrder("SMM-B"))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	profile, err := repo.GetByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, profile.Balance.Equal(decimal.RequireFromString("5")), "余额不应变动")
	assert.EqualValues(t, 0, orderCount(db), "失败的扣款不应留下订单")
}

// 余额刚好等于扣款额：应成功并扣到 0
func TestDeductBalanceAndCreateOrder_ExactBalance(t *testing.T) {
	db := setupProfileTestDB(t)
	db.Create(&model.Profile{UserID: 7, Balance: decimal.RequireFromString("12")})
	repo := NewProfileRepository(db)

	err := repo.DeductBalanceAndCreateOrder(context.Background(), 7,
		decimal.RequireFromString("12"), testOrder("SMM-C"))
	require.NoError(t, err, "余额刚好够应成功")

	profile, err := repo.GetByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, profile.Balance.Equal(decimal.Zero), "余额期望 0，实际 %s", profile.Balance)
}

// 模拟双花：两笔订单先后提交，余额只够第一笔
func TestDeductBalanceAndCreateOrder_DoubleSpend(t *testing.T) {
	db := setupProfileTestDB(t)
	db.Create(&model.Profile{UserID: 7, Balance: decimal.RequireFromString("20")})
	repo := NewProfileRepository(db)

	require.NoError(t, repo.DeductBalanceAndCreateOrder(context.Background(), 7,
		decimal.RequireFromString("12"), testOrder("SMM-D1")), "第一笔应成功")
	err := repo.DeductBalanceAndCreateOrder(context.Background(), 7,
		decimal.RequireFromString("12"), testOrder("SMM-D2"))
	require.ErrorIs(t, err, ErrInsufficientBalance, "第二笔应余额不足")

	profile, err := repo.GetByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, profile.Balance.Equal(decimal.RequireFromString("8")),
		"余额期望 8，实际 %s", profile.Balance)
	assert.EqualValues(t, 1, orderCount(db), "只应落下第一笔订单")
}

func TestGetByUserID_NotFound(t *testing.T) {
	db := setupProfileTestDB(t)
	repo := NewProfileRepository(db)

	_, err := repo.GetByUserID(context.Background(), 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
