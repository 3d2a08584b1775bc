package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"panel_api_v1_202608/internal/model"
)

func setupAPIKeyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "连接测试数据库失败")
	require.NoError(t, db.AutoMigrate(&model.APIKey{}), "数据库迁移失败")
	return db
}

// ==================== 发放 ====================

// 新 key 自动生成密钥串并落在待审批状态
func TestAPIKeyCreate_GeneratesKeyAndPending(t *testing.T) {
	db := setupAPIKeyTestDB(t)
	repo := NewAPIKeyRepository(db)

	apiKey := &model.APIKey{UserID: 7, Name: "面板对接", Type: model.APIKeyTypeSMM, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), apiKey))

	assert.True(t, strings.HasPrefix(apiKey.Key, "pk_"), "密钥串应以 pk_ 开头: %s", apiKey.Key)
	assert.Equal(t, model.APIKeyStatusPending, apiKey.Status, "新 key 应待审批")
	assert.False(t, apiKey.Usable(), "未审批的 key 不可用")

	got, err := repo.GetByID(context.Background(), apiKey.ID)
	require.NoError(t, err)
	assert.Equal(t, apiKey.Key, got.Key)
}

// 指定了密钥串/状态时不覆盖
func TestAPIKeyCreate_KeepsExplicitFields(t *testing.T) {
	db := setupAPIKeyTestDB(t)
	repo := NewAPIKeyRepository(db)

	apiKey := &model.APIKey{
		Key: "pk_fixed", UserID: 7, Name: "预置",
		Type: model.APIKeyTypePremium, Status: model.APIKeyStatusApproved, IsActive: true,
	}
	require.NoError(t, repo.Create(context.Background(), apiKey))
	assert.Equal(t, "pk_fixed", apiKey.Key)
	assert.True(t, apiKey.Usable())
}

// 显式停用的 key 落库后必须还是停用的，不能被列默认值吃掉
func TestAPIKeyCreate_InactiveStaysInactive(t *testing.T) {
	db := setupAPIKeyTestDB(t)
	repo := NewAPIKeyRepository(db)

	apiKey := &model.APIKey{
		UserID: 7, Name: "已停用",
		Status: model.APIKeyStatusApproved, IsActive: false,
	}
	require.NoError(t, repo.Create(context.Background(), apiKey))

	got, err := repo.GetByKey(context.Background(), apiKey.Key)
	require.NoError(t, err)
	assert.False(t, got.IsActive, "停用状态未落库")
	assert.False(t, got.Usable(), "停用的 key 不可鉴权通过")
}

func TestAPIKeyListByUser(t *testing.T) {
	db := setupAPIKeyTestDB(t)
	repo := NewAPIKeyRepository(db)

	for _, userID := range []int64{7, 7, 8} {
		require.NoError(t, repo.Create(context.Background(), &model.APIKey{UserID: userID}))
	}

	keys, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, keys, 2, "只应列出本用户的 key")
}

// ==================== 使用统计 ====================

func TestAPIKeyTouch(t *testing.T) {
	db := setupAPIKeyTestDB(t)
	repo := NewAPIKeyRepository(db)

	apiKey := &model.APIKey{UserID: 7}
	require.NoError(t, repo.Create(context.Background(), apiKey))
	require.Nil(t, apiKey.LastUsedAt)

	require.NoError(t, repo.Touch(context.Background(), apiKey.ID))
	require.NoError(t, repo.Touch(context.Background(), apiKey.ID))

	got, err := repo.GetByID(context.Background(), apiKey.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.RequestCount, "请求计数应累加")
	assert.NotNil(t, got.LastUsedAt, "最后使用时间应被刷新")
}

func TestAPIKeyGetByKey_NotFound(t *testing.T) {
	db := setupAPIKeyTestDB(t)
	repo := NewAPIKeyRepository(db)

	_, err := repo.GetByKey(context.Background(), "pk_nope")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
