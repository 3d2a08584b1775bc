package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"panel_api_v1_202608/internal/model"
	"panel_api_v1_202608/internal/repository"
)

// ==================== 测试辅助 ====================

func setupAuthTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.APIKey{}, &model.UsageLog{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func setupAuthRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	apiKeyRepo := repository.NewAPIKeyRepository(db)

	r := gin.New()
	r.GET("/public-api/ping",
		APIKeyAuth(apiKeyRepo, zap.NewNop()),
		IPAllowList(zap.NewNop()),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
	return r
}

func seedKey(t *testing.T, db *gorm.DB, key model.APIKey) *model.APIKey {
	if err := db.Create(&key).Error; err != nil {
		t.Fatalf("写入测试 key 失败: %v", err)
	}
	return &key
}

func doRequest(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== 鉴权 ====================

func TestAPIKeyAuth_MissingHeader(t *testing.T) {
	db := setupAuthTestDB(t)
	r := setupAuthRouter(db)

	w := doRequest(r, "GET", "/public-api/ping", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("期望 401，实际 %d", w.Code)
	}
}

func TestAPIKeyAuth_MalformedHeader(t *testing.T) {
	db := setupAuthTestDB(t)
	r := setupAuthRouter(db)

	for _, header := range []string{"Token abc", "Bearer", "Bearer "} {
		w := doRequest(r, "GET", "/public-api/ping", map[string]string{"Authorization": header})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q 期望 401，实际 %d", header, w.Code)
		}
	}
}

func TestAPIKeyAuth_UnknownKey(t *testing.T) {
	db := setupAuthTestDB(t)
	r := setupAuthRouter(db)

	w := doRequest(r, "GET", "/public-api/ping", map[string]string{"Authorization": "Bearer no-such-key"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("期望 401，实际 %d", w.Code)
	}
}

func TestAPIKeyAuth_InactiveOrUnapproved(t *testing.T) {
	db := setupAuthTestDB(t)
	r := setupAuthRouter(db)

	seedKey(t, db, model.APIKey{Key: "k-inactive", UserID: 1, IsActive: false, Status: model.APIKeyStatusApproved})
	seedKey(t, db, model.APIKey{Key: "k-pending", UserID: 1, IsActive: true, Status: model.APIKeyStatusPending})

	for _, key := range []string{"k-inactive", "k-pending"} {
		w := doRequest(r, "GET", "/public-api/ping", map[string]string{"Authorization": "Bearer " + key})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("key %q 期望 401，实际 %d", key, w.Code)
		}
	}
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	db := setupAuthTestDB(t)
	r := setupAuthRouter(db)

	seedKey(t, db, model.APIKey{Key: "k-ok", UserID: 1, IsActive: true, Status: model.APIKeyStatusApproved})

	w := doRequest(r, "GET", "/public-api/ping", map[string]string{"Authorization": "Bearer k-ok"})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d (%s)", w.Code, w.Body.String())
	}
}

// 鉴权失败不能留下任何流水
func TestAPIKeyAuth_NoUsageLogOnFailure(t *testing.T) {
	db := setupAuthTestDB(t)
	r := setupAuthRouter(db)

	doRequest(r, "GET", "/public-api/ping", map[string]string{"Authorization": "Bearer no-such-key"})

	var count int64
	db.Model(&model.UsageLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("鉴权失败不应写流水，实际写了 %d 条", count)
	}
}

// ==================== IP 白名单 ====================

func TestIPAllowList_Blocked(t *testing.T) {
	db := setupAuthTestDB(t)
	r := setupAuthRouter(db)

	seedKey(t, db, model.APIKey{
		Key: "k-ip", UserID: 1, IsActive: true, Status: model.APIKeyStatusApproved,
		AllowedIPs: "1.1.1.1, 2.2.2.2",
	})

	w := doRequest(r, "GET", "/public-api/ping", map[string]string{
		"Authorization":   "Bearer k-ip",
		"X-Forwarded-For": "3.3.3.3",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("白名单外 IP 期望 403，实际 %d", w.Code)
	}
}

func TestIPAllowList_Allowed(t *testing.T) {
	db := setupAuthTestDB(t)
	r := setupAuthRouter(db)

	seedKey(t, db, model.APIKey{
		Key: "k-ip", UserID: 1, IsActive: true, Status: model.APIKeyStatusApproved,
		AllowedIPs: "1.1.1.1, 2.2.2.2",
	})

	w := doRequest(r, "GET", "/public-api/ping", map[string]string{
		"Authorization":   "Bearer k-ip",
		"X-Forwarded-For": "2.2.2.2, 10.0.0.1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("白名单内 IP 期望 200，实际 %d", w.Code)
	}
}

// 转发头被剥掉时解析结果为 "unknown"，刻意放行
func TestIPAllowList_UnknownPassesThrough(t *testing.T) {
	db := setupAuthTestDB(t)
	r := setupAuthRouter(db)

	seedKey(t, db, model.APIKey{
		Key: "k-ip", UserID: 1, IsActive: true, Status: model.APIKeyStatusApproved,
		AllowedIPs: "1.1.1.1",
	})

	w := doRequest(r, "GET", "/public-api/ping", map[string]string{"Authorization": "Bearer k-ip"})
	if w.Code != http.StatusOK {
		t.Fatalf("unknown IP 应放行，实际 %d", w.Code)
	}
}

func TestIPAllowList_CFConnectingIPFallback(t *testing.T) {
	db := setupAuthTestDB(t)
	r := setupAuthRouter(db)

	seedKey(t, db, model.APIKey{
		Key: "k-ip", UserID: 1, IsActive: true, Status: model.APIKeyStatusApproved,
		AllowedIPs: "5.5.5.5",
	})

	w := doRequest(r, "GET", "/public-api/ping", map[string]string{
		"Authorization":    "Bearer k-ip",
		"CF-Connecting-IP": "5.5.5.5",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("CF-Connecting-IP 回退未生效，实际 %d", w.Code)
	}
}
