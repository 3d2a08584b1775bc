package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panel_api_v1_202608/internal/model"
	"panel_api_v1_202608/internal/repository"
)

// ==================== Context Keys ====================

const (
	ContextKeyAPIKey   = "api_key"
	ContextKeyClientIP = "client_ip"
)

// GetAPIKey 从 gin context 取当前租户的 key 记录
func GetAPIKey(c *gin.Context) *model.APIKey {
	if v, ok := c.Get(ContextKeyAPIKey); ok {
		if key, ok := v.(*model.APIKey); ok {
			return key
		}
	}
	return nil
}

// GetClientIP 从 gin context 取解析好的来源 IP
func GetClientIP(c *gin.Context) string {
	return c.GetString(ContextKeyClientIP)
}

// ResolveClientIP 解析来源 IP
// 取 X-Forwarded-For 第一段，退而取 CF-Connecting-IP，都没有则给 "unknown" 哨兵值
func ResolveClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}
	if cf := c.GetHeader("CF-Connecting-IP"); cf != "" {
		return cf
	}
	return "unknown"
}

// ==================== 鉴权中间件 ====================

// APIKeyAuth Bearer API Key 鉴权
// "不存在"和"停用/未审批"统一一个 401 文案，避免密钥枚举探测
func APIKeyAuth(apiKeyRepo repository.APIKeyRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Missing Authorization header",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authorization header must be: Bearer <api_key>",
			})
			return
		}

		apiKey, err := apiKeyRepo.GetByKey(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil || !apiKey.Usable() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid, inactive, or unapproved API key",
			})
			return
		}

		c.Set(ContextKeyAPIKey, apiKey)
		c.Set(ContextKeyClientIP, ResolveClientIP(c))
		c.Next()
	}
}

// ==================== IP 白名单中间件 ====================

// IPAllowList IP 白名单校验，必须挂在 APIKeyAuth 之后
//
// "unknown" 哨兵值刻意放行：上游代理剥掉转发头时宁可失开也不把租户
// 全部挡死。这是已知取舍，不是漏判。
func IPAllowList(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := GetAPIKey(c)
		if apiKey == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Internal server error",
			})
			return
		}

		if len(apiKey.AllowedIPList()) == 0 {
			c.Next()
			return
		}

		ip := GetClientIP(c)
		if ip != "unknown" && !apiKey.IPAllowed(ip) {
			logger.Warn("来源 IP 不在白名单",
				zap.Int64("api_key_id", apiKey.ID),
				zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "IP address not allowed",
			})
			return
		}

		c.Next()
	}
}
