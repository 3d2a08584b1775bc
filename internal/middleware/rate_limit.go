package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panel_api_v1_202608/internal/repository"
	"panel_api_v1_202608/internal/service"
)

// ==================== 限流中间件 ====================

// RateLimit 滑动窗口限流，必须挂在 APIKeyAuth 之后
//
// 窗口计数来自 usage_logs 的 count，而不是互斥计数器：被限掉的请求
// 不写流水，所以计数意义是"真正进入业务逻辑的请求数"。极端并发下
// 会有少量请求溢出限额，属可接受的近似（见 DESIGN.md）。
//
// 两道检查都过之后：
//  1. 踩中日用量告警阈值时异步发告警（旁路，不等待）
//  2. 无条件刷新 key 的 last_used_at / request_count
func RateLimit(
	usageSvc *service.UsageService,
	apiKeyRepo repository.APIKeyRepository,
	notifySvc *service.NotifyService,
	logger *zap.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := GetAPIKey(c)
		if apiKey == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Internal server error",
			})
			return
		}

		ctx := c.Request.Context()

		// --- 分钟窗 ---
		minuteCount, err := usageSvc.CountLastMinute(ctx, apiKey.ID)
		if err != nil {
			logger.Error("限流计数查询失败", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Internal server error",
			})
			return
		}
		minuteLimit := apiKey.MinuteLimit()
		if minuteCount >= int64(minuteLimit) {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", minuteLimit))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":  false,
				"error":    "Rate limit exceeded",
				"limit":    minuteLimit,
				"reset_in": "60 seconds",
			})
			return
		}

		// --- 日窗 ---
		dayCount, err := usageSvc.CountLastDay(ctx, apiKey.ID)
		if err != nil {
			logger.Error("限流计数查询失败", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Internal server error",
			})
			return
		}
		dayLimit := apiKey.DayLimit()
		if dayCount >= int64(dayLimit) {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", dayLimit))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":  false,
				"error":    "Daily rate limit exceeded",
				"limit":    dayLimit,
				"reset_in": "24 hours",
			})
			return
		}

		// --- 用量告警（旁路） ---
		// 本次请求算在内，所以 +1 后再判阈值
		if percent, hit := service.WarningThreshold(dayCount+1, dayLimit); hit {
			notifySvc.SendUsageWarningDetached(apiKey, percent, dayCount+1)
		}

		// --- 刷新使用统计 ---
		if err := apiKeyRepo.Touch(ctx, apiKey.ID); err != nil {
			// 统计刷新失败不值得挡请求
			logger.Warn("刷新 key 使用统计失败",
				zap.Int64("api_key_id", apiKey.ID),
				zap.Error(err))
		}

		c.Next()
	}
}
