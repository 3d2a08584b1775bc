package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panel_api_v1_202608/internal/model"
	"panel_api_v1_202608/internal/service"
)

// ==================== 请求流水中间件 ====================

// UsageLogger 请求流水落库，挂在限流之后、业务 handler 之前
//
// 只有通过鉴权 + 白名单 + 两道限流的请求才会走到这里，所以一条流水
// 就代表一次"被放进业务逻辑的请求"——不管 handler 最终回 2xx 还是 5xx，
// 恰好写一条，状态码取实际写回响应的那个。
// 落库失败只记操作日志，响应已经在回写路上，不能再改。
func UsageLogger(usageSvc *service.UsageService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := GetAPIKey(c)
		if apiKey == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		entry := &model.UsageLog{
			APIKeyID:   apiKey.ID,
			Endpoint:   c.Request.URL.Path,
			Method:     c.Request.Method,
			StatusCode: c.Writer.Status(),
			LatencyMs:  time.Since(start).Milliseconds(),
			IPAddress:  GetClientIP(c),
			UserAgent:  c.GetHeader("User-Agent"),
		}

		// 不复用请求上下文：客户端断连导致 ctx 取消时流水也必须落
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := usageSvc.Record(ctx, entry); err != nil {
			logger.Error("请求流水落库失败",
				zap.Int64("api_key_id", apiKey.ID),
				zap.String("endpoint", entry.Endpoint),
				zap.Error(err))
		}
	}
}
