package service

import (
	"context"
	"time"

	"panel_api_v1_202608/internal/model"
	"panel_api_v1_202608/internal/repository"
)

// ==================== 服务实现 ====================

// UsageService 用量统计：滑动窗口计数、告警阈值判定、流水落库
type UsageService struct {
	usageLogRepo repository.UsageLogRepository
}

// NewUsageService 创建用量服务
func NewUsageService(usageLogRepo repository.UsageLogRepository) *UsageService {
	return &UsageService{usageLogRepo: usageLogRepo}
}

// CountLastMinute 最近 60 秒的流水条数
func (s *UsageService) CountLastMinute(ctx context.Context, apiKeyID int64) (int64, error) {
	return s.usageLogRepo.CountSince(ctx, apiKeyID, time.Now().Add(-time.Minute))
}

// CountLastDay 最近 24 小时的流水条数
func (s *UsageService) CountLastDay(ctx context.Context, apiKeyID int64) (int64, error) {
	return s.usageLogRepo.CountSince(ctx, apiKeyID, time.Now().Add(-24*time.Hour))
}

// WarningThreshold 判定本次日用量是否恰好踩中告警阈值
//
// 半开区间 [80,81) 和 [95,96)：计数是离散整数，每越过一个阈值
// 百分比只会在该区间内出现一次左右，告警大致各发一封，不用去重表
func WarningThreshold(dayUsage int64, dayLimit int) (percent int, hit bool) {
	if dayLimit <= 0 {
		return 0, false
	}
	p := float64(dayUsage) / float64(dayLimit) * 100
	switch {
	case p >= 80 && p < 81:
		return 80, true
	case p >= 95 && p < 96:
		return 95, true
	default:
		return 0, false
	}
}

// Record 写一条请求流水
func (s *UsageService) Record(ctx context.Context, entry *model.UsageLog) error {
	return s.usageLogRepo.Create(ctx, entry)
}
