package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"panel_api_v1_202608/internal/repository"
)

// LogRetentionTask 请求流水清理任务
// 限流窗口最多只看 24 小时，太老的流水只剩审计价值，定期清掉
// 防止 count 查询随表无限变慢
type LogRetentionTask struct {
	usageLogRepo repository.UsageLogRepository
	Cron         *cron.Cron
	logger       *zap.Logger

	retentionDays int
}

func NewLogRetentionTask(usageLogRepo repository.UsageLogRepository, retentionDays int, logger *zap.Logger) *LogRetentionTask {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &LogRetentionTask{
		usageLogRepo:  usageLogRepo,
		Cron:          cron.New(),
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start 启动清理任务
// 策略：每天凌晨 4 点跑一次
func (t *LogRetentionTask) Start() {
	_, err := t.Cron.AddFunc("0 4 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		t.Execute(ctx)
	})
	if err != nil {
		t.logger.Fatal("无法启动流水清理任务", zap.Error(err))
	}

	t.Cron.Start()
	t.logger.Info("流水清理任务已启动", zap.Int("retention_days", t.retentionDays))
}

// Stop 停止任务
func (t *LogRetentionTask) Stop() {
	t.Cron.Stop()
}

// Execute 执行一次清理
func (t *LogRetentionTask) Execute(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -t.retentionDays)

	deleted, err := t.usageLogRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		t.logger.Error("流水清理失败", zap.Error(err))
		return
	}
	t.logger.Info("流水清理完成",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))
}
