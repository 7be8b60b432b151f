package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/models"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/logger"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/mq"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/mq/worker"
	"github.com/3Eeeecho/go-shareflow/internal/repositories"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 每次扫描最多处理的过期分享数量，剩余的留给下一轮
const sweepBatchSize = 100

// Sweeper 定时扫描过期的分享并投递清理任务
// 实际的对象删除和记录删除由清理 Worker 消费队列完成
type Sweeper struct {
	shareRepo repositories.ShareRepository
	publisher mq.Publisher
	cfg       *config.Config
	cron      *cron.Cron
}

func NewSweeper(shareRepo repositories.ShareRepository, publisher mq.Publisher, cfg *config.Config) *Sweeper {
	return &Sweeper{
		shareRepo: shareRepo,
		publisher: publisher,
		cfg:       cfg,
		cron:      cron.New(),
	}
}

// Start 注册并启动定时任务
func (s *Sweeper) Start() error {
	spec := s.cfg.Share.SweepCron
	if _, err := s.cron.AddFunc(spec, s.SweepExpiredShares); err != nil {
		return fmt.Errorf("注册过期分享清理任务失败: %w", err)
	}
	s.cron.Start()
	logger.Info("过期分享清理任务已启动", zap.String("cron", spec))
	return nil
}

// Stop 停止定时任务，等待正在执行的扫描结束
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("过期分享清理任务已停止")
}

// SweepExpiredShares 扫描一批过期分享并逐条投递清理任务
// 投递失败只记录日志，记录仍在库中，下一轮扫描会重试
func (s *Sweeper) SweepExpiredShares() {
	expired, err := s.shareRepo.FindExpired(time.Now(), sweepBatchSize)
	if err != nil {
		logger.Error("SweepExpiredShares: 查询过期分享失败", zap.Error(err))
		return
	}
	if len(expired) == 0 {
		return
	}

	published := 0
	for i := range expired {
		record := &expired[i]
		task := models.PurgeShareTask{
			TaskID:     uuid.New().String(),
			ShareID:    record.ID,
			Code:       record.Code,
			ObjectKeys: record.ObjectKeys(),
			Reason:     models.PurgeReasonExpired,
		}
		body, err := json.Marshal(task)
		if err != nil {
			logger.Error("SweepExpiredShares: 序列化清理任务失败",
				zap.String("code", record.Code), zap.Error(err))
			continue
		}
		if err := s.publisher.Publish(worker.PurgeQueueName, body); err != nil {
			logger.Error("SweepExpiredShares: 投递清理任务失败",
				zap.String("code", record.Code), zap.Error(err))
			continue
		}
		published++
	}

	logger.Info("SweepExpiredShares: 本轮扫描完成",
		zap.Int("expired", len(expired)), zap.Int("published", published))
}
