package worker

import (
	"context"
	"encoding/json"
	"log"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/models"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/logger"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/mq"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/storage"
	"github.com/3Eeeecho/go-shareflow/internal/repositories"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// PurgeQueueName 分享清理任务队列
// 下载次数耗尽或过期的分享通过该队列异步回收，不阻塞下载请求
const PurgeQueueName = "share_purge_queue"

type PurgeWorker struct {
	mqClient       *mq.RabbitMQClient
	shareRepo      repositories.ShareRepository
	storageService storage.StorageService
	cfg            *config.Config
}

func NewPurgeWorker(
	mqClient *mq.RabbitMQClient,
	shareRepo repositories.ShareRepository,
	storageService storage.StorageService,
	cfg *config.Config,
) *PurgeWorker {
	return &PurgeWorker{
		mqClient:       mqClient,
		shareRepo:      shareRepo,
		storageService: storageService,
		cfg:            cfg,
	}
}

func (w *PurgeWorker) Start() {
	_, err := w.mqClient.DeclareQueue(PurgeQueueName)
	if err != nil {
		log.Fatalf("Failed to declare queue: %s", err)
	}
	err = w.mqClient.Consume(PurgeQueueName, w.PurgeShare)
	if err != nil {
		log.Fatalf("Failed to start consuming from queue: %s", err)
	}

	log.Println("Purge worker started...")
}

// PurgeShare 处理单个分享清理任务
// 先删物理对象，再删数据库记录；对象删除失败则重新入队
func (w *PurgeWorker) PurgeShare(msg amqp.Delivery) {
	var task models.PurgeShareTask
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		logger.Error("Failed to unmarshal purge task", zap.Error(err))
		_ = msg.Nack(false, false) // 解析失败,直接抛弃
		return
	}

	logger.Info("Received share purge task",
		zap.String("taskID", task.TaskID),
		zap.String("code", task.Code),
		zap.String("reason", task.Reason))

	ctx := context.Background()
	bucketName := w.cfg.BucketName()

	// 1. 删除任务中列出的对象
	if err := w.storageService.RemoveObjects(ctx, bucketName, task.ObjectKeys); err != nil {
		logger.Error("Failed to delete share objects from storage",
			zap.String("code", task.Code), zap.Error(err))
		_ = msg.Nack(false, true) // 重新入队
		return
	}

	// 2. 按分享码前缀兜底清理，覆盖创建失败时遗留的孤儿对象
	if task.Code != "" {
		if err := w.storageService.RemovePrefix(ctx, bucketName, task.Code+"/"); err != nil {
			// 前缀清理失败只记录不阻塞（列出的对象已删除）
			logger.Warn("Failed to purge share prefix (need manual cleanup)",
				zap.String("code", task.Code), zap.Error(err))
		}
	}

	// 3. 删除数据库记录
	if err := w.shareRepo.Delete(task.ShareID); err != nil {
		logger.Error("Failed to delete share record",
			zap.Uint64("shareID", task.ShareID), zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}

	logger.Info("Successfully purged share",
		zap.String("code", task.Code),
		zap.Uint64("shareID", task.ShareID))
	_ = msg.Ack(false) // 确认消息
}
