package worker

import (
	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/mq"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/storage"
	"github.com/3Eeeecho/go-shareflow/internal/repositories"
)

// StartAllWorkers 启动应用中所有定义的后台 Worker
func StartAllWorkers(
	cfg *config.Config,
	mqClient *mq.RabbitMQClient,
	shareRepo repositories.ShareRepository,
	storageService storage.StorageService,
) {
	// --- 启动分享清理 Worker ---
	purgeWorker := NewPurgeWorker(mqClient, shareRepo, storageService, cfg)
	go purgeWorker.Start()
}
