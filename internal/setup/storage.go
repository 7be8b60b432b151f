package setup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/logger"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/storage"
)

// InitStorage 初始化对象存储服务并确保分享存储桶存在
func InitStorage(cfg *config.Config) storage.StorageService {
	storageService, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("初始化存储服务失败，请检查配置", zap.String("type", cfg.Storage.Type), zap.Error(err))
	}
	logger.Info("存储服务已初始化", zap.String("type", cfg.Storage.Type))

	if err := ensureBucket(storageService, cfg.BucketName()); err != nil {
		logger.Fatal("初始化存储桶失败", zap.String("bucketName", cfg.BucketName()), zap.Error(err))
	}
	return storageService
}

// ensureBucket 检查并创建存储桶
func ensureBucket(storageService storage.StorageService, bucketName string) error {
	// 为外部调用使用带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := storageService.IsBucketExist(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶存在性失败: %w", err)
	}
	if exists {
		logger.Info("存储桶已存在", zap.String("bucketName", bucketName))
		return nil
	}

	logger.Info("存储桶不存在，尝试创建...", zap.String("bucketName", bucketName))
	if err := storageService.MakeBucket(ctx, bucketName); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	logger.Info("存储桶创建成功", zap.String("bucketName", bucketName))
	return nil
}
