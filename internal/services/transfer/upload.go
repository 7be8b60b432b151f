package transfer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/models"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/cache"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/logger"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/storage"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/utils"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/xerr"
	"go.uber.org/zap"
)

// StagedFile 暂存区中等待上传的单个文件
type StagedFile struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// UploadProgress 上传进度，粒度为文件级而非字节级
type UploadProgress struct {
	Total   int `json:"total"`
	Done    int `json:"done"`
	Percent int `json:"percent"`
}

// TransferService 负责分享内容的字节搬运：上传编排与打包下载
type TransferService interface {
	// UploadAll 按顺序上传暂存文件到以分享码为前缀的路径下，返回与输入同序的文件清单
	// 任何一个文件失败则整体中止，不回滚已上传对象，错误原样上抛
	UploadAll(ctx context.Context, code string, files []StagedFile, uploadID string) ([]models.ShareFile, error)
	// Progress 查询某次上传的文件级进度
	Progress(ctx context.Context, uploadID string) (*UploadProgress, error)
	// StreamArchive 把分享中的所有文件打包成一个zip流
	StreamArchive(ctx context.Context, share *models.Share) io.ReadCloser
}

type transferService struct {
	storage storage.StorageService
	cache   cache.Cache
	cfg     *config.Config
}

// NewTransferService 创建一个新的 TransferService 实例
func NewTransferService(ss storage.StorageService, cacheService cache.Cache, cfg *config.Config) TransferService {
	return &transferService{
		storage: ss,
		cache:   cacheService,
		cfg:     cfg,
	}
}

// 上传进度记录的保留时间
const progressTTL = 10 * time.Minute

func (s *transferService) UploadAll(ctx context.Context, code string, files []StagedFile, uploadID string) ([]models.ShareFile, error) {
	if len(files) == 0 {
		return nil, xerr.ErrNoFilesStaged
	}

	bucketName := s.cfg.BucketName()
	uploaded := make([]models.ShareFile, 0, len(files))

	for i, f := range files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		// 对象路径: <code>/<毫秒时间戳>_<净化后文件名>
		objectName := fmt.Sprintf("%s/%d_%s", code, time.Now().UnixMilli(), utils.SanitizeFileName(f.Name))

		_, err := s.storage.PutObject(ctx, bucketName, objectName, f.Reader, f.Size, contentType)
		if err != nil {
			logger.Error("UploadAll: 上传文件失败，中止整个批次",
				zap.String("code", code),
				zap.String("fileName", f.Name),
				zap.Int("index", i),
				zap.Error(err))
			return nil, fmt.Errorf("上传失败: %w", err)
		}

		uploaded = append(uploaded, models.ShareFile{
			Name:     f.Name,
			Size:     f.Size,
			MimeType: contentType,
			URL:      s.storage.GetObjectURL(bucketName, objectName),
			OssKey:   objectName,
		})

		s.reportProgress(ctx, uploadID, i+1, len(files))
	}

	logger.Info("UploadAll: 批次上传完成",
		zap.String("code", code), zap.Int("fileCount", len(uploaded)))
	return uploaded, nil
}

// reportProgress 每完成一个文件写入一次进度，失败只记录不影响上传
func (s *transferService) reportProgress(ctx context.Context, uploadID string, done, total int) {
	if uploadID == "" {
		return
	}
	key := cache.GenerateUploadProgressKey(uploadID)
	err := s.cache.HSet(ctx, key, map[string]any{
		"total":   total,
		"done":    done,
		"percent": done * 100 / total,
	})
	if err != nil {
		logger.Warn("reportProgress: 写入上传进度失败", zap.String("uploadID", uploadID), zap.Error(err))
		return
	}
	_ = s.cache.Expire(ctx, key, progressTTL)
}

func (s *transferService) Progress(ctx context.Context, uploadID string) (*UploadProgress, error) {
	fields, err := s.cache.HGetAll(ctx, cache.GenerateUploadProgressKey(uploadID))
	if err != nil {
		if err == cache.ErrCacheMiss {
			return nil, xerr.ErrUploadSessionNotFound
		}
		return nil, fmt.Errorf("查询上传进度失败: %w", err)
	}

	progress := &UploadProgress{}
	progress.Total, _ = strconv.Atoi(fields["total"])
	progress.Done, _ = strconv.Atoi(fields["done"])
	progress.Percent, _ = strconv.Atoi(fields["percent"])
	return progress, nil
}
