package share

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/models"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/cache"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/logger"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/mq"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/mq/worker"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/storage"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/utils"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/xerr"
	"github.com/3Eeeecho/go-shareflow/internal/repositories"
	"github.com/3Eeeecho/go-shareflow/internal/services/transfer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 符号化有效期到时间偏移的固定映射表
var expiryOffsets = map[string]time.Duration{
	"10m": 10 * time.Minute,
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// ExpiryOffset 返回有效期符号对应的时间偏移
func ExpiryOffset(symbol string) (time.Duration, bool) {
	offset, ok := expiryOffsets[symbol]
	return offset, ok
}

// ParseMaxDownloads 解析最大下载次数参数
// "unlimited" 或空串表示不限次数，返回 nil
func ParseMaxDownloads(raw string) (*uint32, error) {
	if raw == "" || raw == "unlimited" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return nil, xerr.ErrInvalidMaxDownload
	}
	max := uint32(n)
	return &max, nil
}

// 提取码生成查重的最大尝试次数，用尽后放弃并报错
const maxCodeAttempts = 5

// 分享详情缓存的保留时间，访问和清理都会主动失效
const shareCacheTTL = time.Minute

// CreateShareInput 创建分享所需的全部参数
type CreateShareInput struct {
	Files        []transfer.StagedFile
	Expiry       string  // 符号化有效期: 10m/1h/6h/24h/7d
	Password     string  // 可选的提取密码，存储前做哈希
	MaxDownloads *uint32 // nil 表示不限次数
	Message      string  // 可选的给接收者的留言
	UploadID     string  // 可选，用于上传进度查询
}

// ShareService 定义了分享生命周期需要实现的接口
type ShareService interface {
	// CreateShare 上传暂存文件并创建一条分享记录，返回带提取码的分享
	CreateShare(ctx context.Context, input *CreateShareInput) (*models.Share, error)
	// GetShareByCode 根据提取码获取分享详情，不做密码校验，不增加计数
	GetShareByCode(ctx context.Context, code string) (*models.Share, error)
	// AccessShare 执行完整的访问校验链并增加下载计数，返回分享和下载令牌
	AccessShare(ctx context.Context, code, password string) (*models.Share, string, error)
	// GetFilePresignedURL 为分享中第 index 个文件生成预签名下载URL
	GetFilePresignedURL(ctx context.Context, share *models.Share, index int) (string, error)
}

// shareService 是 ShareService 接口的具体实现
type shareService struct {
	shareRepo repositories.ShareRepository // 分享数据仓库，用于数据库操作
	transfer  transfer.TransferService     // 字节搬运服务，复用上传编排逻辑
	storage   storage.StorageService
	cache     cache.Cache
	publisher mq.Publisher // 清理任务发布器
	cfg       *config.Config
}

// NewShareService 创建一个新的 ShareService 实例
func NewShareService(
	shareRepo repositories.ShareRepository,
	transferService transfer.TransferService,
	ss storage.StorageService,
	cacheService cache.Cache,
	publisher mq.Publisher,
	cfg *config.Config,
) ShareService {
	return &shareService{
		shareRepo: shareRepo,
		transfer:  transferService,
		storage:   ss,
		cache:     cacheService,
		publisher: publisher,
		cfg:       cfg,
	}
}

// CreateShare 处理创建分享的业务逻辑
func (s *shareService) CreateShare(ctx context.Context, input *CreateShareInput) (*models.Share, error) {
	// 1. 前置校验，任何网络调用之前完成
	if len(input.Files) == 0 {
		return nil, xerr.ErrNoFilesStaged
	}
	offset, ok := ExpiryOffset(input.Expiry)
	if !ok {
		return nil, xerr.ErrInvalidExpiry
	}

	// 2. 生成唯一提取码（查重循环 + 数据库唯一索引兜底）
	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	// 3. 顺序上传所有暂存文件，单个失败整体中止
	uploadedFiles, err := s.transfer.UploadAll(ctx, code, input.Files, input.UploadID)
	if err != nil {
		return nil, err
	}

	// 4. 如果设置了密码，对密码进行哈希处理，明文不落库
	var passwordHash *string
	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			logger.Error("CreateShare: 密码哈希失败", zap.Error(err))
			return nil, fmt.Errorf("密码处理失败: %w", err)
		}
		passwordHash = &hashed
	}

	var message *string
	if input.Message != "" {
		message = &input.Message
	}

	newShare := &models.Share{
		Code:         code,
		Files:        uploadedFiles,
		Expiry:       input.Expiry,
		ExpiresAt:    time.Now().Add(offset),
		PasswordHash: passwordHash,
		MaxDownloads: input.MaxDownloads,
		Downloads:    0,
		Message:      message,
	}

	// 5. 将新的分享记录保存到数据库
	// 失败时不回滚已上传对象，交给清理任务按前缀回收
	if err := s.shareRepo.Create(newShare); err != nil {
		logger.Error("CreateShare: 创建分享记录失败", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("创建分享失败: %w", err)
	}

	logger.Info("CreateShare: 分享创建成功",
		zap.String("code", code),
		zap.Int("fileCount", len(uploadedFiles)),
		zap.String("expiry", input.Expiry))
	return newShare, nil
}

// generateUniqueCode 生成提取码并查重，有限次尝试
func (s *shareService) generateUniqueCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := utils.GenerateShareCode()
		if err != nil {
			return "", fmt.Errorf("生成提取码失败: %w", err)
		}
		exists, err := s.shareRepo.ExistsByCode(code)
		if err != nil {
			return "", fmt.Errorf("检查提取码占用状态失败: %w", err)
		}
		if !exists {
			return code, nil
		}
		logger.Warn("generateUniqueCode: 提取码冲突，重新生成", zap.String("code", code))
	}
	return "", fmt.Errorf("连续 %d 次提取码冲突，放弃生成", maxCodeAttempts)
}

// GetShareByCode 获取分享详情
// 查找失败和数据库错误统一归一为 ErrShareNotFound，不向用户泄露具体原因
func (s *shareService) GetShareByCode(ctx context.Context, code string) (*models.Share, error) {
	code = utils.NormalizeShareCode(code)
	if !utils.IsValidShareCode(code) {
		return nil, xerr.ErrInvalidShareCode
	}

	cacheKey := cache.GenerateShareKey(code)
	cached := &models.Share{}
	if err := s.cache.Get(ctx, cacheKey, cached); err == nil {
		if cached.IsExpired(time.Now()) {
			return nil, xerr.ErrShareExpired
		}
		return cached, nil
	}

	record, err := s.shareRepo.FindByCode(code)
	if err != nil {
		logger.Error("GetShareByCode: 查询分享失败", zap.String("code", code), zap.Error(err))
		return nil, xerr.ErrShareNotFound
	}
	if record == nil {
		return nil, xerr.ErrShareNotFound
	}
	if record.IsExpired(time.Now()) {
		return nil, xerr.ErrShareExpired
	}

	if err := s.cache.Set(ctx, cacheKey, record, shareCacheTTL); err != nil {
		logger.Warn("GetShareByCode: 写入分享缓存失败", zap.String("code", code), zap.Error(err))
	}
	return record, nil
}

// AccessShare 处理接收者的访问请求
// 校验顺序固定：密码 -> 下载次数 -> 有效期，多个条件同时不满足时第一个失败者决定返回的错误
func (s *shareService) AccessShare(ctx context.Context, code, password string) (*models.Share, string, error) {
	code = utils.NormalizeShareCode(code)
	if !utils.IsValidShareCode(code) {
		return nil, "", xerr.ErrInvalidShareCode
	}

	// 计数必须是当前值，绕过缓存直接查库
	record, err := s.shareRepo.FindByCode(code)
	if err != nil {
		logger.Error("AccessShare: 查询分享失败", zap.String("code", code), zap.Error(err))
		return nil, "", xerr.ErrShareNotFound
	}
	if record == nil {
		return nil, "", xerr.ErrShareNotFound
	}

	// 1. 密码校验
	if record.HasPassword() {
		if password == "" {
			return nil, "", xerr.ErrSharePasswordRequired
		}
		if !utils.CheckPasswordHash(password, *record.PasswordHash) {
			return nil, "", xerr.ErrSharePasswordIncorrect
		}
	}

	// 2. 下载次数校验
	if record.IsExhausted() {
		return nil, "", xerr.ErrShareExhausted
	}

	// 3. 有效期校验
	if record.IsExpired(time.Now()) {
		return nil, "", xerr.ErrShareExpired
	}

	// 4. 原子递增下载计数，零行更新说明并发访问抢先占满了余量
	updated, err := s.shareRepo.IncrementDownloads(code)
	if err != nil {
		logger.Error("AccessShare: 更新下载计数失败", zap.String("code", code), zap.Error(err))
		return nil, "", fmt.Errorf("更新下载计数失败: %w", err)
	}
	if !updated {
		return nil, "", xerr.ErrShareExhausted
	}
	record.Downloads++

	if err := s.cache.Del(ctx, cache.GenerateShareKey(code)); err != nil {
		logger.Warn("AccessShare: 失效分享缓存失败", zap.String("code", code), zap.Error(err))
	}

	// 5. 本次访问耗尽余量时投递清理任务，失败不影响已成功的访问
	if record.IsExhausted() {
		if err := s.publishPurgeTask(record, models.PurgeReasonExhausted); err != nil {
			logger.Error("AccessShare: 投递分享清理任务失败", zap.String("code", code), zap.Error(err))
		}
	}

	// 6. 签发下载令牌，后续的文件下载请求凭此令牌放行
	token, err := utils.GenerateDownloadToken(code, s.cfg.Token.SecretKey, s.cfg.Token.Issuer,
		time.Duration(s.cfg.Token.ExpiresInMinutes)*time.Minute)
	if err != nil {
		logger.Error("AccessShare: 签发下载令牌失败", zap.String("code", code), zap.Error(err))
		return nil, "", fmt.Errorf("签发下载令牌失败: %w", err)
	}

	logger.Info("AccessShare: 分享访问成功",
		zap.String("code", code),
		zap.Uint32("downloads", record.Downloads))
	return record, token, nil
}

// publishPurgeTask 构造清理任务并投递到消息队列
func (s *shareService) publishPurgeTask(record *models.Share, reason string) error {
	task := models.PurgeShareTask{
		TaskID:     uuid.New().String(),
		ShareID:    record.ID,
		Code:       record.Code,
		ObjectKeys: record.ObjectKeys(),
		Reason:     reason,
	}
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("序列化清理任务失败: %w", err)
	}
	if err := s.publisher.Publish(worker.PurgeQueueName, body); err != nil {
		return fmt.Errorf("投递清理任务失败: %w", err)
	}
	return nil
}

// GetFilePresignedURL 为分享中的单个文件生成预签名下载URL
func (s *shareService) GetFilePresignedURL(ctx context.Context, record *models.Share, index int) (string, error) {
	if index < 0 || index >= len(record.Files) {
		return "", xerr.ErrShareFileNotFound
	}
	file := record.Files[index]

	expiry := time.Duration(s.cfg.Storage.PresignedURLExpiry) * time.Minute
	presignedURL, err := s.storage.PresignGetObjectURL(ctx, s.cfg.BucketName(), file.OssKey, file.Name, expiry)
	if err != nil {
		logger.Error("GetFilePresignedURL: 生成预签名URL失败",
			zap.String("code", record.Code),
			zap.String("ossKey", file.OssKey),
			zap.Error(err))
		return "", fmt.Errorf("获取文件下载链接失败: %w", err)
	}
	return presignedURL, nil
}
