package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-shareflow/internal/models"
	"gorm.io/gorm"
)

type ShareRepository interface {
	Create(share *models.Share) error
	FindByCode(code string) (*models.Share, error)
	ExistsByCode(code string) (bool, error)
	// IncrementDownloads 原子地把下载计数加一
	// 仅当计数仍低于上限（或不限次数）时生效，返回是否有行被更新
	IncrementDownloads(code string) (bool, error)
	FindExpired(before time.Time, limit int) ([]models.Share, error)
	Delete(id uint64) error // 物理删除分享记录
}

type shareRepository struct {
	db *gorm.DB
}

// NewShareRepository 创建新的shareRepository实例
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

// 创建新的数据库记录
func (r *shareRepository) Create(share *models.Share) error {
	return r.db.Create(share).Error
}

// 根据提取码查找记录
func (r *shareRepository) FindByCode(code string) (*models.Share, error) {
	var share models.Share
	err := r.db.Where("code = ?", code).First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil if not found
		}
		return nil, fmt.Errorf("查询分享记录失败: %w", err)
	}
	return &share, nil
}

// 检查提取码是否已被占用，供生成查重循环使用
func (r *shareRepository) ExistsByCode(code string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Share{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询提取码占用状态失败: %w", err)
	}
	return count > 0, nil
}

// IncrementDownloads 单条条件更新代替读改写，防止并发下载突破次数上限
func (r *shareRepository) IncrementDownloads(code string) (bool, error) {
	res := r.db.Model(&models.Share{}).
		Where("code = ? AND (max_downloads IS NULL OR downloads < max_downloads)", code).
		UpdateColumn("downloads", gorm.Expr("downloads + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("更新下载计数失败: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// 查找已过期的分享记录，供清理任务批量回收
func (r *shareRepository) FindExpired(before time.Time, limit int) ([]models.Share, error) {
	var shares []models.Share
	err := r.db.Where("expires_at < ?", before).Order("expires_at asc").Limit(limit).Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("查询过期分享失败: %w", err)
	}
	return shares, nil
}

// 物理删除记录（分享没有回收站语义）
func (r *shareRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Share{}, id).Error
}
