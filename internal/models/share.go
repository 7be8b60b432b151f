package models

import (
	"time"
)

// ShareFile 描述分享中的单个文件
// 创建时随上传结果一次性写入，此后不可变，顺序与用户选择的顺序一致
type ShareFile struct {
	Name     string `json:"name"` // 原始文件名
	Size     int64  `json:"size"`
	MimeType string `json:"type"`
	URL      string `json:"url"`  // 对象的公开访问URL
	OssKey   string `json:"path"` // 对象在存储桶中的路径: <code>/<毫秒时间戳>_<净化后文件名>
}

// Share 对应 shares 表
type Share struct {
	ID           uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code         string      `gorm:"type:varchar(16);not null;uniqueIndex" json:"code"` // 6位大写字母数字提取码，对外的唯一句柄
	Files        []ShareFile `gorm:"serializer:json;type:json;not null" json:"files"`
	Expiry       string      `gorm:"type:varchar(8);not null" json:"expiry"` // 符号化的有效期: 10m/1h/6h/24h/7d
	ExpiresAt    time.Time   `gorm:"not null;index" json:"expires_at"`       // 创建时由 Expiry 计算出的绝对过期时间
	PasswordHash *string     `gorm:"type:varchar(255);default:null" json:"-"`
	MaxDownloads *uint32     `gorm:"type:int unsigned;default:null" json:"max_downloads"` // null 表示不限次数
	Downloads    uint32      `gorm:"type:int unsigned;not null;default:0" json:"downloads"`
	Message      *string     `gorm:"type:varchar(1024);default:null" json:"message,omitempty"` // 发送者留言
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定 GORM 使用的表名
func (Share) TableName() string {
	return "shares"
}

// HasPassword 分享是否设置了提取密码
func (s *Share) HasPassword() bool {
	return s.PasswordHash != nil && *s.PasswordHash != ""
}

// IsExpired 分享是否已过期（读取时判定，不依赖物理删除）
func (s *Share) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsExhausted 下载次数是否已达上限
func (s *Share) IsExhausted() bool {
	return s.MaxDownloads != nil && s.Downloads >= *s.MaxDownloads
}

// ObjectKeys 返回分享中所有对象的存储路径，供清理任务删除物理文件
func (s *Share) ObjectKeys() []string {
	keys := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		keys = append(keys, f.OssKey)
	}
	return keys
}
