package utils

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

// ShareCodeLength 提取码固定长度
const ShareCodeLength = 6

// 提取码字符集：大写字母加数字
const shareCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	unsafeFileNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]+`)
	repeatedUnderscores = regexp.MustCompile(`_+`)
	shareCodePattern    = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

// GenerateShareCode 生成一个6位大写字母数字提取码
// 提取码是访问凭证的一部分，因此使用 crypto/rand 而不是普通伪随机数
// 唯一性由调用方负责（服务层查重循环 + 数据库唯一索引兜底）
func GenerateShareCode() (string, error) {
	buf := make([]byte, ShareCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("读取随机字节失败: %w", err)
	}
	for i, b := range buf {
		buf[i] = shareCodeCharset[int(b)%len(shareCodeCharset)]
	}
	return string(buf), nil
}

// IsValidShareCode 校验提取码格式：恰好6位大写字母或数字
func IsValidShareCode(code string) bool {
	return shareCodePattern.MatchString(code)
}

// NormalizeShareCode 统一转为大写后再查询，用户输入大小写不敏感
func NormalizeShareCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SanitizeFileName 净化文件名用于对象存储路径
// 非字母数字和点横线的字符折叠为单个下划线，总长度截断到100字符
func SanitizeFileName(name string) string {
	safe := unsafeFileNameChars.ReplaceAllString(name, "_")
	safe = repeatedUnderscores.ReplaceAllString(safe, "_")
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return safe
}
