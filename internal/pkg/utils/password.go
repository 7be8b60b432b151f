package utils

import (
	"github.com/3Eeeecho/go-shareflow/internal/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword 对分享提取密码做 bcrypt 哈希，明文不落库
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Error hashing share password", zap.Error(err))
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash 校验提取密码与哈希是否匹配
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
