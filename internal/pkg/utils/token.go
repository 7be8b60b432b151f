package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DownloadClaims 下载令牌的声明
// 令牌在一次成功的分享访问后签发，只对该分享码有效
type DownloadClaims struct {
	Code string `json:"code"`
	jwt.RegisteredClaims
}

// GenerateDownloadToken 为指定分享码签发下载令牌
// secretKey: 用于签名的密钥
// expiresIn: 令牌有效期
func GenerateDownloadToken(code, secretKey, issuer string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := &DownloadClaims{
		Code: code,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   code,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign download token: %w", err)
	}

	return tokenString, nil
}

// ParseDownloadToken 解析并验证下载令牌
func ParseDownloadToken(tokenString, secretKey string) (*DownloadClaims, error) {
	claims := &DownloadClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid download token")
	}
	return claims, nil
}
