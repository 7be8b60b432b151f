package middlewares

import (
	"net/http"
	"strings"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/utils"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
)

// DownloadTokenMiddleware 校验下载令牌
// 令牌在提取分享时签发，只对签发时的提取码有效
func DownloadTokenMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 优先取查询参数，便于浏览器直接打开下载链接；其次取 Authorization 头
		tokenString := c.Query("token")
		if tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, xerr.ErrUnauthorized.Error())
			return
		}

		// 2. 解析和验证令牌
		claims, err := utils.ParseDownloadToken(tokenString, cfg.Token.SecretKey)
		if err != nil {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.TokenInvalidCode, xerr.ErrTokenInvalid.Error())
			return
		}

		// 3. 令牌只能用于签发它的那条分享
		code := utils.NormalizeShareCode(c.Param("code"))
		if claims.Code != code {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.TokenInvalidCode, xerr.ErrTokenInvalid.Error())
			return
		}

		c.Set("shareCode", claims.Code)
		c.Next()
	}
}
