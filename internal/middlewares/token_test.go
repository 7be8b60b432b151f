package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/utils"
	"github.com/gin-gonic/gin"
)

func setupTokenRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/shares/:code")
	group.Use(DownloadTokenMiddleware(cfg))
	group.GET("/archive", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": c.GetString("shareCode")})
	})
	return router
}

func tokenTestConfig() *config.Config {
	return &config.Config{
		Token: config.TokenConfig{
			SecretKey:        "test-secret",
			ExpiresInMinutes: 30,
			Issuer:           "go-shareflow",
		},
	}
}

func TestDownloadTokenMiddleware(t *testing.T) {
	cfg := tokenTestConfig()
	router := setupTokenRouter(cfg)

	token, err := utils.GenerateDownloadToken("ABC123", cfg.Token.SecretKey, cfg.Token.Issuer, 30*time.Minute)
	if err != nil {
		t.Fatalf("签发下载令牌失败: %v", err)
	}

	t.Run("查询参数携带有效令牌", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/shares/ABC123/archive?token="+token, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("期望 200，实际 %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("请求头携带有效令牌", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/shares/ABC123/archive", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("期望 200，实际 %d", w.Code)
		}
	})

	t.Run("小写提取码路径同样放行", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/shares/abc123/archive?token="+token, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("期望 200，实际 %d", w.Code)
		}
	})

	t.Run("缺少令牌", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/shares/ABC123/archive", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("期望 401，实际 %d", w.Code)
		}
	})

	t.Run("令牌不能跨分享使用", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/shares/XYZ789/archive?token="+token, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("期望 401，实际 %d", w.Code)
		}
	})

	t.Run("过期令牌被拒绝", func(t *testing.T) {
		expired, err := utils.GenerateDownloadToken("ABC123", cfg.Token.SecretKey, cfg.Token.Issuer, -time.Minute)
		if err != nil {
			t.Fatalf("签发下载令牌失败: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/shares/ABC123/archive?token="+expired, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("期望 401，实际 %d", w.Code)
		}
	})

	t.Run("伪造签名被拒绝", func(t *testing.T) {
		forged, err := utils.GenerateDownloadToken("ABC123", "other-secret", cfg.Token.Issuer, 30*time.Minute)
		if err != nil {
			t.Fatalf("签发下载令牌失败: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/shares/ABC123/archive?token="+forged, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("期望 401，实际 %d", w.Code)
		}
	})
}
