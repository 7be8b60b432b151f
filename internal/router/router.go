package router

import (
	"net/http"

	_ "github.com/3Eeeecho/go-shareflow/docs"
	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/handlers"
	"github.com/3Eeeecho/go-shareflow/internal/middlewares"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/cache"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/mq"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/storage"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/xerr"
	"github.com/3Eeeecho/go-shareflow/internal/repositories"
	"github.com/3Eeeecho/go-shareflow/internal/services/share"
	"github.com/3Eeeecho/go-shareflow/internal/services/transfer"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RouterConfig 包含初始化路由所需的所有依赖
type RouterConfig struct {
	db             *gorm.DB
	redisClient    *redis.Client
	storageService storage.StorageService
	mqClient       *mq.RabbitMQClient
	cfg            *config.Config
}

func NewRouterConfig(
	db *gorm.DB,
	redisClient *redis.Client,
	storageService storage.StorageService,
	mqClient *mq.RabbitMQClient,
	cfg *config.Config,
) *RouterConfig {
	return &RouterConfig{
		db:             db,
		redisClient:    redisClient,
		storageService: storageService,
		mqClient:       mqClient,
		cfg:            cfg,
	}
}

func InitRouter(routerCfg *RouterConfig) *gin.Engine {
	router := gin.Default()

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 组装分享服务依赖链
	cacheService := cache.NewRedisCache(routerCfg.redisClient)
	shareRepo := repositories.NewShareRepository(routerCfg.db)
	transferService := transfer.NewTransferService(routerCfg.storageService, cacheService, routerCfg.cfg)
	shareService := share.NewShareService(shareRepo, transferService, routerCfg.storageService, cacheService, routerCfg.mqClient, routerCfg.cfg)
	shareHandler := handlers.NewShareHandler(shareService, transferService, routerCfg.cfg)

	v1 := router.Group("/api/v1")
	{
		// 分享相关路由（创建和提取无需任何令牌）
		shareGroup := v1.Group("/shares")
		{
			shareGroup.POST("", shareHandler.CreateShare)
			shareGroup.GET("/:code", shareHandler.GetShareDetails)
			shareGroup.POST("/:code/access", shareHandler.AccessShare)

			// 文件下载需要提取时签发的下载令牌
			downloadGroup := shareGroup.Group("/:code")
			downloadGroup.Use(middlewares.DownloadTokenMiddleware(routerCfg.cfg))
			{
				downloadGroup.GET("/files/:index", shareHandler.DownloadShareFile)
				downloadGroup.GET("/archive", shareHandler.DownloadShareArchive)
			}
		}

		// 上传进度查询
		uploadGroup := v1.Group("/uploads")
		{
			uploadGroup.GET("/:upload_id/progress", shareHandler.GetUploadProgress)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, xerr.NotFoundCode, "Route not found")
	})

	return router
}
