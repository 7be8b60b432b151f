package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/3Eeeecho/go-shareflow/internal/config"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/logger"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/mq"
	"github.com/3Eeeecho/go-shareflow/internal/pkg/mq/worker"
	"github.com/3Eeeecho/go-shareflow/internal/repositories"
	"github.com/3Eeeecho/go-shareflow/internal/router"
	"github.com/3Eeeecho/go-shareflow/internal/setup"
	"github.com/3Eeeecho/go-shareflow/internal/tasks"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router         *gin.Engine
	httpServer     *http.Server
	db             *gorm.DB
	redisClient    *redis.Client
	rabbitMQClient *mq.RabbitMQClient
	sweeper        *tasks.Sweeper
}

// NewServer 负责构建所有依赖
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化数据库连接
	mysqlDB := setup.InitMySQL(&cfg.MySQL)

	// 初始化 Redis 连接
	redisClient := setup.InitRedis(cfg)

	// 初始化对象存储
	storageService := setup.InitStorage(cfg)

	// 初始化 RabbitMQ
	rabbitMQClient, err := mq.NewRabbitMQClient(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}

	shareRepo := repositories.NewShareRepository(mysqlDB)

	// 启动所有后台 Worker
	worker.StartAllWorkers(cfg, rabbitMQClient, shareRepo, storageService)

	// 启动过期分享定时清理
	sweeper := tasks.NewSweeper(shareRepo, rabbitMQClient, cfg)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start share sweeper", zap.Error(err))
	}

	// 初始化 Gin 引擎和注册路由
	routerCfg := router.NewRouterConfig(mysqlDB, redisClient, storageService, rabbitMQClient, cfg)
	engine := router.InitRouter(routerCfg)

	addr := ":" + cfg.Server.Port
	logger.Info("Server is running on " + addr)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	return &Server{
		router:         engine,
		httpServer:     httpServer,
		db:             mysqlDB,
		redisClient:    redisClient,
		rabbitMQClient: rabbitMQClient,
		sweeper:        sweeper,
	}, nil
}

// Run 启动服务器，并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	// 确保在应用关闭时，所有连接都被释放
	// GORM v2 依赖连接池，通常不需要手动关闭。Redis和MQ需要
	defer s.rabbitMQClient.Close()
	defer s.redisClient.Close()

	// 启动 HTTP 服务器
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	<-stopChan
	logger.Info("Shutting down server...")

	// 先停定时任务，避免关机期间继续投递清理消息
	s.sweeper.Stop()

	// 优雅关机
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited gracefully")
}
