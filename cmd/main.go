package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"panel_api_v1_202608/internal/config"
	"panel_api_v1_202608/internal/controller"
	"panel_api_v1_202608/internal/middleware"
	"panel_api_v1_202608/internal/model"
	"panel_api_v1_202608/internal/repository"
	"panel_api_v1_202608/internal/router"
	"panel_api_v1_202608/internal/service"
	"panel_api_v1_202608/internal/task"
	"panel_api_v1_202608/pkg/database"
	"panel_api_v1_202608/pkg/logger"
	"panel_api_v1_202608/pkg/utils"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	// 2. 初始化日志
	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer zapLogger.Sync()

	// 3. 初始化数据库
	db, err := initDatabase(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("数据库初始化失败", zap.Error(err))
	}

	// 4. 初始化依赖
	deps := initDependencies(db, cfg, zapLogger)

	// 5. 启动定时任务
	initTasks(deps)

	// 6. 初始化路由
	r := router.SetupRouter(deps.Controllers, deps.Middlewares)

	// 7. 启动服务
	startServer(r, cfg, zapLogger)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Config      *config.Config
	Logger      *zap.Logger
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	Middlewares *router.Middlewares
	Tasks       *Tasks
}

// Repositories 仓库集合
type Repositories struct {
	APIKey   repository.APIKeyRepository
	UsageLog repository.UsageLogRepository
	Catalog  repository.CatalogRepository
	SMM      repository.SMMRepository
	Profile  repository.ProfileRepository
}

// Services 服务集合
type Services struct {
	Catalog  *service.CatalogService
	Usage    *service.UsageService
	Notify   *service.NotifyService
	Provider *service.ProviderService
	Order    *service.OrderService
}

// Tasks 定时任务集合
type Tasks struct {
	LogRetention *task.LogRetentionTask
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config, zapLogger *zap.Logger) (*gorm.DB, error) {
	return database.InitDB(cfg.Database.DSN, zapLogger,
		// 接入
		&model.APIKey{}, &model.UsageLog{},
		// 目录
		&model.Category{}, &model.Product{}, &model.ProductImage{}, &model.ProductPackage{},
		&model.FlashSale{}, &model.FlashSaleItem{}, &model.AccountInventory{},
		// SMM
		&model.SMMConfig{}, &model.SMMService{}, &model.SMMOrder{}, &model.Profile{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB, cfg *config.Config, zapLogger *zap.Logger) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		APIKey:   repository.NewAPIKeyRepository(db),
		UsageLog: repository.NewUsageLogRepository(db),
		Catalog:  repository.NewCatalogRepository(db),
		SMM:      repository.NewSMMRepository(db),
		Profile:  repository.NewProfileRepository(db),
	}

	// -------- Service 层 --------
	httpClient := utils.NewAPIClient(30 * time.Second)

	services := &Services{
		Catalog: service.NewCatalogService(repos.Catalog),
		Usage:   service.NewUsageService(repos.UsageLog),
		Notify: service.NewNotifyService(&service.NotifyConfig{
			WebhookURL: cfg.Notify.WebhookURL,
		}, httpClient, zapLogger),
	}
	services.Provider = service.NewProviderService(repos.SMM, httpClient, zapLogger)
	services.Order = service.NewOrderService(repos.SMM, repos.Profile, services.Provider, zapLogger)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Product:   controller.NewProductController(services.Catalog),
		Category:  controller.NewCategoryController(services.Catalog),
		FlashSale: controller.NewFlashSaleController(services.Catalog),
		Inventory: controller.NewInventoryController(services.Catalog),
		SMM:       controller.NewSMMController(services.Order, services.Provider, zapLogger),
	}

	// -------- 中间件 --------
	middlewares := &router.Middlewares{
		Recovery:    middleware.Recovery(zapLogger),
		APIKeyAuth:  middleware.APIKeyAuth(repos.APIKey, zapLogger),
		IPAllowList: middleware.IPAllowList(zapLogger),
		RateLimit:   middleware.RateLimit(services.Usage, repos.APIKey, services.Notify, zapLogger),
		UsageLogger: middleware.UsageLogger(services.Usage, zapLogger),
	}

	// -------- 定时任务 --------
	tasks := &Tasks{
		LogRetention: task.NewLogRetentionTask(repos.UsageLog, cfg.Usage.RetentionDays, zapLogger),
	}

	return &Dependencies{
		DB:          db,
		Config:      cfg,
		Logger:      zapLogger,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		Middlewares: middlewares,
		Tasks:       tasks,
	}
}

// initTasks 启动定时任务
func initTasks(deps *Dependencies) {
	deps.Tasks.LogRetention.Start()
}

// ==================== 服务启动 ====================

// startServer 启动服务并等待退出信号
func startServer(r *gin.Engine, cfg *config.Config, zapLogger *zap.Logger) {
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// 异步启动服务
	go func() {
		zapLogger.Info("网关启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("收到退出信号，开始优雅关闭")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("优雅关闭失败", zap.Error(err))
	}
	zapLogger.Info("网关已退出")
}
