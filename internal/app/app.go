package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"studynotes_backend/internal/config"
	"studynotes_backend/internal/controller"
	"studynotes_backend/internal/middleware"
	"studynotes_backend/internal/repository"
	"studynotes_backend/internal/service"
	"studynotes_backend/internal/session"
	"studynotes_backend/pkg/database"
	"studynotes_backend/pkg/logger"
	"studynotes_backend/pkg/messaging"
	"studynotes_backend/pkg/monitoring"
	"studynotes_backend/pkg/scheduler"
	"studynotes_backend/pkg/security"
	"studynotes_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	tokenSweepInterval    = time.Hour
	practiceSweepInterval = 5 * time.Minute
)

type App struct {
	Config    *config.Config
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	Feed      *session.Counter
	Publisher messaging.Publisher
	Scheduler *scheduler.Scheduler
	Limiter   *security.RateLimiter

	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

// Deps 外部依赖，测试时可替换
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Publisher messaging.Publisher
	AI        service.AIClient
}

type repositories struct {
	user      *repository.UserRepository
	token     *repository.TokenRepository
	note      *repository.NoteRepository
	file      *repository.FileRepository
	quiz      *repository.QuizRepository
	flashcard *repository.FlashcardRepository
}

type services struct {
	auth     *service.AuthService
	storage  *service.StorageService
	user     *service.UserService
	note     *service.NoteService
	file     *service.FileService
	content  *service.ContentService
	practice *service.PracticeService
	feedHub  *service.FeedHub
}

type controllers struct {
	auth     *controller.AuthController
	user     *controller.UserController
	note     *controller.NoteController
	file     *controller.FileController
	content  *controller.ContentController
	practice *controller.PracticeController
	feed     *controller.FeedController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新时调用，只处理可在运行时调整的项
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		token:     repository.NewTokenRepository(db),
		note:      repository.NewNoteRepository(db),
		file:      repository.NewFileRepository(db),
		quiz:      repository.NewQuizRepository(db),
		flashcard: repository.NewFlashcardRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, deps Deps) *services {
	s := &services{}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.auth = service.NewAuthService(repos.user, repos.token, &cfg.JWT)
	s.user = service.NewUserService(repos.user, s.storage)
	s.note = service.NewNoteService(repos.note, repos.file, a.Feed, deps.Publisher)
	s.file = service.NewFileService(repos.file, s.storage, deps.Publisher)
	s.content = service.NewContentService(repos.quiz, repos.flashcard, s.note, s.file, deps.AI)

	var store service.PracticeStore
	if cfg.Practice.Store == "redis" && deps.Redis != nil {
		store = service.NewRedisPracticeStore(deps.Redis, cfg.Practice.IdleTTL())
	} else {
		store = service.NewMemoryPracticeStore(cfg.Practice.IdleTTL())
	}
	s.practice = service.NewPracticeService(store, s.content, deps.Publisher)
	s.feedHub = service.NewFeedHub(a.Feed)

	return s
}

func (a *App) initControllers(s *services, deps Deps) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		user:     controller.NewUserController(s.user, s.note),
		note:     controller.NewNoteController(s.note),
		file:     controller.NewFileController(s.file),
		content:  controller.NewContentController(s.content),
		practice: controller.NewPracticeController(s.practice),
		feed:     controller.NewFeedController(s.feedHub),
		health:   controller.NewHealthController(deps.DB, deps.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.Limiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router.Use(a.Limiter.Middleware())
	a.RegisterConfigCallback(func(c *config.Config) {
		a.Limiter.SetLimit(c.RateLimit.MaxRequests, time.Duration(c.RateLimit.WindowMinutes)*time.Minute)
	})

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) error {
	if err := a.Scheduler.Every(tokenSweepInterval, "token-sweep", func(ctx context.Context) error {
		n, err := s.auth.SweepExpiredTokens()
		if n > 0 {
			logger.Log.Info("Expired tokens removed", zap.Int64("count", n))
		}
		return err
	}); err != nil {
		return err
	}

	if err := a.Scheduler.Every(practiceSweepInterval, "practice-sweep", func(ctx context.Context) error {
		n, err := s.practice.Sweep(ctx)
		if n > 0 {
			logger.Log.Info("Idle practice sessions removed", zap.Int("count", n))
		}
		return err
	}); err != nil {
		return err
	}

	a.Scheduler.Start()
	return nil
}

// NewApp 连接数据库、Redis 与消息队列后组装应用
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}, nil
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("initialize redis: %w", err)
		}
	}

	var publisher messaging.Publisher = messaging.LogPublisher{}
	if cfg.RabbitMQ.Enabled {
		p, err := messaging.NewRabbitMQPublisher(&cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		publisher = p
		logger.Log.Info("RabbitMQ publisher connected", zap.String("queue", cfg.RabbitMQ.Queue))
	}

	app, err := New(cfg, Deps{
		DB:        db,
		Redis:     rdb,
		Publisher: publisher,
		AI:        service.NewAIService(cfg.AI),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("studynotes", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
		app.tracer = tp
	}

	if err := app.startBackgroundTasks(app.services); err != nil {
		return nil, err
	}
	return app, nil
}

// New 使用给定依赖组装路由，不启动后台任务
func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}
	if deps.Publisher == nil {
		deps.Publisher = messaging.LogPublisher{}
	}

	app := &App{
		Config:    cfg,
		DB:        deps.DB,
		Redis:     deps.Redis,
		Feed:      session.NewCounter(),
		Publisher: deps.Publisher,
		Scheduler: scheduler.New(),
	}

	app.RegisterConfigCallback(func(c *config.Config) {
		logger.Reload(c)
	})

	repos := app.initRepositories(deps.DB)
	app.services = app.initServices(repos, cfg, deps)
	controllers := app.initControllers(app.services, deps)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.AccessLogger(gin.DefaultWriter), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, app.services)

	return app, nil
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	logger.Log.Info("Server exiting")
}

// Close 停止后台任务并释放外部连接
func (a *App) Close(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Limiter != nil {
		a.Limiter.Stop()
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			logger.Log.Warn("Failed to close publisher", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
