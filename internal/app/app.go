package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recruit_backend/internal/config"
	"recruit_backend/internal/controller"
	"recruit_backend/internal/evaluator"
	"recruit_backend/internal/grading"
	"recruit_backend/internal/repository"
	"recruit_backend/internal/service"
	"recruit_backend/pkg/configwatcher"
	"recruit_backend/pkg/database"
	"recruit_backend/pkg/lock"
	"recruit_backend/pkg/logger"
	"recruit_backend/pkg/monitoring"
	"recruit_backend/pkg/queue"
	"recruit_backend/pkg/security"
	"recruit_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lockTTL          = 30 * time.Second
	leaderboardTTL   = 10 * time.Minute
	expirySweepEvery = time.Minute
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	MQ              *queue.RabbitMQ
	services        *services
	configCallbacks []func(*config.Config)
	tracer          *sdktrace.TracerProvider
	closers         []func()
}

type repositories struct {
	job         *repository.JobRepository
	assessment  *repository.AssessmentRepository
	application *repository.ApplicationRepository
	proctoring  *repository.ProctoringRepository
}

type services struct {
	policy      *config.PolicyStore
	storage     *service.StorageService
	job         *service.JobService
	assessment  *service.AssessmentService
	ranking     *service.RankingService
	application *service.ApplicationService
	export      *service.ExportService
}

type controllers struct {
	job         *controller.JobController
	assessment  *controller.AssessmentController
	attempt     *controller.AttemptController
	application *controller.ApplicationController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) Applications() *service.ApplicationService { return a.services.application }
func (a *App) Ranking() *service.RankingService         { return a.services.ranking }
func (a *App) Export() *service.ExportService           { return a.services.export }

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		job:         repository.NewJobRepository(db),
		assessment:  repository.NewAssessmentRepository(db),
		application: repository.NewApplicationRepository(db),
		proctoring:  repository.NewProctoringRepository(db),
	}
}

// initGrader 评估服务未配置时对应题型的答案保持待复评，不影响作答流程
func (a *App) initGrader(cfg *config.Config) (*grading.Grader, evaluator.ResumeParser) {
	var (
		text   grading.TextEvaluator
		code   grading.CodeExecutor
		resume evaluator.ResumeParser
	)

	completer, err := evaluator.NewCompleter(context.Background(), cfg.AI)
	if err != nil {
		logger.Log.Warn("LLM evaluator disabled", zap.String("provider", cfg.AI.Provider), zap.Error(err))
	} else {
		logger.Log.Info("LLM evaluator ready", zap.String("completer", completer.Name()))
		text = evaluator.NewLLMTextEvaluator(completer)
		resume = evaluator.NewLLMResumeParser(completer)
		if c, ok := completer.(interface{ Close() error }); ok {
			a.closers = append(a.closers, func() { c.Close() })
		}
	}

	if cfg.Judge0.URL != "" {
		code = evaluator.NewJudge0Executor(cfg.Judge0)
	} else {
		logger.Log.Warn("code executor disabled: judge0.url not set")
	}

	return grading.NewGrader(text, code, cfg.Scoring.EvaluatorTimeout, cfg.Scoring.ExecutorTimeout), resume
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.policy = config.NewPolicyStore(cfg.Scoring)
	s.storage = service.NewStorageService(cfg)
	s.job = service.NewJobService(repos.job)
	s.assessment = service.NewAssessmentService(repos.assessment, s.job, repos.application)

	var (
		locker lock.Locker
		cache  service.LeaderboardCache
	)
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, "recruit:lock:", lockTTL)
		cache = service.NewRedisLeaderboardCache(rdb, leaderboardTTL)
	} else {
		locker = lock.NewLocalLocker()
	}
	s.ranking = service.NewRankingService(db, repos.application, locker, cache)

	grader, resume := a.initGrader(cfg)
	s.application = service.NewApplicationService(
		repos.application,
		repos.assessment,
		s.job,
		repos.proctoring,
		grader,
		s.ranking,
		s.policy,
		locker,
	)
	s.application.Resume = resume
	s.application.Artifacts = s.storage
	if a.MQ != nil {
		s.application.Publisher = a.MQ
	}

	s.export = service.NewExportService(s.job, repos.application, s.ranking, s.storage)
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		job:         controller.NewJobController(s.job),
		assessment:  controller.NewAssessmentController(s.assessment),
		attempt:     controller.NewAttemptController(s.application),
		application: controller.NewApplicationController(s.application, s.ranking, s.export),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 超时交卷扫描、复评队列消费、配置热加载
func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	go func() {
		ticker := time.NewTicker(expirySweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.application.ExpireOverdueAttempts(ctx)
				if err != nil {
					logger.Log.Error("expiry sweep error", zap.Error(err))
				} else if n > 0 {
					logger.Log.Info("expired attempts finalized", zap.Int("count", n))
				}
			}
		}
	}()

	if a.MQ != nil {
		go func() {
			if err := a.MQ.Consume(ctx, s.application.HandleReevaluationJob); err != nil && ctx.Err() == nil {
				logger.Log.Error("re-evaluation consumer stopped", zap.Error(err))
			}
		}()
	}

	if a.Config.ConfigFile != "" {
		go func() {
			err := configwatcher.WatchConfig(ctx, a.Config.ConfigFile, func(newCfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(newCfg)
				}
			})
			if err != nil && ctx.Err() == nil {
				logger.Log.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			// 退化为单实例：进程内锁、无排行榜缓存
			logger.Log.Warn("Redis unavailable, using in-process locks", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	if cfg.RabbitMQ.Enabled {
		mq, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			logger.Log.Warn("RabbitMQ unavailable, re-evaluation must be triggered manually", zap.Error(err))
		} else {
			app.MQ = mq
		}
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, app.Redis)
	app.services = services
	controllers := app.initControllers(services, db, app.Redis)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		if err := newCfg.Scoring.Validate(); err != nil {
			logger.Log.Warn("ignoring invalid scoring_policy reload", zap.Error(err))
			return
		}
		services.policy.Set(newCfg.Scoring)
		logger.Log.Info("scoring policy reloaded")
	})

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("recruit-pipeline", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// Close 释放外部连接，CLI 子命令结束时调用
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
	if a.MQ != nil {
		a.MQ.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Sync()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	a.startBackgroundTasks(bgCtx, a.services)

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	a.Close()
	log.Println("Server exiting")
}
