package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/config"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/controller"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/repository"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/service"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/util"
	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/database"
	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/logger"
	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/monitoring"
	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/security"
	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/tracing"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	learner  *repository.LearnerRepository
	question *repository.QuestionRepository
	answer   *repository.AnswerRepository
}

type services struct {
	storage      *service.StorageService
	genai        *service.GenAIService
	notification *service.LogNotificationService
	learner      *service.LearnerService
	pipeline     *service.PipelineService
	report       *service.ReportService
}

type controllers struct {
	learner  *controller.LearnerController
	exercise *controller.ExerciseController
	report   *controller.ReportController
	health   *controller.HealthController
}

// RegisterConfigCallback adds a hook invoked on hot config reloads.
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig swaps in a reloaded configuration and notifies callbacks.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		learner:  repository.NewLearnerRepository(db),
		question: repository.NewQuestionRepository(db),
		answer:   repository.NewAnswerRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.genai = service.NewGenAIService(cfg.GenAI)
	s.notification = service.NewLogNotificationService()
	s.learner = service.NewLearnerService(repos.learner, repos.answer, s.genai, s.storage, cfg.Grades)
	s.pipeline = service.NewPipelineService(
		repos.learner,
		repos.question,
		repos.answer,
		s.genai,
		s.genai,
		s.genai,
		s.storage,
	)
	s.report = service.NewReportService(
		repos.learner,
		repos.answer,
		s.genai,
		s.notification,
		rdb,
		cfg.Report,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		learner:  controller.NewLearnerController(s.learner),
		exercise: controller.NewExerciseController(s.pipeline, a.Config.Grades),
		report:   controller.NewReportController(s.report),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		_, err := tracing.InitTracer("estrela-do-saber", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers)

	// Narration artifacts are served straight from disk in local mode;
	// MinIO serves its own bucket URLs.
	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/audios", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
