package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"cvre/cv-optimizer/internal/config"
	"cvre/cv-optimizer/internal/handlers"
	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/internal/services"
	"cvre/cv-optimizer/pkg/logging"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := logging.New(cfg.Server.Env, cfg.Server.LogLevel)
	defer logger.Sync()
	logger.Info("config loaded")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}

	// Initialize repositories
	settingRepo := repositories.NewSettingRepository(db)
	optimizationRepo := repositories.NewOptimizationRepository(db)

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		logger.Fatal("failed to create upload directory", "error", err)
	}

	vault := services.NewVault(settingRepo, cfg.Vault.PBKDF2Iterations)
	aiConfigService := services.NewAIConfigService(settingRepo, vault)

	textExtractor := services.NewTextExtractor()
	ocrEngine := services.NewOCREngine(cfg.Pipeline.OCRScale, cfg.Pipeline.OCRLanguages, logger)
	classifier := services.NewClassifier(logger)
	cvParser := services.NewExtractor(logger)
	jobDetails := services.NewJobDetailsExtractor(logger)

	analyzer := services.NewAnalyzer(
		textExtractor,
		ocrEngine,
		classifier,
		cvParser,
		settingRepo,
		cfg.Pipeline.MinTextLength,
		cfg.Pipeline.ClassifyThreshold,
		logger,
	)

	optimizer := services.NewOptimizer(settingRepo, cfg.Pipeline.RetryMaxAttempts, logger)
	optimizationService := services.NewOptimizationService(
		optimizationRepo,
		aiConfigService,
		jobDetails,
		optimizer,
		nil,
		logger,
	)

	// Initialize and start worker
	worker := services.NewWorker(
		optimizationRepo,
		optimizationService,
		cfg.Worker.Concurrency,
		cfg.Worker.PollInterval,
		logger,
	)
	worker.Start(context.Background())

	// Initialize handlers
	resumeHandler := handlers.NewResumeHandler(
		storageService,
		analyzer,
		aiConfigService,
		settingRepo,
		nil,
		cfg.Storage.MaxFileSize,
		logger,
	)
	jobHandler := handlers.NewJobHandler(
		classifier,
		jobDetails,
		aiConfigService,
		nil,
		cfg.Pipeline.ClassifyThreshold,
		logger,
	)
	optimizationHandler := handlers.NewOptimizationHandler(
		optimizationRepo,
		settingRepo,
		worker,
		logger,
	)
	settingsHandler := handlers.NewSettingsHandler(
		aiConfigService,
		settingRepo,
		nil,
		logger,
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "CV Optimizer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// CV ingestion
	api.Post("/cv/analyze", resumeHandler.HandleAnalyze)
	api.Get("/cv/status", resumeHandler.HandleStatus)
	api.Get("/cv", resumeHandler.HandleGetResume)
	api.Put("/cv", resumeHandler.HandleUpdateResume)

	// Job postings
	api.Post("/jobs/analyze", jobHandler.HandleAnalyzeJob)

	// Optimizations
	api.Post("/optimize", optimizationHandler.HandleOptimize)
	api.Get("/optimizations", optimizationHandler.HandleList)
	api.Get("/optimizations/:id", optimizationHandler.HandleGet)
	api.Patch("/optimizations/:id/application", optimizationHandler.HandleUpdateApplication)
	api.Delete("/optimizations/:id", optimizationHandler.HandleDelete)

	// Settings
	api.Get("/settings/ai-config", settingsHandler.HandleGetAIConfig)
	api.Put("/settings/ai-config", settingsHandler.HandleSaveAIConfig)
	api.Post("/settings/ai-config/test", settingsHandler.HandleTestConnection)
	api.Post("/settings/models", settingsHandler.HandleListModels)
	api.Get("/settings/prompts", settingsHandler.HandleGetPrompts)
	api.Put("/settings/prompts", settingsHandler.HandleSavePrompts)
	api.Post("/settings/reset", settingsHandler.HandleReset)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "CV Optimizer API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/cv/analyze",
				"GET /api/v1/cv/status",
				"GET /api/v1/cv",
				"PUT /api/v1/cv",
				"POST /api/v1/jobs/analyze",
				"POST /api/v1/optimize",
				"GET /api/v1/optimizations",
				"GET /api/v1/optimizations/:id",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down server")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server starting", "addr", addr)

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", "error", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
