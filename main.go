package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aashish23092/solar-id-intake/client"
	"github.com/Aashish23092/solar-id-intake/config"
	"github.com/Aashish23092/solar-id-intake/handler"
	"github.com/Aashish23092/solar-id-intake/logger"
	"github.com/Aashish23092/solar-id-intake/service"
	"github.com/Aashish23092/solar-id-intake/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	analyticsCapacity = 10000
	shutdownTimeout   = 15 * time.Second
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	// Session storage: Redis when configured and reachable, memory otherwise
	var kv store.KeyValueStore = store.NewMemoryStore()
	if cfg.Redis.Address != "" {
		rs := store.NewRedisStore(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rs.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, progress is kept in memory", zap.String("address", cfg.Redis.Address), zap.Error(err))
			_ = rs.Close()
		} else {
			log.Info("connected to redis", zap.String("address", cfg.Redis.Address))
			kv = rs
			defer rs.Close()
		}
	}

	// Submissions need Postgres; without a DSN the endpoint answers 503
	var submissionRepo *store.SubmissionRepository
	if cfg.DatabaseDSN != "" {
		db, err := store.OpenPostgres(cfg.DatabaseDSN)
		if err != nil {
			log.Fatal("failed to open database", zap.Error(err))
		}
		defer db.Close()
		submissionRepo = store.NewSubmissionRepository(db)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = submissionRepo.Ping(ctx)
		if err == nil {
			err = submissionRepo.EnsureSchema(ctx)
		}
		cancel()
		if err != nil {
			log.Fatal("database not ready", zap.Error(err))
		}
	}

	// OCR engines. The vision client stays a nil interface without an API key
	// so the service reports AI as unavailable.
	var vision service.IDExtractor
	if cfg.AIEnabled() {
		vc, err := client.NewVisionClient(client.VisionConfig{
			APIKey:            cfg.OpenAI.APIKey,
			Model:             cfg.OpenAI.Model,
			BaseURL:           cfg.OpenAI.BaseURL,
			Timeout:           cfg.OpenAI.Timeout,
			MaxTokens:         cfg.OpenAI.MaxTokens,
			FollowUpMaxTokens: cfg.OpenAI.FollowUpMaxTokens,
		}, log)
		if err != nil {
			log.Fatal("failed to create vision client", zap.Error(err))
		}
		vision = vc
	} else {
		log.Warn("OPENAI_API_KEY not set, AI extraction disabled")
	}

	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath, log)
	defer tesseractClient.Close()

	retryOpts := service.RetryOptions{
		MaxRetries:    cfg.Retry.MaxRetries,
		BaseDelay:     cfg.Retry.BaseDelay,
		MaxDelay:      cfg.Retry.MaxDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		Strategies:    service.ParseStrategies(cfg.Retry.Strategies),
	}

	progressOpts := service.ProgressOptions{
		Retention:            time.Duration(cfg.Progress.RetentionDays) * 24 * time.Hour,
		CompressionThreshold: cfg.Progress.CompressionThreshold,
		Version:              cfg.Progress.Version,
		DebounceDelay:        cfg.Progress.DebounceDelay,
		AutoSaveInterval:     cfg.Progress.AutoSaveInterval,
	}

	qualityCfg := service.DefaultQualityConfig()
	qualityCfg.MaxFileSize = cfg.MaxFileSize

	// Initialize service layer
	analytics := service.NewAnalyticsService(analyticsCapacity, log)
	qualityService := service.NewImageQualityService(qualityCfg, log)
	ocrService := service.NewOCRService(vision, tesseractClient, service.NewRetryService(log), retryOpts, log)
	progressService := service.NewProgressService(kv, progressOpts, log)
	imageCache := service.NewImageCache(kv, progressOpts.Retention, log)
	sessions := service.NewWizardSessions(progressService, analytics, log)
	sessions.StartEviction(cfg.Progress.SessionIdleTimeout, cfg.Progress.SessionSweepInterval)

	var submissionService *service.SubmissionService
	if submissionRepo != nil {
		submissionService = service.NewSubmissionService(submissionRepo, progressService, sessions, analytics, log)
	}

	// Initialize handler layer
	ocrHandler := handler.NewOCRHandler(ocrService, cfg.MaxFileSize, log)
	idHandler := handler.NewIDHandler(qualityService, ocrService, imageCache, analytics, cfg.MaxFileSize, log)
	progressHandler := handler.NewProgressHandler(progressService, sessions, log)
	submissionHandler := handler.NewSubmissionHandler(submissionService, log)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"service":     "Solar ID Intake",
			"aiEnabled":   ocrService.AIEnabled(),
			"submissions": submissionService != nil,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/ocr", ocrHandler.ExtractOCR)

		id := api.Group("/id")
		{
			id.POST("/quality", idHandler.CheckQuality)
			id.POST("/extract", idHandler.ExtractID)
			id.POST("/validate-name", idHandler.ValidateName)
			id.POST("/validate-type", idHandler.ValidateType)
			id.GET("/types", idHandler.ListTypes)
			id.GET("/image/:sessionId", idHandler.GetImage)
		}

		api.POST("/sessions", progressHandler.StartSession)
		progress := api.Group("/progress/:sessionId")
		{
			progress.GET("", progressHandler.LoadProgress)
			progress.PUT("", progressHandler.SaveProgress)
			progress.DELETE("", progressHandler.ClearProgress)
			progress.GET("/recovery", progressHandler.Recovery)
			progress.GET("/state", progressHandler.State)
			progress.POST("/updates", progressHandler.ApplyUpdates)
			progress.POST("/flush", progressHandler.Flush)
		}

		api.POST("/submissions", submissionHandler.Submit)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting Solar ID Intake service", zap.String("port", cfg.ServerPort))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}

	// Persist every live wizard session before the store goes away
	sessions.Shutdown()
	log.Info("server stopped")
}
