package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnTengye/recscan/config"
	"github.com/AnTengye/recscan/handler"
	"github.com/AnTengye/recscan/middleware"
	"github.com/AnTengye/recscan/pkg/logger"
	"github.com/AnTengye/recscan/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Secrets may come from a local .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully", "source", cfg.Reports.Source, "strategy", cfg.Extraction.Strategy)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(reg)
	httpMetrics := middleware.NewHTTPMetrics(reg)

	// Initialize services
	ctx := context.Background()
	source, err := service.NewReportSource(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize report source", "source", cfg.Reports.Source, "error", err)
		os.Exit(1)
	}
	if m, ok := source.(*service.MinioSource); ok {
		if err := m.CheckBucket(ctx); err != nil {
			slog.Error("report bucket unavailable", "error", err)
			os.Exit(1)
		}
	}

	completer, err := service.NewCompleter(&cfg.LLM, metrics)
	if err != nil {
		if cfg.Extraction.Strategy == config.StrategyModel {
			slog.Error("failed to initialize completion backend", "provider", cfg.LLM.Provider, "error", err)
			os.Exit(1)
		}
		slog.Warn("model strategy disabled", "provider", cfg.LLM.Provider, "error", err)
		completer = nil
	}
	recommenders := service.NewRecommenders(&cfg.Extraction, &cfg.LLM, completer)

	resolver := service.NewResolver(source, cfg.Reports.SimilarityThreshold)
	scanner := service.NewScanner(source, resolver, service.NewPDFTextExtractor(), cfg.Reports.Workers, metrics)
	store := service.NewJobStore(cfg.Store.MaxJobs)

	// Initialize handlers
	workbookHandler := handler.NewWorkbookHandler(&cfg.Reports)
	scanHandler := handler.NewScanHandler(cfg, scanner, recommenders, store)
	reportHandler := handler.NewReportHandler(source, scanner, recommenders, cfg.Extraction.Strategy)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware
	router.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20

	router.Use(middleware.RequestID())                                           // Request ID for tracing
	router.Use(middleware.Recovery(httpMetrics))                                 // Panic recovery
	router.Use(middleware.RequestLogger("/health", "/metrics"))                  // Access logging
	router.Use(httpMetrics.Handler())                                            // Request metrics
	router.Use(corsMiddleware())                                                 // CORS
	router.Use(middleware.RateLimit(cfg.Server.RateLimitPerMinute, time.Minute)) // Rate limiting per client IP

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"source":     source.Name(),
			"strategies": recommenders.Available(),
			"timestamp":  time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.Use(noCache())
	{
		uploads := api.Group("/")
		uploads.Use(middleware.BodyLimit(cfg.Server.MaxUploadMB))
		uploads.POST("/workbooks/inspect", workbookHandler.Inspect)
		uploads.POST("/scans", scanHandler.Create)

		api.GET("/scans", scanHandler.List)
		api.GET("/scans/:id", scanHandler.Get)
		api.GET("/scans/:id/download", scanHandler.Download)
		api.DELETE("/scans/:id", scanHandler.Delete)

		api.GET("/reports", reportHandler.List)
		api.POST("/reports/analyze", reportHandler.Analyze)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// noCache keeps job status and downloads out of intermediate caches
func noCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}
