package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/registration-etl/api/swagger"
	"github.com/noah-isme/registration-etl/internal/bootstrap"
	"github.com/noah-isme/registration-etl/internal/etl"
	"github.com/noah-isme/registration-etl/internal/handler"
	internalmiddleware "github.com/noah-isme/registration-etl/internal/middleware"
	"github.com/noah-isme/registration-etl/internal/repository"
	"github.com/noah-isme/registration-etl/internal/service"
	"github.com/noah-isme/registration-etl/pkg/config"
	"github.com/noah-isme/registration-etl/pkg/database"
	"github.com/noah-isme/registration-etl/pkg/logger"
	corsmiddleware "github.com/noah-isme/registration-etl/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/registration-etl/pkg/middleware/requestid"
)

// @title Registration ETL API
// @version 1.0.0
// @description Student registration endpoint and batch ETL run control.
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "api-gateway")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	cacheSvc, closeCache := bootstrap.Cache(ctx, cfg, metrics, logr)
	defer closeCache()

	etlCfg, err := etl.FromSettings(cfg.ETL)
	if err != nil {
		logr.Fatal("invalid ETL settings", zap.Error(err))
	}

	registrationSvc := service.NewRegistrationService(repository.NewRegistrationRepository(db), cacheSvc, metrics, etlCfg, logr)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/register-student", registrationHandler.Register)

	etlSvc, err := bootstrap.ETL(ctx, cfg, db, cacheSvc, metrics, logr)
	if err != nil {
		logr.Error("batch runs disabled", zap.Error(err))
	} else {
		runs := service.NewRunService(etlSvc, service.RunServiceConfig{Retries: cfg.ETL.QueueRetries, History: cfg.ETL.RunHistory}, logr)
		runs.Start(ctx)
		defer runs.Stop()

		etlHandler := handler.NewETLHandler(runs)
		api.POST("/etl/runs", etlHandler.StartRun)
		api.GET("/etl/runs/:id", etlHandler.GetRun)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}
