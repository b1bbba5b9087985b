package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPolymarket/sasgate/internal/config"
	"github.com/GoPolymarket/sasgate/internal/handler"
	"github.com/GoPolymarket/sasgate/internal/pkg/logger"
	"github.com/GoPolymarket/sasgate/internal/repository"
	"github.com/GoPolymarket/sasgate/internal/service"
	"github.com/GoPolymarket/sasgate/internal/shareasale"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	// 2. Initialize Persistence
	// Quota + audit (Redis > Memory)
	var quotaRepo service.QuotaRepo
	var auditRepo service.AuditRepo
	var redisClient *repository.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = repository.NewRedisClient(cfg.Redis)
		if err == nil {
			logger.Info("Connected to Redis", "addr", cfg.Redis.Addr)
			quotaRepo = repository.NewRedisQuotaRepo(redisClient)
			auditRepo = repository.NewRedisAuditRepo(redisClient, 0)
		} else {
			logger.Error("Failed to connect to Redis, falling back to memory", "error", err)
			redisClient = nil
		}
	}
	if quotaRepo == nil {
		quotaRepo = service.NewMemoryQuotaStore()
	}

	// Audit (Postgres > Redis > Local File)
	var pgAudit *repository.PostgresAuditRepo
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(ctx, cfg.Database.DSN)
		if err == nil {
			pgAudit, err = repository.NewPostgresAuditRepo(ctx, db)
		}
		if err == nil {
			logger.Info("Connected to PostgreSQL")
			auditRepo = pgAudit
		} else {
			logger.Error("Failed to connect to DB, audit logs will not be persisted there", "error", err)
		}
	}

	// 3. Initialize Core Services
	client, err := shareasale.NewClient(
		shareasale.Credentials{
			AffiliateID:  cfg.ShareASale.AffiliateID,
			APIToken:     cfg.ShareASale.APIToken,
			APISecretKey: cfg.ShareASale.APISecretKey,
			APIVersion:   cfg.ShareASale.APIVersion,
		},
		shareasale.WithBaseURL(cfg.ShareASale.BaseURL),
		shareasale.WithHTTPClient(&http.Client{
			Timeout: cfg.ShareASale.Timeout(),
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}),
		shareasale.WithLogger(logger.With("component", "shareasale")),
	)
	if err != nil {
		log.Fatalf("Failed to initialize ShareASale client: %v", err)
	}

	tenantManager := service.NewTenantManager(cfg)
	quota := service.NewQuotaGuard(quotaRepo, int64(cfg.Quota.MonthlyLimit))

	auditSvc, err := service.NewAuditService(cfg.Audit.Dir, cfg.Audit.BufferSize, auditRepo)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	stopCleanup := make(chan struct{})
	if pgAudit != nil && cfg.Database.AuditRetentionDays > 0 {
		go runAuditCleanup(pgAudit, time.Duration(cfg.Database.AuditRetentionDays)*24*time.Hour, stopCleanup)
	}

	// 4. Setup Router
	gin.SetMode(gin.ReleaseMode)
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	r := handler.NewRouter(
		handler.RouterConfig{
			RequireAPIKey: cfg.Auth.RequireAPIKey,
			AdminKey:      cfg.Auth.AdminKey,
			MetricsPath:   metricsPath,
		},
		handler.Services{
			Reports: service.NewReportService(client, quota),
			Quota:   quota,
			Tenants: tenantManager,
			Audit:   auditSvc,
		},
	)

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("sasgate started", "port", cfg.Server.Port, "tenants", len(tenantManager.ListTenants()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	close(stopCleanup)
	auditSvc.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("Server exiting")
}

func runAuditCleanup(repo *repository.PostgresAuditRepo, retention time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()
	for {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := repo.Cleanup(ctx, retention); err != nil {
			logger.Warn("audit cleanup failed", "error", err)
		}
		cancel()
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
