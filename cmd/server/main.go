package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sangwon4052/sangwon-sign-off/internal/config"
	"github.com/sangwon4052/sangwon-sign-off/internal/database"
	"github.com/sangwon4052/sangwon-sign-off/internal/handlers"
	"github.com/sangwon4052/sangwon-sign-off/internal/metrics"
	"github.com/sangwon4052/sangwon-sign-off/internal/middleware"
	"github.com/sangwon4052/sangwon-sign-off/internal/notify"
	"github.com/sangwon4052/sangwon-sign-off/internal/seed"
	"github.com/sangwon4052/sangwon-sign-off/internal/services"
	"github.com/sangwon4052/sangwon-sign-off/internal/storage"
	"github.com/sangwon4052/sangwon-sign-off/internal/store"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration failed: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	dataStore := store.NewGormStore(db)

	ctx := context.Background()

	rdb, err := notify.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	notifier := notify.NewNotifier(rdb)

	var blobs storage.BlobStore
	if cfg.MinIO.Enabled {
		minioClient, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("minio initialization failed: %v", err)
		}
		if err := minioClient.EnsureBucket(ctx); err != nil {
			log.Fatalf("failed ensuring minio bucket: %v", err)
		}
		blobs = minioClient
	}
	attachments := storage.NewAttachments(blobs)

	auditService := services.NewAuditService(dataStore, cfg.Audit.QueueSize)
	notificationService := services.NewNotificationService(dataStore, notifier)
	userService := services.NewUserService(dataStore, auditService)
	approvalService := services.NewApprovalService(dataStore, notificationService, auditService)

	if _, err := userService.EnsureDefaultAdmin(ctx, cfg.Seed.AdminName, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
		log.Fatalf("failed creating default administrator: %v", err)
	}
	if cfg.Seed.DemoData {
		if _, err := seed.Run(ctx, dataStore, userService, approvalService, seed.Options{
			AdminEmail: cfg.Seed.AdminEmail,
			Users:      cfg.Seed.DemoUsers,
		}); err != nil {
			logger.Error("demo_seed_failed", err, nil)
		}
	}

	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())
	metrics.Register(app, "signoff")

	handlers.RegisterRoutes(app, handlers.Deps{
		Users:         userService,
		Approvals:     approvalService,
		Notifications: notificationService,
		Dashboard:     services.NewDashboardService(dataStore),
		Audit:         auditService,
		Attachments:   attachments,
		Notifier:      notifier,
	})

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":           cfg.Server.Port,
		"address":        listenAddr,
		"body_limit":     fmt.Sprintf("%dMB", cfg.Server.BodyLimitMB),
		"db_driver":      cfg.DB.Driver,
		"blob_store":     cfg.MinIO.Enabled,
		"live_notifying": notifier.Enabled(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(cfg.Server.ShutdownGrace):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}

	auditService.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
