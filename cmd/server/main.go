// Package main runs the reflection platform HTTP API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reflectus-app/backend/config"
	"github.com/reflectus-app/backend/internal/activities"
	"github.com/reflectus-app/backend/internal/auditlog"
	"github.com/reflectus-app/backend/internal/auth"
	"github.com/reflectus-app/backend/internal/exports"
	"github.com/reflectus-app/backend/internal/groups"
	"github.com/reflectus-app/backend/internal/middleware"
	"github.com/reflectus-app/backend/internal/models"
	"github.com/reflectus-app/backend/internal/responses"
	"github.com/reflectus-app/backend/internal/tenancy"
	"github.com/reflectus-app/backend/internal/workspaces"
	"github.com/reflectus-app/backend/pkg/database"
	"github.com/reflectus-app/backend/pkg/queue"
	"github.com/reflectus-app/backend/pkg/redis"
	"github.com/reflectus-app/backend/pkg/response"
	"github.com/reflectus-app/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	tokens := auth.NewTokenService(cfg.Session.Secret, cfg.Session.TTLDays)

	// Workspaces and tenancy
	wsRepo := workspaces.NewRepository(pool)
	resolver := workspaces.NewResolver(wsRepo)
	validator := tenancy.NewValidator(tenancy.NewPGStore(pool), logger)
	auditRepo := auditlog.NewRepository(pool)
	auditHandler := auditlog.NewHandler(auditRepo)
	wsHandler := workspaces.NewHandler(wsRepo, auditRepo, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, wsRepo, tokens, cfg.Session.AdminEmails, cfg.Server.Production, logger)

	// Content
	groupRepo := groups.NewRepository(pool)
	groupHandler := groups.NewHandler(groupRepo)
	activityRepo := activities.NewRepository(pool)
	activityHandler := activities.NewHandler(activityRepo, validator)
	responseRepo := responses.NewRepository(pool)
	responseHandler := responses.NewHandler(responseRepo, validator)

	// Exports
	jobQueue := queue.NewQueue(rdb.Client, logger)
	exportRepo := exports.NewRepository(pool)
	exportHandler := exports.NewHandler(exportRepo, validator, jobQueue, s3Client, auditRepo, logger)

	guard := middleware.NewGuard(middleware.GuardConfig{AdminEmails: cfg.Session.AdminEmails})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Session(tokens))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", middleware.RequireSession(), authHandler.Me)
	}

	requireActive := workspaces.RequireWorkspace(resolver, true)

	// Mutating routes put the guard first in the chain: the CSRF and origin
	// checks run before session validation and before any store access. The
	// guard also covers session and coarse role, so mutating routes carry no
	// separate RequireSession.

	// Authenticated routes without workspace scope: listing memberships and
	// accepting an invite work without an active workspace.
	router.GET("/workspaces", middleware.RequireSession(), wsHandler.List)
	router.POST("/workspaces", guard.RequireRole(models.RoleStaff), wsHandler.Create)
	router.POST("/invites/:token/accept", guard.RequireRole(models.RoleParticipant), wsHandler.AcceptInvite)

	// The admin listing still resolves a workspace, so a caller with zero
	// memberships is rejected with 403 like everywhere else, allowlisted
	// admins included.
	router.GET("/admin/users", guard.RequireRole(models.RoleAdmin), requireActive, authHandler.List)

	// Workspace-scoped reads. Handlers render 404 for resources outside the
	// resolved tenant.
	ws := router.Group("", middleware.RequireSession(), requireActive)
	{
		ws.GET("/workspaces/current/members", wsHandler.Members)
		ws.GET("/workspaces/current/audit-logs", auditHandler.List)
		ws.GET("/groups", groupHandler.List)
		ws.GET("/groups/:id/activities", activityHandler.List)
		ws.GET("/activities/:id/responses", responseHandler.List)
		ws.GET("/exports", exportHandler.List)
		ws.GET("/exports/:id/download-url", exportHandler.DownloadURL)
	}

	// Workspace-scoped mutations: guard, then workspace resolution, then the
	// handler.
	router.PATCH("/workspaces/current", guard.RequireRole(models.RoleStaff), requireActive, wsHandler.Rename)
	router.POST("/workspaces/current/invites", guard.RequireRole(models.RoleStaff), requireActive, wsHandler.CreateInvite)
	router.DELETE("/workspaces/current/members/:id", guard.RequireRole(models.RoleStaff), requireActive, wsHandler.DisableMember)
	router.POST("/groups", guard.RequireRole(models.RoleStaff), requireActive, groupHandler.Create)
	router.POST("/groups/:id/activities", guard.RequireRole(models.RoleStaff), requireActive, activityHandler.Create)
	router.POST("/activities/:id/responses", guard.RequireRole(models.RoleParticipant), requireActive, responseHandler.Submit)
	router.POST("/exports", guard.RequireRole(models.RoleStaff), requireActive, exportHandler.Create)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
