// Package main runs the AgriConnect admin API server with graceful shutdown.
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

	"github.com/agriconnect/admin-backend/config"
	"github.com/agriconnect/admin-backend/internal/admin"
	"github.com/agriconnect/admin-backend/internal/audit"
	"github.com/agriconnect/admin-backend/internal/auth"
	"github.com/agriconnect/admin-backend/internal/directory"
	"github.com/agriconnect/admin-backend/internal/invitations"
	"github.com/agriconnect/admin-backend/internal/kyc"
	"github.com/agriconnect/admin-backend/internal/middleware"
	"github.com/agriconnect/admin-backend/internal/organizations"
	"github.com/agriconnect/admin-backend/internal/users"
	"github.com/agriconnect/admin-backend/pkg/database"
	"github.com/agriconnect/admin-backend/pkg/metrics"
	"github.com/agriconnect/admin-backend/pkg/queue"
	"github.com/agriconnect/admin-backend/pkg/redis"
	"github.com/agriconnect/admin-backend/pkg/response"
	"github.com/agriconnect/admin-backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
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
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Bucket:               cfg.AWS.KYCBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	m := metrics.New()
	auditQueue := queue.NewQueue(rdb.Client, queue.QueueAudit, logger)
	recorder := audit.NewQueueRecorder(auditQueue, m, logger)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Repositories
	userRepo := users.NewRepository(pool)
	orgRepo := organizations.NewRepository(pool)
	dirRepo := directory.NewRepository(pool)
	inviteRepo := invitations.NewRepository(pool)
	auditRepo := audit.NewRepository(pool)

	// Services
	dirService := directory.NewService(dirRepo, redis.NewJSONCache(rdb.Client, "directory:"),
		time.Duration(cfg.Directory.StatsCacheSeconds)*time.Second, cfg.Directory.DefaultPageSize, logger)
	orgService := organizations.NewService(orgRepo, dirService, recorder, m, logger)
	adminService := admin.NewService(userRepo, orgRepo, dirService, recorder, m, logger)
	authService := auth.NewService(userRepo, orgService, dirService, jwtService, logger)
	inviteService := invitations.NewService(inviteRepo, orgRepo,
		time.Duration(cfg.Invitations.ExpireHours)*time.Hour, recorder, logger)
	auditService := audit.NewService(auditRepo)

	// Handlers
	authHandler := auth.NewHandler(authService)
	orgHandler := organizations.NewHandler(orgService)
	dirHandler := directory.NewHandler(dirService)
	adminHandler := admin.NewHandler(adminService)
	inviteHandler := invitations.NewHandler(inviteService)
	auditHandler := audit.NewHandler(auditService)

	var kycHandler *kyc.Handler
	if s3Client != nil {
		kycService := kyc.NewService(kyc.NewRepository(pool), s3Client, int64(cfg.AWS.MaxKYCFileMB)<<20, logger)
		kycHandler = kyc.NewHandler(kycService, logger)
	} else {
		logger.Warn("kyc uploads disabled: AWS_REGION not set")
	}

	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.AWS.MaxKYCFileMB) << 20
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	if cfg.Server.MetricsEnabled {
		router.Use(m.Middleware())
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Health
	router.GET("/health", func(c *gin.Context) {
		hctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(hctx); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		if err := rdb.Ping(hctx).Err(); err != nil {
			response.ServiceUnavailable(c, "redis unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	api.Use(middleware.RequireActiveAccount(userRepo))
	{
		// Organizations (caller's own)
		api.GET("/organizations", orgHandler.ListMyOrganizations)
		api.POST("/organizations", orgHandler.CreateOrganization)
		api.GET("/organizations/:id/members", orgHandler.ListMembers)

		// Invitations
		api.POST("/organizations/:id/invitations", inviteHandler.Invite)
		api.GET("/organizations/:id/invitations", inviteHandler.List)
		api.POST("/invitations/:id/accept", inviteHandler.Accept)
		api.POST("/invitations/:id/revoke", inviteHandler.Revoke)

		// KYC documents
		if kycHandler != nil {
			api.POST("/kyc/documents", kycHandler.Upload)
			api.GET("/kyc/documents", kycHandler.ListMine)
			api.DELETE("/kyc/documents/:id", kycHandler.Delete)
		}
	}

	// Platform administration
	adm := api.Group("/admin")
	adm.Use(middleware.RequirePlatformAdmin())
	{
		adm.GET("/organizations", dirHandler.ListOrganizations)
		adm.POST("/organizations", orgHandler.Provision)
		adm.GET("/organizations/:id", dirHandler.GetOrganization)
		adm.POST("/organizations/approve", adminHandler.ApproveOrganizations)
		adm.POST("/organizations/suspend", adminHandler.SuspendOrganizations)
		adm.POST("/organizations/delete", adminHandler.DeleteOrganizations)
		adm.POST("/organizations/:id/approve", adminHandler.ApproveOrganization)

		adm.GET("/users", dirHandler.ListUsers)
		adm.GET("/users/search", dirHandler.SearchUsers)
		adm.GET("/users/stats", dirHandler.Stats)
		adm.GET("/users/:id", dirHandler.GetUser)
		adm.PATCH("/users/:id", adminHandler.UpdateUser)
		adm.POST("/users/approve", adminHandler.ApproveUsers)
		adm.POST("/users/suspend", adminHandler.SuspendUsers)
		adm.POST("/users/delete", adminHandler.DeleteUsers)
		if kycHandler != nil {
			adm.GET("/users/:id/kyc", kycHandler.ListForUser)
		}

		adm.GET("/audit", auditHandler.List)
	}

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
