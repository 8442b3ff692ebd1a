package main

import (
	"context"
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

	_ "github.com/campora/notice-board-api/api/swagger"
	"github.com/campora/notice-board-api/internal/handler"
	"github.com/campora/notice-board-api/internal/middleware"
	"github.com/campora/notice-board-api/internal/models"
	"github.com/campora/notice-board-api/internal/repository"
	"github.com/campora/notice-board-api/internal/service"
	"github.com/campora/notice-board-api/pkg/cache"
	"github.com/campora/notice-board-api/pkg/config"
	"github.com/campora/notice-board-api/pkg/database"
	"github.com/campora/notice-board-api/pkg/jobs"
	"github.com/campora/notice-board-api/pkg/logger"
	corsmiddleware "github.com/campora/notice-board-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campora/notice-board-api/pkg/middleware/requestid"
	"github.com/campora/notice-board-api/pkg/storage"
)

// @title Notice Board API
// @version 1.0.0
// @description Role-scoped notice board with replies and attachments
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	fileStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	cleanupQueue := jobs.NewQueue("attachment-cleanup", func(ctx context.Context, job jobs.Job) error {
		path, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return fileStore.Delete(path)
	}, jobs.QueueConfig{
		Workers:    cfg.Uploads.CleanupWorkers,
		MaxRetries: cfg.Uploads.CleanupRetries,
		Logger:     logr,
	})
	queueCtx, queueCancel := context.WithCancel(context.Background())
	cleanupQueue.Start(queueCtx)
	defer queueCancel()
	defer cleanupQueue.Stop()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "notice-board-api",
	})
	userSvc := service.NewUserService(userRepo, classRepo, nil, logr)
	classSvc := service.NewClassService(classRepo, nil, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, userRepo, classRepo, logr)
	noticeSvc := service.NewNoticeService(noticeRepo, userRepo, assignmentRepo, userRepo, fileStore, signer, cleanupQueue, nil, logr, service.NoticeServiceConfig{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
		APIPrefix:    cfg.APIPrefix,
	})
	replySvc := service.NewReplyService(replyRepo, noticeSvc, cacheRepo, userRepo, nil, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Users:       userRepo,
		Notices:     noticeRepo,
		Classes:     classRepo,
		Assignments: assignmentRepo,
		Replies:     replySvc,
		Cache:       cacheRepo,
		Logger:      logr,
		Config:      service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	metricsSvc := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	classHandler := handler.NewClassHandler(classSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	noticeHandler := handler.NewNoticeHandler(noticeSvc, metricsSvc)
	replyHandler := handler.NewReplyHandler(replySvc, metricsSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/profile", middleware.JWT(authSvc), authHandler.Profile)
		auth.PUT("/profile", middleware.JWT(authSvc), authHandler.UpdateProfile)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	users := authed.Group("/users", adminOnly)
	{
		users.GET("", userHandler.List)
		users.GET("/export", userHandler.Export)
		users.GET("/:id", userHandler.Get)
		users.POST("", userHandler.Create)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	classes := authed.Group("/classes")
	{
		classes.GET("", classHandler.ListClasses)
		classes.GET("/:id/sections", classHandler.ListSectionsByClass)
		classes.POST("", adminOnly, classHandler.CreateClass)
		classes.PUT("/:id", adminOnly, classHandler.UpdateClass)
		classes.DELETE("/:id", adminOnly, classHandler.DeleteClass)
	}

	sections := authed.Group("/sections")
	{
		sections.GET("", classHandler.ListSections)
		sections.POST("", adminOnly, classHandler.CreateSection)
		sections.PUT("/:id", adminOnly, classHandler.UpdateSection)
		sections.DELETE("/:id", adminOnly, classHandler.DeleteSection)
	}

	assignments := authed.Group("/assignments", adminOnly)
	{
		auditAssignments := middleware.Audit(userRepo, models.AuditActionAssignment, "assignments")
		assignments.POST("/classes", auditAssignments, assignmentHandler.AssignClass)
		assignments.DELETE("/classes", auditAssignments, assignmentHandler.RemoveClass)
		assignments.POST("/sections", auditAssignments, assignmentHandler.AssignSection)
		assignments.DELETE("/sections", auditAssignments, assignmentHandler.RemoveSection)
		assignments.GET("/faculty/:id/classes", assignmentHandler.FacultyClasses)
		assignments.GET("/faculty/:id/sections", assignmentHandler.FacultySections)
	}

	me := authed.Group("/me", middleware.RequireRoles(models.RoleFaculty))
	{
		me.GET("/classes", assignmentHandler.MyClasses)
		me.GET("/sections", assignmentHandler.MySections)
		me.GET("/students", assignmentHandler.MyStudents)
	}

	notices := authed.Group("/notices")
	{
		notices.GET("", noticeHandler.List)
		notices.GET("/:id", noticeHandler.Get)
		notices.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), noticeHandler.Create)
		notices.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), noticeHandler.Update)
		notices.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), noticeHandler.Delete)
		notices.GET("/:id/replies", replyHandler.ListForNotice)
		notices.DELETE("/attachments/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), noticeHandler.DeleteAttachment)
		notices.GET("/attachments/:id/url", noticeHandler.AttachmentURL)
		notices.GET("/attachments/:id/download", noticeHandler.DownloadAttachment)
	}

	replies := authed.Group("/replies")
	{
		replies.POST("", replyHandler.Create)
		replies.GET("/mine", replyHandler.ListMine)
		replies.GET("/unread-count", replyHandler.UnreadCount)
		replies.PUT("/:id", replyHandler.Update)
		replies.DELETE("/:id", replyHandler.Delete)
		replies.POST("/:id/read", replyHandler.MarkRead)
	}

	authed.GET("/dashboard", dashboardHandler.Get)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
