package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"classtrack/internal/assignments"
	"classtrack/internal/attendance"
	"classtrack/internal/auth"
	"classtrack/internal/cloudinary"
	"classtrack/internal/config"
	"classtrack/internal/courses"
	"classtrack/internal/httpmiddleware"
	"classtrack/internal/logger"
	"classtrack/internal/store"
	"classtrack/internal/users"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := runHTTP(cfg, zlog); err != nil {
		zlog.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, zlog *zap.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(context.Background()); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	// Cloudinary client (nil when not configured)
	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		zlog.Info("cloudinary configured", zap.String("cloud", cfg.CloudinaryCloudName))
	} else {
		zlog.Warn("cloudinary not configured, submission uploads disabled")
	}

	userStore := users.NewPostgresStore(db.Client)
	courseStore := courses.NewPostgresStore(db.Client)
	sessionStore := attendance.NewPostgresSessionStore(db.Client)
	recordStore := attendance.NewPostgresRecordStore(db.Client)
	assignmentStore := assignments.NewPostgresStore(db.Client)

	userSvc := users.NewService(userStore, users.TokenConfig{
		Issuer:     cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, zlog)
	courseSvc := courses.NewService(courseStore, zlog)
	attendanceSvc := attendance.NewService(
		sessionStore, recordStore,
		courseDirectory{courseStore}, userDirectory{userStore},
		zlog,
		attendance.WithCodeLength(cfg.SessionCodeLength),
		attendance.WithCodeRetries(cfg.CodeRetryAttempts),
		attendance.WithCodeCache(redisClient),
	)
	var uploader assignments.Uploader
	if cdnClient != nil {
		uploader = cloudinaryUploader{cdnClient}
	}
	assignmentSvc := assignments.NewService(assignmentStore, assignmentCourses{courseStore}, uploader, zlog)

	userHandler := users.NewHandler(userSvc)
	courseHandler := courses.NewHandler(courseSvc)
	attendanceHandler := attendance.NewHandler(attendanceSvc)
	assignmentHandler := assignments.NewHandler(assignmentSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	public := r.Group("/api/v1")
	userHandler.RegisterPublic(public)

	authed := r.Group("/api/v1", auth.Require(cfg.JWTSigningKey, cfg.JWTIssuer))
	userHandler.Register(authed)
	courseHandler.Register(authed)
	attendanceHandler.Register(authed)
	assignmentHandler.Register(authed)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("server forced shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// courseDirectory adapts the course store to the attendance module's view.
type courseDirectory struct {
	store courses.Store
}

func (d courseDirectory) CourseInfo(ctx context.Context, id uuid.UUID) (*attendance.CourseInfo, error) {
	course, err := d.store.GetByID(ctx, id)
	if err != nil || course == nil {
		return nil, err
	}
	return &attendance.CourseInfo{ID: course.ID, Name: course.Name, LecturerID: course.LecturerID}, nil
}

// userDirectory adapts the user store to the attendance module's view.
type userDirectory struct {
	store users.Store
}

func (d userDirectory) UserInfo(ctx context.Context, id uuid.UUID) (*attendance.UserInfo, error) {
	u, err := d.store.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	return &attendance.UserInfo{ID: u.ID, Name: u.Name, Role: u.Role}, nil
}

// assignmentCourses adapts the course store to the assignments module's view.
type assignmentCourses struct {
	store courses.Store
}

func (d assignmentCourses) CourseInfo(ctx context.Context, id uuid.UUID) (*assignments.CourseInfo, error) {
	course, err := d.store.GetByID(ctx, id)
	if err != nil || course == nil {
		return nil, err
	}
	return &assignments.CourseInfo{ID: course.ID, Name: course.Name, LecturerID: course.LecturerID}, nil
}

// cloudinaryUploader adapts the Cloudinary client to the assignments
// module's uploader seam.
type cloudinaryUploader struct {
	client *cloudinary.Client
}

func (u cloudinaryUploader) Upload(data []byte, filename string) (string, error) {
	res, err := u.client.Upload(data, filename)
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}
