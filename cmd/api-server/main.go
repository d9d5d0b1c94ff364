package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/edusetu/tuition-admin-api/internal/handler"
	"github.com/edusetu/tuition-admin-api/internal/middleware"
	"github.com/edusetu/tuition-admin-api/internal/models"
	"github.com/edusetu/tuition-admin-api/internal/repository"
	"github.com/edusetu/tuition-admin-api/internal/service"
	"github.com/edusetu/tuition-admin-api/pkg/cache"
	"github.com/edusetu/tuition-admin-api/pkg/config"
	"github.com/edusetu/tuition-admin-api/pkg/database"
	"github.com/edusetu/tuition-admin-api/pkg/logger"
	"github.com/edusetu/tuition-admin-api/pkg/mailer"
	corsmiddleware "github.com/edusetu/tuition-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edusetu/tuition-admin-api/pkg/middleware/requestid"
	"github.com/edusetu/tuition-admin-api/pkg/storage"
)

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
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	extraClassRepo := repository.NewExtraClassRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	otpRepo := repository.NewOTPRepository(redisClient)
	draftRepo := repository.NewDraftRepository(redisClient, cfg.Registration.DraftTTL)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	otpSvc := service.NewOTPService(otpRepo, mailer.New(cfg.Mail, logr), validate, logr, service.OTPConfig{
		Length:          cfg.OTP.Length,
		TTL:             cfg.OTP.TTL,
		VerificationTTL: cfg.OTP.VerificationTTL,
		MaxAttempts:     cfg.OTP.MaxAttempts,
	})
	otpSvc.StartDispatch(ctx)
	defer otpSvc.StopDispatch()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	registrationSvc := service.NewRegistrationService(draftRepo, userRepo, profileRepo, otpSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, studentRepo, teacherRepo, staffRepo, feeRepo, cacheSvc, validate, logr)
	extraClassSvc := service.NewExtraClassService(extraClassRepo, teacherRepo, userRepo, validate, logr)
	feeSvc := service.NewFeeService(feeRepo)

	store, err := storage.NewExportStore(cfg.Export.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Export.Retention)
	exportSvc := service.NewExportService(extraClassRepo, store, signer, cfg.Export.Retention, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	userHandler := handler.NewUserHandler(userSvc)
	extraClassHandler := handler.NewExtraClassHandler(extraClassSvc, exportSvc)
	feeHandler := handler.NewFeeHandler(feeSvc)
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
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	requireJWT := middleware.JWT(authSvc)
	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleSupportStaff)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", requireJWT, authHandler.Me)

		auth.POST("/register/basic-info", registrationHandler.BasicInfo)
		auth.POST("/register/back", registrationHandler.Back)
		auth.POST("/register", registrationHandler.Complete)
		auth.GET("/register/state", middleware.OptionalJWT(authSvc), registrationHandler.State)
		auth.POST("/generate-otp", registrationHandler.GenerateOTP)
		auth.POST("/verify-otp", registrationHandler.VerifyOTP)

		auth.GET("/demo-users", requireJWT, staffOnly, userHandler.ListDemoUsers)
		auth.GET("/students", requireJWT, staffOnly, userHandler.ListStudents)
		auth.GET("/teachers", requireJWT, staffOnly, userHandler.ListTeachers)
		auth.GET("/admin-staff", requireJWT, staffOnly, userHandler.ListAdminStaff)
		auth.GET("/inactive-users", requireJWT, staffOnly, userHandler.ListInactiveUsers)

		auth.GET("/users/:id/profile", requireJWT, middleware.RBAC(string(models.RoleAdmin), string(models.RoleSupportStaff), "SELF"), userHandler.GetProfile)
		auth.PUT("/users/:id/profile", requireJWT, staffOnly, userHandler.UpdateProfile)
		auth.PUT("/users/:id", requireJWT, staffOnly, userHandler.UpdateProfile)
		auth.PUT("/students/:id", requireJWT, staffOnly, userHandler.UpdateProfile)
		auth.PUT("/teachers/:id", requireJWT, staffOnly, userHandler.UpdateProfile)
		auth.PUT("/admin-staff/:id", requireJWT, staffOnly, userHandler.UpdateProfile)

		auth.POST("/users/:id/deactivate", requireJWT, staffOnly, middleware.Audit(userRepo, models.AuditActionUserDeactivate, "users"), userHandler.Deactivate)
		auth.POST("/inactive-users/:id/reactivate", requireJWT, staffOnly, userHandler.Reactivate)
		auth.POST("/demo-users/:id/upgrade", requireJWT, adminOnly, userHandler.Upgrade)
	}

	extra := api.Group("/extra-class", requireJWT)
	{
		extra.GET("", extraClassHandler.List)
		extra.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleSupportStaff, models.RoleTeacher), extraClassHandler.Create)
		extra.GET("/teachers", extraClassHandler.EligibleTeachers)
		extra.GET("/export", staffOnly, extraClassHandler.Export)
		extra.GET("/export/download", staffOnly, extraClassHandler.Download)
		extra.GET("/:id", extraClassHandler.Get)
		extra.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleSupportStaff, models.RoleTeacher), extraClassHandler.Update)
		extra.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleSupportStaff, models.RoleTeacher), extraClassHandler.Delete)
	}

	api.GET("/attendance/subjects", requireJWT, extraClassHandler.Subjects)
	api.GET("/fees/structures", requireJWT, feeHandler.ListStructures)
	api.GET("/fees/structures/:id", requireJWT, feeHandler.GetStructure)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
