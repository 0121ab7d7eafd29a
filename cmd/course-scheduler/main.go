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
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/api/swagger"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/handler"
	internalmiddleware "github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/middleware"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/repository"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/service"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/cache"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/calendar"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/config"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/database"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/events"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/jobs"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/logger"
	corsmiddleware "github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/middleware/requestid"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/storage"
)

// @title Course Scheduler API
// @version 1.0.0
// @description Expands weekly course timetables into dated lessons and keeps tutors from being double-booked
// @BasePath /api/v1
// @schemes http

type locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

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

	if _, err := time.LoadLocation(cfg.Scheduler.DefaultTimeZone); err != nil {
		logr.Fatal("invalid default time zone", zap.String("zone", cfg.Scheduler.DefaultTimeZone), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var tutorLocker locker = cache.NewLocalLocker()
	if cfg.Scheduler.TutorLock {
		rdb, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		tutorLocker = cache.NewRedisLocker(rdb, "course-scheduler:lock", cfg.Scheduler.LockTTL, logr)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	inviteStore, err := storage.NewLocalStorage(cfg.Invites.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare invite storage", zap.Error(err))
	}
	signer := storage.NewInviteLinkSigner(cfg.Invites.SignedURLSecret, cfg.Invites.SignedURLTTL)
	invites := calendar.NewInviteCreator(inviteStore, signer, cfg.PublicBaseURL+cfg.APIPrefix+"/invites")

	metricsSvc := service.NewMetricsService()

	publisher := events.NewKafkaPublisher(cfg.Events.KafkaBrokers, logr)
	defer publisher.Close()
	eventSvc := service.NewLessonEventService(publisher, cfg.Events.Topic, metricsSvc, logr)
	eventQueue := jobs.NewQueue("lesson-events", eventSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.Retries,
		RetryDelay: cfg.Events.RetryDelay,
		DeadLetter: eventSvc.DeadLetter,
		Logger:     logr,
	})
	eventQueue.Start(context.Background())
	defer eventQueue.Stop()

	go cleanupInvites(ctx, inviteStore, cfg.Invites.SignedURLTTL, logr)

	timetableSvc := service.NewCourseTimetableService(service.CourseTimetableDeps{
		Courses:   repository.NewCourseRepository(db),
		Lessons:   repository.NewLessonRepository(db),
		Tutors:    repository.NewTutorRepository(db),
		Tx:        db,
		Locker:    tutorLocker,
		Invites:   invites,
		Events:    eventQueue,
		Metrics:   metricsSvc,
		Validator: service.NewValidator(),
		Logger:    logr,
		Config:    cfg.Scheduler,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	timetableHandler := handler.NewCourseTimetableHandler(timetableSvc)
	inviteHandler := handler.NewInviteHandler(signer, inviteStore)

	api := r.Group(cfg.APIPrefix)
	api.POST("/courses/:id/timetable/preview", timetableHandler.Preview)
	api.PUT("/courses/:id/timetable", timetableHandler.Apply)
	api.GET("/courses/:id/lessons", timetableHandler.ListLessons)
	api.GET("/tutors/:id/bookings", timetableHandler.TutorBookings)
	api.GET("/invites/:token", inviteHandler.Download)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// cleanupInvites removes invite files once their download links can no longer be valid.
func cleanupInvites(ctx context.Context, store *storage.LocalStorage, ttl time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(ttl)
			if err != nil {
				logr.Warn("invite cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired invites removed", zap.Int("count", len(removed)))
			}
		}
	}
}
