package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emenuapi/emenu-backend/config"
	"github.com/emenuapi/emenu-backend/database"
	"github.com/emenuapi/emenu-backend/feed"
	"github.com/emenuapi/emenu-backend/router"
	"github.com/emenuapi/emenu-backend/services"
	"github.com/emenuapi/emenu-backend/tasks"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
)

func newQueue(ctx context.Context, cfg *config.Config) (tasks.Queue, error) {
	if cfg.RedisURL == "" {
		utils.InfoLogger.Println("REDIS_URL not set, using in-process task queue")
		return tasks.NewMemoryQueue(16), nil
	}
	return tasks.DialRedisQueue(ctx, cfg.RedisURL)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load configuration: %v", err)
	}

	utils.ConfigureLogger(cfg.LogLevel, cfg.LogFormat)
	utils.SetTokenConfig(cfg.JWTSecret, cfg.TokenTTL)

	loc, err := cfg.Location()
	if err != nil {
		utils.ErrorLogger.Fatal(err)
	}

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed admin user: %v", err)
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	mailer, err := services.NewMailer(services.MailerConfig{
		Backend:  cfg.EmailBackend,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Logger:   utils.InfoLogger,
	})
	if err != nil {
		utils.ErrorLogger.Fatal(err)
	}

	media := services.NewMediaStore(cfg.MediaRoot, cfg.MediaURL)
	menus := services.NewMenuService(db, media)
	dishes := services.NewDishService(db, media)
	users := services.NewUserService(db)
	reports := services.NewReportService(db, mailer, cfg.FromEmail, loc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := newQueue(ctx, cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect task queue: %v", err)
	}

	worker := tasks.NewWorker(queue)
	worker.Register(tasks.ReportDishesTask, reports.Run)
	worker.Start(ctx)

	scheduler := tasks.NewScheduler(queue, loc)
	if err := scheduler.Schedule(cfg.ReportSchedule, tasks.ReportDishesTask); err != nil {
		utils.ErrorLogger.Fatalf("Invalid REPORT_SCHEDULE %q: %v", cfg.ReportSchedule, err)
	}
	scheduler.Start()

	hub := feed.NewHub()

	r := router.SetupRouter(router.Deps{
		DB:            db,
		Menus:         menus,
		Dishes:        dishes,
		Users:         users,
		Media:         media,
		Hub:           hub,
		Queue:         queue,
		Location:      loc,
		MaxUploadSize: cfg.MaxUploadSize,
		CORSOrigin:    cfg.CORSOrigin,
		RateLimit:     cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.WithError(err).Error("HTTP shutdown failed")
	}

	hub.CloseAll()
	scheduler.Stop()
	worker.Stop()
	if err := queue.Close(); err != nil {
		utils.ErrorLogger.WithError(err).Error("Failed to close task queue")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
