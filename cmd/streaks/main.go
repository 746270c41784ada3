package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"habit-streaks/internal/api"
	"habit-streaks/internal/bot"
	"habit-streaks/internal/config"
	"habit-streaks/internal/logger"
	"habit-streaks/internal/metrics"
	"habit-streaks/internal/repository"
	"habit-streaks/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	sugar := zl.Sugar()

	db, err := repository.NewDB(cfg.DatabaseURL, zl)
	if err != nil {
		sugar.Fatalw("db", "error", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	userSvc := service.NewUserService(userRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	taskSvc := service.NewTaskService(taskRepo,
		service.WithLocation(cfg.Location),
		service.WithMetrics(m),
		service.WithLogger(sugar.Named("tasks")),
	)
	reminderSvc := service.NewReminderService(taskSvc)

	var wg sync.WaitGroup

	var server *http.Server
	if cfg.HTTPAddr != "" {
		limiter := api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustedProxies...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.Cleanup(ctx, time.Minute)
		}()

		server = api.NewServer(cfg.HTTPAddr, api.NewRouter(api.Deps{
			Tasks:       taskSvc,
			Users:       userSvc,
			Categories:  categorySvc,
			DB:          db,
			Metrics:     m,
			Gatherer:    prometheus.DefaultGatherer,
			Log:         sugar.Named("http"),
			RateLimiter: limiter,
			CORSOrigins: cfg.CORSOrigins,
			MetricsUser: cfg.MetricsUser,
			MetricsPass: cfg.MetricsPass,
		}))

		wg.Add(1)
		go func() {
			defer wg.Done()
			sugar.Infow("http server listening", "addr", cfg.HTTPAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				sugar.Errorw("http server stopped", "error", err)
				stop()
			}
		}()
	}

	if cfg.TelegramToken != "" {
		runBot(ctx, cfg, sugar, userRepo, categorySvc, taskSvc, reminderSvc)
	} else {
		<-ctx.Done()
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("http shutdown", "error", err)
		}
		cancel()
	}
	stop()
	wg.Wait()
	sugar.Info("shutdown complete")
}

// runBot polls Telegram and sends scheduled reports until ctx is done.
func runBot(ctx context.Context, cfg config.Config, log *zap.SugaredLogger, userRepo *repository.UserRepository, categorySvc *service.CategoryService, taskSvc *service.TaskService, reminderSvc *service.ReminderService) {
	scheduler := service.NewSchedulerService(cfg.Location)

	var (
		mu          sync.Mutex
		reportEntry cron.EntryID
		telegramBot *bot.Bot
	)
	report := func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("report", "error", err)
		}
	}

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, categorySvc, taskSvc, reminderSvc,
		bot.WithLogger(log.Named("bot")),
		bot.WithReportInterval(cfg.ReportInterval, func(interval time.Duration) error {
			mu.Lock()
			defer mu.Unlock()
			next, err := scheduler.Reschedule(reportEntry, interval, report)
			if err != nil {
				return err
			}
			reportEntry = next
			return nil
		}),
	)
	if err != nil {
		log.Fatalw("bot", "error", err)
	}

	reportEntry, err = scheduler.ScheduleReport(cfg.ReportTime, cfg.ReportInterval, report)
	if err != nil {
		log.Fatalw("schedule reports", "error", err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Infow("reports scheduled", "next", scheduler.Next(reportEntry))

	log.Info("habit streaks bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("bot stopped with error", "error", err)
	}
}
