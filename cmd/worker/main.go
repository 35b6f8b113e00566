// Package main - точка входа воркера Mentoring Hub.
//
// Воркер держит ядро менторинга:
//   - таймеры автоотмены заявок, на которые ментор не ответил
//   - очередь писем ментору и кадету
//   - периодические задачи: завершение встреч, восстановление таймеров,
//     ежемесячная выгрузка расчёта в Excel
//   - служебный HTTP сервер (/health, /ready, /metrics, /debug, /admin)
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alem-hub/mentoring-hub/config"
	"github.com/alem-hub/mentoring-hub/internal/application/command"
	"github.com/alem-hub/mentoring-hub/internal/application/query"
	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/domain/report"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/export"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/external/mail"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/metrics"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/scheduler"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/alem-hub/mentoring-hub/internal/interface/http"
	"github.com/alem-hub/mentoring-hub/internal/interface/http/handlers"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	loc := cfg.App.Location

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    cfg.Observability.LogFormat,
		AddCaller: true,
	})
	defer func() { _ = log.Sync() }()

	log.Info("starting mentoring hub worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К POSTGRESQL И МИГРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnection(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		status, err := dbConn.Migrate(log)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date", logger.Int("version", int(status.Version)))
	}

	logRepo := postgres.NewMentoringLogRepository(dbConn)
	reportRepo := postgres.NewReportRepository(dbConn)
	memberRepo := postgres.NewMemberRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально)
	// Без Redis очередь писем живёт в памяти, таймеры не зеркалируются,
	// а осиротевшие загрузки не учитываются.
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache   *redis.Cache
		pendingStore scheduler.PendingStore
		pendingLoad  jobs.PendingLoader
		janitor      command.AssetJanitor
		orphans      handlers.OrphanedAssets
		mailBackend  messaging.Backend = messaging.NewMemoryBackend(cfg.Mail.QueueSize)
	)

	if !cfg.Redis.Disabled {
		redisCache, err = redis.NewCache(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			Namespace:    redis.DefaultConfig().Namespace,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, falling back to in-memory state", logger.Err(err))
			redisCache = nil
		} else {
			defer func() {
				log.Info("closing Redis connection")
				_ = redisCache.Close()
			}()
			store := redis.NewPendingStore(redisCache, log)
			pendingStore, pendingLoad = store, store
			assetJanitor := redis.NewAssetJanitor(redisCache, log)
			janitor, orphans = assetJanitor, assetJanitor
			mailBackend = messaging.NewRedisBackend(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. МЕТРИКИ
	// ─────────────────────────────────────────────────────────────────────────
	m := metrics.New()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ОЧЕРЕДЬ ПИСЕМ
	// ─────────────────────────────────────────────────────────────────────────
	mailer, err := newMailer(cfg.Mail, log)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}

	mailQueue, err := messaging.NewMailQueue(messaging.MailQueueConfig{
		Backend:       mailBackend,
		Composer:      mail.NewComposer(logRepo, memberRepo, loc, cfg.Mentoring.AutoCancelDelay),
		Mailer:        mailer,
		Metrics:       m,
		Logger:        log,
		Workers:       cfg.Mail.Workers,
		MaxRetries:    cfg.Mail.MaxRetries,
		RetryBaseWait: cfg.Mail.RetryBaseWait,
		SendTimeout:   cfg.Mail.SendTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create mail queue: %w", err)
	}
	if err := mailQueue.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mail queue: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. АВТООТМЕНА И КОМАНДЫ
	// ─────────────────────────────────────────────────────────────────────────
	autoCancel := scheduler.NewAutoCancelScheduler(logRepo, mailQueue, log, scheduler.AutoCancelConfig{
		Pending: pendingStore,
		Metrics: m,
	})

	commands := command.NewCommands(command.Dependencies{
		Members:         memberRepo,
		Logs:            logRepo,
		Reports:         reportRepo,
		Tx:              dbConn,
		Schedule:        autoCancel,
		Notifier:        mailQueue,
		Janitor:         janitor,
		Observer:        m,
		Logger:          log,
		AutoCancelDelay: cfg.Mentoring.AutoCancelDelay,
		Policy: report.Policy{
			RatePerHour: cfg.Mentoring.RatePerHour,
			DailyCap:    cfg.Mentoring.DailyCap,
			MonthlyCap:  cfg.Mentoring.MonthlyCap,
			Location:    loc,
		},
		MaxImages: cfg.Mentoring.MaxImages,
	})

	settlement := query.NewGetMonthlySettlementHandler(reportRepo, loc, log)
	workbook := export.NewSettlementWorkbook(loc)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ПЛАНИРОВЩИК ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:            log,
		Timezone:          loc,
		Recorder:          m,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		JobTimeout:        cfg.Scheduler.JobTimeout,
	})

	restoreJob := jobs.NewRestoreAutoCancelJob(logRepo, autoCancel, pendingLoad, cfg.Mentoring.AutoCancelDelay, log, nil)
	settlementCron, err := scheduler.ParseCron(cfg.Scheduler.SettlementCron, loc)
	if err != nil {
		return fmt.Errorf("invalid settlement schedule: %w", err)
	}

	registrations := []struct {
		job      scheduler.Job
		schedule scheduler.Schedule
	}{
		{jobs.NewCompleteFinishedMeetingsJob(logRepo, commands.Complete, log, nil), scheduler.NewIntervalSchedule(cfg.Scheduler.CompleteMeetingsInterval)},
		{restoreJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RestoreAutoCancelInterval)},
		{jobs.NewMonthlySettlementJob(settlement, workbook, cfg.Scheduler.ExportDir, loc, log, nil), settlementCron},
	}
	for _, r := range registrations {
		if err := sched.Register(r.job, r.schedule); err != nil {
			return fmt.Errorf("failed to register job %s: %w", r.job.Name(), err)
		}
	}

	// Таймеры живут в памяти: после рестарта их надо поднять до первого тика.
	if _, err := sched.RunNow(ctx, restoreJob.Name()); err != nil {
		log.Error("initial auto-cancel restore failed", logger.Err(err))
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		log.Warn("scheduler disabled, periodic jobs will not run")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. СЛУЖЕБНЫЙ HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.PingCheck(dbConn))
	if redisCache != nil {
		health.AddOptionalCheck("redis", handlers.PingCheck(redisCache))
	}

	var metricsHandler http.Handler
	if cfg.Observability.MetricsEnabled {
		metricsHandler = m.Handler()
	}

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Addr = cfg.Observability.OpsAddr
	serverCfg.APIKey = cfg.Observability.OpsAPIKey

	server, err := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		Logger:  log,
		Health:  health,
		Metrics: metricsHandler,
		Ops: &handlers.OpsHandler{
			AutoCancel:  autoCancel,
			Jobs:        sched,
			DeadLetters: mailQueue,
			Assets:      orphans,
			Settlement:  settlement,
			Renderer:    workbook,
			Location:    loc,
			Logger:      log,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create ops server: %w", err)
	}
	serverErr := server.StartAsync()

	log.Info("mentoring hub worker is running",
		logger.String("ops_addr", serverCfg.Addr),
		logger.Bool("redis", redisCache != nil),
		logger.Bool("scheduler", cfg.Scheduler.Enabled),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server failed", logger.Err(err))
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("ops server shutdown failed", logger.Err(err))
	}
	if cfg.Scheduler.Enabled {
		if err := sched.Stop(); err != nil {
			log.Error("scheduler shutdown failed", logger.Err(err))
		}
	}

	// Зеркало в Redis сохраняется: следующий процесс восстановит таймеры.
	autoCancel.Stop()

	if err := mailQueue.Stop(shutdownCtx); err != nil {
		log.Error("mail queue shutdown failed", logger.Err(err))
	}

	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// newMailer выбирает SMTP при заданном хосте, иначе письма только логируются.
func newMailer(cfg config.MailConfig, log *logger.Logger) (notification.Mailer, error) {
	if cfg.SMTPHost == "" {
		log.Warn("SMTP host is not set, mail will be logged instead of sent")
		return mail.NewLogMailer(log), nil
	}

	smtpCfg := mail.DefaultSMTPConfig()
	smtpCfg.Host = cfg.SMTPHost
	if cfg.SMTPPort > 0 {
		smtpCfg.Port = cfg.SMTPPort
	}
	smtpCfg.Username = cfg.SMTPUsername
	smtpCfg.Password = cfg.SMTPPassword
	smtpCfg.From = cfg.From
	if cfg.SendTimeout > 0 {
		smtpCfg.Timeout = cfg.SendTimeout
	}
	smtp, err := mail.NewSMTPMailer(smtpCfg, log)
	if err != nil {
		return nil, err
	}
	return mail.NewBreakerMailer(smtp, cfg.BreakerFailures, cfg.BreakerCooldown, log), nil
}
