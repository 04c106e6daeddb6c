package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/application"
	"proxy-admin-bot/internal/config"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/domain/ports/repository"
	tele "proxy-admin-bot/internal/infra/adapters/telegram"
	pg "proxy-admin-bot/internal/infra/db/postgres"
	adminhttp "proxy-admin-bot/internal/infra/http"
	"proxy-admin-bot/internal/infra/i18n"
	"proxy-admin-bot/internal/infra/logging"
	"proxy-admin-bot/internal/infra/memory"
	"proxy-admin-bot/internal/infra/metrics"
	"proxy-admin-bot/internal/infra/notify"
	"proxy-admin-bot/internal/infra/qr"
	red "proxy-admin-bot/internal/infra/redis"
	"proxy-admin-bot/internal/infra/sched"
	"proxy-admin-bot/internal/infra/security"
	"proxy-admin-bot/internal/infra/sysinfo"
	"proxy-admin-bot/internal/infra/worker"
	"proxy-admin-bot/internal/infra/xray"
	"proxy-admin-bot/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	accountRepo := pg.NewAccountRepo(pool)
	usageRepo := pg.NewUsageRepo(pool)
	txManager := pg.NewTxManager(pool)
	var templateRepo repository.TemplateRepository = pg.NewTemplateRepo(pool)

	checks := []adminhttp.Check{{Name: "postgres", Ping: pool.Ping}}

	// ---- Redis (optional) ----
	var (
		sessions repository.SessionStore
		locker   repository.Locker
		limiter  repository.RateLimiter
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		switch {
		case err != nil && cfg.Session.Backend == "redis":
			logger.Fatal().Err(err).Msg("redis")
		case err != nil:
			logger.Warn().Err(err).Msg("redis unavailable, continuing without it")
		default:
			defer redisClient.Close()
			templateRepo = pg.NewTemplateRepoCacheDecorator(templateRepo, redisClient)
			locker = red.NewLocker(redisClient, 10*time.Minute)
			if cfg.Bot.RateLimit > 0 {
				limiter = red.NewRateLimiter(redisClient, cfg.Bot.RateLimit, cfg.Bot.RateWindow)
			}
			if cfg.Session.Backend == "redis" {
				sessions = red.NewSessionStore(redisClient, cfg.Session.TTL)
			}
			checks = append(checks, adminhttp.Check{Name: "redis", Ping: redisClient.Ping})
		}
	}
	if sessions == nil {
		mem, err := memory.NewSessionStore(cfg.Session.Capacity, cfg.Session.TTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("session store")
		}
		defer mem.Close()
		sessions = mem
	}
	logger.Info().Str("backend", cfg.Session.Backend).Dur("ttl", cfg.Session.TTL).Msg("wizard sessions ready")

	// ---- Proxy core ----
	var core adapter.ProxyCore
	if cfg.Core.APIURL == "" && cfg.Runtime.Dev {
		inbounds, err := xray.LoadInbounds(cfg.Core.XrayConfigPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("xray config")
		}
		core = xray.NewStaticCore(inbounds)
		logger.Warn().Msg("no core api configured; using in-memory core")
	} else {
		core, err = xray.NewCoreClient(&cfg.Core, logging.Component(logger, "CoreClient"))
		if err != nil {
			logger.Fatal().Err(err).Msg("core client")
		}
	}

	host, err := sysinfo.NewSampler(time.Second)
	if err != nil {
		logger.Fatal().Err(err).Msg("sysinfo")
	}
	tokens, err := security.NewSubscriptionTokens(cfg.Subscription.Secret, cfg.Subscription.URLPrefix)
	if err != nil {
		logger.Fatal().Err(err).Msg("subscription tokens")
	}

	tr, err := i18n.NewTranslator(i18n.LocalesFS, i18n.DefaultLanguage)
	if err != nil {
		logger.Fatal().Err(err).Msg("translations")
	}

	// ---- Telegram ----
	var (
		bot       *tele.Bot
		messenger adapter.Messenger
	)
	bot, err = tele.NewBot(&cfg.Bot, logging.Component(logger, "Bot"))
	switch {
	case err == nil:
		messenger = bot
	case cfg.Runtime.Dev:
		logger.Warn().Err(err).Msg("telegram unavailable; messages are logged only")
		messenger = tele.NewNoopMessenger(logging.Component(logger, "NoopMessenger"))
	default:
		logger.Fatal().Err(err).Msg("telegram")
	}

	// ---- Logger channel ----
	var notifier adapter.Notifier = adapter.NopNotifier{}
	notifyPool := worker.NewPool(2, 256, logging.Component(logger, "NotifyPool"))
	if cfg.Bot.LoggerChannelID != 0 {
		notifyPool.Start(ctx)
		defer notifyPool.Stop()
		notifier = notify.NewChannelNotifier(messenger, notifyPool, tr, cfg.Bot.LoggerChannelID, logger)
	}

	// ---- Use cases ----
	wizardUC := usecase.NewWizardUseCase(sessions, accountRepo, templateRepo, core, notifier, cfg.Bot.DefaultVLESSFlow, logging.Component(logger, "WizardUC"))
	accountUC := usecase.NewAccountUseCase(accountRepo, templateRepo, txManager, core, notifier, cfg.Bot.DefaultVLESSFlow, cfg.Bot.PageSize, logging.Component(logger, "AccountUC"))
	bulkUC := usecase.NewBulkUseCase(accountRepo, locker, core, notifier, cfg.Bot.DefaultVLESSFlow, logging.Component(logger, "BulkUC"))
	systemUC := usecase.NewSystemUseCase(accountRepo, usageRepo, host, core, notifier, logging.Component(logger, "SystemUC"))
	linksUC := usecase.NewLinksUseCase(accountRepo, core, tokens, qr.Encoder{}, cfg.Core.PublicHost, logging.Component(logger, "LinksUC"))

	facade := application.NewAdminFacade(wizardUC, accountUC, bulkUC, systemUC, linksUC, core, tr, logging.Component(logger, "AdminFacade"))
	dispatcher, err := tele.NewDispatcher(&cfg.Bot, messenger, facade, sessions, limiter, logging.Component(logger, "Dispatcher"))
	if err != nil {
		logger.Fatal().Err(err).Msg("dispatcher")
	}

	if bot != nil {
		if err := bot.SetCommands(ctx, dispatcher.BotCommands(), cfg.Bot.AdminIDs); err != nil {
			logger.Warn().Err(err).Msg("set bot commands")
		}
		go func() {
			if err := bot.StartPolling(ctx, dispatcher); err != nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- Admin HTTP ----
	srv := adminhttp.NewServer(cfg.AdminHTTP.Port, logger, checks...)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("admin http stopped")
		}
	}()

	// ---- Workers ----
	stats := sched.NewStatsWorker(cfg.Scheduler.StatsInterval, systemUC, host, pool, logger)
	go func() {
		if err := stats.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("stats worker stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if bot != nil {
		bot.StopPolling()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("admin http shutdown")
	}
}
