package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/central-university-dev/go-shuttle/internal/bot/cache"
	botclients "github.com/central-university-dev/go-shuttle/internal/bot/clients"
	"github.com/central-university-dev/go-shuttle/internal/bot/clients/kafka"
	"github.com/central-university-dev/go-shuttle/internal/bot/domain"
	botservice "github.com/central-university-dev/go-shuttle/internal/bot/service"
	"github.com/central-university-dev/go-shuttle/internal/bot/telegram"
	"github.com/central-university-dev/go-shuttle/internal/common"
	"github.com/central-university-dev/go-shuttle/internal/common/metrics"
	"github.com/central-university-dev/go-shuttle/internal/common/middleware"
	"github.com/central-university-dev/go-shuttle/internal/config"
	"github.com/central-university-dev/go-shuttle/internal/database"
	domainerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/internal/scheduler"
	trackerclients "github.com/central-university-dev/go-shuttle/internal/tracker/clients"
	"github.com/central-university-dev/go-shuttle/internal/tracker/notify"
	"github.com/central-university-dev/go-shuttle/internal/tracker/poller"
	"github.com/central-university-dev/go-shuttle/internal/tracker/repository"
	"github.com/central-university-dev/go-shuttle/internal/tracker/schedule"
	"github.com/central-university-dev/go-shuttle/internal/tracker/service"
	"github.com/central-university-dev/go-shuttle/pkg"
)

const (
	textStarted        = "*Service has started!*"
	textStopped        = "*Service has been shut down!*"
	textCrashed        = "*Service has crashed!*"
	textSessionExpired = "Lost authorization for the shuttle session"

	commandTimeout  = 2 * time.Minute
	shutdownTimeout = 10 * time.Second
	consumerGroupID = "shuttle-delivery"
)

// intake - источник входящих сообщений: long polling или вебхук.
type intake interface {
	Stop(ctx context.Context) error
}

type pollIntake struct {
	poller *telegram.Poller
}

func (p pollIntake) Stop(context.Context) error {
	p.poller.Stop()
	return nil
}

type webhookIntake struct {
	server *telegram.WebhookServer
}

func (w webhookIntake) Stop(ctx context.Context) error {
	return w.server.Stop(ctx)
}

// components - все, что нужно закрыть при остановке.
type components struct {
	intake          intake
	scheduler       *scheduler.RouteScheduler
	consumer        *kafka.Consumer
	cancelConsumer  context.CancelFunc
	notifierFactory *notify.NotifierFactory
	redisCache      *cache.RedisSubscriptionCache
	metricsServer   *metrics.MetricsServer
	cancelMetrics   context.CancelFunc
	cancelLimiter   context.CancelFunc
	tracker         *service.TrackerService
	telegramClient  domain.TelegramClientAPI
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка работы сервиса: %v\n", err)
		os.Exit(1)
	}
}

//nolint:funlen // Длина функции обусловлена необходимостью последовательной инициализации всех компонентов.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	appLogger := pkg.NewLoggerWithLevel(os.Stdout, cfg.Verbose)

	ctx := context.Background()

	destinations, err := trackerclients.LoadDestinations(cfg.DestinationsPath)
	if err != nil {
		appLogger.Error("Ошибка при загрузке каталога направлений",
			"error", err,
			"path", cfg.DestinationsPath,
		)

		return err
	}

	cookies, err := trackerclients.LoadCookies(cfg)
	if err != nil {
		appLogger.Error("Ошибка при загрузке cookie сессии",
			"error", err,
		)

		return err
	}

	var db *database.PostgresDB

	if cfg.DatabaseAccessType != config.MemoryAccess {
		db, err = database.NewPostgresDB(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Error("Ошибка при подключении к базе данных",
				"error", err,
			)

			return fmt.Errorf("ошибка подключения к базе данных: %w", err)
		}

		defer db.Close()
	}

	repoFactory := repository.NewFactory(db, cfg, appLogger)

	txManager, err := repoFactory.CreateTransactor()
	if err != nil {
		return err
	}

	userRepo, err := repoFactory.CreateUserRepository()
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория пользователей",
			"error", err,
		)

		return err
	}

	subRepo, err := repoFactory.CreateSubscriptionRepository(txManager)
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория подписок",
			"error", err,
		)

		return err
	}

	c := &components{}

	if cfg.RedisURL != "" {
		c.redisCache, err = cache.NewRedisSubscriptionCache(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB, cfg.RedisCacheTTL, appLogger)
		if err != nil {
			appLogger.Error("Ошибка при подключении к Redis",
				"error", err,
			)

			appLogger.Warn("Продолжаем без кэша подписок")
		} else {
			subRepo = cache.NewCachedSubscriptionRepository(subRepo, c.redisCache, appLogger)
		}
	}

	telegramClient, err := botclients.NewTelegramClient(cfg.TelegramBotToken, appLogger)
	if err != nil {
		appLogger.Error("Ошибка при создании Telegram клиента",
			"error", err,
		)

		return err
	}

	c.telegramClient = telegramClient

	c.notifierFactory = notify.NewNotifierFactory(cfg, telegramClient, appLogger)

	notifier, err := c.notifierFactory.CreateNotifier()
	if err != nil {
		appLogger.Error("Ошибка при создании нотификатора",
			"error", err,
		)

		return err
	}

	c.tracker = service.NewTrackerService(subRepo, userRepo, notifier, appLogger)

	scheduleClient := trackerclients.NewScheduleClient(cfg.SourceURL, cookies, destinations, cfg, appLogger)
	routePoller := poller.NewRoutePoller(scheduleClient, cfg.FetchAttempts, cfg.FetchBackoff, appLogger)

	if err := checkAccess(ctx, routePoller, destinations, appLogger); err != nil {
		return err
	}

	fatalCh := make(chan error, 1)
	onFatal := func(err error) {
		select {
		case fatalCh <- err:
		default:
		}
	}

	c.scheduler = scheduler.NewRouteScheduler(
		routePoller,
		schedule.NewStore(),
		c.tracker,
		subRepo,
		scheduler.Options{
			RefreshRate:      cfg.RefreshRate,
			Retention:        cfg.Retention,
			EvictionInterval: cfg.EvictionInterval,
		},
		onFatal,
		appLogger,
	)

	if err := c.scheduler.Start(); err != nil {
		appLogger.Error("Ошибка при запуске планировщика маршрутов",
			"error", err,
		)

		return err
	}

	commandService := botservice.NewCommandService(
		userRepo,
		subRepo,
		txManager,
		c.scheduler,
		common.NewRouteResolver(destinations.Names()),
		botservice.Options{BlockCascade: cfg.BlockCascade},
		appLogger,
	)

	dispatcher := telegram.NewDispatcher(commandService, c.tracker, onFatal, commandTimeout, appLogger)

	var metricsCtx context.Context

	metricsCtx, c.cancelMetrics = context.WithCancel(ctx)
	c.metricsServer = metrics.NewMetricsServer(cfg.MetricsPort, appLogger)

	go func() {
		if err := c.metricsServer.Start(metricsCtx); err != nil {
			appLogger.Error("Ошибка сервера метрик",
				"error", err,
			)
		}
	}()

	if cfg.MessageTransport == config.KafkaTransport {
		var consumerCtx context.Context

		consumerCtx, c.cancelConsumer = context.WithCancel(ctx)
		c.consumer = kafka.NewConsumer(
			strings.Split(cfg.KafkaBrokers, ","),
			consumerGroupID,
			cfg.TopicNotifications,
			cfg.TopicDeadLetterQueue,
			telegramClient,
			appLogger,
		)
		c.consumer.Start(consumerCtx)
	}

	if err := c.tracker.NotifyAll(ctx, textStarted); err != nil {
		appLogger.Error("Ошибка при рассылке уведомления о запуске",
			"error", err,
		)
	}

	if err := c.scheduler.ActivateSubscribed(ctx); err != nil {
		appLogger.Error("Ошибка при активации маршрутов с подписками",
			"error", err,
		)

		onFatal(err)
	}

	if err := telegramClient.SetMyCommands(ctx, domain.DefaultCommands); err != nil {
		appLogger.Error("Ошибка при регистрации команд бота",
			"error", err,
		)
	}

	crashCh := make(chan error, 1)

	c.intake, err = startIntake(ctx, cfg, c, dispatcher, crashCh, appLogger)
	if err != nil {
		appLogger.Error("Ошибка при запуске приема сообщений",
			"error", err,
		)

		shutdown(cfg, c, stopCrashed, appLogger)

		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLogger.Info("Получен системный сигнал",
			"signal", sig.String(),
		)

		return shutdown(cfg, c, stopRequested, appLogger)
	case err := <-fatalCh:
		appLogger.Error("Сессия источника расписания истекла, сервис останавливается",
			"error", err,
		)

		return multierr.Append(err, shutdown(cfg, c, stopSessionExpired, appLogger))
	case err := <-crashCh:
		appLogger.Error("Критическая ошибка сервиса",
			"error", err,
		)

		return multierr.Append(err, shutdown(cfg, c, stopCrashed, appLogger))
	}
}

// checkAccess запрашивает один маршрут до запуска, чтобы сразу обнаружить истекшую сессию.
func checkAccess(ctx context.Context, routePoller *poller.RoutePoller, destinations trackerclients.Destinations, logger *slog.Logger) error {
	route := models.RouteFrom(destinations.AnyPlace())

	if _, err := routePoller.Fetch(ctx, route); err != nil {
		if errors.Is(err, &domainerrors.ErrSessionExpired{}) {
			logger.Error("Нет доступа к источнику расписания",
				"error", err,
				"route", route,
			)

			return err
		}

		logger.Warn("Проверка доступа к источнику расписания не удалась",
			"error", err,
			"route", route,
		)

		return nil
	}

	logger.Info("Доступ к источнику расписания подтвержден", "route", route)

	return nil
}

func startIntake(
	ctx context.Context,
	cfg *config.Config,
	c *components,
	dispatcher *telegram.Dispatcher,
	crashCh chan<- error,
	logger *slog.Logger,
) (intake, error) {
	if cfg.IntakeMode != config.WebhookIntake {
		p := telegram.NewPoller(c.telegramClient, dispatcher, logger)
		if err := p.Start(); err != nil {
			return nil, err
		}

		return pollIntake{poller: p}, nil
	}

	var limiterCtx context.Context

	limiterCtx, c.cancelLimiter = context.WithCancel(ctx)
	rateLimiter := middleware.NewRateLimiterMiddleware(limiterCtx, cfg.RateLimitRequests, cfg.RateLimitWindow, logger)

	server := telegram.NewWebhookServer(telegram.WebhookOptions{
		Port:            cfg.WebhookPort,
		Secret:          cfg.WebhookSecret,
		CertificatePath: cfg.CertificatePath,
		PrivateKeyPath:  cfg.PrivateKeyPath,
	}, dispatcher, rateLimiter, logger)

	if cfg.WebhookURL != "" {
		if err := telegram.RegisterWebhook(c.telegramClient.GetBot(), cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			return nil, err
		}
	}

	go func() {
		if err := server.Start(); err != nil {
			crashCh <- err
		}
	}()

	return webhookIntake{server: server}, nil
}

type stopReason int

const (
	stopRequested stopReason = iota
	stopSessionExpired
	stopCrashed
)

// shutdownNotices - сообщения пользователям при остановке, в порядке отправки.
func shutdownNotices(reason stopReason) []string {
	switch reason {
	case stopSessionExpired:
		return []string{textSessionExpired, textStopped}
	case stopCrashed:
		return []string{textCrashed}
	default:
		return []string{textStopped}
	}
}

// shutdown останавливает прием сообщений и таймеры, затем рассылает финальное уведомление.
func shutdown(cfg *config.Config, c *components, reason stopReason, logger *slog.Logger) error {
	logger.Info("Остановка сервиса")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error

	if c.intake != nil {
		errs = multierr.Append(errs, c.intake.Stop(ctx))
	}

	if c.scheduler != nil {
		c.scheduler.Stop()
	}

	if c.tracker != nil {
		for _, notice := range shutdownNotices(reason) {
			if err := c.tracker.NotifyAll(ctx, notice); err != nil {
				logger.Error("Ошибка при рассылке уведомления об остановке",
					"error", err,
				)
			}
		}
	}

	if cfg.DeleteWebhook && c.telegramClient != nil {
		errs = multierr.Append(errs, telegram.DeleteWebhook(c.telegramClient.GetBot(), false))
	}

	if c.consumer != nil {
		c.cancelConsumer()
		errs = multierr.Append(errs, c.consumer.Close())
	}

	if c.notifierFactory != nil {
		errs = multierr.Append(errs, c.notifierFactory.Close())
	}

	if c.redisCache != nil {
		errs = multierr.Append(errs, c.redisCache.Close())
	}

	if c.cancelLimiter != nil {
		c.cancelLimiter()
	}

	if c.metricsServer != nil {
		c.cancelMetrics()
	}

	if errs != nil {
		logger.Error("Ошибки при остановке сервиса",
			"error", errs,
		)

		return errs
	}

	logger.Info("Сервис успешно остановлен")

	return nil
}
