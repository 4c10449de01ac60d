package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/shestoi/GoBigTech/cart/internal/api/http"
	httpclient "github.com/shestoi/GoBigTech/cart/internal/client/http"
	"github.com/shestoi/GoBigTech/cart/internal/config"
	eventkafka "github.com/shestoi/GoBigTech/cart/internal/event/kafka"
	"github.com/shestoi/GoBigTech/cart/internal/notifier"
	"github.com/shestoi/GoBigTech/cart/internal/service"
	platformlogging "github.com/shestoi/GoBigTech/cart/platform/logging"
	platformobservability "github.com/shestoi/GoBigTech/cart/platform/observability"
	platformshutdown "github.com/shestoi/GoBigTech/cart/platform/shutdown"
)

// App содержит все зависимости для запуска и корректного shutdown сервиса
type App struct {
	name        string
	logger      *zap.Logger
	httpServer  *http.Server
	shutdownMgr *platformshutdown.Manager
	wg          sync.WaitGroup
}

// Build создаёт и настраивает все зависимости Cart Service
func Build(cfg config.Config) (*App, error) {
	const op = "app.Build"

	logger, err := newLogger("cart", cfg)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("op", op))
	logger.Info("Building Cart service",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("snapshot_store", cfg.SnapshotStore),
	)

	// Создаём shutdown manager сразу: при ошибке сборки закрываем уже открытое через него
	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)
	fail := func(err error) (*App, error) {
		_ = shutdownMgr.Shutdown()
		platformlogging.Sync(logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	otelShutdown, err := initTelemetry("cart", cfg)
	if err != nil {
		return fail(err)
	}
	shutdownMgr.Add("otel", otelShutdown)

	// Хранилище снимка корзины
	store, err := openSnapshotStore(context.Background(), cfg, logger)
	if err != nil {
		return fail(err)
	}
	for _, c := range store.closers {
		shutdownMgr.Add(c.name, c.fn)
	}

	// Notifier: лог всегда, Kafka если указаны брокеры
	notifiers := []service.Notifier{notifier.NewLogNotifier(logger)}
	if cfg.Kafka.Enabled() {
		logger.Info("Publishing cart notifications to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
		publisher := eventkafka.NewKafkaNotificationPublisher(logger, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.SnapshotKey)
		shutdownMgr.Add("kafka_writer", platformshutdown.CloseCloser(publisher))
		notifiers = append(notifiers, publisher)
	}

	catalogClient := httpclient.NewCatalogClientAdapter(cfg.CatalogBaseURL, cfg.CatalogTimeout, logger)
	logger.Info("Catalog client configured", zap.String("base_url", cfg.CatalogBaseURL))

	loadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cartService, err := service.NewCartService(loadCtx, catalogClient, notifier.NewMulti(notifiers...), store.repo, logger)
	if err != nil {
		return fail(err)
	}

	handler := httpapi.NewHandler(cartService, logger)
	router := httpapi.NewRouter(handler, store.readiness, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// Регистрируется последним: перестаём принимать запросы раньше, чем закрываем хранилище
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))

	return &App{
		name:        "Cart",
		logger:      logger,
		httpServer:  httpServer,
		shutdownMgr: shutdownMgr,
	}, nil
}

// Run запускает сервис и блокируется до получения сигнала shutdown
// Ошибка запуска HTTP сервера тоже приводит к shutdown и возвращается
func (a *App) Run() error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("Starting "+a.name+" service", zap.String("addr", a.httpServer.Addr))
	a.logger.Info("Health check available", zap.String("url", "http://"+a.httpServer.Addr+"/health"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var serveErr error
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
			serveErr = err
			cancel()
		}
	}()

	// Ожидаем сигнал и выполняем shutdown
	shutdownErr := a.shutdownMgr.Wait(ctx)

	a.wg.Wait()
	a.logger.Info(a.name + " service stopped")
	return errors.Join(serveErr, shutdownErr)
}

func newLogger(serviceName string, cfg config.Config) (*zap.Logger, error) {
	return platformlogging.New(platformlogging.Config{
		ServiceName: serviceName,
		Env:         string(cfg.AppEnv),
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		AddCaller:   cfg.AppEnv == config.EnvLocal,
	})
}

func initTelemetry(serviceName string, cfg config.Config) (func(context.Context) error, error) {
	return platformobservability.Init(context.Background(), platformobservability.Config{
		Enabled:               cfg.OTelEnabled,
		OTLPEndpoint:          cfg.OTelEndpoint,
		SamplingRatio:         cfg.OTelSamplingRatio,
		ServiceName:           serviceName,
		DeploymentEnvironment: string(cfg.AppEnv),
	})
}
