package app

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/cart/internal/catalog"
	"github.com/shestoi/GoBigTech/cart/internal/config"
	platformshutdown "github.com/shestoi/GoBigTech/cart/platform/shutdown"
)

// BuildCatalog собирает catalog stub: in-memory каталог и его HTTP API
func BuildCatalog(cfg config.Config) (*App, error) {
	const op = "app.BuildCatalog"

	logger, err := newLogger("catalog", cfg)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("op", op))

	seed := catalog.DefaultSeed()
	if cfg.CatalogSeedFile != "" {
		seed, err = catalog.LoadSeed(cfg.CatalogSeedFile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Info("Catalog seed loaded", zap.String("path", cfg.CatalogSeedFile))
	}

	inventory, err := catalog.NewInventory(seed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("Catalog ready", zap.Int("products", len(seed.Products)))

	otelShutdown, err := initTelemetry("catalog", cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := catalog.NewRouter(catalog.NewHandler(inventory, logger), logger)
	httpServer := &http.Server{
		Addr:              cfg.CatalogHTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)
	shutdownMgr.Add("otel", otelShutdown)
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))

	return &App{
		name:        "Catalog",
		logger:      logger,
		httpServer:  httpServer,
		shutdownMgr: shutdownMgr,
	}, nil
}
