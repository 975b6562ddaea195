package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VolSpike/internal/domain/repository"
	"VolSpike/internal/handler/api"
	pkgcache "VolSpike/pkg/cache"
	"VolSpike/pkg/config"
	xhttp "VolSpike/pkg/http"
	applogger "VolSpike/pkg/logger"
)

// App owns the process lifecycle: the HTTP server, the websocket hub, and the
// shared infrastructure that needs orderly shutdown.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	hub        *api.ProgressHub
	publisher  repository.SpikePublisher
	histCache  pkgcache.Service
	httpServer *xhttp.Server
}

// New creates the application from its wired dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler *api.AnalysisHandler,
	hub *api.ProgressHub,
	publisher repository.SpikePublisher,
	histCache pkgcache.Service,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		handler:   handler,
		hub:       hub,
		publisher: publisher,
		histCache: histCache,
	}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.logger, time.Second),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("exchange", a.cfg.QuoteMedia.ExchangeCode),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.hub != nil {
		a.hub.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.histCache != nil {
		if err := a.histCache.Close(); err != nil {
			a.logger.Warn("history cache close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
