package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"MoodPulse/internal/usecase"
	pkgch "MoodPulse/pkg/clickhouse"
	"MoodPulse/pkg/config"
	xhttp "MoodPulse/pkg/http"
	applogger "MoodPulse/pkg/logger"
	"MoodPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle: the decision loop,
// the optional stream collector, export queue workers, and the status
// HTTP server.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	scheduler   *usecase.Scheduler
	collector   *usecase.StreamCollector
	exportQueue *queue.RedisQueue
	chClient    *pkgch.Client
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	scheduler *usecase.Scheduler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		scheduler: scheduler,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject the HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetStreamCollector enables the live stream ingest path.
func (a *App) SetStreamCollector(c *usecase.StreamCollector) { a.collector = c }

// SetExportQueue enables the export queue workers.
func (a *App) SetExportQueue(q *queue.RedisQueue) { a.exportQueue = q }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)

	if a.exportQueue != nil {
		if err := a.exportQueue.Start(); err != nil {
			a.logger.Error("export queue start error", applogger.Error(err))
			return err
		}
	}

	if a.collector != nil && a.cfg.Ingest.Mode != "poll" {
		if err := a.collector.Start(ctx); err != nil {
			// The poll path still keeps the store current; stream ingest is
			// an enhancement, not a startup requirement.
			a.logger.Warn("stream collector start failed", applogger.Error(err))
		} else {
			a.logger.Info("stream collector started", applogger.Strings("assets", a.cfg.Assets))
		}
	}

	schedDone := make(chan error, 1)
	go func() {
		schedDone <- a.scheduler.Run(ctx)
	}()

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("application started",
		applogger.String("environment", a.cfg.Environment),
		applogger.String("ingest_mode", a.cfg.Ingest.Mode),
		applogger.Int("port", a.cfg.Server.Port),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	<-schedDone
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.collector != nil {
		if err := a.collector.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("collector stop error", applogger.Error(err))
		}
	}

	if a.exportQueue != nil {
		if err := a.exportQueue.Stop(shutdownCtx); err != nil {
			a.logger.Warn("export queue stop error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
