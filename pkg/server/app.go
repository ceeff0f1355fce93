package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SentiPull/internal/usecase"
	pkgch "SentiPull/pkg/clickhouse"
	"SentiPull/pkg/config"
	xhttp "SentiPull/pkg/http"
	pkgkafka "SentiPull/pkg/kafka"
	applogger "SentiPull/pkg/logger"
	"SentiPull/pkg/queue"
)

// App encapsulates the entire application lifecycle: poll collector,
// Kafka consumer, refresh queue and the HTTP API.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	collector   *usecase.Collector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	queue       *queue.RedisQueue
	scheduler   *usecase.RefreshScheduler
	proc        *usecase.ObservationProcessor
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.Collector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	q *queue.RedisQueue,
	scheduler *usecase.RefreshScheduler,
	proc *usecase.ObservationProcessor,
) *App {
	return &App{
		cfg:       cfg,
		logger:    lgr,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		queue:     q,
		scheduler: scheduler,
		proc:      proc,
	}
}

// SetHTTPHandler allows DI to inject the HTTP route registrar.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	metricsPath := a.cfg.Metrics.Path
	if !a.cfg.Metrics.Enabled {
		metricsPath = ""
	}
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)

	if a.collector != nil {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector start error", applogger.Error(err))
			return err
		}
		l.Info("collector started", applogger.Strings("tickers", a.cfg.Collector.Tickers))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			l.Error("queue start error", applogger.Error(err))
			return err
		}
		l.Info("refresh queue started", applogger.Int("workers", a.cfg.Queue.Workers))

		if a.scheduler != nil {
			a.scheduler.Start(ctx)
		}
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server listening", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops the write side first so nothing new enters the
// pipeline, then the read side, then the infrastructure clients.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.queue != nil {
		// Final collector flush goes through the queue, so it stops first.
		l.RemoveCollector()
		if err := a.queue.Stop(ctx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Flushes the remaining batch and closes publisher and storage.
	if a.proc != nil {
		a.proc.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
