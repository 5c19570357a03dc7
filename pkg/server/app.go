package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "MarketPulse/internal/middleware"
	"MarketPulse/internal/usecase"
	pkgch "MarketPulse/pkg/clickhouse"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/queue"
	"MarketPulse/pkg/util"
)

// App owns the process lifecycle: the ELT loop, the optional Kafka and
// Redis consumers, the HTTP read API, and graceful shutdown ordering.
type App struct {
	cfg *config.Config
	l   *applogger.Logger

	chClient    *pkgch.Client
	pipe        *mid.LoadPipeline
	proc        *usecase.BarProcessor
	extractor   *usecase.Extractor
	transformer *usecase.Transformer
	quality     *usecase.QualityRunner

	consumer *pkgkafka.Consumer
	kh       pkgkafka.MessageHandler
	jobs     *queue.RedisQueue

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates an App. Consumer, handler, and jobs queue may be nil when the
// deployment does not use Kafka or Redis.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	chClient *pkgch.Client,
	pipe *mid.LoadPipeline,
	proc *usecase.BarProcessor,
	extractor *usecase.Extractor,
	transformer *usecase.Transformer,
	quality *usecase.QualityRunner,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *App {
	return &App{
		cfg:         cfg,
		l:           l,
		chClient:    chClient,
		pipe:        pipe,
		proc:        proc,
		extractor:   extractor,
		transformer: transformer,
		quality:     quality,
		consumer:    consumer,
		kh:          kh,
	}
}

// SetHTTPHandler injects the read API handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetJobsConsumer attaches the Redis transform workers.
func (a *App) SetJobsConsumer(q *queue.RedisQueue) { a.jobs = q }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.pipe.Start(ctx)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.jobs != nil {
		if err := a.jobs.Start(); err != nil {
			a.l.Error("transform workers start error", applogger.Error(err))
		} else {
			a.l.Info("transform workers started", applogger.Int("workers", a.cfg.Redis.Queue.Workers))
		}
	}

	go a.eltLoop(ctx)
	a.l.Info("pipeline started",
		applogger.Strings("stocks", a.cfg.FMP.StockSymbols),
		applogger.Strings("indexes", a.cfg.FMP.IndexSymbols),
		applogger.Strings("commodities", a.cfg.FMP.CommoditySymbols),
		applogger.Duration("interval", a.cfg.Pipeline.ExtractInterval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// eltLoop runs extract-then-transform cycles on the bar grid. The first
// cycle fires immediately so a fresh deploy backfills without waiting for
// the next boundary.
func (a *App) eltLoop(ctx context.Context) {
	grid := a.cfg.Pipeline.ExtractInterval
	if grid <= 0 {
		grid = 15 * time.Minute
	}

	a.runCycle(ctx)
	for {
		next := util.NextGridTime(time.Now(), grid)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			a.runCycle(ctx)
		}
	}
}

// runCycle performs one extract pass and then derives analytics for the
// session date. Cycle failures are logged; the next boundary retries the
// same window because extraction always looks back a full day.
func (a *App) runCycle(ctx context.Context) {
	if err := a.extractor.Run(ctx); err != nil {
		a.l.Error("extract cycle error", applogger.Error(err))
	}
	if err := a.transformer.Run(ctx, time.Now().UTC()); err != nil {
		a.l.Error("transform cycle error", applogger.Error(err))
	}
	report, err := a.quality.Run(ctx, time.Now().UTC())
	if err != nil {
		a.l.Error("quality run error", applogger.Error(err))
		return
	}
	if !report.Passed() {
		a.l.Warn("quality checks failed", applogger.Int("flags", len(report.AllFlags())))
	}
}

// shutdown stops components in dependency order: no new cycles, drain the
// load pipeline, stop consumers, close the API, then release clients.
func (a *App) shutdown() error {
	a.pipe.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.jobs != nil {
		if err := a.jobs.Stop(shutdownCtx); err != nil {
			a.l.Warn("transform workers stop error", applogger.Error(err))
		}
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.proc != nil {
		a.proc.Close()
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.RemoveCollector()
	a.l.Info("shutdown complete")
	return nil
}
