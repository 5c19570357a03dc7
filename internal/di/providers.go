package di

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MarketPulse/internal/domain/repository"
	"MarketPulse/internal/handler/api"
	mid "MarketPulse/internal/middleware"
	internalrepo "MarketPulse/internal/repository"
	"MarketPulse/internal/service/fmp"
	"MarketPulse/internal/services/aggregate"
	"MarketPulse/internal/usecase"
	"MarketPulse/pkg/cache"
	pkgch "MarketPulse/pkg/clickhouse"
	"MarketPulse/pkg/config"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/metrics"
	"MarketPulse/pkg/queue"
	"MarketPulse/pkg/server"
)

// ProvideLogger creates the application logger. Development gets readable
// console output; everything else logs JSON at info.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lc.Level = "debug"
		lc.Format = "console"
	}
	return applogger.New(lc)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are
// configured (pure ClickHouse deployments).
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRawWarehouse creates the raw candle store and ensures the schema
// exists before anything writes.
func ProvideRawWarehouse(chClient *pkgch.Client, l *applogger.Logger) (*internalrepo.RawWarehouse, error) {
	w := internalrepo.NewRawWarehouse(chClient)
	w.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.Init(ctx); err != nil {
		return nil, fmt.Errorf("warehouse schema: %w", err)
	}
	return w, nil
}

// ProvideRawStore exposes the warehouse through its load/read interface.
func ProvideRawStore(w *internalrepo.RawWarehouse) repository.RawStore { return w }

// ProvideReportStore exposes the warehouse's reporting queries.
func ProvideReportStore(w *internalrepo.RawWarehouse) repository.ReportStore { return w }

// ProvideAnalyticsWarehouse creates the derived-data store.
func ProvideAnalyticsWarehouse(chClient *pkgch.Client, l *applogger.Logger) repository.AnalyticsStore {
	w := internalrepo.NewAnalyticsWarehouse(chClient)
	w.SetLogger(l)
	return w
}

// ProvideBarPublisher creates the Kafka bar publisher.
func ProvideBarPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the bars-topic consumer when the Kafka
// backend is active, nil otherwise.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaBarsHandler registers the handler for the bars topic.
func ProvideKafkaBarsHandler(store repository.RawStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideFMPClient creates the market data API client.
func ProvideFMPClient(cfg *config.Config, l *applogger.Logger) *fmp.Client {
	opts := []fmp.Option{fmp.WithLogger(l)}
	if cfg.FMP.BaseURL != "" {
		opts = append(opts, fmp.WithBaseURL(cfg.FMP.BaseURL))
	}
	if cfg.FMP.RateLimit > 0 {
		opts = append(opts, fmp.WithRateLimit(float64(cfg.FMP.RateLimit)))
	}
	return fmp.New(cfg.FMP.APIKey, cfg.FMP.RequestTimeout, opts...)
}

// ProvideBarProcessor creates the backend router.
func ProvideBarProcessor(
	pub repository.Publisher,
	store repository.RawStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.BarProcessor {
	return usecase.NewBarProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideLoadPipeline creates the validate/dedupe/buffer stage in front of
// the backend router.
func ProvideLoadPipeline(proc *usecase.BarProcessor, metrics repository.Metrics) *mid.LoadPipeline {
	return mid.NewLoadPipeline(proc, metrics,
		mid.WithBufferSize(2000),
		mid.WithDedupeWindow(2*time.Hour),
	)
}

// ProvideRedisCache creates the shared Redis client, or nil when Redis is
// disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, port := splitAddr(cfg.Redis.Addr)
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCacheService exposes the query cache as a cache.Service, layering
// an in-process L1 over Redis. Returns an untyped nil when Redis is off so
// callers can test against nil.
func ProvideCacheService(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return nil
	}
	return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(2000))
}

// ProvideJobsPublisher creates the transform-fanout queue publisher.
func ProvideJobsPublisher(l *applogger.Logger, rc *cache.RedisCache, cfg *config.Config) queue.QueueService {
	if rc == nil {
		return nil
	}
	return queue.NewRedisPublisher(l, rc.Client(), queue.WithKeyPrefix(jobsPrefix(cfg)))
}

// ProvideTransformer creates the analytics deriver.
func ProvideTransformer(
	raw repository.RawStore,
	analytics repository.AnalyticsStore,
	metrics repository.Metrics,
	l *applogger.Logger,
	jobs queue.QueueService,
) *usecase.Transformer {
	return usecase.NewTransformer(raw, analytics, metrics, l, jobs)
}

// ProvideJobsConsumer creates the transform worker pool, nil without Redis.
func ProvideJobsConsumer(
	cfg *config.Config,
	l *applogger.Logger,
	rc *cache.RedisCache,
	t *usecase.Transformer,
) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	qc := &queue.QueueConfig{
		Workers:    cfg.Redis.Queue.Workers,
		RetryLimit: 3,
		RetryDelay: 5 * time.Second,
	}
	jobs := []queue.Job{usecase.NewTransformSymbolJob(t)}
	return queue.NewRedisConsumer(l, qc, rc.Client(), jobs, queue.WithKeyPrefix(jobsPrefix(cfg)))
}

// ProvideExtractor creates the scheduled extract-and-load use case.
func ProvideExtractor(
	apiClient *fmp.Client,
	proc *usecase.BarProcessor,
	pipe *mid.LoadPipeline,
	analytics repository.AnalyticsStore,
	metrics repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Extractor {
	session := aggregate.DefaultConfig()
	session.SessionOpen = config.SessionMinutes(cfg.Pipeline.SessionOpen, session.SessionOpen)
	session.SessionClose = config.SessionMinutes(cfg.Pipeline.SessionClose, session.SessionClose)

	commodity := session
	commodity.SessionClose = config.SessionMinutes(cfg.Pipeline.CommodityClose, aggregate.CommodityConfig().SessionClose)

	return usecase.NewExtractor(
		apiClient, proc, pipe, analytics, metrics, l,
		usecase.Universe{
			Stocks:      cfg.FMP.StockSymbols,
			Indexes:     cfg.FMP.IndexSymbols,
			Commodities: cfg.FMP.CommoditySymbols,
		},
		cfg.Pipeline.LookbackDays,
		session, commodity,
	)
}

// ProvideMarketQueries creates the cached read layer.
func ProvideMarketQueries(
	raw repository.RawStore,
	analytics repository.AnalyticsStore,
	c cache.Service,
	cfg *config.Config,
) *usecase.MarketQueries {
	return usecase.NewMarketQueries(raw, analytics, c, usecase.QueryTTL{
		Candles:    cfg.Redis.CacheTTL.Candles,
		Indicators: cfg.Redis.CacheTTL.Indicators,
		Breadth:    cfg.Redis.CacheTTL.Breadth,
		Yields:     cfg.Redis.CacheTTL.Yields,
	})
}

// ProvideQualityRunner creates the validation runner.
func ProvideQualityRunner(
	raw repository.RawStore,
	analytics repository.AnalyticsStore,
	metrics repository.Metrics,
	l *applogger.Logger,
) *usecase.QualityRunner {
	return usecase.NewQualityRunner(raw, analytics, metrics, l)
}

// ProvideReportBuilder creates the weekly report use case.
func ProvideReportBuilder(store repository.ReportStore, quality *usecase.QualityRunner, l *applogger.Logger) *usecase.ReportBuilder {
	return usecase.NewReportBuilder(store, quality, l)
}

// ProvideMarketHandler creates the HTTP read API handler.
func ProvideMarketHandler(l *applogger.Logger, queries *usecase.MarketQueries, quality *usecase.QualityRunner, report *usecase.ReportBuilder) *api.MarketHandler {
	return api.NewMarketHandler(l, queries, quality, report)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	chClient *pkgch.Client,
	pipe *mid.LoadPipeline,
	proc *usecase.BarProcessor,
	extractor *usecase.Extractor,
	transformer *usecase.Transformer,
	quality *usecase.QualityRunner,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	jobs *queue.RedisQueue,
	handler *api.MarketHandler,
	producer *pkgkafka.Producer,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}

	// Process-level log aggregation rides the ops topic when Kafka is up.
	if producer != nil && cfg.Kafka.OpsTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.OpsTopic,
			Publisher:      opsPublisher{producer},
		})
	}

	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = kh
	}

	app := server.New(cfg, l, chClient, pipe, proc, extractor, transformer, quality, consumer, mh)
	app.SetHTTPHandler(handler)
	if jobs != nil {
		app.SetJobsConsumer(jobs)
	}
	return app
}

// opsPublisher adapts the Kafka producer to the log collector's publisher.
type opsPublisher struct {
	p *pkgkafka.Producer
}

func (o opsPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return o.p.Publish(ctx, topic, nil, payload)
}

func jobsPrefix(cfg *config.Config) string {
	name := cfg.Redis.Queue.Name
	if name == "" {
		name = "transform"
	}
	return "marketpulse:" + name
}

func splitAddr(addr string) (string, int) {
	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}
