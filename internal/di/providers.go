package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"MoodPulse/internal/analytics"
	domrepo "MoodPulse/internal/domain/repository"
	domsvc "MoodPulse/internal/domain/service"
	"MoodPulse/internal/handler/api"
	mid "MoodPulse/internal/middleware"
	"MoodPulse/internal/mood"
	internalrepo "MoodPulse/internal/repository"
	icache "MoodPulse/internal/service/cache"
	"MoodPulse/internal/services/export"
	"MoodPulse/internal/services/llm"
	"MoodPulse/internal/services/market"
	"MoodPulse/internal/services/social"
	"MoodPulse/internal/usecase"
	pkgch "MoodPulse/pkg/clickhouse"
	"MoodPulse/pkg/config"
	pkgkafka "MoodPulse/pkg/kafka"
	applogger "MoodPulse/pkg/logger"
	"MoodPulse/pkg/metrics"
	"MoodPulse/pkg/queue"
	"MoodPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lc.Level = "debug"
		lc.Format = "console"
	}
	return applogger.New(lc)
}

// ProvideClickHouseClient creates a ClickHouse client. A nil client
// means no backend is configured; the repositories then run in memory.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.ClickHouse.Host == "" {
		return nil, nil
	}
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

// ProvideRedisClient creates the shared Redis client for the export queue.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
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
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvidePriceStore creates the ClickHouse price store and its schema,
// or the in-memory store when ClickHouse is not configured.
func ProvidePriceStore(chClient *pkgch.Client, logger *applogger.Logger) (domrepo.PriceStore, error) {
	if chClient == nil {
		logger.Warn("clickhouse not configured, price store runs in memory")
		return internalrepo.NewMemoryPriceStore(), nil
	}
	store := internalrepo.NewCHPriceStore(chClient)
	store.SetLogger(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("price store init: %w", err)
	}
	return store, nil
}

// ProvideActionLog creates the ClickHouse action log and its schema,
// or the in-memory log when ClickHouse is not configured.
func ProvideActionLog(chClient *pkgch.Client, logger *applogger.Logger) (domrepo.ActionLog, error) {
	if chClient == nil {
		logger.Warn("clickhouse not configured, action log runs in memory")
		return internalrepo.NewMemoryActionLog(), nil
	}
	log := internalrepo.NewCHActionLog(chClient)
	log.SetLogger(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := log.Init(ctx); err != nil {
		return nil, fmt.Errorf("action log init: %w", err)
	}
	return log, nil
}

// ProvideDedupCache creates the Redis-backed fingerprint cache.
func ProvideDedupCache(cfg *config.Config) icache.BytesCache {
	return icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideDataSource creates the CoinGecko polling source.
func ProvideDataSource(cfg *config.Config, logger *applogger.Logger) domsvc.DataSource {
	return market.NewCoinGecko(market.CoinGeckoConfig{
		BaseURL:      cfg.CoinGecko.BaseURL,
		APIKey:       cfg.CoinGecko.APIKey,
		Timeout:      cfg.CoinGecko.Timeout,
		CacheTTL:     cfg.CoinGecko.CacheTTL,
		MaxRPS:       cfg.CoinGecko.MaxRPS,
		MaxRetries:   cfg.CoinGecko.MaxRetries,
		RetryBackoff: cfg.CoinGecko.RetryBackoff,
	}, logger)
}

// ProvideMarketStream creates the Binance WebSocket stream.
func ProvideMarketStream(cfg *config.Config, logger *applogger.Logger) domsvc.MarketStream {
	return market.NewBinanceStream(
		cfg.Binance.WebSocketURL,
		cfg.Assets,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
		cfg.Ingest.StreamBufferSize,
		logger,
	)
}

// ProvideCompletion creates the LLM commentary client.
func ProvideCompletion(cfg *config.Config, logger *applogger.Logger) domsvc.Completion {
	return llm.NewClient(llm.ClientConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
}

// ProvidePoster creates the webhook poster.
func ProvidePoster(cfg *config.Config, logger *applogger.Logger) domsvc.Poster {
	return social.NewWebhookPoster(cfg.Poster.WebhookURL, cfg.Poster.Timeout, logger)
}

// ProvideExporter creates the Kafka action exporter.
func ProvideExporter(producer *pkgkafka.Producer, cfg *config.Config) domsvc.Exporter {
	return export.NewKafkaExporter(producer, cfg.Kafka.ActionsTopic)
}

// ProvideExportQueue creates the Redis queue draining exports to Kafka.
func ProvideExportQueue(logger *applogger.Logger, cfg *config.Config, client *redis.Client, exporter domsvc.Exporter) *queue.RedisQueue {
	return queue.NewRedisConsumer(logger,
		&queue.QueueConfig{
			Workers:    cfg.Export.Workers,
			QueueSize:  cfg.Export.QueueSize,
			RetryLimit: cfg.Export.RetryLimit,
			RetryDelay: cfg.Export.RetryDelay,
		},
		client,
		[]queue.Job{export.NewExportJob(exporter)},
		queue.WithKeyPrefix("moodpulse:queue"),
	)
}

// ProvideExportSink creates the dispatcher-facing enqueue side.
func ProvideExportSink(q *queue.RedisQueue, logger *applogger.Logger) usecase.ExportSink {
	return export.NewQueueSink(q, logger)
}

// ProvideTracker creates the correlation tracker.
func ProvideTracker(store domrepo.PriceStore, cfg *config.Config, logger *applogger.Logger) *analytics.Tracker {
	return analytics.NewTracker(store, analytics.Config{
		Assets:          cfg.Assets,
		Windows:         cfg.Engine.Windows,
		AlignTolerance:  cfg.Engine.AlignTolerance,
		MinAlignedPairs: cfg.Engine.MinAlignedPairs,
		TrendUpPct:      cfg.Engine.TrendUpPct,
		TrendStrongPct:  cfg.Engine.TrendStrongPct,
		VolumeModPct:    cfg.Engine.VolumeModPct,
		VolumeSigPct:    cfg.Engine.VolumeSigPct,
	}, logger)
}

// ProvideThresholds maps config to classifier thresholds.
func ProvideThresholds(cfg *config.Config) mood.Thresholds {
	return mood.Thresholds{
		VolElevated:    cfg.Mood.VolElevated,
		VolHigh:        cfg.Mood.VolHigh,
		VolExtreme:     cfg.Mood.VolExtreme,
		CorrAligned:    cfg.Mood.CorrAligned,
		CorrInverse:    cfg.Mood.CorrInverse,
		MinDwellCycles: cfg.Mood.MinDwellCycles,
	}
}

// ProvideClassifier creates the mood classifier from cold start.
func ProvideClassifier(th mood.Thresholds) *mood.Classifier {
	return mood.NewClassifier(th, time.Now())
}

// ProvideClock provides the real clock.
func ProvideClock() domsvc.Clock {
	return domsvc.SystemClock{}
}

// ProvideDispatcher creates the action dispatcher.
func ProvideDispatcher(
	completion domsvc.Completion,
	poster domsvc.Poster,
	actions domrepo.ActionLog,
	sink usecase.ExportSink,
	m domrepo.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.Dispatcher {
	return usecase.NewDispatcher(completion, poster, actions, sink, m, logger, cfg.Decision.Channel)
}

// ProvideScheduler creates the decision loop.
func ProvideScheduler(
	cfg *config.Config,
	source domsvc.DataSource,
	store domrepo.PriceStore,
	tracker *analytics.Tracker,
	classifier *mood.Classifier,
	th mood.Thresholds,
	actions domrepo.ActionLog,
	dedup icache.BytesCache,
	dispatcher *usecase.Dispatcher,
	clock domsvc.Clock,
	m domrepo.Metrics,
	logger *applogger.Logger,
) *usecase.Scheduler {
	return usecase.NewScheduler(usecase.SchedulerConfig{
		Assets:            cfg.Assets,
		PollEnabled:       cfg.Ingest.Mode != "stream",
		PollInterval:      cfg.Engine.PollInterval,
		Channel:           cfg.Decision.Channel,
		MinActionInterval: cfg.Decision.MinActionInterval,
		DedupLookback:     cfg.Decision.DedupLookback,
		HeartbeatInterval: cfg.Decision.HeartbeatInterval,
		PriceChangePct:    cfg.Decision.PriceChangePct,
		VolumeChangePct:   cfg.Decision.VolumeChangePct,
	}, source, store, tracker, classifier, th, actions, dedup, dispatcher, clock, m, logger)
}

// ProvideStreamCollector creates the live ingest path.
func ProvideStreamCollector(
	stream domsvc.MarketStream,
	store domrepo.PriceStore,
	m domrepo.Metrics,
	cfg *config.Config,
) *usecase.StreamCollector {
	proc := usecase.NewSampleProcessor(store, m)
	pipe := mid.NewRealtimePipeline(proc, m,
		mid.WithMaxRPS(cfg.Ingest.StreamMaxRPS),
		mid.WithBufferSize(cfg.Ingest.StreamBufferSize),
		mid.WithClockSkew(cfg.Ingest.ClockSkew),
	)
	return usecase.NewStreamCollector(stream, proc, m, pipe)
}

// ProvideStatusHandler creates the HTTP status handler.
func ProvideStatusHandler(
	logger *applogger.Logger,
	scheduler *usecase.Scheduler,
	store domrepo.PriceStore,
	actions domrepo.ActionLog,
) *api.StatusHandler {
	return api.NewStatusHandler(logger, scheduler, store, actions)
}

// logPublisher adapts the Kafka producer to the log collector's
// Publisher interface.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	scheduler *usecase.Scheduler,
	chClient *pkgch.Client,
	collector *usecase.StreamCollector,
	exportQueue *queue.RedisQueue,
	handler *api.StatusHandler,
	producer *pkgkafka.Producer,
) *server.App {
	if cfg.Kafka.LogsTopic != "" {
		logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      logPublisher{p: producer},
		})
	}

	app := server.New(cfg, logger, scheduler, chClient)
	app.SetHTTPHandler(handler)
	if cfg.Ingest.Mode != "poll" {
		app.SetStreamCollector(collector)
	}
	app.SetExportQueue(exportQueue)
	return app
}
