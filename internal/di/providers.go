package di

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/repository"
	"StockPulse/internal/handler/api"
	internalrepo "StockPulse/internal/repository"
	icache "StockPulse/internal/service/cache"
	"StockPulse/internal/service/marketdata"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/services/features"
	"StockPulse/internal/services/partition"
	"StockPulse/internal/services/training"
	"StockPulse/internal/usecase"
	pkgcache "StockPulse/pkg/cache"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	pkgkafka "StockPulse/pkg/kafka"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer. It returns nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
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

// ProvideLogger creates the application logger. Error logs are folded and shipped to
// log.error_topic when both the topic and a producer exist.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.ErrorTopic != "" && producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 50,
			Topic:          cfg.Log.ErrorTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and applies the schema.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRedisCache creates the Redis client shared by the artifact store and the API cache.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

func ProvideBarStore(ch *pkgch.Client, l *logger.Logger) repository.BarStore {
	return internalrepo.NewCHBarStore(ch, l)
}

func ProvideForecastStore(ch *pkgch.Client, l *logger.Logger) repository.ForecastStore {
	return internalrepo.NewCHForecastStore(ch, l)
}

func ProvideArtifactStore(rc *pkgcache.RedisCache, l *logger.Logger) repository.ArtifactStore {
	return internalrepo.NewRedisArtifactStore(rc, l)
}

// ProvideHistoryPublisher returns nil when Kafka is not configured; ingest then only writes ClickHouse.
func ProvideHistoryPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.HistoryPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaHistoryPublisher(producer, cfg.Kafka.Topic)
}

func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideBarSource builds the configured market data provider. Missing credentials only fail ingest.
func ProvideBarSource(cfg *config.Config, limiter *ratelimit.Limiter, l *logger.Logger) (repository.BarSource, error) {
	if err := cfg.Market.Credentials(); err != nil {
		l.Warn("market data disabled", logger.String("provider", cfg.Market.Provider), logger.Error(err))
		return marketdata.Unavailable(cfg.Market.Provider, err), nil
	}
	return marketdata.New(cfg.Market, limiter)
}

func ProvideEngine(cfg *config.Config) (*features.Engine, error) {
	return features.NewEngine(features.Config{
		Windows:        cfg.Features.Windows,
		RSIPeriod:      cfg.Features.RSIPeriod,
		RSIMAPeriod:    cfg.Features.RSIMAPeriod,
		MomentumPeriod: cfg.Features.MomentumPeriod,
		ChannelPeriod:  cfg.Features.ChannelPeriod,
	})
}

// ProvidePolicy reserves the longest lookback on each side of the training segment.
func ProvidePolicy(cfg *config.Config) partition.Policy {
	longest := cfg.Features.ChannelPeriod
	for _, w := range cfg.Features.Windows {
		longest = max(longest, w)
	}
	return partition.Policy{
		MinTrainSize: cfg.Model.MinTrainSize,
		MinTestSize:  cfg.Model.MinTestSize,
		MinValSize:   cfg.Model.MinValSize,
		TestFraction: cfg.Model.TestFraction,
		ValFraction:  cfg.Model.ValFraction,
		MaxWindow:    longest,
	}
}

func ProvideTrainer(cfg *config.Config) *training.Trainer {
	return training.NewTrainer(training.Config{Alpha: cfg.Model.Alpha, MinRows: cfg.Model.MinRows})
}

func ProvideIngestUseCase(
	source repository.BarSource,
	store repository.BarStore,
	pub repository.HistoryPublisher,
	m repository.Metrics,
	l *logger.Logger,
	cfg *config.Config,
) *usecase.IngestUseCase {
	return usecase.NewIngestUseCase(source, store, pub, m, l, cfg.Pipeline.HistoryDays, cfg.Pipeline.MinHistoryBars)
}

func ProvideTrainUseCase(
	bars repository.BarStore,
	artifacts repository.ArtifactStore,
	forecasts repository.ForecastStore,
	engine *features.Engine,
	policy partition.Policy,
	trainer *training.Trainer,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.TrainUseCase {
	return usecase.NewTrainUseCase(bars, artifacts, forecasts, engine, policy, trainer, m, l)
}

func ProvidePredictUseCase(
	bars repository.BarStore,
	artifacts repository.ArtifactStore,
	forecasts repository.ForecastStore,
	engine *features.Engine,
	m repository.Metrics,
	l *logger.Logger,
	cfg *config.Config,
) *usecase.PredictUseCase {
	return usecase.NewPredictUseCase(bars, artifacts, forecasts, engine, m, l, cfg.Pipeline.EvalWindow, cfg.Pipeline.Horizon)
}

func ProvideEvaluateUseCase(bars repository.BarStore, forecasts repository.ForecastStore, m repository.Metrics, l *logger.Logger) *usecase.EvaluateUseCase {
	return usecase.NewEvaluateUseCase(bars, forecasts, m, l)
}

func ProvideBatchRunner(cfg *config.Config, m repository.Metrics, l *logger.Logger) *usecase.BatchRunner {
	return usecase.NewBatchRunner(cfg.Pipeline.Workers, m, l)
}

func ProvidePipeline(
	ingest *usecase.IngestUseCase,
	train *usecase.TrainUseCase,
	predict *usecase.PredictUseCase,
	evaluate *usecase.EvaluateUseCase,
	runner *usecase.BatchRunner,
) *usecase.Pipeline {
	return usecase.NewPipeline(ingest, train, predict, evaluate, runner)
}

func ProvideQueryUseCase(bars repository.BarStore, forecasts repository.ForecastStore, predict *usecase.PredictUseCase) *usecase.QueryUseCase {
	return usecase.NewQueryUseCase(bars, forecasts, predict)
}

// ProvideAPIHandler picks the Redis response cache when api.redis_cache is set, else an in-process one.
func ProvideAPIHandler(
	cfg *config.Config,
	l *logger.Logger,
	q *usecase.QueryUseCase,
	rc *pkgcache.RedisCache,
	limiter *ratelimit.Limiter,
) *api.ForecastsHandler {
	var c icache.BytesCache = icache.NewTTLCache()
	if cfg.API.RedisCache {
		c = icache.NewRedisBytes(rc)
	}
	return api.NewForecastsHandler(l, q, c, limiter, api.Options{
		CacheTTL:     cfg.API.CacheTTL,
		RateCapacity: cfg.API.RateCapacity,
		RatePerSec:   cfg.API.RatePerSec,
	})
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML. It returns nil when no brokers are configured.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerAutoOffsetReset(cfg.Kafka.Consumer.AutoOffsetReset),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceHook())
	return consumer, nil
}

// ProvideHistoryHandler handles the history topic.
func ProvideHistoryHandler(cfg *config.Config, store repository.BarStore, m repository.Metrics, l *logger.Logger) *usecase.KafkaHistoryHandler {
	return usecase.NewKafkaHistoryHandler(cfg.Kafka.Topic, store, m, l)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	pipeline *usecase.Pipeline,
	handler *api.ForecastsHandler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaHistoryHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	rc *pkgcache.RedisCache,
) *server.App {
	app := server.New(cfg, l, pipeline, handler)
	if consumer != nil {
		app.SetConsumer(consumer, kh)
	}
	if producer != nil {
		app.AddCloser("kafka producer", producer)
	}
	app.AddCloser("redis", rc)
	app.AddCloser("clickhouse", chClient)
	return app
}
