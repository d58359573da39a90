package di

import (
    "context"
    "fmt"
    "net"
    "strconv"
    "time"

    "YutaiScan/internal/domain/models"
    "YutaiScan/internal/domain/repository"
    domsvc "YutaiScan/internal/domain/service"
    "YutaiScan/internal/handler/api"
    mid "YutaiScan/internal/middleware"
    internalrepo "YutaiScan/internal/repository"
    "YutaiScan/internal/services/portfolio"
    "YutaiScan/internal/services/risk"
    "YutaiScan/internal/services/scan"
    "YutaiScan/internal/usecase"
    "YutaiScan/pkg/cache"
    pkgch "YutaiScan/pkg/clickhouse"
    "YutaiScan/pkg/config"
    xhttp "YutaiScan/pkg/http"
    pkgkafka "YutaiScan/pkg/kafka"
    applogger "YutaiScan/pkg/logger"
    "YutaiScan/pkg/metrics"
    "YutaiScan/pkg/server"

    kafkago "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and prepares the
// schema.
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

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS yutaiscan",
		`CREATE TABLE IF NOT EXISTS yutaiscan.price_bars (
            code String, date Date,
            open Float64, high Float64, low Float64, close Float64,
            volume Float64
        ) ENGINE=ReplacingMergeTree ORDER BY (code, date)`,
		`CREATE TABLE IF NOT EXISTS yutaiscan.instruments (
            code String, name String,
            rights_month UInt8, rights_date Date, benefit String,
            min_shares UInt32, updated_at DateTime
        ) ENGINE=ReplacingMergeTree(updated_at) ORDER BY code`,
		`CREATE TABLE IF NOT EXISTS yutaiscan.offset_statistics (
            code String, rights_month UInt8, offset_days UInt16,
            win_count UInt32, lose_count UInt32, total_count UInt32,
            win_rate Float64, avg_win_return Float64, avg_lose_return Float64,
            max_win_return Float64, max_lose_return Float64,
            expected_return Float64, score Float64, is_optimal UInt8,
            generated_at DateTime
        ) ENGINE=ReplacingMergeTree(generated_at) ORDER BY (code, rights_month, offset_days)`,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

// ProvideKafkaConsumer creates the bars-ingest consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePriceStore creates the price series repository, wrapped with a
// Redis-backed layered cache when enabled.
func ProvidePriceStore(chClient *pkgch.Client, cfg *config.Config) repository.PriceStore {
	store := internalrepo.NewCHPriceStore(chClient)

	if !cfg.Cache.Redis.Enabled {
		return store
	}

	host, port := splitHostPort(cfg.Cache.Redis.Addr, "localhost", 6379)
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		// Cache is an optimization; a missing Redis must not stop startup.
		return store
	}
	return internalrepo.NewCachedPriceStore(store, cache.NewLayeredCache(rc), cfg.Cache.PriceTTL)
}

func splitHostPort(addr, defHost string, defPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		if addr != "" {
			return addr, defPort
		}
		return defHost, defPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = defPort
	}
	return host, port
}

// ProvideInstrumentStore creates the instrument repository.
func ProvideInstrumentStore(chClient *pkgch.Client) repository.InstrumentStore {
	return internalrepo.NewCHInstrumentStore(chClient)
}

// ProvideResultStore creates the offset statistics repository.
func ProvideResultStore(chClient *pkgch.Client) repository.ResultStore {
	return internalrepo.NewCHResultStore(chClient)
}

// ProvideResultPublisher creates the Kafka result publisher.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.ResultTopic)
}

// ProvideScanner creates the offset scan engine from config.
func ProvideScanner(cfg *config.Config) domsvc.TimingScanner {
	return scan.NewEngine(scan.Config{
		MaxOffset:     cfg.Scan.MaxDaysBefore,
		MinTradeCount: cfg.Scan.MinTradeCount,
		Kenrlast:      cfg.Scan.Kenrlast,
	})
}

// ProvideRiskAnalyzer creates the risk analyzer.
func ProvideRiskAnalyzer(cfg *config.Config) domsvc.RiskAnalyzer {
	return risk.NewAnalyzer(risk.Config{PeriodsPerYear: cfg.Portfolio.PeriodsPerYear})
}

// ProvideAllocator creates the portfolio allocator.
func ProvideAllocator(cfg *config.Config) domsvc.PortfolioAllocator {
	return portfolio.NewAllocator(portfolio.Config{
		Correlation:  cfg.Portfolio.Correlation,
		RiskFreeRate: cfg.Portfolio.RiskFreeRate,
	})
}

// ProvideTimingAnalyzer creates the single-instrument use case.
func ProvideTimingAnalyzer(
	prices repository.PriceStore,
	instruments repository.InstrumentStore,
	results repository.ResultStore,
	scanner domsvc.TimingScanner,
	riskAnalyzer domsvc.RiskAnalyzer,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.TimingAnalyzer {
	return usecase.NewTimingAnalyzer(prices, instruments, results, scanner, riskAnalyzer, m, l, cfg.Scan.DataPeriodYears)
}

// ProvideBatchRunner creates the batch scan pool. Month 0 defers to each
// instrument's own rights month.
func ProvideBatchRunner(analyzer *usecase.TimingAnalyzer, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.BatchRunner {
	scan := func(ctx context.Context, inst models.Instrument) (*models.OptimalTimingResult, error) {
		return analyzer.Analyze(ctx, inst, 0)
	}
	return usecase.NewBatchRunner(scan, cfg.Batch.Workers, m, l)
}

// ProvideResultProcessor creates the backend-routing result sink.
func ProvideResultProcessor(
	pub repository.ResultPublisher,
	store repository.ResultStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.ResultProcessor {
	return usecase.NewResultProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideResultPipeline builds the buffered retry pipeline in front of the
// result sink.
func ProvideResultPipeline(proc *usecase.ResultProcessor, m repository.Metrics) *mid.ResultPipeline {
	return mid.NewResultPipeline(proc, m, mid.WithBufferSize(512))
}

// ProvideKafkaBarsHandler registers the bars-ingest topic handler.
func ProvideKafkaBarsHandler(prices repository.PriceStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.BarsTopic, prices, m)
}

// ProvideHandler assembles the HTTP route groups.
func ProvideHandler(
	l *applogger.Logger,
	analyzer *usecase.TimingAnalyzer,
	alloc domsvc.PortfolioAllocator,
	instruments repository.InstrumentStore,
	runner *usecase.BatchRunner,
	pipeline *mid.ResultPipeline,
) xhttp.Handler {
	return api.NewHandler(
		api.NewTimingEchoHandler(l, analyzer),
		api.NewPortfolioEchoHandler(l, analyzer, alloc),
		api.NewBatchEchoHandler(l, instruments, runner, pipeline),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	chClient *pkgch.Client,
	pipeline *mid.ResultPipeline,
	resultProc *usecase.ResultProcessor,
	m repository.Metrics,
	l *applogger.Logger,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.HookFuncs{
			Err: func(_ context.Context, topic string, _ kafkago.Message, _ []byte, err error) {
				m.RecordError("kafka_consume")
				l.Warn("kafka handle error",
					applogger.String("topic", topic),
					applogger.Error(err),
				)
			},
		})
	}
	return server.New(cfg, handler, consumer, kh, chClient, pipeline, resultProc)
}
