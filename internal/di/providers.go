package di

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"VolSpike/internal/domain/repository"
	"VolSpike/internal/handler/api"
	internalrepo "VolSpike/internal/repository"
	"VolSpike/internal/service/quotemedia"
	"VolSpike/internal/service/ratelimit"
	"VolSpike/internal/usecase"
	pkgcache "VolSpike/pkg/cache"
	"VolSpike/pkg/config"
	xhttp "VolSpike/pkg/http"
	pkgkafka "VolSpike/pkg/kafka"
	applogger "VolSpike/pkg/logger"
	"VolSpike/pkg/metrics"
	"VolSpike/pkg/queue"
	"VolSpike/pkg/server"
)

// ProvideLogger creates the application logger. Development gets readable
// console output, everything else structured JSON. With Redis configured,
// repeated warnings and errors are aggregated and drained to a Redis queue
// instead of flooding the main stream.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level, format := "info", "json"
	if cfg.Environment == "development" {
		level, format = "debug", "console"
	}
	l, err := applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "volspike.logs",
			Publisher:      queue.NewRedisPublisher(l, client, queue.WithKeyPrefix("volspike")),
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHTTPClient creates the upstream HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.QuoteMedia.Timeout))
}

// ProvideSession creates the upstream session manager with the configured
// account.
func ProvideSession(cfg *config.Config, httpc *xhttp.Client, m repository.Metrics, l *applogger.Logger) *quotemedia.Session {
	return quotemedia.NewSession(httpc, cfg.QuoteMedia.BaseURL,
		quotemedia.Credentials{
			WmID:     cfg.QuoteMedia.WmID,
			Username: cfg.QuoteMedia.Username,
			Password: cfg.QuoteMedia.Password,
		},
		quotemedia.WithSessionTTL(cfg.QuoteMedia.SessionTTL),
		quotemedia.WithSessionMetrics(m),
		quotemedia.WithSessionLogger(l),
	)
}

// ProvideHistoryCache creates the shared cache for immutable EOD responses.
// Redis (fronted by memory) when configured, plain memory otherwise.
func ProvideHistoryCache(cfg *config.Config, l *applogger.Logger) (pkgcache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
		pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("history cache backed by redis", applogger.String("host", cfg.Cache.Redis.Host))
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideHistoryClient creates the EOD history fetcher.
func ProvideHistoryClient(
	cfg *config.Config,
	httpc *xhttp.Client,
	session *quotemedia.Session,
	histCache pkgcache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *quotemedia.HistoryClient {
	hc := quotemedia.NewHistoryClient(httpc, cfg.QuoteMedia.BaseURL, session,
		quotemedia.WithLimiter(ratelimit.New(), cfg.QuoteMedia.MaxRPS, cfg.QuoteMedia.BurstSize),
		quotemedia.WithMetrics(m),
		quotemedia.WithLogger(l),
	)
	hc.SetCache(histCache, cfg.Cache.HistoryTTL)
	return hc
}

// ProvideNethouseClient creates the broker participation fetcher.
func ProvideNethouseClient(
	cfg *config.Config,
	httpc *xhttp.Client,
	session *quotemedia.Session,
	m repository.Metrics,
	l *applogger.Logger,
) *quotemedia.NethouseClient {
	return quotemedia.NewNethouseClient(httpc, cfg.QuoteMedia.BaseURL, session,
		quotemedia.WithLimiter(ratelimit.New(), cfg.QuoteMedia.MaxRPS, cfg.QuoteMedia.BurstSize),
		quotemedia.WithMetrics(m),
		quotemedia.WithLogger(l),
	)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSpikePublisher creates the Kafka-backed spike publisher, or nil when
// no producer is configured.
func ProvideSpikePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SpikePublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSpikePublisher(producer, cfg.Kafka.Topic)
}

// ProvideAnalyzer creates the analysis orchestrator.
func ProvideAnalyzer(
	history *quotemedia.HistoryClient,
	reports *quotemedia.NethouseClient,
	publisher repository.SpikePublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Analyzer {
	opts := []usecase.AnalyzerOption{
		usecase.WithAnalyzerMetrics(m),
		usecase.WithAnalyzerLogger(l),
	}
	if publisher != nil {
		opts = append(opts, usecase.WithPublisher(publisher))
	}
	return usecase.NewAnalyzer(history, reports, opts...)
}

// ProvideProgressHub creates the websocket progress fan-out.
func ProvideProgressHub(l *applogger.Logger) *api.ProgressHub {
	return api.NewProgressHub(l)
}

// ProvideAnalysisHandler creates the HTTP handler.
func ProvideAnalysisHandler(
	cfg *config.Config,
	l *applogger.Logger,
	analyzer *usecase.Analyzer,
	session *quotemedia.Session,
	hub *api.ProgressHub,
) *api.AnalysisHandler {
	return api.NewAnalysisHandler(l, analyzer, session, hub,
		api.WithLookbackDefault(cfg.Analysis.LookbackDays))
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.AnalysisHandler,
	hub *api.ProgressHub,
	publisher repository.SpikePublisher,
	histCache pkgcache.Service,
) *server.App {
	return server.New(cfg, l, handler, hub, publisher, histCache)
}
