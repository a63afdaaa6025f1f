package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	ecache "github.com/radieske/opinion-trade-platform/internal/events/cache"
	"github.com/radieske/opinion-trade-platform/internal/events/feed"
	"github.com/radieske/opinion-trade-platform/internal/events/provider"
	erepo "github.com/radieske/opinion-trade-platform/internal/events/repo"
	"github.com/radieske/opinion-trade-platform/internal/shared/cache"
	"github.com/radieske/opinion-trade-platform/internal/shared/config"
	"github.com/radieske/opinion-trade-platform/internal/shared/db"
	"github.com/radieske/opinion-trade-platform/internal/shared/kafka"
	"github.com/radieske/opinion-trade-platform/internal/shared/logger"
	"github.com/radieske/opinion-trade-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("event-feed-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventUpdated)
	defer writer.Close()

	// Métricas Prometheus do ciclo de ingestão
	polled := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_events_polled_total", Help: "eventos recebidos do provedor"})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_events_persisted_total", Help: "eventos persistidos (upsert+history)"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "feed_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(polled, persisted, errorsBy)

	// Cache com TTL folgado em relação ao ciclo: um poll atrasado não
	// derruba a validação de existência do ledger
	ttl := cfg.FeedPollEvery * 5

	poller := &feed.Poller{
		Log:      log,
		Client:   provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, log),
		Repo:     erepo.NewPostgresRepo(pg),
		Cache:    ecache.NewRedisCache(rdb, ttl),
		Writer:   writer,
		Interval: cfg.FeedPollEvery,
		Source:   "event-feed-worker",

		OnPolled:  func(n int) { polled.Add(float64(n)) },
		OnPersist: func() { persisted.Inc() },
		OnError:   func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := rdb.Ping(hctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	defer metricsSrv.Shutdown(context.Background())
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	log.Info("event-feed-worker started",
		zap.String("provider", cfg.ProviderBaseURL),
		zap.Duration("interval", cfg.FeedPollEvery),
	)
	if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("poller stopped with error", zap.Error(err))
	}
	log.Info("event-feed-worker stopped")
}
