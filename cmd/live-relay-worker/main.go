package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/opinion-trade-platform/internal/live"
	"github.com/radieske/opinion-trade-platform/internal/shared/cache"
	"github.com/radieske/opinion-trade-platform/internal/shared/config"
	"github.com/radieske/opinion-trade-platform/internal/shared/kafka"
	"github.com/radieske/opinion-trade-platform/internal/shared/logger"
	"github.com/radieske/opinion-trade-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("live-relay-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Um reader por tópico, todos no mesmo consumer group
	readers := map[string]*kafkago.Reader{
		cfg.TopicEventUpdated: kafka.NewReader(cfg.KafkaBrokers, cfg.TopicEventUpdated, "live-relay"),
		cfg.TopicTradePlaced:  kafka.NewReader(cfg.KafkaBrokers, cfg.TopicTradePlaced, "live-relay"),
		cfg.TopicTradeSettled: kafka.NewReader(cfg.KafkaBrokers, cfg.TopicTradeSettled, "live-relay"),
	}
	defer func() {
		for _, r := range readers {
			_ = r.Close()
		}
	}()

	relayed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "relay_messages_total", Help: "mensagens repassadas por tópico"}, []string{"topic"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "relay_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(relayed, errorsBy)

	relay := &live.Relay{
		Log:     log,
		Rdb:     rdb,
		Channel: cfg.RedisPubSubChannel,
		Readers: readers,

		OnRelayed: func(topic string) { relayed.WithLabelValues(topic).Inc() },
		OnError:   func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		return rdb.Ping(hctx).Err()
	})
	defer metricsSrv.Shutdown(context.Background())
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	log.Info("live-relay-worker started", zap.String("channel", cfg.RedisPubSubChannel))
	relay.Run(ctx)
	log.Info("live-relay-worker stopped")
}
