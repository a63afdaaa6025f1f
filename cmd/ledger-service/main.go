package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	ecache "github.com/radieske/opinion-trade-platform/internal/events/cache"
	"github.com/radieske/opinion-trade-platform/internal/events/lookup"
	erepo "github.com/radieske/opinion-trade-platform/internal/events/repo"
	"github.com/radieske/opinion-trade-platform/internal/identity"
	lhttp "github.com/radieske/opinion-trade-platform/internal/ledger/http"
	"github.com/radieske/opinion-trade-platform/internal/ledger/placement"
	"github.com/radieske/opinion-trade-platform/internal/ledger/settlement"
	lpostgres "github.com/radieske/opinion-trade-platform/internal/ledger/store/postgres"
	"github.com/radieske/opinion-trade-platform/internal/live"
	"github.com/radieske/opinion-trade-platform/internal/shared/cache"
	"github.com/radieske/opinion-trade-platform/internal/shared/config"
	"github.com/radieske/opinion-trade-platform/internal/shared/db"
	"github.com/radieske/opinion-trade-platform/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("ledger-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "ledger-service"), zap.String("env", cfg.Env))

	ctx := context.Background()

	// Postgres: usuários, trades e leitura de eventos
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: cache de eventos pra validação de existência na colocação
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka: tópicos de ciclo de vida das trades
	publ := live.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TopicTradePlaced, cfg.TopicTradeSettled)
	defer publ.Close()

	// Métricas de domínio
	placed := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_trades_placed_total", Help: "trades colocadas"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_trades_settled_total", Help: "trades resolvidas por status"}, []string{"status"})
	prometheus.MustRegister(placed, settled)

	// deps
	st := lpostgres.New(pg)
	events := lookup.New(ecache.NewRedisCache(rdb, 5*time.Minute), erepo.NewPostgresRepo(pg))
	ids := identity.NewService(log, st, cfg.JWTSecret, cfg.TokenTTL, cfg.StartingBalanceCents)

	placer := placement.NewService(log, st, events, publ)
	placer.OnPlaced = func() { placed.Inc() }

	settler := settlement.NewService(log, st, publ)
	settler.OnSettled = func(status string) { settled.WithLabelValues(status).Inc() }

	// HTTP público
	api := lhttp.NewServer(log, ids, placer, settler, st)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		hctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.PingContext(hctx); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(hctx).Err(); err != nil {
			http.Error(w, "redis", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health listening", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	log.Info("ledger-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
