package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	ecache "github.com/radieske/opinion-trade-platform/internal/events/cache"
	"github.com/radieske/opinion-trade-platform/internal/events/httpapi"
	erepo "github.com/radieske/opinion-trade-platform/internal/events/repo"
	"github.com/radieske/opinion-trade-platform/internal/live"
	"github.com/radieske/opinion-trade-platform/internal/shared/cache"
	"github.com/radieske/opinion-trade-platform/internal/shared/config"
	"github.com/radieske/opinion-trade-platform/internal/shared/db"
	"github.com/radieske/opinion-trade-platform/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("live-gateway", cfg.Env)
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

	wsConns := prometheus.NewGauge(prometheus.GaugeOpts{Name: "gateway_ws_connections", Help: "conexões WebSocket ativas"})
	wsDelivered := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "gateway_ws_messages_total", Help: "mensagens entregues por tópico"}, []string{"topic"})
	prometheus.MustRegister(wsConns, wsDelivered)

	// Hub WebSocket alimentado pelo canal Redis Pub/Sub
	hub := live.NewHub(func(r *http.Request) bool { return true })
	hub.OnConnect = func(delta int) { wsConns.Add(float64(delta)) }
	hub.OnDeliver = func(topic string, n int) { wsDelivered.WithLabelValues(topic).Add(float64(n)) }
	live.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)

	api := &httpapi.API{
		ReadRepo: erepo.NewPostgresRepo(pg),
		Cache:    ecache.NewRedisCache(rdb, 30*time.Second),
	}

	router := chi.NewRouter()
	router.Mount("/", api.Router())
	router.Get("/ws", hub.HandleWS)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			hctx, hcancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer hcancel()
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
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health listening", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, mux)
	}()

	log.Info("live-gateway listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
