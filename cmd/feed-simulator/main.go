package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/opinion-trade-platform/internal/shared/config"
	"github.com/radieske/opinion-trade-platform/internal/shared/logger"
)

// Simula a API de futebol para desenvolvimento local: mesmo shape de
// GET /fixtures?live=all da api-football, com odds derivando a cada ciclo

type fixture struct {
	ID       int64
	HomeTeam string
	AwayTeam string
	League   string
	Status   string
}

// Catálogo fixo de partidas simuladas
var catalog = []fixture{
	{ID: 1001, HomeTeam: "Flamengo", AwayTeam: "Palmeiras", League: "Brasileirão Série A", Status: "1H"},
	{ID: 1002, HomeTeam: "Grêmio", AwayTeam: "Internacional", League: "Brasileirão Série A", Status: "2H"},
	{ID: 1003, HomeTeam: "Corinthians", AwayTeam: "Santos", League: "Brasileirão Série A", Status: "HT"},
	{ID: 1004, HomeTeam: "São Paulo", AwayTeam: "Vasco", League: "Copa do Brasil", Status: "1H"},
}

var (
	fixturesServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_fixtures_served_total",
		Help: "Respostas de /fixtures servidas",
	})
)

type oddsState struct {
	Home, Draw, Away float64
}

type simulator struct {
	log *zap.Logger

	mu   sync.RWMutex
	odds map[int64]oddsState
}

func newSimulator(log *zap.Logger) *simulator {
	s := &simulator{log: log, odds: make(map[int64]oddsState)}
	s.drift()
	return s
}

// drift regenera as odds de todas as partidas
func (s *simulator) drift() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range catalog {
		s.odds[f.ID] = oddsState{
			Home: rnd(1.40, 3.50),
			Draw: rnd(2.50, 4.50),
			Away: rnd(2.00, 5.00),
		}
	}
	s.log.Debug("odds drifted", zap.Int("fixtures", len(catalog)))
}

func (s *simulator) fixturesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type resp struct {
		Response []map[string]any `json:"response"`
	}
	out := resp{Response: make([]map[string]any, 0, len(catalog))}
	now := time.Now().UTC()
	for _, f := range catalog {
		o := s.odds[f.ID]
		out.Response = append(out.Response, map[string]any{
			"fixture": map[string]any{
				"id":     f.ID,
				"date":   now.Add(-30 * time.Minute),
				"status": map[string]any{"short": f.Status},
			},
			"league": map[string]any{"name": f.League},
			"teams": map[string]any{
				"home": map[string]any{"name": f.HomeTeam},
				"away": map[string]any{"name": f.AwayTeam},
			},
			"odds": map[string]any{"home": o.Home, "draw": o.Draw, "away": o.Away},
		})
	}

	fixturesServed.Inc()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// gera número aleatório entre min e max
func rnd(min, max float64) float64 {
	return (rand.Float64() * (max - min)) + min
}

func main() {
	cfg := config.Load()
	log, err := logger.New("feed-simulator", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(fixturesServed)

	sim := newSimulator(log)

	// Deriva as odds a cada 3 segundos, como um feed ao vivo
	go func() {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			sim.drift()
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/fixtures", sim.fixturesHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := ":" + cfg.HTTPPort
	log.Info("feed-simulator listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Fatal("simulator failed", zap.Error(err))
	}
}
