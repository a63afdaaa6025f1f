package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/opinion-trade-platform/internal/shared/config"
	"github.com/radieske/opinion-trade-platform/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New("api-gateway", cfg.Env)
	defer log.Sync()

	// targets
	ledgerURL := os.Getenv("LEDGER_URL")
	if ledgerURL == "" {
		ledgerURL = "http://localhost:8084"
	}
	liveURL := os.Getenv("LIVE_URL")
	if liveURL == "" {
		liveURL = "http://localhost:8085"
	}
	ledger := rp(ledgerURL)
	livegw := rp(liveURL)

	mux := http.NewServeMux()

	// ledger (ex.: /api/ledger/v1/trades -> ledger-service)
	mux.Handle("/api/ledger/", http.StripPrefix("/api/ledger", ledger))

	// live (ex.: /api/live/v1/events -> live-gateway; /api/live/ws idem)
	mux.Handle("/api/live/", http.StripPrefix("/api/live", livegw))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
