package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/opinion-trade-platform/internal/events/cache"
	"github.com/radieske/opinion-trade-platform/internal/events/repo"
)

// API expõe a leitura dos eventos esportivos correntes
// Cache Redis na frente do Postgres pra consulta individual
type API struct {
	ReadRepo *repo.PostgresRepo
	Cache    *cache.RedisCache
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/events", a.listEvents)    // Lista eventos conhecidos
	r.Get("/v1/events/{id}", a.getEvent) // Detalhe de um evento
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	ev, err := a.ReadRepo.ListCurrent(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (a *API) getEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if e, ok, _ := a.Cache.GetCurrent(r.Context(), id); ok {
		writeJSON(w, http.StatusOK, e)
		return
	}

	e, err := a.ReadRepo.GetCurrent(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, e)
}
