package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/opinion-trade-platform/internal/identity"
	"github.com/radieske/opinion-trade-platform/internal/ledger/dto"
	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	"github.com/radieske/opinion-trade-platform/internal/ledger/placement"
	"github.com/radieske/opinion-trade-platform/internal/ledger/settlement"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
)

// Server expõe a API HTTP do ledger: auth, trades, carteira e settlement
type Server struct {
	log     *zap.Logger
	ids     *identity.Service
	placer  *placement.Service
	settler *settlement.Service
	store   store.Store
}

func NewServer(log *zap.Logger, ids *identity.Service, placer *placement.Service, settler *settlement.Service, st store.Store) *Server {
	return &Server{log: log, ids: ids, placer: placer, settler: settler, store: st}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/auth/register", s.register)
	r.Post("/v1/auth/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/v1/trades", s.placeTrade)
		r.Get("/v1/trades", s.listTrades)
		r.Get("/v1/wallet", s.getWallet)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/v1/settlements", s.settle)
		})
	})

	return r
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ledgererr.New(ledgererr.InvalidInput, "bad json"))
		return
	}
	u, err := s.ids.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.RegisterResponse{
		UserID:       u.ID,
		Username:     u.Username,
		BalanceCents: u.BalanceCents,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ledgererr.New(ledgererr.InvalidInput, "bad json"))
		return
	}
	token, err := s.ids.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token})
}

func (s *Server) placeTrade(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req dto.PlaceTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ledgererr.New(ledgererr.InvalidInput, "bad json"))
		return
	}
	trade, err := s.placer.PlaceTrade(r.Context(), claims.UserID, req.EventID, req.StakeCents, req.Prediction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.TradeFromStore(trade))
}

func (s *Server) listTrades(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	trades, err := s.store.TradesByUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.TradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, dto.TradeFromStore(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	u, err := s.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WalletResponse{UserID: u.ID, BalanceCents: u.BalanceCents})
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ledgererr.New(ledgererr.InvalidInput, "bad json"))
		return
	}
	res, err := s.settler.SettleEvent(r.Context(), req.EventID, req.Outcome)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError responde com o envelope {"error": {kind, message}} e o status do Kind
func writeError(w http.ResponseWriter, err error) {
	kind := ledgererr.KindOf(err)
	msg := "internal error"
	var le *ledgererr.Error
	if errors.As(err, &le) {
		msg = le.Message
	}
	writeJSON(w, ledgererr.HTTPStatus(kind), dto.ErrorResponse{
		Error: dto.ErrorBody{Kind: string(kind), Message: msg},
	})
}
