package dto

import (
	"time"

	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
)

type RegisterResponse struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	BalanceCents int64  `json:"balance_cents"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type TradeResponse struct {
	TradeID    string     `json:"tradeId"`
	EventID    string     `json:"eventId"`
	StakeCents int64      `json:"stake_cents"`
	Prediction string     `json:"prediction"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	SettledAt  *time.Time `json:"settled_at,omitempty"`
}

func TradeFromStore(t store.Trade) TradeResponse {
	return TradeResponse{
		TradeID:    t.ID,
		EventID:    t.EventID,
		StakeCents: t.StakeCents,
		Prediction: t.Prediction,
		Status:     string(t.Status),
		CreatedAt:  t.CreatedAt,
		SettledAt:  t.SettledAt,
	}
}

type WalletResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}

// ErrorBody é o objeto de erro estruturado de toda resposta de falha
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
