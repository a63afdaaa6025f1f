package events

import "time"

// Evento emitido pelo settlement após resolver uma trade pendente.
type TradeSettled struct {
	TradeID     string    `json:"trade_id"`
	UserID      string    `json:"user_id"`
	EventID     string    `json:"event_id"`
	Outcome     string    `json:"outcome"`
	Status      string    `json:"status"` // "won" | "lost"
	PayoutCents int64     `json:"payout_cents,omitempty"`
	Ts          time.Time `json:"ts"`
}
