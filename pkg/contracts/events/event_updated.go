package events

import "time"

// Odds de um evento no mercado 1x2
type Odds struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// Evento publicado no tópico "event_updated" a cada ciclo do feed
type EventUpdated struct {
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`     // ex: "Flamengo vs Palmeiras"
	Category  string    `json:"category"` // liga/campeonato
	Status    string    `json:"status"`   // scheduled | live | finished
	Odds      Odds      `json:"odds"`
	StartTime time.Time `json:"start_time"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"` // "event-feed-worker" | "feed-simulator"
}
