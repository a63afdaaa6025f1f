package topics

const (
	// Eventos esportivos (saída do event-feed-worker)
	EventUpdated = "event_updated"

	// Trades (ciclo de vida no ledger)
	TradePlaced  = "trade_placed"
	TradeSettled = "trade_settled"
)
