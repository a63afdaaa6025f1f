package events

type TradePlaced struct {
	TradeID    string `json:"trade_id"`
	UserID     string `json:"user_id"`
	EventID    string `json:"event_id"`
	StakeCents int64  `json:"stake_cents"`
	Prediction string `json:"prediction"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
