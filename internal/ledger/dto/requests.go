package dto

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PlaceTradeRequest struct {
	EventID    string `json:"eventId"`
	StakeCents int64  `json:"stake_cents"`
	Prediction string `json:"prediction"` // "home" | "draw" | "away"
}

type SettleRequest struct {
	EventID string `json:"eventId"`
	Outcome string `json:"outcome"` // "home" | "draw" | "away"
}
