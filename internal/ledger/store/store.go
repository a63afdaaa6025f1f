package store

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type TradeStatus string

const (
	StatusPending TradeStatus = "pending"
	StatusWon     TradeStatus = "won"
	StatusLost    TradeStatus = "lost"
)

// User é o registro persistido de um usuário e seu saldo
// Saldo nunca fica negativo: todo read-modify-write acontece dentro de WithUserLock
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	BalanceCents int64
	CreatedAt    time.Time
}

// Trade é o registro persistido de uma trade
// Transiciona no máximo uma vez: pending -> won | lost; stake é imutável
type Trade struct {
	ID         string
	UserID     string
	EventID    string
	StakeCents int64
	Prediction string
	Status     TradeStatus
	CreatedAt  time.Time
	SettledAt  *time.Time
}

// UserTx é o escopo exclusivo sobre um usuário aberto por WithUserLock
// Escritas feitas aqui são aplicadas atomicamente quando o fn retorna nil;
// qualquer erro descarta tudo (nunca existe débito sem trade, nem o inverso)
type UserTx interface {
	// User retorna a linha do usuário carregada sob o lock
	User() User
	// Trade relê uma trade dentro do escopo (usado pelo settlement pra
	// revalidar o status pending antes de transicionar)
	Trade(id string) (Trade, error)
	SaveUser(u User) error
	SaveTrade(t Trade) error
}

// Store é o contrato de persistência do ledger
// Locks são por usuário: operações sobre usuários distintos não se bloqueiam
type Store interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)

	GetTrade(ctx context.Context, id string) (Trade, error)
	TradesByUser(ctx context.Context, userID string) ([]Trade, error)
	PendingTradesByEvent(ctx context.Context, eventID string) ([]Trade, error)

	WithUserLock(ctx context.Context, userID string, fn func(tx UserTx) error) error
}
