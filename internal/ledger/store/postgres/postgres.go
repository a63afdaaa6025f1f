package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
)

// Store implementa o contrato do ledger em Postgres
// Lock por usuário via SELECT ... FOR UPDATE na linha de users; as escritas do
// escopo entram todas na mesma transação (commit único ou nada)
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

var _ store.Store = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, u store.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, balance_cents, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Username, u.PasswordHash, string(u.Role), u.BalanceCents, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ledgererr.New(ledgererr.Conflict, "username already taken")
		}
		return ledgererr.Wrap(ledgererr.StoreUnavailable, "insert user", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (store.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, balance_cents, created_at
		FROM users WHERE id=$1`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (store.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, balance_cents, created_at
		FROM users WHERE username=$1`, username))
}

func (s *Store) GetTrade(ctx context.Context, id string) (store.Trade, error) {
	return scanTrade(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, stake_cents, prediction, status, created_at, settled_at
		FROM trades WHERE id=$1`, id))
}

func (s *Store) TradesByUser(ctx context.Context, userID string) ([]store.Trade, error) {
	return s.queryTrades(ctx, `
		SELECT id, user_id, event_id, stake_cents, prediction, status, created_at, settled_at
		FROM trades WHERE user_id=$1 ORDER BY created_at`, userID)
}

// PendingTradesByEvent é o filtro que torna o settlement idempotente:
// trades já resolvidas nunca voltam a ser selecionadas
func (s *Store) PendingTradesByEvent(ctx context.Context, eventID string) ([]store.Trade, error) {
	return s.queryTrades(ctx, `
		SELECT id, user_id, event_id, stake_cents, prediction, status, created_at, settled_at
		FROM trades WHERE event_id=$1 AND status='pending' ORDER BY created_at`, eventID)
}

// WithUserLock abre transação e trava a linha do usuário com FOR UPDATE
// Concorrência entre usuários distintos segue livre (lock é de linha, não de tabela)
func (s *Store) WithUserLock(ctx context.Context, userID string, fn func(tx store.UserTx) error) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledgererr.Wrap(ledgererr.StoreUnavailable, "begin tx", err)
	}
	defer dbtx.Rollback()

	u, err := scanUser(dbtx.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, balance_cents, created_at
		FROM users WHERE id=$1 FOR UPDATE`, userID))
	if err != nil {
		return err
	}

	utx := &userTx{ctx: ctx, tx: dbtx, user: u}
	if err := fn(utx); err != nil {
		return err // rollback via defer: nenhuma escrita parcial
	}

	if err := dbtx.Commit(); err != nil {
		return ledgererr.Wrap(ledgererr.StoreUnavailable, "commit", err)
	}
	return nil
}

type userTx struct {
	ctx  context.Context
	tx   *sql.Tx
	user store.User
}

func (t *userTx) User() store.User { return t.user }

func (t *userTx) Trade(id string) (store.Trade, error) {
	return scanTrade(t.tx.QueryRowContext(t.ctx, `
		SELECT id, user_id, event_id, stake_cents, prediction, status, created_at, settled_at
		FROM trades WHERE id=$1 FOR UPDATE`, id))
}

func (t *userTx) SaveUser(u store.User) error {
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE users SET balance_cents=$1 WHERE id=$2`, u.BalanceCents, u.ID)
	if err != nil {
		return ledgererr.Wrap(ledgererr.StoreUnavailable, "save user", err)
	}
	return nil
}

func (t *userTx) SaveTrade(tr store.Trade) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO trades (id, user_id, event_id, stake_cents, prediction, status, created_at, settled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, settled_at=EXCLUDED.settled_at`,
		tr.ID, tr.UserID, tr.EventID, tr.StakeCents, tr.Prediction, string(tr.Status), tr.CreatedAt, tr.SettledAt,
	)
	if err != nil {
		return ledgererr.Wrap(ledgererr.StoreUnavailable, "save trade", err)
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (store.User, error) {
	var u store.User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.BalanceCents, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return store.User{}, ledgererr.New(ledgererr.NotFound, "user not found")
	}
	if err != nil {
		return store.User{}, ledgererr.Wrap(ledgererr.StoreUnavailable, "scan user", err)
	}
	u.Role = store.Role(role)
	return u, nil
}

func scanTrade(row rowScanner) (store.Trade, error) {
	var t store.Trade
	var status string
	var settledAt sql.NullTime
	err := row.Scan(&t.ID, &t.UserID, &t.EventID, &t.StakeCents, &t.Prediction, &status, &t.CreatedAt, &settledAt)
	if err == sql.ErrNoRows {
		return store.Trade{}, ledgererr.New(ledgererr.NotFound, "trade not found")
	}
	if err != nil {
		return store.Trade{}, ledgererr.Wrap(ledgererr.StoreUnavailable, "scan trade", err)
	}
	t.Status = store.TradeStatus(status)
	if settledAt.Valid {
		ts := settledAt.Time
		t.SettledAt = &ts
	}
	return t, nil
}

func (s *Store) queryTrades(ctx context.Context, q string, arg string) ([]store.Trade, error) {
	rows, err := s.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.StoreUnavailable, "query trades", err)
	}
	defer rows.Close()

	var out []store.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, ledgererr.Wrap(ledgererr.StoreUnavailable, "iterate trades", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
