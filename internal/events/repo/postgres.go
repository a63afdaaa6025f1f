package repo

import (
	"context"
	"database/sql"

	ev "github.com/radieske/opinion-trade-platform/pkg/contracts/events"
)

// PostgresRepo persiste o estado corrente e o histórico dos eventos esportivos
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// UpsertCurrent insere ou atualiza o evento na tabela events_current
// ON CONFLICT garante uma linha por event_id
func (r *PostgresRepo) UpsertCurrent(ctx context.Context, e ev.EventUpdated) error {
	const q = `
		INSERT INTO events_current
		  (event_id, name, category, status, home_odd, draw_odd, away_odd, start_time, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (event_id) DO UPDATE SET
		  name      = EXCLUDED.name,
		  category  = EXCLUDED.category,
		  status    = EXCLUDED.status,
		  home_odd  = EXCLUDED.home_odd,
		  draw_odd  = EXCLUDED.draw_odd,
		  away_odd  = EXCLUDED.away_odd,
		  start_time= EXCLUDED.start_time,
		  updated_at= EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.EventID, e.Name, e.Category, e.Status,
		e.Odds.Home, e.Odds.Draw, e.Odds.Away,
		e.StartTime, e.UpdatedAt,
	)
	return err
}

// InsertHistory acrescenta um snapshot de odds ao histórico (events_history)
func (r *PostgresRepo) InsertHistory(ctx context.Context, e ev.EventUpdated) error {
	const q = `
		INSERT INTO events_history
		  (event_id, status, home_odd, draw_odd, away_odd, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6)
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.EventID, e.Status, e.Odds.Home, e.Odds.Draw, e.Odds.Away, e.UpdatedAt,
	)
	return err
}

// GetCurrent busca um evento pelo id; sql.ErrNoRows se não existir
func (r *PostgresRepo) GetCurrent(ctx context.Context, eventID string) (ev.EventUpdated, error) {
	const q = `
		SELECT event_id, name, category, status, home_odd, draw_odd, away_odd, start_time, updated_at
		FROM events_current WHERE event_id=$1
	`
	var e ev.EventUpdated
	err := r.DB.QueryRowContext(ctx, q, eventID).Scan(
		&e.EventID, &e.Name, &e.Category, &e.Status,
		&e.Odds.Home, &e.Odds.Draw, &e.Odds.Away,
		&e.StartTime, &e.UpdatedAt,
	)
	return e, err
}

// ListCurrent devolve todos os eventos conhecidos, mais recentes primeiro
func (r *PostgresRepo) ListCurrent(ctx context.Context) ([]ev.EventUpdated, error) {
	const q = `
		SELECT event_id, name, category, status, home_odd, draw_odd, away_odd, start_time, updated_at
		FROM events_current ORDER BY updated_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ev.EventUpdated
	for rows.Next() {
		var e ev.EventUpdated
		if err := rows.Scan(
			&e.EventID, &e.Name, &e.Category, &e.Status,
			&e.Odds.Home, &e.Odds.Draw, &e.Odds.Away,
			&e.StartTime, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
