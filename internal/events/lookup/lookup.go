package lookup

import (
	"context"
	"database/sql"
	"errors"

	"github.com/radieske/opinion-trade-platform/internal/events/cache"
	"github.com/radieske/opinion-trade-platform/internal/events/repo"
	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	ev "github.com/radieske/opinion-trade-platform/pkg/contracts/events"
)

// Lookup resolve um evento por id: cache Redis primeiro, Postgres como fallback
// É o colaborador "Event Feed" do ponto de vista do ledger, só leitura
type Lookup struct {
	Cache *cache.RedisCache
	Repo  *repo.PostgresRepo
}

func New(c *cache.RedisCache, r *repo.PostgresRepo) *Lookup {
	return &Lookup{Cache: c, Repo: r}
}

func (l *Lookup) Get(ctx context.Context, eventID string) (ev.EventUpdated, error) {
	if l.Cache != nil {
		if e, ok, err := l.Cache.GetCurrent(ctx, eventID); err == nil && ok {
			return e, nil
		}
		// falha de cache não impede o fallback
	}

	e, err := l.Repo.GetCurrent(ctx, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return ev.EventUpdated{}, ledgererr.New(ledgererr.NotFound, "event not found")
	}
	if err != nil {
		return ev.EventUpdated{}, ledgererr.Wrap(ledgererr.StoreUnavailable, "event lookup", err)
	}
	return e, nil
}
