package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	ev "github.com/radieske/opinion-trade-platform/pkg/contracts/events"
)

// RedisCache guarda o snapshot corrente de cada evento
// O feed-worker escreve a cada ciclo; o ledger lê pra validar existência na colocação
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func key(eventID string) string { return "event:current:" + eventID }

func (r *RedisCache) SetCurrent(ctx context.Context, e ev.EventUpdated) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(e.EventID), b, r.TTL).Err()
}

// GetCurrent retorna (evento, true) no hit; (zero, false) no miss
func (r *RedisCache) GetCurrent(ctx context.Context, eventID string) (ev.EventUpdated, bool, error) {
	b, err := r.Client.Get(ctx, key(eventID)).Bytes()
	if err == redis.Nil {
		return ev.EventUpdated{}, false, nil
	}
	if err != nil {
		return ev.EventUpdated{}, false, err
	}
	var e ev.EventUpdated
	if err := json.Unmarshal(b, &e); err != nil {
		return ev.EventUpdated{}, false, err
	}
	return e, true, nil
}
