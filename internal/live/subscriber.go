package live

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber escuta o canal Redis Pub/Sub e repassa cada mensagem
// para os clientes WebSocket conectados via Hub
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *Hub) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var m Message
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					log.Warn("live subscriber unmarshal failed", zap.Error(err))
					continue
				}
				hub.Broadcast(m)
			}
		}
	}()
}
