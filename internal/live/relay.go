package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Relay consome os tópicos Kafka do ledger/feed e republica no canal Redis
// Pub/Sub que alimenta o live-gateway. Fire-and-forget nas duas pontas:
// mensagem que falhar é descartada (clientes ressincronizam via REST)
type Relay struct {
	Log     *zap.Logger
	Rdb     *redis.Client
	Channel string
	Readers map[string]*kafkago.Reader // topic -> reader

	OnRelayed func(topic string) // métricas
	OnError   func(stage string) // métricas
}

// Run consome cada tópico numa goroutine própria e bloqueia até o ctx encerrar
func (r *Relay) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for topic, reader := range r.Readers {
		wg.Add(1)
		go func(topic string, reader *kafkago.Reader) {
			defer wg.Done()
			r.consume(ctx, topic, reader)
		}(topic, reader)
	}
	wg.Wait()
}

func (r *Relay) consume(ctx context.Context, topic string, reader *kafkago.Reader) {
	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.Log.Warn("kafka read failed", zap.String("topic", topic), zap.Error(err))
			if r.OnError != nil {
				r.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		env := Message{Topic: topic, Payload: json.RawMessage(m.Value)}
		b, _ := json.Marshal(env)

		pctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		err = r.Rdb.Publish(pctx, r.Channel, b).Err()
		cancel()
		if err != nil {
			r.Log.Warn("redis publish failed", zap.String("topic", topic), zap.Error(err))
			if r.OnError != nil {
				r.OnError("publish")
			}
			continue
		}
		if r.OnRelayed != nil {
			r.OnRelayed(topic)
		}
	}
}
