package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/radieske/opinion-trade-platform/internal/shared/kafka"
)

// KafkaPublisher publica mensagens de domínio nos tópicos do ledger
// Um writer por tópico; Publish falha se o tópico não foi declarado na criação
type KafkaPublisher struct {
	writers map[string]*kafka.Writer
}

func NewKafkaPublisher(brokers string, topics ...string) *KafkaPublisher {
	w := make(map[string]*kafka.Writer, len(topics))
	for _, t := range topics {
		w[t] = kafka.NewWriter(brokers, t)
	}
	return &KafkaPublisher{writers: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	w, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("publish: unknown topic %q", topic)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, w, key, b)
}

func (p *KafkaPublisher) Close() {
	for _, w := range p.writers {
		_ = w.Close()
	}
}
