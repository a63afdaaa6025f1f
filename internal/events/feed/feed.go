package feed

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/opinion-trade-platform/internal/events/cache"
	"github.com/radieske/opinion-trade-platform/internal/events/provider"
	"github.com/radieske/opinion-trade-platform/internal/events/repo"
	"github.com/radieske/opinion-trade-platform/internal/shared/kafka"
	ev "github.com/radieske/opinion-trade-platform/pkg/contracts/events"
)

// Poller busca o feed externo em ciclos fixos, persiste e propaga cada evento
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Poller struct {
	Log      *zap.Logger
	Client   provider.ClientInterface
	Repo     *repo.PostgresRepo
	Cache    *cache.RedisCache
	Writer   *kafka.Writer
	Interval time.Duration
	Source   string // vai no campo "source" do evento publicado

	OnPolled  func(n int)  // métricas: eventos recebidos num ciclo
	OnPersist func()       // métricas: evento persistido
	OnError   func(string) // métricas por fase
}

// Run executa um ciclo imediato e depois segue no ticker até o ctx encerrar
func (p *Poller) Run(ctx context.Context) error {
	p.cycle(ctx)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	updates, err := p.Client.LiveFixtures(ctx)
	if err != nil {
		p.Log.Warn("provider fetch failed", zap.Error(err))
		if p.OnError != nil {
			p.OnError("fetch")
		}
		return
	}
	if p.OnPolled != nil {
		p.OnPolled(len(updates))
	}

	for _, u := range updates {
		u.Source = p.Source
		if err := p.process(ctx, u); err != nil {
			p.Log.Warn("event update failed", zap.String("event_id", u.EventID), zap.Error(err))
			continue
		}
	}
	p.Log.Info("events updated", zap.Int("count", len(updates)))
}

func (p *Poller) process(ctx context.Context, u ev.EventUpdated) error {
	// Persistência primeiro: só propaga estado durável
	if err := p.Repo.UpsertCurrent(ctx, u); err != nil {
		if p.OnError != nil {
			p.OnError("db_upsert")
		}
		return err
	}
	if err := p.Repo.InsertHistory(ctx, u); err != nil {
		if p.OnError != nil {
			p.OnError("db_history")
		}
		return err
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}

	// Cache e Kafka são best-effort: falha aqui não desfaz a persistência
	if err := p.Cache.SetCurrent(ctx, u); err != nil {
		p.Log.Warn("redis set failed", zap.Error(err))
		if p.OnError != nil {
			p.OnError("cache")
		}
	}

	b, _ := json.Marshal(u)
	if err := kafka.WriteJSON(ctx, p.Writer, u.EventID, b); err != nil {
		p.Log.Warn("kafka publish failed", zap.Error(err))
		if p.OnError != nil {
			p.OnError("publish")
		}
	}
	return nil
}
