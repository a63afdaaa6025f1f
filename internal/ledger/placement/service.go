package placement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
	ev "github.com/radieske/opinion-trade-platform/pkg/contracts/events"
	ctopics "github.com/radieske/opinion-trade-platform/pkg/contracts/topics"
)

// EventSource valida a existência de um evento (colaborador Event Feed, só leitura)
type EventSource interface {
	Get(ctx context.Context, eventID string) (ev.EventUpdated, error)
}

// Publisher propaga o fato consumado; entrega é best-effort (at-most-once)
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// Predições aceitas no mercado 1x2; o settlement usa o mesmo vocabulário
var validPredictions = map[string]struct{}{
	"home": {},
	"draw": {},
	"away": {},
}

// Service registra novas trades debitando o saldo do usuário
type Service struct {
	log    *zap.Logger
	store  store.Store
	events EventSource
	publ   Publisher

	OnPlaced func() // métricas
}

func NewService(log *zap.Logger, s store.Store, events EventSource, publ Publisher) *Service {
	return &Service{log: log, store: s, events: events, publ: publ}
}

// PlaceTrade valida, debita e persiste a trade como uma unidade atômica
//
// Toda a sequência carrega-usuário -> checa-saldo -> debita -> grava acontece
// dentro do lock do usuário: checar saldo fora do lock e salvar depois seria
// uma corrida de lost-update (N colocações simultâneas poderiam estourar o saldo)
func (s *Service) PlaceTrade(ctx context.Context, userID, eventID string, stakeCents int64, prediction string) (store.Trade, error) {
	// Validações antes de qualquer mutação
	if stakeCents <= 0 {
		return store.Trade{}, ledgererr.New(ledgererr.InvalidInput, "stake must be positive")
	}
	if _, ok := validPredictions[prediction]; !ok {
		return store.Trade{}, ledgererr.New(ledgererr.InvalidInput, "prediction must be home, draw or away")
	}
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return store.Trade{}, err
	}

	trade := store.Trade{
		ID:         uuid.NewString(),
		UserID:     userID,
		EventID:    eventID,
		StakeCents: stakeCents,
		Prediction: prediction,
		Status:     store.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	err := s.store.WithUserLock(ctx, userID, func(tx store.UserTx) error {
		u := tx.User()
		if u.BalanceCents < stakeCents {
			return ledgererr.New(ledgererr.InsufficientBalance, "balance too low for stake")
		}

		u.BalanceCents -= stakeCents
		if err := tx.SaveTrade(trade); err != nil {
			return err
		}
		return tx.SaveUser(u)
	})
	if err != nil {
		return store.Trade{}, err
	}

	if s.OnPlaced != nil {
		s.OnPlaced()
	}

	// Notificação só depois do commit; falha aqui não desfaz a trade
	if s.publ != nil {
		msg := ev.TradePlaced{
			TradeID:    trade.ID,
			UserID:     trade.UserID,
			EventID:    trade.EventID,
			StakeCents: trade.StakeCents,
			Prediction: trade.Prediction,
			TsUnixMs:   time.Now().UnixMilli(),
		}
		if err := s.publ.Publish(ctx, ctopics.TradePlaced, trade.ID, msg); err != nil {
			s.log.Warn("trade_placed publish failed", zap.String("trade_id", trade.ID), zap.Error(err))
		}
	}

	return trade, nil
}
