package settlement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	"github.com/radieske/opinion-trade-platform/internal/ledger/placement"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
	ev "github.com/radieske/opinion-trade-platform/pkg/contracts/events"
	ctopics "github.com/radieske/opinion-trade-platform/pkg/contracts/topics"
)

// PayoutMultiplier é fixo: acerto paga 2x o stake, erro perde o stake
// (já debitado na colocação). Payout por odd exigiria congelar a odd no
// momento da colocação, o que não existe neste produto.
const PayoutMultiplier = 2

// Result resume um lote de settlement
type Result struct {
	Settled int `json:"settled"`
	Won     int `json:"won"`
	Lost    int `json:"lost"`
}

// Service resolve as trades pendentes de um evento contra o resultado reportado
type Service struct {
	log   *zap.Logger
	store store.Store
	publ  placement.Publisher

	OnSettled func(status string) // métricas
}

func NewService(log *zap.Logger, s store.Store, publ placement.Publisher) *Service {
	return &Service{log: log, store: s, publ: publ}
}

// SettleEvent resolve cada trade pendente do evento, uma a uma
//
// Idempotência vem do filtro de status: quem já saiu de pending nunca é
// revisitado. A atomicidade é por trade, não por lote: se o processo morrer
// na trade 5 de 10, as 5 primeiras ficam resolvidas e um retry pega só o resto.
// Cada iteração segura o lock de um único usuário (nunca dois ao mesmo tempo).
func (s *Service) SettleEvent(ctx context.Context, eventID, outcome string) (Result, error) {
	if eventID == "" {
		return Result{}, ledgererr.New(ledgererr.InvalidInput, "eventId required")
	}
	if outcome != "home" && outcome != "draw" && outcome != "away" {
		return Result{}, ledgererr.New(ledgererr.InvalidInput, "outcome must be home, draw or away")
	}

	pending, err := s.store.PendingTradesByEvent(ctx, eventID)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, t := range pending {
		settled, payout, err := s.settleOne(ctx, t, outcome)
		if err != nil {
			// trade fica pendente e entra no próximo retry
			s.log.Error("settle trade failed", zap.String("trade_id", t.ID), zap.Error(err))
			continue
		}
		if settled == "" {
			continue // já resolvida por outra invocação; não conta
		}

		res.Settled++
		if settled == store.StatusWon {
			res.Won++
		} else {
			res.Lost++
		}
		if s.OnSettled != nil {
			s.OnSettled(string(settled))
		}

		if s.publ != nil {
			msg := ev.TradeSettled{
				TradeID:     t.ID,
				UserID:      t.UserID,
				EventID:     t.EventID,
				Outcome:     outcome,
				Status:      string(settled),
				PayoutCents: payout,
				Ts:          time.Now().UTC(),
			}
			if err := s.publ.Publish(ctx, ctopics.TradeSettled, t.ID, msg); err != nil {
				s.log.Warn("trade_settled publish failed", zap.String("trade_id", t.ID), zap.Error(err))
			}
		}
	}

	s.log.Info("event settled",
		zap.String("event_id", eventID),
		zap.String("outcome", outcome),
		zap.Int("settled", res.Settled),
		zap.Int("won", res.Won),
		zap.Int("lost", res.Lost),
	)
	return res, nil
}

// settleOne transiciona uma trade dentro do lock do dono
// Retorna status vazio quando a trade já não estava pendente (no-op)
func (s *Service) settleOne(ctx context.Context, t store.Trade, outcome string) (store.TradeStatus, int64, error) {
	var status store.TradeStatus
	var payout int64

	err := s.store.WithUserLock(ctx, t.UserID, func(tx store.UserTx) error {
		// Relê dentro do lock: o snapshot do lote pode estar velho
		cur, err := tx.Trade(t.ID)
		if err != nil {
			return err
		}
		if cur.Status != store.StatusPending {
			return nil // nada staged, commit vazio
		}

		now := time.Now().UTC()
		cur.SettledAt = &now
		if cur.Prediction == outcome {
			cur.Status = store.StatusWon
			payout = cur.StakeCents * PayoutMultiplier

			u := tx.User()
			u.BalanceCents += payout
			if err := tx.SaveUser(u); err != nil {
				return err
			}
		} else {
			cur.Status = store.StatusLost
		}

		status = cur.Status
		return tx.SaveTrade(cur)
	})
	if err != nil {
		return "", 0, err
	}
	return status, payout, nil
}
