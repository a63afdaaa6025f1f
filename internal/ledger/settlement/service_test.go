package settlement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store/memstore"
	ctopics "github.com/radieske/opinion-trade-platform/pkg/contracts/topics"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func seed(t *testing.T, st *memstore.Store, userID string, balance int64, trades ...store.Trade) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, store.User{
		ID: userID, Username: "user-" + userID, BalanceCents: balance, CreatedAt: time.Now(),
	}))
	for _, tr := range trades {
		err := st.WithUserLock(ctx, userID, func(tx store.UserTx) error { return tx.SaveTrade(tr) })
		require.NoError(t, err)
	}
}

func TestSettleEventWinnerGetsDoubleStake(t *testing.T) {
	st := memstore.New()
	// saldo já debitado na colocação: 1000 - 200 = 800
	seed(t, st, "u1", 800, store.Trade{
		ID: "t1", UserID: "u1", EventID: "e1", StakeCents: 200,
		Prediction: "home", Status: store.StatusPending, CreatedAt: time.Now(),
	})

	publ := &recordingPublisher{}
	svc := NewService(zap.NewNop(), st, publ)

	res, err := svc.SettleEvent(context.Background(), "e1", "home")
	require.NoError(t, err)
	assert.Equal(t, Result{Settled: 1, Won: 1, Lost: 0}, res)

	u, err := st.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), u.BalanceCents)

	tr, err := st.GetTrade(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusWon, tr.Status)
	require.NotNil(t, tr.SettledAt)

	assert.Equal(t, []string{ctopics.TradeSettled}, publ.topics)
}

func TestSettleEventLoserForfeitsStake(t *testing.T) {
	st := memstore.New()
	seed(t, st, "u1", 800, store.Trade{
		ID: "t1", UserID: "u1", EventID: "e1", StakeCents: 200,
		Prediction: "away", Status: store.StatusPending, CreatedAt: time.Now(),
	})

	svc := NewService(zap.NewNop(), st, nil)

	res, err := svc.SettleEvent(context.Background(), "e1", "home")
	require.NoError(t, err)
	assert.Equal(t, Result{Settled: 1, Won: 0, Lost: 1}, res)

	// stake já tinha sido debitado; perder não mexe no saldo
	u, err := st.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(800), u.BalanceCents)

	tr, err := st.GetTrade(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusLost, tr.Status)
}

func TestSettleEventMixedBatch(t *testing.T) {
	st := memstore.New()
	seed(t, st, "u1", 0, store.Trade{
		ID: "t1", UserID: "u1", EventID: "e1", StakeCents: 100,
		Prediction: "home", Status: store.StatusPending, CreatedAt: time.Now(),
	})
	seed(t, st, "u2", 0, store.Trade{
		ID: "t2", UserID: "u2", EventID: "e1", StakeCents: 300,
		Prediction: "draw", Status: store.StatusPending, CreatedAt: time.Now(),
	})
	seed(t, st, "u3", 50, store.Trade{
		ID: "t3", UserID: "u3", EventID: "e2", StakeCents: 500,
		Prediction: "home", Status: store.StatusPending, CreatedAt: time.Now(),
	})

	svc := NewService(zap.NewNop(), st, nil)

	res, err := svc.SettleEvent(context.Background(), "e1", "home")
	require.NoError(t, err)
	assert.Equal(t, Result{Settled: 2, Won: 1, Lost: 1}, res)

	u1, _ := st.GetUser(context.Background(), "u1")
	assert.Equal(t, int64(200), u1.BalanceCents)
	u2, _ := st.GetUser(context.Background(), "u2")
	assert.Equal(t, int64(0), u2.BalanceCents)

	// evento diferente fica intocado
	t3, err := st.GetTrade(context.Background(), "t3")
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, t3.Status)
}

func TestSettleEventIdempotent(t *testing.T) {
	st := memstore.New()
	seed(t, st, "u1", 800, store.Trade{
		ID: "t1", UserID: "u1", EventID: "e1", StakeCents: 200,
		Prediction: "home", Status: store.StatusPending, CreatedAt: time.Now(),
	})

	svc := NewService(zap.NewNop(), st, nil)
	ctx := context.Background()

	first, err := svc.SettleEvent(ctx, "e1", "home")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Settled)

	// segunda invocação não encontra pendências e não paga de novo
	second, err := svc.SettleEvent(ctx, "e1", "home")
	require.NoError(t, err)
	assert.Equal(t, Result{}, second)

	u, err := st.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), u.BalanceCents)
}

func TestSettleEventSkipsTradeSettledMidBatch(t *testing.T) {
	// Trade sai de pending entre o snapshot do lote e o lock: vira no-op
	st := memstore.New()
	now := time.Now()
	seed(t, st, "u1", 0, store.Trade{
		ID: "t1", UserID: "u1", EventID: "e1", StakeCents: 100,
		Prediction: "home", Status: store.StatusPending, CreatedAt: now,
	})

	svc := NewService(zap.NewNop(), st, nil)
	ctx := context.Background()

	pending, err := st.PendingTradesByEvent(ctx, "e1")
	require.Len(t, pending, 1)
	require.NoError(t, err)

	// resolve por fora antes do settleOne rodar
	err = st.WithUserLock(ctx, "u1", func(tx store.UserTx) error {
		tr, err := tx.Trade("t1")
		require.NoError(t, err)
		tr.Status = store.StatusLost
		return tx.SaveTrade(tr)
	})
	require.NoError(t, err)

	status, payout, err := svc.settleOne(ctx, pending[0], "home")
	require.NoError(t, err)
	assert.Empty(t, status)
	assert.Zero(t, payout)

	// sem pagamento duplo
	u, err := st.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), u.BalanceCents)
}

func TestSettleEventValidation(t *testing.T) {
	svc := NewService(zap.NewNop(), memstore.New(), nil)
	ctx := context.Background()

	_, err := svc.SettleEvent(ctx, "", "home")
	assert.True(t, ledgererr.IsKind(err, ledgererr.InvalidInput))

	_, err = svc.SettleEvent(ctx, "e1", "banana")
	assert.True(t, ledgererr.IsKind(err, ledgererr.InvalidInput))
}
