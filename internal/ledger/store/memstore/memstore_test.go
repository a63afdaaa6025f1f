package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
)

func seedUser(t *testing.T, s *Store, id string, balance int64) {
	t.Helper()
	err := s.CreateUser(context.Background(), store.User{
		ID:           id,
		Username:     "user-" + id,
		Role:         store.RoleUser,
		BalanceCents: balance,
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, store.User{ID: "u1", Username: "alice"}))
	err := s.CreateUser(ctx, store.User{ID: "u2", Username: "alice"})
	assert.True(t, ledgererr.IsKind(err, ledgererr.Conflict))
}

func TestGetUserNotFound(t *testing.T) {
	s := New()
	_, err := s.GetUser(context.Background(), "ghost")
	assert.True(t, ledgererr.IsKind(err, ledgererr.NotFound))
}

func TestWithUserLockCommitsStagedWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 1000)

	trade := store.Trade{ID: "t1", UserID: "u1", EventID: "e1", StakeCents: 200, Status: store.StatusPending}
	err := s.WithUserLock(ctx, "u1", func(tx store.UserTx) error {
		u := tx.User()
		u.BalanceCents -= 200
		require.NoError(t, tx.SaveTrade(trade))
		return tx.SaveUser(u)
	})
	require.NoError(t, err)

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(800), u.BalanceCents)

	got, err := s.GetTrade(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, got.Status)
}

func TestWithUserLockDiscardsOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 1000)

	boom := errors.New("boom")
	err := s.WithUserLock(ctx, "u1", func(tx store.UserTx) error {
		u := tx.User()
		u.BalanceCents = 0
		_ = tx.SaveUser(u)
		_ = tx.SaveTrade(store.Trade{ID: "t1", UserID: "u1"})
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// nada foi aplicado: nem débito, nem trade
	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), u.BalanceCents)

	_, err = s.GetTrade(ctx, "t1")
	assert.True(t, ledgererr.IsKind(err, ledgererr.NotFound))
}

func TestWithUserLockUnknownUser(t *testing.T) {
	s := New()
	err := s.WithUserLock(context.Background(), "ghost", func(tx store.UserTx) error {
		t.Fatal("fn não deveria rodar")
		return nil
	})
	assert.True(t, ledgererr.IsKind(err, ledgererr.NotFound))
}

func TestWithUserLockSerializesSameUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 0)

	// 50 incrementos concorrentes no mesmo usuário: sem lock haveria lost-update
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithUserLock(ctx, "u1", func(tx store.UserTx) error {
				u := tx.User()
				u.BalanceCents++
				return tx.SaveUser(u)
			})
		}()
	}
	wg.Wait()

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), u.BalanceCents)
}

func TestWithUserLockIndependentUsers(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 0)
	seedUser(t, s, "u2", 0)

	// u2 não pode esperar o lock de u1: segura u1 e opera u2 no meio
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = s.WithUserLock(ctx, "u1", func(tx store.UserTx) error {
			close(done)
			<-release
			return nil
		})
	}()
	<-done

	finished := make(chan struct{})
	go func() {
		_ = s.WithUserLock(ctx, "u2", func(tx store.UserTx) error {
			u := tx.User()
			u.BalanceCents = 7
			return tx.SaveUser(u)
		})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("operação em u2 bloqueou no lock de u1")
	}
	close(release)

	u2, err := s.GetUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u2.BalanceCents)
}

func TestPendingTradesByEventFiltersStatus(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 1000)

	save := func(tr store.Trade) {
		err := s.WithUserLock(ctx, "u1", func(tx store.UserTx) error { return tx.SaveTrade(tr) })
		require.NoError(t, err)
	}
	save(store.Trade{ID: "t1", UserID: "u1", EventID: "e1", Status: store.StatusPending, CreatedAt: time.Now()})
	save(store.Trade{ID: "t2", UserID: "u1", EventID: "e1", Status: store.StatusWon, CreatedAt: time.Now()})
	save(store.Trade{ID: "t3", UserID: "u1", EventID: "e2", Status: store.StatusPending, CreatedAt: time.Now()})

	pending, err := s.PendingTradesByEvent(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "t1", pending[0].ID)
}
