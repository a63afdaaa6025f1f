package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store/memstore"
)

const testSecret = "test-secret"

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	return NewService(zap.NewNop(), st, testSecret, time.Hour, 100000), st
}

func TestRegisterCreatesUserWithStartingBalance(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, store.RoleUser, u.Role)
	assert.Equal(t, int64(100000), u.BalanceCents)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	stored, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "s3cret")
	assert.True(t, ledgererr.IsKind(err, ledgererr.InvalidInput))

	_, err = svc.Register(ctx, "alice", "ab")
	assert.True(t, ledgererr.IsKind(err, ledgererr.InvalidInput))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other")
	assert.True(t, ledgererr.IsKind(err, ledgererr.Conflict))
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "user", claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.True(t, ledgererr.IsKind(err, ledgererr.Unauthorized))

	_, err = svc.Login(ctx, "ghost", "s3cret")
	assert.True(t, ledgererr.IsKind(err, ledgererr.Unauthorized))
}

func TestParseTokenFailures(t *testing.T) {
	u := store.User{ID: "u1", Role: store.RoleAdmin}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateToken(u, "secret-a", time.Hour)
		require.NoError(t, err)
		_, err = ParseToken(token, "secret-b")
		assert.True(t, ledgererr.IsKind(err, ledgererr.Unauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateToken(u, testSecret, -time.Minute)
		require.NoError(t, err)
		_, err = ParseToken(token, testSecret)
		assert.True(t, ledgererr.IsKind(err, ledgererr.Unauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToken("not-a-token", testSecret)
		assert.True(t, ledgererr.IsKind(err, ledgererr.Unauthorized))
	})

	t.Run("role claim preserved", func(t *testing.T) {
		token, err := GenerateToken(u, testSecret, time.Hour)
		require.NoError(t, err)
		claims, err := ParseToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)
	})
}
