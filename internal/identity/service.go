package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
)

// Service cuida de registro e login de usuários
// Todo usuário novo nasce com o saldo inicial configurado e role "user";
// admins são promovidos direto no banco, fora da API
type Service struct {
	log                  *zap.Logger
	store                store.Store
	jwtSecret            string
	tokenTTL             time.Duration
	startingBalanceCents int64
}

func NewService(log *zap.Logger, s store.Store, jwtSecret string, tokenTTL time.Duration, startingBalanceCents int64) *Service {
	return &Service{
		log:                  log,
		store:                s,
		jwtSecret:            jwtSecret,
		tokenTTL:             tokenTTL,
		startingBalanceCents: startingBalanceCents,
	}
}

func (s *Service) Register(ctx context.Context, username, password string) (store.User, error) {
	if username == "" || len(password) < 4 {
		return store.User{}, ledgererr.New(ledgererr.InvalidInput, "username and password (min 4 chars) required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, err
	}

	u := store.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         store.RoleUser,
		BalanceCents: s.startingBalanceCents,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return store.User{}, err
	}

	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("username", username))
	return u, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		// não diferencia usuário inexistente de senha errada
		return "", ledgererr.New(ledgererr.Unauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ledgererr.New(ledgererr.Unauthorized, "invalid credentials")
	}
	return GenerateToken(u, s.jwtSecret, s.tokenTTL)
}

// Verify decodifica o token e devolve os claims; usado pelo middleware HTTP
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	return ParseToken(tokenStr, s.jwtSecret)
}
