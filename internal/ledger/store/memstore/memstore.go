package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
)

// Store guarda usuários e trades em memória
// Usado nos testes e em modo local sem Postgres; mesmo contrato do store durável
//
// O lock é por usuário (mapa locks): operações sobre usuários distintos rodam em
// paralelo; mu protege apenas o acesso aos mapas e é segurado por instantes
type Store struct {
	mu     sync.Mutex
	users  map[string]store.User
	trades map[string]store.Trade
	locks  map[string]*sync.Mutex
}

func New() *Store {
	return &Store{
		users:  make(map[string]store.User),
		trades: make(map[string]store.Trade),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *Store) CreateUser(_ context.Context, u store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return ledgererr.New(ledgererr.Conflict, "username already taken")
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, ledgererr.New(ledgererr.NotFound, "user not found")
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return store.User{}, ledgererr.New(ledgererr.NotFound, "user not found")
}

func (s *Store) GetTrade(_ context.Context, id string) (store.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[id]
	if !ok {
		return store.Trade{}, ledgererr.New(ledgererr.NotFound, "trade not found")
	}
	return t, nil
}

func (s *Store) TradesByUser(_ context.Context, userID string) ([]store.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Trade
	for _, t := range s.trades {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) PendingTradesByEvent(_ context.Context, eventID string) ([]store.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Trade
	for _, t := range s.trades {
		if t.EventID == eventID && t.Status == store.StatusPending {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// WithUserLock segura o mutex do usuário durante todo o read-modify-write
// Escritas ficam staged no userTx e só entram nos mapas se fn retornar nil
func (s *Store) WithUserLock(_ context.Context, userID string, fn func(tx store.UserTx) error) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	u, ok := s.users[userID]
	s.mu.Unlock()
	if !ok {
		return ledgererr.New(ledgererr.NotFound, "user not found")
	}

	tx := &userTx{s: s, user: u}
	if err := fn(tx); err != nil {
		return err // nada staged é aplicado
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.savedUser != nil {
		s.users[userID] = *tx.savedUser
	}
	for _, t := range tx.savedTrades {
		s.trades[t.ID] = t
	}
	return nil
}

type userTx struct {
	s           *Store
	user        store.User
	savedUser   *store.User
	savedTrades []store.Trade
}

func (tx *userTx) User() store.User { return tx.user }

func (tx *userTx) Trade(id string) (store.Trade, error) {
	return tx.s.GetTrade(context.Background(), id)
}

func (tx *userTx) SaveUser(u store.User) error {
	tx.savedUser = &u
	return nil
}

func (tx *userTx) SaveTrade(t store.Trade) error {
	tx.savedTrades = append(tx.savedTrades, t)
	return nil
}
