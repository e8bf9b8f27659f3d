// Package memory is the map-backed ledger store used by default and in tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[string]core.User
	txs      []core.Transaction
	goals    []core.Goal
	messages []core.AiMessage
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:   time.Now,
		users: make(map[string]core.User),
	}
}

// WithClock replaces the timestamp source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

// Users

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = storage.NewID()
	}
	if _, ok := s.users[u.ID]; ok {
		return core.User{}, fmt.Errorf("user %s: %w", u.ID, core.ErrConflict)
	}
	for _, other := range s.users {
		if other.Email == u.Email {
			return core.User{}, fmt.Errorf("email %s: %w", u.Email, core.ErrConflict)
		}
	}
	u.CreatedAt = s.stamp()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", u.ID, core.ErrNotFound)
	}
	cur.Currency = u.Currency
	cur.Language = u.Language
	s.users[u.ID] = cur
	return cur, nil
}

// Transactions

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	s.mu.Unlock()
	storage.SortTransactions(out)
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(userID, id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return s.txs[i], nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = storage.NewID()
	}
	t.CreatedAt = s.stamp()
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(t.UserID, t.ID)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, core.ErrNotFound)
	}
	t.CreatedAt = s.txs[i].CreatedAt
	s.txs[i] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(userID, id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	s.txs = slices.Delete(s.txs, i, i+1)
	return nil
}

func (s *Store) txIndex(userID, id string) int {
	return slices.IndexFunc(s.txs, func(t core.Transaction) bool {
		return t.ID == id && t.UserID == userID
	})
}

// Goals

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	out := make([]core.Goal, 0, len(s.goals))
	for i := len(s.goals) - 1; i >= 0; i-- {
		if s.goals[i].UserID == userID {
			out = append(out, s.goals[i])
		}
	}
	s.mu.Unlock()
	storage.SortGoals(out)
	return out, nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(userID, id)
	if i < 0 {
		return core.Goal{}, fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	return s.goals[i], nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = storage.NewID()
	}
	g.CreatedAt = s.stamp()
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(g.UserID, g.ID)
	if i < 0 {
		return core.Goal{}, fmt.Errorf("goal %s: %w", g.ID, core.ErrNotFound)
	}
	g.CreatedAt = s.goals[i].CreatedAt
	s.goals[i] = g
	return g, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(userID, id)
	if i < 0 {
		return fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	s.goals = slices.Delete(s.goals, i, i+1)
	return nil
}

func (s *Store) goalIndex(userID, id string) int {
	return slices.IndexFunc(s.goals, func(g core.Goal) bool {
		return g.ID == id && g.UserID == userID
	})
}

// Messages are kept in insertion order, which is also createdAt order.

func (s *Store) ListMessages(_ context.Context, userID string) ([]core.AiMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.AiMessage, 0, len(s.messages))
	for _, m := range s.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) CreateMessage(_ context.Context, m core.AiMessage) (core.AiMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = storage.NewID()
	}
	m.CreatedAt = s.stamp()
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *Store) DeleteMessages(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = slices.DeleteFunc(s.messages, func(m core.AiMessage) bool {
		return m.UserID == userID
	})
	return nil
}
