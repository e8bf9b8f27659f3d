// Package storage defines the ledger store capabilities. Implementations live
// in the memory, sqlite and postgres subpackages and are selected at startup
// by the backend factory.
package storage

import (
	"context"
	"slices"
	"strings"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

type (
	UserStore interface {
		GetUser(ctx context.Context, id string) (core.User, error)
		// CreateUser returns core.ErrConflict when the id or email is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
	}

	TransactionStore interface {
		// ListTransactions returns the user's transactions, date descending.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	GoalStore interface {
		// ListGoals returns the user's goals, newest first.
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	MessageStore interface {
		// ListMessages returns the conversation oldest first.
		ListMessages(ctx context.Context, userID string) ([]core.AiMessage, error)
		CreateMessage(ctx context.Context, m core.AiMessage) (core.AiMessage, error)
		DeleteMessages(ctx context.Context, userID string) error
	}

	// Store is the full ledger capability set handed to services.
	Store interface {
		UserStore
		TransactionStore
		GoalStore
		MessageStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// SortTransactions orders by date descending, then createdAt descending, then id.
func SortTransactions(txs []core.Transaction) {
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		if c := strings.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// SortGoals orders newest first.
func SortGoals(goals []core.Goal) {
	slices.SortStableFunc(goals, func(a, b core.Goal) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
