package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	DemoUserName  = "FinTrack User"
	DemoUserEmail = "user@fintrack.app"
)

// EventPublisher announces ledger changes. Implemented by *amqp.Client.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// LedgerService validates and persists users, transactions and goals, and
// publishes a ledger event after each committed write.
type LedgerService struct {
	store  storage.Store
	events EventPublisher
}

// NewLedgerService wires the service. events may be nil.
func NewLedgerService(store storage.Store, events EventPublisher) *LedgerService {
	return &LedgerService{store: store, events: events}
}

var fundAmount = core.Field{JSON: "amount", Label: "Amount", Kind: core.KindPositiveDecimal, Required: true, MaxLen: 32}

// EnsureDemoUser creates the single demo user and its welcome message when missing.
func (s *LedgerService) EnsureDemoUser(ctx context.Context, userID string) (core.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("load demo user: %w", err)
	}

	u, err = s.store.CreateUser(ctx, core.User{
		ID:       userID,
		Name:     DemoUserName,
		Email:    DemoUserEmail,
		Currency: core.DefaultCurrency,
		Language: core.DefaultLanguage,
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create demo user: %w", err)
	}
	if _, err := s.store.CreateMessage(ctx, core.AiMessage{UserID: userID, Role: core.RoleAssistant, Content: WelcomeMessage}); err != nil {
		return core.User{}, fmt.Errorf("create welcome message: %w", err)
	}

	slog.InfoContext(ctx, "Created demo user", "user_id", userID)
	return u, nil
}

func (s *LedgerService) GetUser(ctx context.Context, userID string) (core.User, error) {
	return s.store.GetUser(ctx, userID)
}

// UpdateUser applies currency and language changes. Other fields are ignored.
func (s *LedgerService) UpdateUser(ctx context.Context, userID string, patch map[string]string) (core.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	fields := core.UserEntity.Merge(u.Fields(), patch)
	if err := core.UserEntity.Validate(fields); err != nil {
		return core.User{}, err
	}
	next := core.UserFromFields(fields)
	next.ID = u.ID
	return s.store.UpdateUser(ctx, next)
}

// Transactions

func (s *LedgerService) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

func (s *LedgerService) CreateTransaction(ctx context.Context, userID string, values map[string]string) (core.Transaction, error) {
	fields := core.TransactionEntity.WithDefaults(values)
	if err := core.TransactionEntity.Validate(fields); err != nil {
		return core.Transaction{}, err
	}
	t := core.TransactionFromFields(fields)
	t.UserID = userID

	t, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.publish(ctx, amqp.TransactionCreated, t.ID, userID, t.Month())
	return t, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, userID, id string, patch map[string]string) (core.Transaction, error) {
	cur, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	fields := core.TransactionEntity.Merge(cur.Fields(), patch)
	if err := core.TransactionEntity.Validate(fields); err != nil {
		return core.Transaction{}, err
	}
	next := core.TransactionFromFields(fields)
	next.ID, next.UserID = cur.ID, cur.UserID

	updated, err := s.store.UpdateTransaction(ctx, next)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.TransactionUpdated, id, userID, updated.Month())
	if cur.Month() != updated.Month() {
		// The transaction left its old month; that month changed too.
		s.publish(ctx, amqp.TransactionUpdated, id, userID, cur.Month())
	}
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	cur, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.TransactionDeleted, id, userID, cur.Month())
	return nil
}

// Goals

func (s *LedgerService) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	return s.store.ListGoals(ctx, userID)
}

func (s *LedgerService) CreateGoal(ctx context.Context, userID string, values map[string]string) (core.Goal, error) {
	fields := core.GoalEntity.WithDefaults(values)
	if err := core.GoalEntity.Validate(fields); err != nil {
		return core.Goal{}, err
	}
	g := core.GoalFromFields(fields)
	g.UserID = userID

	g, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	s.publish(ctx, amqp.GoalCreated, g.ID, userID, "")
	return g, nil
}

func (s *LedgerService) UpdateGoal(ctx context.Context, userID, id string, patch map[string]string) (core.Goal, error) {
	cur, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}
	fields := core.GoalEntity.Merge(cur.Fields(), patch)
	if err := core.GoalEntity.Validate(fields); err != nil {
		return core.Goal{}, err
	}
	next := core.GoalFromFields(fields)
	next.ID, next.UserID = cur.ID, cur.UserID

	updated, err := s.store.UpdateGoal(ctx, next)
	if err != nil {
		return core.Goal{}, err
	}
	s.publish(ctx, amqp.GoalUpdated, id, userID, "")
	return updated, nil
}

func (s *LedgerService) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.GoalDeleted, id, userID, "")
	return nil
}

// FundGoal adds amount to the goal's current balance. The read-modify-write is
// not atomic; concurrent funding of the same goal can lose an update.
func (s *LedgerService) FundGoal(ctx context.Context, userID, id, amount string) (core.Goal, error) {
	if err := fundAmount.Validate(amount); err != nil {
		return core.Goal{}, err
	}
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}

	g.Current = core.AddAmounts(g.Current, amount)

	updated, err := s.store.UpdateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, err
	}
	s.publish(ctx, amqp.GoalFunded, id, userID, "")
	return updated, nil
}

func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish never fails the caller: the write is already committed.
func (s *LedgerService) publish(ctx context.Context, t amqp.EventType, entityID, userID, month string) {
	if s.events == nil {
		return
	}
	ev := amqp.NewLedgerEvent(t, entityID, userID, month)
	if err := s.events.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", t, "entity_id", entityID, "error", err)
	}
}
