// Package sqlite is the modernc.org/sqlite ledger store. Timestamps are kept
// as unix nanoseconds so ordering is exact.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

var (
	selectUser = storage.SelectSQL(core.UserEntity) + " WHERE id = ?"
	insertUser = storage.InsertSQL(core.UserEntity, storage.QuestionMark)
	updateUser = storage.UpdateSQL(core.UserEntity, storage.QuestionMark)

	listTransactions  = storage.SelectSQL(core.TransactionEntity) + " WHERE user_id = ? ORDER BY date DESC, created_at DESC, id"
	selectTransaction = storage.SelectSQL(core.TransactionEntity) + " WHERE user_id = ? AND id = ?"
	insertTransaction = storage.InsertSQL(core.TransactionEntity, storage.QuestionMark)
	updateTransaction = storage.UpdateSQL(core.TransactionEntity, storage.QuestionMark)

	listGoals  = storage.SelectSQL(core.GoalEntity) + " WHERE user_id = ? ORDER BY created_at DESC, rowid DESC"
	selectGoal = storage.SelectSQL(core.GoalEntity) + " WHERE user_id = ? AND id = ?"
	insertGoal = storage.InsertSQL(core.GoalEntity, storage.QuestionMark)
	updateGoal = storage.UpdateSQL(core.GoalEntity, storage.QuestionMark)

	listMessages  = storage.SelectSQL(core.AiMessageEntity) + " WHERE user_id = ? ORDER BY created_at, rowid"
	insertMessage = storage.InsertSQL(core.AiMessageEntity, storage.QuestionMark)
)

// Open creates the database file if needed, runs migrations and returns the store.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Debug("SQLite store ready", "db_path", dbPath)
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) stamp() (time.Time, int64) {
	now := s.now().UTC()
	return now, now.UnixNano()
}

func scan(e core.Entity, row storage.Row) (storage.Record, time.Time, error) {
	var nanos int64
	rec, err := storage.ScanRecord(e, row, &nanos)
	if err != nil {
		return storage.Record{}, time.Time{}, err
	}
	return rec, time.Unix(0, nanos).UTC(), nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *Store) exec(ctx context.Context, what, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, core.ErrNotFound)
	}
	return nil
}

// Users

func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	rec, created, err := scan(core.UserEntity, s.db.QueryRowContext(ctx, selectUser, id))
	if err != nil {
		return core.User{}, notFound(err, "user", id)
	}
	u := core.UserFromFields(rec.Fields)
	u.ID, u.CreatedAt = rec.ID, created
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = storage.NewID()
	}
	var nanos int64
	u.CreatedAt, nanos = s.stamp()
	args := storage.InsertArgs(core.UserEntity, u.ID, "", u.Fields(), nanos)
	if _, err := s.db.ExecContext(ctx, insertUser, args...); err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("user %s: %w", u.ID, core.ErrConflict)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	args := storage.UpdateArgs(core.UserEntity, u.ID, "", u.Fields())
	if err := s.exec(ctx, "update user", u.ID, updateUser, args...); err != nil {
		return core.User{}, err
	}
	return s.GetUser(ctx, u.ID)
}

// Transactions

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, listTransactions, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row storage.Row) (core.Transaction, error) {
	rec, created, err := scan(core.TransactionEntity, row)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.TransactionFromFields(rec.Fields)
	t.ID, t.UserID, t.CreatedAt = rec.ID, rec.UserID, created
	return t, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, selectTransaction, userID, id))
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction", id)
	}
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = storage.NewID()
	}
	var nanos int64
	t.CreatedAt, nanos = s.stamp()
	args := storage.InsertArgs(core.TransactionEntity, t.ID, t.UserID, t.Fields(), nanos)
	if _, err := s.db.ExecContext(ctx, insertTransaction, args...); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	args := storage.UpdateArgs(core.TransactionEntity, t.ID, t.UserID, t.Fields())
	if err := s.exec(ctx, "update transaction", t.ID, updateTransaction, args...); err != nil {
		return core.Transaction{}, err
	}
	return s.GetTransaction(ctx, t.UserID, t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.exec(ctx, "delete transaction", id, "DELETE FROM transactions WHERE user_id = ? AND id = ?", userID, id)
}

// Goals

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx, listGoals, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGoal(row storage.Row) (core.Goal, error) {
	rec, created, err := scan(core.GoalEntity, row)
	if err != nil {
		return core.Goal{}, err
	}
	g := core.GoalFromFields(rec.Fields)
	g.ID, g.UserID, g.CreatedAt = rec.ID, rec.UserID, created
	return g, nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx, selectGoal, userID, id))
	if err != nil {
		return core.Goal{}, notFound(err, "goal", id)
	}
	return g, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.ID == "" {
		g.ID = storage.NewID()
	}
	var nanos int64
	g.CreatedAt, nanos = s.stamp()
	args := storage.InsertArgs(core.GoalEntity, g.ID, g.UserID, g.Fields(), nanos)
	if _, err := s.db.ExecContext(ctx, insertGoal, args...); err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	args := storage.UpdateArgs(core.GoalEntity, g.ID, g.UserID, g.Fields())
	if err := s.exec(ctx, "update goal", g.ID, updateGoal, args...); err != nil {
		return core.Goal{}, err
	}
	return s.GetGoal(ctx, g.UserID, g.ID)
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.exec(ctx, "delete goal", id, "DELETE FROM goals WHERE user_id = ? AND id = ?", userID, id)
}

// Messages

func (s *Store) ListMessages(ctx context.Context, userID string) ([]core.AiMessage, error) {
	rows, err := s.db.QueryContext(ctx, listMessages, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []core.AiMessage{}
	for rows.Next() {
		rec, created, err := scan(core.AiMessageEntity, rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m := core.AiMessageFromFields(rec.Fields)
		m.ID, m.UserID, m.CreatedAt = rec.ID, rec.UserID, created
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) CreateMessage(ctx context.Context, m core.AiMessage) (core.AiMessage, error) {
	if m.ID == "" {
		m.ID = storage.NewID()
	}
	var nanos int64
	m.CreatedAt, nanos = s.stamp()
	args := storage.InsertArgs(core.AiMessageEntity, m.ID, m.UserID, m.Fields(), nanos)
	if _, err := s.db.ExecContext(ctx, insertMessage, args...); err != nil {
		return core.AiMessage{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (s *Store) DeleteMessages(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM ai_messages WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}
