// Package storagetest holds the behaviour every storage.Store must share.
// Each implementation runs Run from its own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Run exercises a fresh store returned by open.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"users", testUsers},
		{"transactions", testTransactions},
		{"goals", testGoals},
		{"messages", testMessages},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.fn(t, s)
		})
	}
}

func seedUser(t *testing.T, s storage.Store, id, email string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{
		ID: id, Name: "Test", Email: email, Currency: "USD", Language: "en",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	seedUser(t, s, "u1", "a@example.com")

	if _, err := s.CreateUser(ctx, core.User{ID: "u2", Name: "B", Email: "a@example.com", Currency: "USD", Language: "en"}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate email: expected ErrConflict, got %v", err)
	}
	if _, err := s.GetUser(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing user: expected ErrNotFound, got %v", err)
	}

	updated, err := s.UpdateUser(ctx, core.User{ID: "u1", Currency: "EUR", Language: "it"})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Currency != "EUR" || updated.Language != "it" || updated.Email != "a@example.com" {
		t.Fatalf("unexpected user after update: %+v", updated)
	}
	got, err := s.GetUser(ctx, "u1")
	if err != nil || got.Currency != "EUR" || got.Name != "Test" {
		t.Fatalf("get after update: %+v err=%v", got, err)
	}
}

func testTransactions(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seedUser(t, s, "u1", "a@example.com")

	in := []core.Transaction{
		{UserID: "u1", Amount: "12.50", Label: "Lunch", Category: "Food", Type: core.Expense, Date: "2024-03-05"},
		{UserID: "u1", Amount: "3000", Label: "Salary", Category: "Salary", Type: core.Income, Date: "2024-03-01"},
		{UserID: "u1", Amount: "40", Label: "Taxi", Category: "Transportation", Type: core.Expense, Date: "2024-03-20"},
	}
	var created []core.Transaction
	for _, tx := range in {
		c, err := s.CreateTransaction(ctx, tx)
		if err != nil {
			t.Fatalf("create transaction: %v", err)
		}
		if c.ID == "" || c.CreatedAt.IsZero() {
			t.Fatalf("store must assign id and createdAt: %+v", c)
		}
		created = append(created, c)
	}

	list, err := s.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Date != "2024-03-20" || list[2].Date != "2024-03-01" {
		t.Fatalf("expected date descending, got %+v", list)
	}
	if list[1].Amount != "12.50" {
		t.Fatalf("amount must round-trip verbatim, got %q", list[1].Amount)
	}
	if other, _ := s.ListTransactions(ctx, "someone-else"); len(other) != 0 {
		t.Fatalf("transactions leaked across users")
	}

	lunch := created[0]
	lunch.Amount = "15"
	lunch.Label = "Dinner"
	upd, err := s.UpdateTransaction(ctx, lunch)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Amount != "15" || !upd.CreatedAt.Equal(created[0].CreatedAt) {
		t.Fatalf("unexpected update result %+v", upd)
	}
	got, err := s.GetTransaction(ctx, "u1", lunch.ID)
	if err != nil || got.Label != "Dinner" {
		t.Fatalf("get after update: %+v err=%v", got, err)
	}

	missing := lunch
	missing.ID = "missing"
	if _, err := s.UpdateTransaction(ctx, missing); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update missing: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "u1", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete missing: expected ErrNotFound, got %v", err)
	}
	if list, _ := s.ListTransactions(ctx, "u1"); len(list) != 3 {
		t.Fatalf("failed delete must not change the list")
	}

	if err := s.DeleteTransaction(ctx, "u1", lunch.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "u1", lunch.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("deleted transaction still readable: %v", err)
	}
}

func testGoals(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seedUser(t, s, "u1", "a@example.com")

	first, err := s.CreateGoal(ctx, core.Goal{UserID: "u1", Name: "Car", Target: "10000", Current: "2500", Color: "#007aff"})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	second, err := s.CreateGoal(ctx, core.Goal{UserID: "u1", Name: "Trip", Target: "2000", Current: "0", Color: "#ff0000"})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	list, err := s.ListGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest goal first, got %+v", list)
	}

	first.Current = "3000"
	if _, err := s.UpdateGoal(ctx, first); err != nil {
		t.Fatalf("update goal: %v", err)
	}
	got, err := s.GetGoal(ctx, "u1", first.ID)
	if err != nil || got.Current != "3000" {
		t.Fatalf("get goal after update: %+v err=%v", got, err)
	}

	if err := s.DeleteGoal(ctx, "u1", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete missing goal: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteGoal(ctx, "u1", second.ID); err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	if list, _ := s.ListGoals(ctx, "u1"); len(list) != 1 {
		t.Fatalf("expected one goal after delete, got %d", len(list))
	}
}

func testMessages(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seedUser(t, s, "u1", "a@example.com")
	seedUser(t, s, "u2", "b@example.com")

	contents := []string{"one", "two", "three", "four"}
	for i, c := range contents {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		if _, err := s.CreateMessage(ctx, core.AiMessage{UserID: "u1", Role: role, Content: c}); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}
	if _, err := s.CreateMessage(ctx, core.AiMessage{UserID: "u2", Role: core.RoleUser, Content: "other"}); err != nil {
		t.Fatalf("create message: %v", err)
	}

	list, err := s.ListMessages(ctx, "u1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(list) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(list))
	}
	for i, c := range contents {
		if list[i].Content != c {
			t.Fatalf("position %d: got %q, want %q", i, list[i].Content, c)
		}
	}

	if err := s.DeleteMessages(ctx, "u1"); err != nil {
		t.Fatalf("delete messages: %v", err)
	}
	if list, _ := s.ListMessages(ctx, "u1"); len(list) != 0 {
		t.Fatalf("expected empty conversation, got %d", len(list))
	}
	if list, _ := s.ListMessages(ctx, "u2"); len(list) != 1 {
		t.Fatalf("other user's conversation must survive")
	}
}
