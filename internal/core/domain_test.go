package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	good := map[string]string{
		"amount":   "12.50",
		"label":    "Lunch",
		"category": "Food",
		"type":     "expense",
		"date":     "2024-03-05",
	}
	if err := TransactionEntity.Validate(good); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		field string
		value string
	}{
		{"amount", ""},
		{"amount", "0"},
		{"amount", "-3"},
		{"amount", "twelve"},
		{"amount", "1e5"},
		{"amount", "1e999999999"},
		{"amount", "1.005e-3"},
		{"amount", "12.505"},
		{"amount", " .5"},
		{"label", ""},
		{"category", "Pets"},
		{"type", "transfer"},
		{"date", "2024-13-01"},
		{"date", "05/03/2024"},
	}
	for _, tc := range cases {
		bad := TransactionEntity.Merge(good, map[string]string{tc.field: tc.value})
		err := TransactionEntity.Validate(bad)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s=%q: expected validation error, got %v", tc.field, tc.value, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("%s=%q: error on field %q", tc.field, tc.value, verr.Field)
		}
	}
}

func TestMoneyFieldMessages(t *testing.T) {
	amount := TransactionEntity.Fields[0]
	current := GoalEntity.Fields[2]

	tests := []struct {
		name  string
		field Field
		value string
		want  string
	}{
		{"exponent", amount, "1e999999999", "Amount must be a decimal number with at most 2 decimal places"},
		{"negative amount", amount, "-5", "Amount must be greater than zero"},
		{"negative current", current, "-1.50", "Current amount cannot be negative"},
		{"zero amount", amount, "0.00", "Amount must be greater than zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate(tt.value)
			if err == nil || err.Error() != tt.want {
				t.Fatalf("Validate(%q) = %v, want %q", tt.value, err, tt.want)
			}
		})
	}

	for _, ok := range []string{"0", "12", "12.5", "12.50", "1000000.00"} {
		if err := current.Validate(ok); err != nil {
			t.Fatalf("Validate(%q): %v", ok, err)
		}
	}
}

func TestGoalDefaults(t *testing.T) {
	f := GoalEntity.WithDefaults(map[string]string{"name": " Car ", "target": "10000", "userId": "x"})
	if f["current"] != "0" || f["color"] != DefaultGoalColor {
		t.Fatalf("defaults not applied: %v", f)
	}
	if f["name"] != "Car" {
		t.Fatalf("expected trimmed name, got %q", f["name"])
	}
	if _, ok := f["userId"]; ok {
		t.Fatalf("unknown field leaked into field map")
	}
	if err := GoalEntity.Validate(f); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	f["current"] = "-1"
	if err := GoalEntity.Validate(f); err == nil {
		t.Fatalf("expected error for negative current")
	}
}

func TestUserMergeOnlyPreferences(t *testing.T) {
	u := User{Name: "FinTrack User", Email: "user@fintrack.app", Currency: "USD", Language: "en"}
	merged := UserEntity.Merge(u.Fields(), map[string]string{"name": "Mallory", "currency": "EUR"})
	if merged["name"] != "FinTrack User" {
		t.Fatalf("name must not be patchable")
	}
	if merged["currency"] != "EUR" {
		t.Fatalf("currency not applied")
	}
	merged["language"] = "xx"
	if err := UserEntity.Validate(merged); err == nil {
		t.Fatalf("expected error for unknown language")
	}
}

func TestEntityColumns(t *testing.T) {
	got := TransactionEntity.Columns()
	want := []string{"id", "user_id", "amount", "label", "category", "type", "date", "created_at"}
	if len(got) != len(want) {
		t.Fatalf("columns = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("columns = %v", got)
		}
	}
	if cols := UserEntity.UpdatableColumns(); len(cols) != 2 {
		t.Fatalf("user updatable columns = %v", cols)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	tx := Transaction{Amount: "12.50", Label: "Lunch", Category: "Food", Type: Expense, Date: "2024-03-05"}
	back := TransactionFromFields(TransactionEntity.Scan(stringsOf(TransactionEntity.Values(tx.Fields()))))
	if back != tx {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func stringsOf(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.(string)
	}
	return out
}

func TestMonthHelpers(t *testing.T) {
	tx := Transaction{Date: "2024-03-15"}
	if tx.Month() != "2024-03" || !tx.InMonth("2024-03") || tx.InMonth("2024-04") {
		t.Fatalf("month helpers wrong for %s", tx.Date)
	}
	if tx.Day() != 15 {
		t.Fatalf("expected day 15, got %d", tx.Day())
	}
	now := time.Date(2024, 3, 31, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	if CurrentMonth(now) != "2024-04" {
		t.Fatalf("current month must be computed in UTC")
	}
	if !ValidMonth("2024-03") || ValidMonth("2024-3") || ValidMonth("march") {
		t.Fatalf("ValidMonth wrong")
	}
}
