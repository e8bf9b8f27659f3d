// Package core holds the ledger entities and the field definitions shared by
// request validation and the SQL repositories.
//
// Each entity is described once by an Entity value. The HTTP layer validates
// incoming bodies against it and the SQL stores derive their column lists from
// it, so a field is added in one place.
package core

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type FieldKind int

const (
	KindText FieldKind = iota
	KindEmail
	KindEnum
	KindDate
	KindPositiveDecimal
	KindNonNegativeDecimal
)

// Field describes one client-settable attribute of an entity.
type Field struct {
	JSON      string
	Column    string
	Label     string
	Kind      FieldKind
	Required  bool
	MaxLen    int
	Enum      []string
	Default   string
	Updatable bool
}

// Entity describes a persisted record. System columns (id, owner, created_at)
// are managed by the stores and are not part of Fields.
type Entity struct {
	Name   string
	Table  string
	Owned  bool // carries a user_id column
	Fields []Field
}

// ValidationError reports the first offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	UserEntity = Entity{
		Name:  "user",
		Table: "users",
		Fields: []Field{
			{JSON: "name", Column: "name", Label: "Name", Kind: KindText, Required: true, MaxLen: 100},
			{JSON: "email", Column: "email", Label: "Email", Kind: KindEmail, Required: true, MaxLen: 254},
			{JSON: "currency", Column: "currency", Label: "Currency", Kind: KindEnum, Enum: currencyCodes(), Default: DefaultCurrency, Updatable: true},
			{JSON: "language", Column: "language", Label: "Language", Kind: KindEnum, Enum: languageCodes(), Default: DefaultLanguage, Updatable: true},
		},
	}

	TransactionEntity = Entity{
		Name:  "transaction",
		Table: "transactions",
		Owned: true,
		Fields: []Field{
			{JSON: "amount", Column: "amount", Label: "Amount", Kind: KindPositiveDecimal, Required: true, MaxLen: 32, Updatable: true},
			{JSON: "label", Column: "label", Label: "Description", Kind: KindText, Required: true, MaxLen: 200, Updatable: true},
			{JSON: "category", Column: "category", Label: "Category", Kind: KindEnum, Required: true, Enum: Categories, Updatable: true},
			{JSON: "type", Column: "type", Label: "Type", Kind: KindEnum, Required: true, Enum: TransactionTypes, Updatable: true},
			{JSON: "date", Column: "date", Label: "Date", Kind: KindDate, Required: true, Updatable: true},
		},
	}

	GoalEntity = Entity{
		Name:  "goal",
		Table: "goals",
		Owned: true,
		Fields: []Field{
			{JSON: "name", Column: "name", Label: "Goal name", Kind: KindText, Required: true, MaxLen: 100, Updatable: true},
			{JSON: "target", Column: "target", Label: "Target amount", Kind: KindPositiveDecimal, Required: true, MaxLen: 32, Updatable: true},
			{JSON: "current", Column: "current", Label: "Current amount", Kind: KindNonNegativeDecimal, MaxLen: 32, Default: "0", Updatable: true},
			{JSON: "color", Column: "color", Label: "Color", Kind: KindText, MaxLen: 32, Default: DefaultGoalColor, Updatable: true},
		},
	}

	AiMessageEntity = Entity{
		Name:  "ai message",
		Table: "ai_messages",
		Owned: true,
		Fields: []Field{
			{JSON: "role", Column: "role", Label: "Role", Kind: KindEnum, Required: true, Enum: Roles},
			{JSON: "content", Column: "content", Label: "Message", Kind: KindText, Required: true, MaxLen: 8000},
		},
	}
)

// Columns returns every column in storage order: id, user_id (owned entities),
// the entity fields, created_at.
func (e Entity) Columns() []string {
	cols := []string{"id"}
	if e.Owned {
		cols = append(cols, "user_id")
	}
	for _, f := range e.Fields {
		cols = append(cols, f.Column)
	}
	return append(cols, "created_at")
}

// UpdatableColumns returns columns that a patch may change.
func (e Entity) UpdatableColumns() []string {
	var cols []string
	for _, f := range e.Fields {
		if f.Updatable {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

// Field looks up a field by its JSON name.
func (e Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.JSON == name {
			return f, true
		}
	}
	return Field{}, false
}

// WithDefaults returns a copy of values restricted to the entity fields, trimmed,
// with defaults filled in for missing or blank optional fields.
func (e Entity) WithDefaults(values map[string]string) map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		v, ok := values[f.JSON]
		v = strings.TrimSpace(v)
		if (!ok || v == "") && f.Default != "" {
			v = f.Default
		}
		out[f.JSON] = v
	}
	return out
}

// Merge overlays the updatable fields present in patch onto base.
func (e Entity) Merge(base, patch map[string]string) map[string]string {
	out := make(map[string]string, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, f := range e.Fields {
		if !f.Updatable {
			continue
		}
		if v, ok := patch[f.JSON]; ok {
			out[f.JSON] = strings.TrimSpace(v)
		}
	}
	return out
}

// Validate checks a complete set of field values.
func (e Entity) Validate(values map[string]string) error {
	for _, f := range e.Fields {
		if err := f.Validate(values[f.JSON]); err != nil {
			return err
		}
	}
	return nil
}

// moneyPattern matches plain fixed-point amounts, no sign or exponent.
var moneyPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)

// Validate checks a single value against the field's constraints.
func (f Field) Validate(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		if f.Required {
			return f.fail("%s is required", f.Label)
		}
		return nil
	}
	if f.MaxLen > 0 && len(v) > f.MaxLen {
		return f.fail("%s too long (max %d characters)", f.Label, f.MaxLen)
	}

	switch f.Kind {
	case KindEmail:
		if _, err := mail.ParseAddress(v); err != nil || !strings.Contains(v, "@") {
			return f.fail("%s must be a valid email address", f.Label)
		}
	case KindEnum:
		for _, allowed := range f.Enum {
			if v == allowed {
				return nil
			}
		}
		return f.fail("%s must be one of: %s", f.Label, strings.Join(f.Enum, ", "))
	case KindDate:
		if _, err := time.Parse(DateLayout, v); err != nil {
			return f.fail("%s must be a date in YYYY-MM-DD format", f.Label)
		}
	case KindPositiveDecimal, KindNonNegativeDecimal:
		if strings.HasPrefix(v, "-") && moneyPattern.MatchString(v[1:]) {
			if f.Kind == KindPositiveDecimal {
				return f.fail("%s must be greater than zero", f.Label)
			}
			return f.fail("%s cannot be negative", f.Label)
		}
		if !moneyPattern.MatchString(v) {
			return f.fail("%s must be a decimal number with at most 2 decimal places", f.Label)
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f.fail("%s must be a decimal number", f.Label)
		}
		if f.Kind == KindPositiveDecimal && !d.IsPositive() {
			return f.fail("%s must be greater than zero", f.Label)
		}
	}
	return nil
}

func (f Field) fail(format string, args ...any) *ValidationError {
	return &ValidationError{Field: f.JSON, Message: fmt.Sprintf(format, args...)}
}
