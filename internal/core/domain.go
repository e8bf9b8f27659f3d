package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// DateLayout is the calendar-day format used for transaction dates.
	DateLayout = "2006-01-02"
	// MonthLayout is the reference-month format ("YYYY-MM").
	MonthLayout = "2006-01"

	DefaultCurrency  = "USD"
	DefaultLanguage  = "en"
	DefaultGoalColor = "#007aff"
)

type (
	TransactionType string

	Role string

	User struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Currency  string    `json:"currency"`
		Language  string    `json:"language"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Transaction struct {
		ID        string          `json:"id"`
		UserID    string          `json:"userId"`
		Amount    string          `json:"amount"` // decimal string, stored verbatim
		Label     string          `json:"label"`
		Category  string          `json:"category"`
		Type      TransactionType `json:"type"`
		Date      string          `json:"date"` // YYYY-MM-DD
		CreatedAt time.Time       `json:"createdAt"`
	}

	Goal struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Name      string    `json:"name"`
		Target    string    `json:"target"`
		Current   string    `json:"current"`
		Color     string    `json:"color"`
		CreatedAt time.Time `json:"createdAt"`
	}

	AiMessage struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Role      Role      `json:"role"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// ChatTurn is one role/content pair handed to a language model.
	ChatTurn struct {
		Role    Role
		Content string
	}

	// Completion is what a language model returned for a conversation.
	// IsText is false when the first content block was not text.
	Completion struct {
		Text   string
		IsText bool
	}
)

// Fixed vocabularies shared by validation and the reference endpoint.
var (
	Categories = []string{
		"Food", "Transportation", "Shopping", "Bills", "Utilities",
		"Health", "Entertainment", "Travel", "Education", "Other",
		"Salary", "Bonus",
	}

	TransactionTypes = []string{string(Income), string(Expense)}

	Roles = []string{string(RoleUser), string(RoleAssistant)}

	Currencies = []Currency{
		{Code: "USD", Name: "US Dollar", Symbol: "$"},
		{Code: "EUR", Name: "Euro", Symbol: "€"},
		{Code: "GBP", Name: "British Pound", Symbol: "£"},
		{Code: "JPY", Name: "Japanese Yen", Symbol: "¥"},
		{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$"},
		{Code: "LKR", Name: "Sri Lankan Rupee", Symbol: "Rs"},
	}

	Languages = []Language{
		{Code: "en", Name: "English"},
		{Code: "es", Name: "Español"},
		{Code: "fr", Name: "Français"},
		{Code: "de", Name: "Deutsch"},
		{Code: "it", Name: "Italiano"},
		{Code: "ja", Name: "日本語"},
		{Code: "si", Name: "සිංහල"},
	}
)

type (
	Currency struct {
		Code   string `json:"code"`
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	}

	Language struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Month returns the "YYYY-MM" prefix of the transaction date.
func (t Transaction) Month() string {
	if len(t.Date) < len(MonthLayout) {
		return ""
	}
	return t.Date[:len(MonthLayout)]
}

// InMonth reports whether the transaction date falls in month ("YYYY-MM").
func (t Transaction) InMonth(month string) bool {
	return month != "" && strings.HasPrefix(t.Date, month)
}

// Day returns the day of month, or 0 when the date is malformed.
func (t Transaction) Day() int {
	d, err := time.Parse(DateLayout, t.Date)
	if err != nil {
		return 0
	}
	return d.Day()
}

// CurrentMonth returns the reference month for now in UTC.
func CurrentMonth(now time.Time) string {
	return now.UTC().Format(MonthLayout)
}

// ValidMonth reports whether s is a "YYYY-MM" month.
func ValidMonth(s string) bool {
	_, err := time.Parse(MonthLayout, s)
	return err == nil
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// CurrencySymbol returns the display symbol for an ISO 4217 code.
// Unknown codes fall back to the code itself followed by a space.
func CurrencySymbol(code string) string {
	for _, c := range Currencies {
		if c.Code == code {
			return c.Symbol
		}
	}
	if code == "" {
		return "$"
	}
	return code + " "
}

func currencyCodes() []string {
	out := make([]string, len(Currencies))
	for i, c := range Currencies {
		out[i] = c.Code
	}
	return out
}

func languageCodes() []string {
	out := make([]string, len(Languages))
	for i, l := range Languages {
		out[i] = l.Code
	}
	return out
}
