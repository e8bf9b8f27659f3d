package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	// HistoryLimit is how many stored messages are replayed to the model.
	HistoryLimit = 10

	WelcomeMessage = "Hi! I'm your AI financial advisor. I can help you analyze your spending, set better goals, optimize your budget, and answer any financial questions. What would you like to know about your finances?"

	FallbackMessage = "I'm your AI financial advisor! To enable full AI-powered insights, please add your Anthropic API key. In the meantime, I can see you're doing well with your finances!"

	NoTextMessage = "I apologize, I couldn't generate a response."
)

// ErrAIRequestFailed is returned when the language model call fails. The
// cause is logged, never shown to clients.
var ErrAIRequestFailed = errors.New("AI request failed")

// LanguageModel completes a conversation given a system prompt.
type LanguageModel interface {
	Complete(ctx context.Context, system string, turns []core.ChatTurn) (core.Completion, error)
}

// AdvisorStore is the slice of the ledger the advisor reads and writes.
type AdvisorStore interface {
	storage.MessageStore
	storage.TransactionStore
	storage.GoalStore
}

// ChatResult pairs the stored user message with the stored reply.
type ChatResult struct {
	UserMessage      core.AiMessage `json:"userMessage"`
	AssistantMessage core.AiMessage `json:"assistantMessage"`
}

// AdvisorService runs the AI advisor conversation.
type AdvisorService struct {
	store AdvisorStore
	model LanguageModel
	now   func() time.Time
}

// NewAdvisorService wires the advisor. model may be nil, in which case every
// chat gets the fixed fallback reply.
func NewAdvisorService(store AdvisorStore, model LanguageModel) *AdvisorService {
	return &AdvisorService{store: store, model: model, now: time.Now}
}

// WithClock replaces the clock used to pick the reference month.
func (s *AdvisorService) WithClock(now func() time.Time) *AdvisorService {
	s.now = now
	return s
}

// ModelEnabled reports whether replies come from a language model.
func (s *AdvisorService) ModelEnabled() bool {
	return s.model != nil
}

// Messages lists the conversation oldest first.
func (s *AdvisorService) Messages(ctx context.Context, userID string) ([]core.AiMessage, error) {
	msgs, err := s.store.ListMessages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// Chat stores the user's message, obtains a reply and stores it.
// The user message stays persisted even when the model call fails.
func (s *AdvisorService) Chat(ctx context.Context, userID, message string) (ChatResult, error) {
	fields := map[string]string{"role": string(core.RoleUser), "content": message}
	if err := core.AiMessageEntity.Validate(fields); err != nil {
		return ChatResult{}, err
	}

	userMsg, err := s.store.CreateMessage(ctx, core.AiMessage{UserID: userID, Role: core.RoleUser, Content: message})
	if err != nil {
		return ChatResult{}, fmt.Errorf("store user message: %w", err)
	}

	reply := FallbackMessage
	if s.model != nil {
		reply, err = s.complete(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "AI chat failed", "user_id", userID, "error", err)
			return ChatResult{}, ErrAIRequestFailed
		}
	}

	assistantMsg, err := s.store.CreateMessage(ctx, core.AiMessage{UserID: userID, Role: core.RoleAssistant, Content: reply})
	if err != nil {
		return ChatResult{}, fmt.Errorf("store assistant message: %w", err)
	}

	return ChatResult{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

func (s *AdvisorService) complete(ctx context.Context, userID string) (string, error) {
	history, err := s.store.ListMessages(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load transactions: %w", err)
	}
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load goals: %w", err)
	}

	metrics := ComputeMetrics(txs, core.CurrentMonth(s.now()))
	system := BuildAdvisorContext(metrics, len(txs), goals)

	turns := make([]core.ChatTurn, len(history))
	for i, m := range history {
		turns[i] = core.ChatTurn{Role: m.Role, Content: m.Content}
	}

	completion, err := s.model.Complete(ctx, system, turns)
	if err != nil {
		return "", err
	}
	if !completion.IsText {
		return NoTextMessage, nil
	}
	return completion.Text, nil
}

// Clear deletes the conversation and starts over with the welcome message.
func (s *AdvisorService) Clear(ctx context.Context, userID string) (core.AiMessage, error) {
	if err := s.store.DeleteMessages(ctx, userID); err != nil {
		return core.AiMessage{}, fmt.Errorf("delete messages: %w", err)
	}
	welcome, err := s.store.CreateMessage(ctx, core.AiMessage{UserID: userID, Role: core.RoleAssistant, Content: WelcomeMessage})
	if err != nil {
		return core.AiMessage{}, fmt.Errorf("store welcome message: %w", err)
	}
	return welcome, nil
}

// BuildAdvisorContext renders the system prompt describing the user's finances.
// txCount counts all transactions, not only the reference month.
func BuildAdvisorContext(m Metrics, txCount int, goals []core.Goal) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI financial advisor for FinTrack, a personal finance application. \n")
	b.WriteString("You have access to the user's financial data and should provide personalized, actionable advice.\n\n")
	b.WriteString("Current Financial Summary:\n")
	fmt.Fprintf(&b, "- Monthly Income: $%s\n", m.Income.StringFixed(2))
	fmt.Fprintf(&b, "- Monthly Expenses: $%s\n", m.Expenses.StringFixed(2))
	fmt.Fprintf(&b, "- Savings Rate: %s%%\n", core.FormatPercent(m.SavingsRate))
	fmt.Fprintf(&b, "- Number of Transactions: %d\n", txCount)
	fmt.Fprintf(&b, "- Active Goals: %d\n\n", len(goals))

	if len(goals) > 0 {
		b.WriteString("Goals:")
		for _, g := range goals {
			fmt.Fprintf(&b, "\n- %s: $%s / $%s (%s%%)", g.Name, g.Current, g.Target, core.FormatPercent(GoalProgress(g)))
		}
	}

	b.WriteString("\n\nProvide clear, concise, and encouraging financial advice. Be specific and reference their actual data when relevant.\n")
	b.WriteString("Keep responses under 150 words unless they ask for detailed analysis.")
	return b.String()
}
