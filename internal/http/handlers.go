package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"

	"github.com/gorilla/mux"
)

// writeError maps service errors to status codes. resource names the entity
// for 404s ("Goal"), action completes the 500 message ("Failed to <action>").
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, resource, action string) {
	logger := applog.FromContext(r.Context())

	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.DebugContext(r.Context(), "Rejected request", applog.FieldError, verr.Message, "field", verr.Field)
		BadRequestError(verr.Message).Write(w)
	case errors.Is(err, core.ErrNotFound):
		if resource == "" {
			resource = "Resource"
		}
		NotFoundError(resource + " not found").Write(w)
	case errors.Is(err, core.ErrConflict):
		ConflictError(resource + " already exists").Write(w)
	case errors.Is(err, services.ErrAIRequestFailed):
		InternalServerError(services.ErrAIRequestFailed.Error()).Write(w)
	default:
		logger.ErrorContext(r.Context(), "Request failed",
			applog.NewFields().WithError(err).WithOperation(action).WithUser(s.userID).ToSlice()...)
		InternalServerError("Failed to " + action).Write(w)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ledger.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

// User

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.ledger.GetUser(r.Context(), s.userID)
	if err != nil {
		s.writeError(w, r, err, "User", "fetch user")
		return
	}
	NewJSONResponse().Body(user).Write(w)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	user, err := s.ledger.UpdateUser(r.Context(), s.userID, body.Fields(core.UserEntity))
	if err != nil {
		s.writeError(w, r, err, "User", "update user")
		return
	}
	// currency shows up in every overview
	s.invalidate()
	NewJSONResponse().Body(user).Write(w)
}

// Transactions

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context(), s.userID)
	if err != nil {
		s.writeError(w, r, err, "Transaction", "fetch transactions")
		return
	}
	NewJSONResponse().Body(nonNil(txs)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	tx, err := s.ledger.CreateTransaction(r.Context(), s.userID, body.Fields(core.TransactionEntity))
	if err != nil {
		s.writeError(w, r, err, "Transaction", "create transaction")
		return
	}
	s.invalidate()
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	tx, err := s.ledger.UpdateTransaction(r.Context(), s.userID, mux.Vars(r)["id"], body.Fields(core.TransactionEntity))
	if err != nil {
		s.writeError(w, r, err, "Transaction", "update transaction")
		return
	}
	s.invalidate()
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), s.userID, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err, "Transaction", "delete transaction")
		return
	}
	s.invalidate()
	SuccessResponse().Write(w)
}

// Goals

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.ledger.ListGoals(r.Context(), s.userID)
	if err != nil {
		s.writeError(w, r, err, "Goal", "fetch goals")
		return
	}
	NewJSONResponse().Body(nonNil(goals)).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	goal, err := s.ledger.CreateGoal(r.Context(), s.userID, body.Fields(core.GoalEntity))
	if err != nil {
		s.writeError(w, r, err, "Goal", "create goal")
		return
	}
	s.invalidate()
	NewJSONResponse().Body(goal).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	goal, err := s.ledger.UpdateGoal(r.Context(), s.userID, mux.Vars(r)["id"], body.Fields(core.GoalEntity))
	if err != nil {
		s.writeError(w, r, err, "Goal", "update goal")
		return
	}
	s.invalidate()
	NewJSONResponse().Body(goal).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteGoal(r.Context(), s.userID, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err, "Goal", "delete goal")
		return
	}
	s.invalidate()
	SuccessResponse().Write(w)
}

func (s *Server) handleFundGoal(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	goal, err := s.ledger.FundGoal(r.Context(), s.userID, mux.Vars(r)["id"], body.Get("amount"))
	if err != nil {
		s.writeError(w, r, err, "Goal", "fund goal")
		return
	}
	s.invalidate()
	NewJSONResponse().Body(goal).Write(w)
}

// AI advisor

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.advisor.Messages(r.Context(), s.userID)
	if err != nil {
		s.writeError(w, r, err, "Message", "fetch messages")
		return
	}
	NewJSONResponse().Body(nonNil(msgs)).Write(w)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	message, ok := body.GetString("message")
	if !ok || strings.TrimSpace(message) == "" {
		BadRequestError("Message is required").Write(w)
		return
	}
	result, err := s.advisor.Chat(r.Context(), s.userID, message)
	if err != nil {
		s.writeError(w, r, err, "Message", "process chat")
		return
	}
	NewJSONResponse().Body(result).Write(w)
}

func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	welcome, err := s.advisor.Clear(r.Context(), s.userID)
	if err != nil {
		s.writeError(w, r, err, "Message", "clear messages")
		return
	}
	NewJSONResponse().Body(successBody{Success: true, WelcomeMessage: welcome}).Write(w)
}

// Dashboard

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	month := monthParam(r)
	key := month
	if key == "" {
		key = core.CurrentMonth(time.Now())
	}

	if ov, ok := s.overviewCache.Get(key); ok {
		NewJSONResponse().Header("X-Cache", "HIT").Body(ov).Write(w)
		return
	}

	ov, err := s.ledger.Overview(r.Context(), s.userID, month)
	if err != nil {
		s.writeError(w, r, err, "User", "compute overview")
		return
	}
	s.overviewCache.Set(key, ov)
	NewJSONResponse().Header("X-Cache", "MISS").Body(ov).Write(w)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	days, err := s.ledger.Calendar(r.Context(), s.userID, monthParam(r))
	if err != nil {
		s.writeError(w, r, err, "User", "compute calendar")
		return
	}
	NewJSONResponse().Body(days).Write(w)
}

type reference struct {
	Categories       []string        `json:"categories"`
	TransactionTypes []string        `json:"transactionTypes"`
	Currencies       []core.Currency `json:"currencies"`
	Languages        []core.Language `json:"languages"`
}

func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Header("Cache-Control", "public, max-age=3600").Body(reference{
		Categories:       core.Categories,
		TransactionTypes: core.TransactionTypes,
		Currencies:       core.Currencies,
		Languages:        core.Languages,
	}).Write(w)
}

// nonNil keeps empty lists rendering as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
