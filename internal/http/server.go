// Package http serves the FinTrack JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"

	"github.com/gorilla/mux"
)

// Ledger is the ledger capability the handlers use.
type Ledger interface {
	GetUser(ctx context.Context, userID string) (core.User, error)
	UpdateUser(ctx context.Context, userID string, patch map[string]string) (core.User, error)

	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, values map[string]string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, patch map[string]string) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error

	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	CreateGoal(ctx context.Context, userID string, values map[string]string) (core.Goal, error)
	UpdateGoal(ctx context.Context, userID, id string, patch map[string]string) (core.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
	FundGoal(ctx context.Context, userID, id, amount string) (core.Goal, error)

	Overview(ctx context.Context, userID, month string) (services.Overview, error)
	Calendar(ctx context.Context, userID, month string) ([]services.DayTotal, error)
	Ping(ctx context.Context) error
}

// Advisor is the AI conversation capability.
type Advisor interface {
	Messages(ctx context.Context, userID string) ([]core.AiMessage, error)
	Chat(ctx context.Context, userID, message string) (services.ChatResult, error)
	Clear(ctx context.Context, userID string) (core.AiMessage, error)
}

// Options configures NewServer. Zero values get defaults.
type Options struct {
	Ledger  Ledger
	Advisor Advisor
	// UserID is the account every request acts on; there is no authentication.
	UserID  string
	Logger  *applog.Logger

	RateLimitPerMinute int
	OverviewCacheSize  int
	OverviewCacheTTL   time.Duration
}

// Server is the API server. It embeds http.Server so callers use
// ListenAndServe and Shutdown directly.
type Server struct {
	http.Server

	ledger  Ledger
	advisor Advisor
	userID  string
	logger  *applog.Logger

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// overviews by month; purged on every ledger write
	overviewCache cache.Cache[services.Overview]
	caches        *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware and starts the background sweeps.
func NewServer(addr string, opts Options) *Server {
	if opts.UserID == "" {
		opts.UserID = "demo-user-001"
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.OverviewCacheSize == 0 {
		opts.OverviewCacheSize = 24
	}
	if opts.OverviewCacheTTL == 0 {
		opts.OverviewCacheTTL = 5 * time.Minute
	}

	overviews := cache.NewLRUCache[services.Overview](opts.OverviewCacheSize, opts.OverviewCacheTTL)
	manager := cache.NewManager()
	manager.Register(overviews)

	s := &Server{
		ledger:        opts.Ledger,
		advisor:       opts.Advisor,
		userID:        opts.UserID,
		logger:        opts.Logger.WithComponent(applog.ComponentHTTP),
		rateLimiter:   newRateLimiter(opts.RateLimitPerMinute),
		metrics:       &securityMetrics{},
		overviewCache: overviews,
		caches:        manager,
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// chat waits on the language model
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	manager.StartCleanup(10 * time.Minute)
	go s.rateLimiter.startCleanup()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = r.NotFoundHandler
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler

	api.HandleFunc("/user", s.handleGetUser).Methods(http.MethodGet)
	api.HandleFunc("/user", s.handleUpdateUser).Methods(http.MethodPatch)

	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.handleUpdateTransaction).Methods(http.MethodPatch)
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	api.HandleFunc("/goals", s.handleListGoals).Methods(http.MethodGet)
	api.HandleFunc("/goals", s.handleCreateGoal).Methods(http.MethodPost)
	api.HandleFunc("/goals/{id}", s.handleUpdateGoal).Methods(http.MethodPatch)
	api.HandleFunc("/goals/{id}", s.handleDeleteGoal).Methods(http.MethodDelete)
	api.HandleFunc("/goals/{id}/fund", s.handleFundGoal).Methods(http.MethodPost)

	api.HandleFunc("/ai/messages", s.handleListMessages).Methods(http.MethodGet)
	api.HandleFunc("/ai/messages", s.handleClearMessages).Methods(http.MethodDelete)
	api.HandleFunc("/ai/chat", s.handleChat).Methods(http.MethodPost)

	api.HandleFunc("/overview", s.handleOverview).Methods(http.MethodGet)
	api.HandleFunc("/calendar", s.handleCalendar).Methods(http.MethodGet)
	api.HandleFunc("/reference", s.handleReference).Methods(http.MethodGet)

	return r
}

// Shutdown stops the background sweeps and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidate drops cached overviews after a ledger write.
func (s *Server) invalidate() {
	s.overviewCache.Purge()
}
