package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"finboard/internal/log"
	"finboard/internal/middleware/auth"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/services"
	"finboard/internal/telemetry"
)

// Services are the operations the API exposes.
type Services struct {
	Finance   *services.FinanceService
	Entries   *services.EntryService
	Snapshots *services.SnapshotService
}

// Config configures the server. Zero values fall back to defaults.
type Config struct {
	Addr               string
	AuthSecret         string
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	Logger             *log.Logger
	Metrics            *telemetry.Metrics
	// Ready reports whether dependencies such as the database are reachable.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	svc      Services
	limiter  *ratelimit.Limiter
	detector *security.Detector
	ready    func(context.Context) error

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		svc:      svc,
		detector: security.NewDetector(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
		ready: cfg.Ready,
	}

	authenticator := auth.NewAuthenticator(cfg.AuthSecret)
	if authenticator.DevMode() {
		logger.Warn("AUTH_SECRET is empty: requests are trusted and identified by the X-User-ID header")
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(logger))
	r.Use(trace.NewMiddleware(s.detector.ExtractClientIP).Middleware)
	r.Use(log.RequestIDMiddleware(trace.RequestID))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", trace.HeaderRequestID, auth.HeaderDevUserID},
		ExposedHeaders: []string{trace.HeaderRequestID},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authenticator.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
			UnauthorizedError(err.Error()).Write(w)
		}))
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).
				WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, s.detector.ExtractClientIP(r))
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
		}))
		s.routes(r)
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(r chi.Router) {
	r.Route("/summary", func(r chi.Router) {
		r.Get("/", s.handleSummary)
		r.Get("/escape", s.handleEscapeProgress)
		r.Get("/quadrants", s.handleQuadrants)
		r.Get("/insights", s.handleInsights)
	})

	r.Route("/incomes", func(r chi.Router) {
		r.Get("/", s.handleListIncomes)
		r.Post("/", s.handleCreateIncome)
		r.Put("/{id}", s.handleUpdateIncome)
		r.Delete("/{id}", s.handleDeleteIncome)
	})
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", s.handleListExpenses)
		r.Post("/", s.handleCreateExpense)
		r.Put("/{id}", s.handleUpdateExpense)
		r.Delete("/{id}", s.handleDeleteExpense)
	})
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", s.handleListAssets)
		r.Post("/", s.handleCreateAsset)
		r.Put("/{id}", s.handleUpdateAsset)
		r.Delete("/{id}", s.handleDeleteAsset)
	})
	r.Route("/liabilities", func(r chi.Router) {
		r.Get("/", s.handleListLiabilities)
		r.Post("/", s.handleCreateLiability)
		r.Put("/{id}", s.handleUpdateLiability)
		r.Delete("/{id}", s.handleDeleteLiability)
	})

	r.Route("/budgets", func(r chi.Router) {
		r.Get("/", s.handleListBudgets)
		r.Post("/", s.handleCreateBudget)
		r.Get("/current", s.handleCurrentBudget)
		r.Delete("/{id}", s.handleDeleteBudget)
		r.Post("/{id}/categories", s.handleAddBudgetCategory)
	})
	r.Route("/budget-categories", func(r chi.Router) {
		r.Patch("/{id}/spent", s.handleUpdateCategorySpent)
		r.Delete("/{id}", s.handleDeleteBudgetCategory)
	})

	r.Route("/goals", func(r chi.Router) {
		r.Get("/", s.handleListGoals)
		r.Post("/", s.handleCreateGoal)
		r.Get("/progress", s.handleGoalProgress)
		r.Get("/totals", s.handleGoalTotals)
		r.Get("/passive-income", s.handlePassiveIncomeGoal)
		r.Post("/passive-income/progress", s.handlePassiveIncomeProgress)
		r.Patch("/{id}/progress", s.handleUpdateGoalProgress)
		r.Delete("/{id}", s.handleDeleteGoal)
	})

	r.Route("/networth", func(r chi.Router) {
		r.Get("/history", s.handleNetWorthHistory)
		r.Get("/performance", s.handleNetWorthPerformance)
		r.Post("/snapshots", s.handleCreateSnapshot)
	})

	r.Route("/projections", func(r chi.Router) {
		r.Get("/loan", handleLoanProjection)
		r.Get("/compound", handleCompoundProjection)
		r.Get("/goal", handleGoalProjection)
		r.Get("/retirement", handleRetirementProjection)
		r.Get("/payoff", handlePayoffProjection)
		r.Get("/return", handleReturnProjection)
	})
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
