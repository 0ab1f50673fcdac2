package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/app"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
)

// Server serves the JSON API for one App.
type Server struct {
	http.Server

	app     *app.App
	logger  *log.Logger
	ready   func(context.Context) error
	hub     *EventHub
	now     func() time.Time
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	rateLimit    ratelimit.Config
	shutdownOnce sync.Once
}

// Option customizes a Server.
type Option func(*Server)

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithReadiness sets the check behind /readyz, usually the backend ping.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

// WithEventHub mounts hub at /ws. The caller registers hub.Hook on the App.
func WithEventHub(hub *EventHub) Option {
	return func(s *Server) { s.hub = hub }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.rateLimit = cfg }
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, a *app.App, opts ...Option) *Server {
	s := &Server{
		app:       a,
		logger:    log.Discard(),
		ready:     func(context.Context) error { return nil },
		now:       time.Now,
		rateLimit: ratelimit.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.limiter = ratelimit.NewLimiter(s.rateLimit)
	s.tracer = trace.NewMiddleware(s.logger, clientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /api/budgets/{category}", s.handleSetBudget)
	mux.HandleFunc("DELETE /api/budgets/{category}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/filter", s.handleGetFilter)
	mux.HandleFunc("PUT /api/filter", s.handleSetFilter)
	mux.HandleFunc("POST /api/filter/shift", s.handleShiftFilter)

	mux.HandleFunc("GET /api/view", s.handleView)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	mux.HandleFunc("GET /api/theme", s.handleGetTheme)
	mux.HandleFunc("PUT /api/theme", s.handleSetTheme)

	if s.hub != nil {
		mux.Handle("GET /ws", s.hub)
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	throttle := s.limiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, clientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})

	var handler http.Handler = mux
	handler = throttle(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Addr = addr
	s.Handler = handler
	s.ReadHeaderTimeout = 10 * time.Second
	return s
}

// Shutdown stops background goroutines, disconnects WebSocket clients and
// gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		if s.hub != nil {
			s.hub.Close()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type healthResponse struct {
	Status    string            `json:"status"`
	Requests  trace.Metrics     `json:"requests"`
	RateLimit ratelimit.Metrics `json:"rateLimit"`
	Listeners int               `json:"listeners"`
	Error     string            `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Requests:  s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
	}
	if s.hub != nil {
		resp.Listeners = s.hub.Clients()
	}
	NewJSONResponse().Body(resp).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			Body(healthResponse{Status: "unavailable", Error: err.Error()}).
			Write(w)
		return
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
