package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/atlas-maximus/internal/analytics"
	"github.com/jonathan/atlas-maximus/internal/coaching"
	"github.com/jonathan/atlas-maximus/internal/config"
	"github.com/jonathan/atlas-maximus/internal/db"
	"github.com/jonathan/atlas-maximus/internal/fetch"
	"github.com/jonathan/atlas-maximus/internal/llm"
	"github.com/jonathan/atlas-maximus/internal/server/middleware"
	"github.com/jonathan/atlas-maximus/internal/server/ratelimit"
	"github.com/rs/zerolog/log"
)

// Server is the HTTP API.
type Server struct {
	httpServer  *http.Server
	db          DBClient
	engine      *analytics.Engine
	analyzer    *coaching.Analyzer
	narrator    *coaching.Narrator // nil when no LLM key is configured
	fetchOpts   *fetch.Options
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	validator   *validator.Validate
	now         func() time.Time
	closers     []func()
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	RedisURL    string        // optional snapshot cache
	CacheTTL    time.Duration // zero uses analytics.DefaultCacheTTL
	RulesFile   string        // optional YAML coaching rule overrides
	LLM         *llm.Config
	APIKey      string // LLM key; narratives are disabled without one
	UseBrowser  bool
}

// New connects the server's dependencies.
func New(ctx context.Context, cfg Config) (*Server, error) {
	rules := coaching.DefaultRules()
	if cfg.RulesFile != "" {
		loaded, err := coaching.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var engineOpts []analytics.Option
	closers := []func(){database.Close}
	if cfg.RedisURL != "" {
		client, err := analytics.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			database.Close()
			return nil, err
		}
		cache := analytics.NewRedisCache(client, cfg.CacheTTL)
		engineOpts = append(engineOpts, analytics.WithCache(cache))
		closers = append(closers, func() { _ = client.Close() })
		log.Info().Dur("ttl", cache.TTL()).Msg("snapshot cache enabled")
	}

	var narrator *coaching.Narrator
	if cfg.APIKey != "" {
		client, err := llm.NewClient(ctx, cfg.LLM, cfg.APIKey)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		narrator = coaching.NewNarrator(client)
		closers = append(closers, func() { _ = client.Close() })
	} else {
		log.Warn().Msg("no LLM API key configured, coaching narratives disabled")
	}

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.UseBrowser = cfg.UseBrowser

	s := newServer(database, deps{
		engine:         analytics.NewEngine(database, engineOpts...),
		analyzer:       coaching.NewAnalyzer(rules),
		narrator:       narrator,
		fetchOpts:      fetchOpts,
		limiter:        ratelimit.NewLimiter(ratelimit.LoadConfig()),
		jwtConfig:      jwtConfig,
		passwordConfig: passwordConfig,
	})
	s.closers = closers
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // narratives and snapshot fan-out
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// deps are the collaborators newServer wires together.
type deps struct {
	engine         *analytics.Engine
	analyzer       *coaching.Analyzer
	narrator       *coaching.Narrator
	fetchOpts      *fetch.Options
	limiter        *ratelimit.Limiter
	jwtConfig      *config.JWTConfig
	passwordConfig *config.PasswordConfig
}

func newServer(database DBClient, d deps) *Server {
	s := &Server{
		db:          database,
		engine:      d.engine,
		analyzer:    d.analyzer,
		narrator:    d.narrator,
		fetchOpts:   d.fetchOpts,
		rateLimiter: d.limiter,
		jwtService:  NewJWTService(d.jwtConfig),
		userService: NewUserService(database, d.passwordConfig),
		validator:   validator.New(),
		now:         time.Now,
	}
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	protected := middleware.Auth(s.jwtService.AsTokenValidator())
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protected(h))
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	handle("PUT /auth/password", s.authHandler.UpdatePassword)

	handle("POST /coaching/analyze", s.handleAnalyze)

	handle("POST /teams", s.handleCreateTeam)
	handle("GET /teams", s.handleListTeams)
	handle("POST /teams/{team_id}/members", s.handleAddMember)
	handle("GET /teams/{team_id}/insights", s.handleListInsights)

	handle("POST /analytics/snapshots", s.handleGenerateSnapshot)
	handle("POST /analytics/snapshots/all", s.handleGenerateAllSnapshots)
	handle("GET /analytics/snapshots", s.handleListSnapshots)
	handle("POST /analytics/activity", s.handleTrackActivity)
	handle("POST /analytics/queries", s.handleTrackQuery)

	handle("POST /documents/fetch", s.handleFetchDocument)
	handle("POST /documents/{document_id}/views", s.handleDocumentView)

	var h http.Handler = s.withCORS(mux)
	h = s.withLogging(h)
	if s.rateLimiter != nil {
		h = s.withRateLimit(h)
	}
	return h
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("server error: %w", err)
	}
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.Close()
	log.Info().Msg("server stopped")
	return nil
}

// Close releases the rate limiter, cache, LLM client and database pool.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging logs one line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// withRateLimit throttles per client IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth reports ok, or degraded when the database is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("health check: database unreachable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clientID is the remote IP. X-Forwarded-For is not trusted.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := max(1, int(info.RetryAfter.Round(time.Second).Seconds()))
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	log.Warn().
		Str("client", clientID(r)).
		Str("path", r.URL.Path).
		Int("limit", info.Limit).
		Msg("rate limit exceeded")

	writeJSON(w, http.StatusTooManyRequests, response)
}
