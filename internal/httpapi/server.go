// Package httpapi serves the scoring engine over HTTP: one POST endpoint that
// takes a market snapshot and returns the composite result, plus health and
// metrics. Exchange connectivity is not this server's business; callers bring
// their own snapshots.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/marketweave/confluence/internal/cache"
	"github.com/marketweave/confluence/internal/composite"
	"github.com/marketweave/confluence/internal/market"
	"github.com/marketweave/confluence/internal/metrics"
	"github.com/marketweave/confluence/internal/persistence"
)

// Config holds the server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimit       float64 // requests per second across all callers
	RateBurst       int
}

// Server wires the engine to HTTP. Cache, store, and metrics are optional; a nil
// store simply means results are not persisted.
type Server struct {
	cfg     Config
	engine  *composite.Engine
	cache   *cache.ResultCache
	store   persistence.ResultStore
	metrics *metrics.Registry
	limiter *rate.Limiter
	log     zerolog.Logger
	http    *http.Server
}

// New builds the server and its router.
func New(cfg Config, engine *composite.Engine, resultCache *cache.ResultCache,
	store persistence.ResultStore, reg *metrics.Registry, logger zerolog.Logger) *Server {

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		cache:   resultCache,
		store:   store,
		metrics: reg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		log:     logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if reg != nil {
		r.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)
	}
	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/score", s.handleScore).Methods(http.MethodPost)
	api.Use(s.requestID, s.requestLog, s.rateLimit)

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("scoring API listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var snap market.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed snapshot: " + err.Error()})
		return
	}

	ctx := r.Context()
	if result, ok := s.cache.Get(ctx, &snap); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		writeJSON(w, http.StatusOK, result)
		return
	}
	if s.metrics != nil && s.cache != nil {
		s.metrics.CacheMisses.Inc()
	}

	result := s.engine.Evaluate(&snap)
	if s.metrics != nil {
		s.metrics.ObserveResult(result)
	}
	s.cache.Put(ctx, &snap, result)

	if s.store != nil && result.Meta.Status == composite.StatusSuccess {
		if err := s.store.Save(ctx, result); err != nil {
			s.log.Error().Err(err).Str("symbol", result.Symbol).Msg("result store save failed")
		}
	}

	// Data-quality failures still return a well-formed result body; the status
	// code distinguishes them for callers that only look at transport.
	code := http.StatusOK
	if result.Meta.Status == composite.StatusError {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, result)
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		id, _ := r.Context().Value(requestIDKey).(string)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", id).
			Dur("elapsed", time.Since(started)).
			Msg("request")
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
