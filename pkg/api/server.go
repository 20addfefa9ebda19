package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gridroute/pkg/buildinfo"
	"github.com/matzehuels/gridroute/pkg/config"
	"github.com/matzehuels/gridroute/pkg/errors"
	"github.com/matzehuels/gridroute/pkg/pipeline"
	"github.com/matzehuels/gridroute/pkg/sink"
)

// Defaults for [Server].
const (
	DefaultMaxBodyBytes   = 16 << 20
	DefaultRequestTimeout = 5 * time.Minute
	shutdownTimeout       = 10 * time.Second
)

// Server serves routing requests through a shared pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	maxBody int64
	timeout time.Duration
	cfg     *config.Config
}

// Option configures a [Server].
type Option func(*Server)

// WithMaxBodyBytes limits the size of a request body.
func WithMaxBodyBytes(n int64) Option { return func(s *Server) { s.maxBody = n } }

// WithRequestTimeout bounds how long one request may route.
func WithRequestTimeout(d time.Duration) Option { return func(s *Server) { s.timeout = d } }

// WithConfig fills routing knobs a request leaves unset from cfg. The grid
// cell limit always comes from cfg.
func WithConfig(cfg *config.Config) Option { return func(s *Server) { s.cfg = cfg } }

// NewServer creates a server around runner.
func NewServer(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:  runner,
		logger:  logger,
		maxBody: DefaultMaxBodyBytes,
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		r.Post("/route", s.handleRoute)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version})
}

// RouteResponse is the body of a successful route request.
type RouteResponse struct {
	RunID     string            `json:"run_id"`
	Board     string            `json:"board"`
	BoardHash string            `json:"board_hash"`
	Result    json.RawMessage   `json:"result"`
	Artifacts map[string][]byte `json:"artifacts"`
	Passes    map[int][]byte    `json:"passes,omitempty"`
	Cache     CacheStatus       `json:"cache"`
	Timing    Timing            `json:"timing"`
}

// CacheStatus reports which stages were served from cache.
type CacheStatus struct {
	Route  bool `json:"route"`
	Render bool `json:"render"`
}

// Timing holds stage durations in milliseconds.
type Timing struct {
	LoadMS   int64 `json:"load_ms"`
	RouteMS  int64 `json:"route_ms"`
	RenderMS int64 `json:"render_ms"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var opts pipeline.Options
	if err := dec.Decode(&opts); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if opts.Board == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "board is required"))
		return
	}
	opts.ApplyConfig(s.cfg)
	opts.Logger = s.logger.With("req", middleware.GetReqID(r.Context()))

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.logger.Warn("route request failed", "err", err)
		writeError(w, err)
		return
	}

	doc, err := sink.RenderJSON(res.Routing, sink.WithJSONRunID(res.RunID), sink.WithJSONCompact())
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode result"))
		return
	}
	writeJSON(w, http.StatusOK, RouteResponse{
		RunID:     res.RunID,
		Board:     res.Board.Name,
		BoardHash: res.BoardHash,
		Result:    doc,
		Artifacts: res.Artifacts,
		Passes:    res.PassArtifacts,
		Cache:     CacheStatus{Route: res.CacheInfo.RouteHit, Render: res.CacheInfo.RenderHit},
		Timing: Timing{
			LoadMS:   res.Stats.LoadTime.Milliseconds(),
			RouteMS:  res.Stats.RouteTime.Milliseconds(),
			RenderMS: res.Stats.RenderTime.Milliseconds(),
		},
	})
}
