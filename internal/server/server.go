// Package server exposes the workbench as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/cfpgen/internal/catalog"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/metrics"
	"github.com/kingrea/cfpgen/internal/profile"
	"github.com/kingrea/cfpgen/internal/workbench"
)

// APIVersion is reported by /health.
const APIVersion = "1.0.0"

// Status reports runtime lifecycle states for the HTTP server.
type Status string

const (
	StatusStarting Status = "starting"
	StatusReady    Status = "ready"
	StatusDraining Status = "draining"
)

// Server wraps the HTTP listener and handlers backing the API.
type Server struct {
	settings Settings
	bench    *workbench.Workbench
	catalog  *catalog.Catalog
	metrics  *metrics.Metrics
	logger   *zap.Logger
	clock    func() time.Time

	defaultAudience profile.Audience
	defaultCount    int

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    Status
	startTime time.Time
	stopPrune context.CancelFunc
	pruneDone chan struct{}
	handler   http.Handler
	once      sync.Once
}

// Option customizes server construction.
type Option func(*Server)

// WithCatalog overrides the built-in conference catalogue.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Server) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithMetrics enables /metrics and request counting.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults sets the audience and idea count used when a request leaves
// them out.
func WithDefaults(audience profile.Audience, count int) Option {
	return func(s *Server) {
		if audience != "" {
			s.defaultAudience = audience
		}
		if count > 0 {
			s.defaultCount = ideas.ClampCount(count)
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New prepares a server in front of bench.
func New(settings Settings, bench *workbench.Workbench, opts ...Option) *Server {
	settings.normalize()
	s := &Server{
		settings: settings,
		bench:    bench,
		catalog:  catalog.Default(),
		logger:   zap.NewNop(),
		clock:    time.Now,
		status:   StatusStarting,

		defaultAudience: profile.AudienceMixed,
		defaultCount:    ideas.DefaultCount,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() {
		s.handler = s.routes()
	})
	return s.handler
}

// Start binds the TCP listener, begins serving HTTP traffic and starts the
// session pruning loop.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server: server is nil")
	}
	if s.bench == nil {
		return fmt.Errorf("server: workbench is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	handler := s.Handler()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("server: already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()
	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", zap.Error(err))
		}
	}()
	if s.settings.PruneInterval > 0 {
		pruneCtx, cancel := context.WithCancel(ctx)
		s.stopPrune = cancel
		s.pruneDone = make(chan struct{})
		go s.pruneLoop(pruneCtx, s.pruneDone)
	}
	s.logger.Info("api listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Shutdown stops the pruning loop, stops accepting new connections and waits
// for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	if s.stopPrune != nil {
		s.stopPrune()
		<-s.pruneDone
		s.stopPrune = nil
	}
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(s.clock().Sub(s.startTime).Seconds())
}

func (s *Server) pruneLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.settings.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.bench.Prune(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("session prune failed", zap.Error(err))
			}
		}
	}
}
