// Package server hosts the chat widget for browsers. Each browser gets its
// own in-memory controller, keyed by a session cookie; nothing is persisted.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/longkey1/shopchat/internal/shopchat/render"
	"github.com/longkey1/shopchat/internal/shopchat/widget"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SessionCookie names the cookie that binds a browser to its transcript.
const SessionCookie = "shopchat_session"

// Settings controls the widget host.
type Settings struct {
	Addr           string
	Title          string
	Welcome        string
	SiteURL        string
	ErrorText      string
	AllowedOrigins []string
	IdleTTL        time.Duration
	StaticDir      string
	RefreshSeconds int
}

type browserSession struct {
	ctrl     *widget.Controller
	lastSeen time.Time
}

// Server owns HTTP handlers and the per-browser controllers.
type Server struct {
	settings Settings
	asker    widget.Asker
	html     *render.HTML
	logger   zerolog.Logger
	now      func() time.Time

	baseCtx context.Context
	router  *mux.Router
	handler http.Handler
	metrics *metrics

	mu       sync.Mutex
	sessions map[string]*browserSession
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithClock overrides time.Now for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds the router. Questions from every browser go through asker.
func New(asker widget.Asker, settings Settings, opts ...Option) (*Server, error) {
	if asker == nil {
		return nil, errors.New("asker is nil")
	}
	if settings.Title == "" {
		settings.Title = "Shopping Assistant"
	}
	if settings.Welcome == "" {
		settings.Welcome = "Ask me about products and I'll find the best matches."
	}
	if settings.RefreshSeconds <= 0 {
		settings.RefreshSeconds = 1
	}
	if len(settings.AllowedOrigins) == 0 {
		settings.AllowedOrigins = []string{"*"}
	}

	html, err := render.NewHTML(settings.SiteURL)
	if err != nil {
		return nil, err
	}

	s := &Server{
		settings: settings,
		asker:    asker,
		html:     html,
		logger:   zerolog.Nop(),
		now:      time.Now,
		baseCtx:  context.Background(),
		router:   mux.NewRouter(),
		sessions: make(map[string]*browserSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.sessionCount)

	s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   settings.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", "X-Requested-With"},
		AllowCredentials: true,
	})
	s.handler = c.Handler(s.router)

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	s.router.HandleFunc("/messages", s.handleMessages).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	var static http.FileSystem = http.FS(render.Static())
	if s.settings.StaticDir != "" {
		static = http.Dir(s.settings.StaticDir)
	}
	s.router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(static)))
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled or the process is interrupted, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srvCtx, srvCancel := context.WithCancel(ctx)
	defer srvCancel()
	s.baseCtx = srvCtx

	httpServer := &http.Server{
		Addr:              s.settings.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(srvCtx)

	eg.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			s.logger.Info().Msg("received interrupt signal, shutting down gracefully...")
		case <-egCtx.Done():
		}
		srvCancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown error")
			return err
		}
		s.logger.Info().Msg("server shutdown complete")
		return nil
	})

	if s.settings.IdleTTL > 0 {
		eg.Go(func() error {
			s.janitor(egCtx)
			return nil
		})
	}

	eg.Go(func() error {
		s.logger.Info().Str("addr", s.settings.Addr).Msg("starting chat widget server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("server listen error")
			return errors.Wrap(err, "listen")
		}
		return nil
	})

	return eg.Wait()
}

func (s *Server) janitor(ctx context.Context) {
	interval := s.settings.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictIdle(); n > 0 {
				s.logger.Debug().Int("evicted", n).Msg("dropped idle transcripts")
			}
		}
	}
}

// evictIdle drops idle, non-busy sessions and returns how many were dropped.
func (s *Server) evictIdle() int {
	if s.settings.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.settings.IdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) && !sess.ctrl.Busy() {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// sessionCount returns the number of live browser sessions.
func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// controllerFor returns the browser's controller, creating one (and
// setting the cookie) when the request carries no known session.
func (s *Server) controllerFor(w http.ResponseWriter, r *http.Request) *widget.Controller {
	now := s.now()

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			s.mu.Lock()
			sess, ok := s.sessions[cookie.Value]
			if ok {
				sess.lastSeen = now
			}
			s.mu.Unlock()
			if ok {
				return sess.ctrl
			}
		}
	}

	id := uuid.New().String()
	ctrl := widget.New(s.asker,
		widget.WithLogger(s.logger.With().Str("session", id[:8]).Logger()),
		widget.WithErrorText(s.settings.ErrorText),
	)

	s.mu.Lock()
	s.sessions[id] = &browserSession{ctrl: ctrl, lastSeen: now}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info().Str("session", id[:8]).Msg("new browser session")
	return ctrl
}
