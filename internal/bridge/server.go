package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wulfaz/karotzctl/internal/karotz"
	"github.com/wulfaz/karotzctl/internal/logging"
)

const (
	// DefaultListen is the address the bridge binds when none is given
	DefaultListen = ":8080"

	// DefaultPollInterval is how often the bridge refreshes the rabbit's status
	DefaultPollInterval = 30 * time.Second

	shutdownTimeout = 10 * time.Second
)

// Config holds the bridge configuration
type Config struct {
	Listen       string
	PollInterval time.Duration // 0 disables polling
	DefaultVoice string        // Voice used by tts when the request names none
}

// Server exposes one rabbit over REST and WebSocket
type Server struct {
	client   *karotz.Client
	config   Config
	router   *mux.Router
	hub      *hub
	commands map[string]command

	lastMu sync.Mutex
	last   karotz.State
}

// New creates a bridge for client
func New(client *karotz.Client, config Config) *Server {
	if config.Listen == "" {
		config.Listen = DefaultListen
	}
	if config.DefaultVoice == "" {
		config.DefaultVoice = "1"
	}

	s := &Server{
		client: client,
		config: config,
		hub:    newHub(),
		last:   client.State(),
	}
	s.registerCommands()
	s.routes()
	return s
}

// Handler returns the HTTP handler serving the API and the WebSocket
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Starting Karotz bridge",
		zap.String("addr", s.config.Listen),
		zap.String("device", s.client.BaseURL),
		zap.Duration("poll_interval", s.config.PollInterval),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.ListenAndServe()
	}()

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	if s.config.PollInterval > 0 {
		go s.poll(pollCtx)
	}

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("bridge server failed: %w", err)
	case <-ctx.Done():
	}

	logging.Info("Shutting down bridge...")
	stopPolling()
	s.hub.closeAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		return httpServer.Close()
	}

	logging.Info("Bridge stopped")
	logging.Sync()
	return nil
}

// poll refreshes the status on every tick and pushes it to WebSocket sessions
func (s *Server) poll(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.client.Refresh(ctx); err != nil {
				logging.Warn("Status poll failed", zap.String("kind", karotz.ErrorKind(err)), zap.Error(err))
			}
			s.publishState()
		}
	}
}

// publishState logs what changed since the last publication and sends the
// current state to every session.
func (s *Server) publishState() {
	state := s.client.State()

	s.lastMu.Lock()
	previous := s.last
	s.last = state
	s.lastMu.Unlock()

	if diff := karotz.FormatDiff(previous, state); diff != noDifferences {
		logging.Info("Karotz state changed", zap.String("diff", diff))
	}

	s.hub.broadcast(stateMessage(state))
}

const noDifferences = "(no differences detected)"

// Sessions returns the number of connected WebSocket sessions
func (s *Server) Sessions() int {
	return s.hub.count()
}
