package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partdesk-core-poc-v1/server/internal/agent/planner"
	"github.com/partdesk-core-poc-v1/server/internal/agent/reference"
	"github.com/partdesk-core-poc-v1/server/internal/agent/service"
	"github.com/partdesk-core-poc-v1/server/internal/core"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

// ChatService is the agent surface the routes call.
type ChatService interface {
	HandleMessage(ctx context.Context, conversationID, message string) (service.ChatReply, error)
	GetSession(ctx context.Context, conversationID string) (service.SessionView, error)
	DeleteSession(ctx context.Context, conversationID string) (bool, error)
	CacheStats() planner.CacheStats
}

// StatsProvider reports reference data counts for /health.
type StatsProvider interface {
	Stats() reference.Stats
}

// HTTPServer holds all dependencies for the HTTP server.
type HTTPServer struct {
	// Server
	gin             *gin.Engine
	port            int
	mode            string
	environment     core.Environment
	shutdownTimeout time.Duration
	maxMessageChars int

	// Agent
	chat  ChatService
	stats StatsProvider
}

// Config is the dependency bag passed to New().
type Config struct {
	Port            int
	Mode            string
	Environment     core.Environment
	ShutdownTimeout time.Duration
	MaxMessageChars int

	Chat  ChatService
	Stats StatsProvider
}

// New creates a new HTTPServer with every route registered.
func New(cfg Config) (*HTTPServer, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = cfg.Environment.GinMode()
	}
	gin.SetMode(mode)

	srv := &HTTPServer{
		gin:             gin.New(),
		port:            cfg.Port,
		mode:            mode,
		environment:     cfg.Environment,
		shutdownTimeout: cfg.ShutdownTimeout,
		maxMessageChars: cfg.MaxMessageChars,
		chat:            cfg.Chat,
		stats:           cfg.Stats,
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}
	srv.mapHandlers()

	return srv, nil
}

func (srv *HTTPServer) validate() error {
	if srv.port == 0 {
		return errors.New("port is required")
	}
	if srv.chat == nil {
		return errors.New("chat service is required")
	}
	if srv.stats == nil {
		return errors.New("stats provider is required")
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (srv *HTTPServer) Handler() http.Handler {
	return srv.gin
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (srv *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", srv.port),
		Handler:           srv.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Int("port", srv.port).Str("mode", srv.mode).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := srv.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logx.Info().Msg("HTTP server shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
