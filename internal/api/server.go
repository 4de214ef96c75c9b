// Package api provides the HTTP REST API and WebSocket server of the
// Homematic bridge.
//
// It exposes the devices and entities of the central, accepts light, switch
// and cover commands, and streams entity updates and interface events to
// WebSocket clients.
//
// Every route except /api/v1/health needs a bearer token minted by
// cmd/hmtoken. The token's role decides what the caller may do (see
// package auth).
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/bridge"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/cache"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/client"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"
	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Central is the part of the Homematic central the API reads from.
// *central.Central satisfies it.
type Central interface {
	Entity(uniqueID string) (entity.CustomEntity, error)
	Entities() []entity.CustomEntity
	Device(address string) (*entity.Device, bool)
	Devices() []*entity.Device
	Client(interfaceID string) (client.Client, bool)
	Clients() []client.Client
	Available(interfaceID string) bool
	DeviceDetails() *cache.DeviceDetailsCache
	DataCache() *cache.CentralDataCache
	LoadAndRefreshEntityData(ctx context.Context, paramsetKey homematic.ParamsetKey)
	AddEntityUpdateHandler(fn func(entity.CustomEntity))
	AddEventHandler(fn homematic.EventFunc)
}

// CommandExecutor runs entity commands. *bridge.Bridge satisfies it.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd bridge.CommandMessage) bridge.AckMessage
}

// HealthSource reports the bridge health. *bridge.HealthReporter satisfies it.
type HealthSource interface {
	Current() bridge.HealthMessage
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Central  Central
	Commands CommandExecutor
	Health   HealthSource // optional; without it health is derived from the central
	Version  string
}

// Server is the HTTP API server of the Homematic bridge.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	central   Central
	commands  CommandExecutor
	health    HealthSource
	version   string
	startTime time.Time

	server   *http.Server
	listener net.Listener
	hub      *Hub
	cancel   context.CancelFunc // cancels background goroutines on Close()
	mu       sync.Mutex
}

// New creates a new API server with the given dependencies.
//
// It creates the WebSocket hub and registers the hub with the central for
// entity updates and interface events. The server is not started until
// Start() is called.
//
// Parameters:
//   - deps: Logger, Central and Commands are required; Health is optional
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If a required dependency is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Central == nil {
		return nil, fmt.Errorf("central is required")
	}
	if deps.Commands == nil {
		return nil, fmt.Errorf("command executor is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		central:   deps.Central,
		commands:  deps.Commands,
		health:    deps.Health,
		version:   deps.Version,
		startTime: time.Now(),
	}
	s.hub = NewHub(s.wsCfg, s.logger)

	deps.Central.AddEntityUpdateHandler(s.broadcastEntity)
	deps.Central.AddEventHandler(s.broadcastEvent)

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server can be stopped with Close().
//
// Returns an error if the address cannot be bound.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("API server starting", "address", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It closes the WebSocket hub, then waits up to 10 seconds for in-flight
// requests to complete.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}

// HealthCheck reports whether the server is accepting connections.
func (s *Server) HealthCheck(_ context.Context) error {
	if s.Addr() == "" {
		return fmt.Errorf("API server not started")
	}
	return nil
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }
