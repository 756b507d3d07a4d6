// Package api is the driving adapter that exposes the task services over
// HTTP with Fiber and serves the embedded front-end.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/example/tarefas-api/modules/activity"
	"github.com/example/tarefas-api/modules/cache"
	"github.com/example/tarefas-api/modules/task"
	"github.com/example/tarefas-api/web"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config holds the HTTP settings.
type Config struct {
	Port        int
	CORSOrigins string
	// RateLimit is the number of /api requests allowed per minute per IP. Zero disables it.
	RateLimit int
}

// ActivityFeed exposes the most recent task activity.
type ActivityFeed interface {
	Recent(limit int) []activity.Entry
}

// HealthChecker is anything that can report its health, typically a module.
type HealthChecker interface {
	Health(ctx context.Context) mono.HealthStatus
}

// Module implements the HTTP server module using Fiber.
type Module struct {
	app    *fiber.App
	cfg    Config
	tasks  task.TaskPort
	feed   ActivityFeed
	checks map[string]HealthChecker
	cache  *cache.PluginModule
	logger types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new HTTP API module.
func NewModule(cfg Config, feed ActivityFeed, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		feed:   feed,
		checks: make(map[string]HealthChecker),
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "task" {
		m.tasks = task.NewTaskAdapter(container)
	}
}

// SetPlugin receives the cache plugin, whose Redis storage backs the rate limiter.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "cache" {
		cachePlugin, ok := plugin.(*cache.PluginModule)
		if !ok {
			m.logger.Error("Invalid plugin type for cache",
				"alias", alias,
				"expected", "*cache.PluginModule")
			return
		}
		m.cache = cachePlugin
	}
}

// AddHealthCheck includes a module in the /health report.
func (m *Module) AddHealthCheck(name string, check HealthChecker) {
	m.checks[name] = check
}

// Start initializes and starts the HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.tasks == nil {
		return fmt.Errorf("task dependency not set")
	}

	m.setupApp()

	addr := ":" + strconv.Itoa(m.cfg.Port)

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	// Wait briefly to catch immediate startup errors (port in use, permission denied)
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", addr, "rate_limit", m.cfg.RateLimit)
	return nil
}

// setupApp builds the Fiber app with middleware and routes.
func (m *Module) setupApp() {
	m.app = fiber.New(fiber.Config{
		AppName:               "Tarefas API",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: m.cfg.CORSOrigins,
		AllowMethods: "GET,POST,PATCH,PUT,DELETE",
		AllowHeaders: "Content-Type",
	}))

	m.registerRoutes()

	m.app.Use("/", filesystem.New(filesystem.Config{
		Root:  http.FS(web.Files),
		Index: "index.html",
	}))
	m.app.Use(m.notFound)
}

// rateLimiter limits /api requests per client IP. Counters live in Redis when
// the cache plugin provides storage, in memory otherwise.
func (m *Module) rateLimiter() fiber.Handler {
	var storage fiber.Storage
	if m.cache != nil {
		storage = m.cache.Storage()
	}
	return limiter.New(limiter.Config{
		Max:        m.cfg.RateLimit,
		Expiration: time.Minute,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "ratelimit:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{Err: msgTooMany})
		},
	})
}

// Stop gracefully shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	m.logger.Info("HTTP server stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":       m.cfg.Port,
			"rate_limit": m.cfg.RateLimit,
		},
	}
}

// errorHandler handles errors returned by handlers and middleware.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := msgInternal

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		m.logger.Error("Unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	}

	if code == fiber.StatusNotFound {
		return c.Status(code).JSON(fiber.Map{"message": msgRouteNotFound})
	}
	return c.Status(code).JSON(ErrorResponse{Err: message})
}
