// Package task is the core module: it owns the database connection and
// exposes the task service over mono request-reply services.
package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/tarefas-api/domain/task"
	"github.com/example/tarefas-api/events"
	"github.com/example/tarefas-api/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Service names. The framework prefixes them with "services.task.".
const (
	ServiceCreate       = "create"
	ServiceList         = "list"
	ServiceGet          = "get"
	ServiceUpdate       = "update"
	ServiceToggleStatus = "toggle-status"
	ServiceListByStatus = "list-by-status"
	ServiceDelete       = "delete"
)

// Config holds the database settings of the task module.
type Config struct {
	Driver      string
	DSN         string
	Debug       bool
	MaxPageSize int
}

// Module provides task management backed by GORM.
type Module struct {
	cfg      Config
	db       *gorm.DB
	repo     *domain.GormRepository
	service  *Service
	cache    *cache.PluginModule
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
)

// NewModule creates a new task module.
func NewModule(cfg Config, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// SetPlugin receives the cache plugin from the framework.
// This is called before Start() when the module implements UsePluginModule.
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
		m.logger.Info("Received cache plugin", "alias", alias, "enabled", cachePlugin.Enabled())
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskStatusToggledV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreate, json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreate, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceList, json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceList, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGet, json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGet, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdate, json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdate, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceToggleStatus, json.Unmarshal, json.Marshal, m.handleToggleStatus,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceToggleStatus, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListByStatus, json.Unmarshal, json.Marshal, m.handleListByStatus,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListByStatus, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDelete, json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDelete, err)
	}

	m.logger.Info("Registered task services",
		"services", []string{ServiceCreate, ServiceList, ServiceGet, ServiceUpdate,
			ServiceToggleStatus, ServiceListByStatus, ServiceDelete})
	return nil
}

// Start opens the database, runs migrations and builds the service.
func (m *Module) Start(_ context.Context) error {
	dialector, err := openDialector(m.cfg.Driver, m.cfg.DSN)
	if err != nil {
		return err
	}

	logLevel := logger.Silent
	if m.cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if m.cfg.Driver == "sqlite" {
		// SQLite serializes writers, and each ":memory:" connection is its own database.
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	m.repo = domain.NewRepository(db)

	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var taskCache cache.CacheService = cache.NoopCache{}
	if m.cache != nil {
		taskCache = m.cache.Cache()
	} else {
		m.logger.Warn("Cache plugin not registered, caching disabled")
	}
	if m.eventBus == nil {
		m.logger.Warn("EventBus not set, events will not be published")
	}

	m.service = NewService(m.repo, taskCache, m.eventBus, m.logger, m.cfg.MaxPageSize)

	m.logger.Info("Task module started", "driver", m.cfg.Driver)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	m.logger.Info("Task module stopped, database connection closed")
	return nil
}

// Health performs a health check on the task module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	stats := sqlDB.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":           m.cfg.Driver,
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
		},
	}
}

func openDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}
