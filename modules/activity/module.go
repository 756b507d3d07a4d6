// Package activity keeps an in-memory feed of recent task lifecycle events.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/tarefas-api/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 100

// Entry types.
const (
	TypeCreated       = "tarefa_criada"
	TypeUpdated       = "tarefa_atualizada"
	TypeStatusToggled = "status_alterado"
	TypeDeleted       = "tarefa_removida"
)

// Entry is one item of the activity feed.
type Entry struct {
	TaskID    string    `json:"tarefaId"`
	Type      string    `json:"tipo"`
	Message   string    `json:"mensagem"`
	Timestamp time.Time `json:"timestamp"`
}

// Module consumes task events and keeps the most recent ones.
type Module struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	logger   types.Logger
}

var (
	_ mono.Module              = (*Module)(nil)
	_ mono.EventConsumerModule = (*Module)(nil)
)

// NewModule creates a new activity module keeping at most capacity entries.
func NewModule(capacity int, logger types.Logger) *Module {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Module{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

func (m *Module) Name() string {
	return "activity"
}

func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskStatusToggledV1, m.handleTaskStatusToggled, m); err != nil {
		return fmt.Errorf("failed to register TaskStatusToggled consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{"TaskCreated", "TaskUpdated", "TaskStatusToggled", "TaskDeleted"})
	return nil
}

func (m *Module) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, TypeCreated, fmt.Sprintf("Tarefa '%s' criada", event.Title), event.CreatedAt)
	return nil
}

func (m *Module) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, TypeUpdated, fmt.Sprintf("Tarefa '%s' atualizada", event.Title), event.UpdatedAt)
	return nil
}

func (m *Module) handleTaskStatusToggled(_ context.Context, event events.TaskStatusToggledEvent, _ *mono.Msg) error {
	m.record(event.TaskID, TypeStatusToggled,
		fmt.Sprintf("Status alterado de %s para %s", event.FromStatus, event.ToStatus), event.ToggledAt)
	return nil
}

func (m *Module) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, TypeDeleted, "Tarefa removida", event.DeletedAt)
	return nil
}

func (m *Module) record(taskID, entryType, message string, at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == m.capacity {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, Entry{
		TaskID:    taskID,
		Type:      entryType,
		Message:   message,
		Timestamp: at,
	})
	m.logger.Debug("Activity recorded", "task_id", taskID, "type", entryType)
}

// Recent returns up to limit entries, newest first. A non-positive limit returns all.
func (m *Module) Recent(limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	result := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, m.entries[i])
	}
	return result
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started, listening for task events", "capacity", m.capacity)
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped")
	return nil
}
