package task

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	domain "github.com/example/tarefas-api/domain/task"
	"github.com/example/tarefas-api/events"
	"github.com/example/tarefas-api/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Service implements the task use cases on top of a repository, with
// cache-aside reads and best-effort lifecycle events.
type Service struct {
	repo        domain.Repository
	cache       cache.CacheService
	eventBus    mono.EventBus
	logger      types.Logger
	maxPageSize int
	sfGroup     singleflight.Group

	// listGen is part of every listing key. Writes bump it so a listing
	// read before the write can never be cached under a current key.
	listGen atomic.Uint64
}

// NewService creates a new task service. eventBus may be nil.
func NewService(repo domain.Repository, c cache.CacheService, eventBus mono.EventBus, logger types.Logger, maxPageSize int) *Service {
	if c == nil {
		c = cache.NoopCache{}
	}
	// The default page must always be accepted.
	if maxPageSize < DefaultPageSize {
		maxPageSize = DefaultPageSize
	}
	return &Service{
		repo:        repo,
		cache:       c,
		eventBus:    eventBus,
		logger:      logger,
		maxPageSize: maxPageSize,
	}
}

func cacheKeyByID(id string) string {
	return "id:" + id
}

func cacheKeyList(gen uint64, page, pageSize int) string {
	return fmt.Sprintf("lista:%d:%d:%d", gen, page, pageSize)
}

func cacheKeyStatus(gen uint64, status domain.Status) string {
	return fmt.Sprintf("status:%d:%s", gen, status)
}

// Create validates and stores a new pending task.
func (s *Service) Create(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	t := &domain.Task{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}

	s.invalidateLists(ctx)

	if s.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			Status:    string(t.Status),
			CreatedAt: t.CreatedAt,
		}
		if err := events.TaskCreatedV1.Publish(s.eventBus, event, nil); err != nil {
			s.logger.Warn("Failed to publish TaskCreated event", "id", t.ID, "error", err)
		}
	}

	s.logger.Info("Task created", "id", t.ID)
	return t, nil
}

// List returns one page of tasks, newest first, with paging metadata.
func (s *Service) List(ctx context.Context, page, pageSize int) (*PageResult, error) {
	if err := ValidatePagination(page, pageSize, s.maxPageSize); err != nil {
		return nil, err
	}

	cacheKey := cacheKeyList(s.listGen.Load(), page, pageSize)
	var cached PageResult
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.logger.Warn("Cache error for list", "key", cacheKey, "error", err)
	}
	if found {
		return &cached, nil
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)

	// Pages past the last one are empty. Checking first also keeps the
	// offset below total, so it cannot overflow for huge page numbers.
	tasks := []domain.Task{}
	if int64(page-1) < totalPages {
		tasks, err = s.repo.FindPage(ctx, (page-1)*pageSize, pageSize)
		if err != nil {
			return nil, err
		}
	}

	result := &PageResult{
		Meta: PageMeta{
			Total:        total,
			TotalPaginas: totalPages,
			Pagina:       page,
			PorPagina:    pageSize,
		},
		Data: tasks,
	}

	if err := s.cache.Set(ctx, cacheKey, result); err != nil {
		s.logger.Warn("Failed to cache list", "key", cacheKey, "error", err)
	}
	return result, nil
}

// Get returns a single task. Concurrent misses for the same id share one query.
func (s *Service) Get(ctx context.Context, id string) (*domain.Task, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	cacheKey := cacheKeyByID(id)
	var cached domain.Task
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.logger.Warn("Cache error for task", "id", id, "error", err)
	}
	if found {
		return &cached, nil
	}

	// Waiters share the leader's query, so one caller going away must not fail the rest.
	sharedCtx := context.WithoutCancel(ctx)
	val, err, _ := s.sfGroup.Do(cacheKey, func() (any, error) {
		return s.repo.FindByID(sharedCtx, id)
	})
	if err != nil {
		return nil, err
	}
	t := val.(*domain.Task)

	if err := s.cache.Set(ctx, cacheKey, t); err != nil {
		s.logger.Warn("Failed to cache task", "id", id, "error", err)
	}

	// The shared value must not be mutated by callers.
	out := *t
	return &out, nil
}

// Update overwrites title, description and status. It never creates a task.
func (s *Service) Update(ctx context.Context, id string, req UpdateTaskRequest) (*domain.Task, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Status = req.Status
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.invalidateTask(ctx, id)

	if s.eventBus != nil {
		event := events.TaskUpdatedEvent{
			TaskID:    existing.ID,
			Title:     existing.Title,
			Status:    string(existing.Status),
			UpdatedAt: time.Now(),
		}
		if err := events.TaskUpdatedV1.Publish(s.eventBus, event, nil); err != nil {
			s.logger.Warn("Failed to publish TaskUpdated event", "id", id, "error", err)
		}
	}

	s.logger.Info("Task updated", "id", id)
	return existing, nil
}

// ToggleStatus flips a task between pending and done.
func (s *Service) ToggleStatus(ctx context.Context, id string) (*domain.Task, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := t.Status
	t.Status = from.Toggle()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.invalidateTask(ctx, id)

	if s.eventBus != nil {
		event := events.TaskStatusToggledEvent{
			TaskID:     t.ID,
			FromStatus: string(from),
			ToStatus:   string(t.Status),
			ToggledAt:  time.Now(),
		}
		if err := events.TaskStatusToggledV1.Publish(s.eventBus, event, nil); err != nil {
			s.logger.Warn("Failed to publish TaskStatusToggled event", "id", id, "error", err)
		}
	}

	s.logger.Info("Task status toggled", "id", id, "from", from, "to", t.Status)
	return t, nil
}

// ListByStatus returns every task with the given status, newest first.
func (s *Service) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error) {
	if !status.Valid() {
		return nil, NewValidationError(FieldError{Field: "status", Message: "é inválido"})
	}

	cacheKey := cacheKeyStatus(s.listGen.Load(), status)
	var cached []domain.Task
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.logger.Warn("Cache error for status list", "key", cacheKey, "error", err)
	}
	if found {
		return cached, nil
	}

	tasks, err := s.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, tasks); err != nil {
		s.logger.Warn("Failed to cache status list", "key", cacheKey, "error", err)
	}
	return tasks, nil
}

// Delete permanently removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateTask(ctx, id)

	if s.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    id,
			DeletedAt: time.Now(),
		}
		if err := events.TaskDeletedV1.Publish(s.eventBus, event, nil); err != nil {
			s.logger.Warn("Failed to publish TaskDeleted event", "id", id, "error", err)
		}
	}

	s.logger.Info("Task deleted", "id", id)
	return nil
}

// invalidateTask drops the cached task and every cached listing.
func (s *Service) invalidateTask(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, cacheKeyByID(id)); err != nil {
		s.logger.Warn("Failed to invalidate task cache", "id", id, "error", err)
	}
	s.invalidateLists(ctx)
}

func (s *Service) invalidateLists(ctx context.Context) {
	s.listGen.Add(1)
	for _, pattern := range []string{"lista:*", "status:*"} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			s.logger.Warn("Failed to invalidate list cache", "pattern", pattern, "error", err)
		}
	}
}

// toServiceError converts a service failure into its wire form.
func toServiceError(err error) *ServiceError {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return &ServiceError{Code: CodeValidation, Message: verr.Message, Fields: verr.Fields}
	case errors.Is(err, domain.ErrNotFound):
		return &ServiceError{Code: CodeNotFound, Message: domain.ErrNotFound.Error()}
	default:
		return &ServiceError{Code: CodeInternal, Message: "erro interno"}
	}
}

// Err restores the error kind carried by a ServiceError.
func (e *ServiceError) Err() error {
	if e == nil {
		return nil
	}
	switch e.Code {
	case CodeValidation:
		return &ValidationError{Message: e.Message, Fields: e.Fields}
	case CodeNotFound:
		return domain.ErrNotFound
	default:
		return fmt.Errorf("task service: %s", e.Message)
	}
}
