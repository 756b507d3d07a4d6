package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/tarefas-api/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort defines the task operations available to other modules.
// Consumers should use this interface instead of directly referencing the Module.
type TaskPort interface {
	Create(ctx context.Context, req CreateTaskRequest) (*domain.Task, error)
	List(ctx context.Context, page, pageSize int) (*PageResult, error)
	Get(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, id string, req UpdateTaskRequest) (*domain.Task, error)
	ToggleStatus(ctx context.Context, id string) (*domain.Task, error)
	ListByStatus(ctx context.Context, token string) ([]domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// taskAdapter implements TaskPort by calling the task request-reply services.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for the task services.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	return &taskAdapter{container: container}
}

// callService sends req to a task service and decodes the reply into resp.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// callTask is shared by the operations that answer with a single task.
func callTask[Req any](ctx context.Context, container mono.ServiceContainer, service string, req Req) (*domain.Task, error) {
	var resp TaskResponse
	if err := callService(ctx, container, service, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Task, nil
}

// Create calls the create service.
func (a *taskAdapter) Create(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	return callTask(ctx, a.container, ServiceCreate, req)
}

// List calls the list service.
func (a *taskAdapter) List(ctx context.Context, page, pageSize int) (*PageResult, error) {
	req := ListTasksRequest{Page: &page, PageSize: &pageSize}
	var resp ListTasksResponse
	if err := callService(ctx, a.container, ServiceList, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Page, nil
}

// Get calls the get service.
func (a *taskAdapter) Get(ctx context.Context, id string) (*domain.Task, error) {
	return callTask(ctx, a.container, ServiceGet, GetTaskRequest{ID: id})
}

// Update calls the update service.
func (a *taskAdapter) Update(ctx context.Context, id string, req UpdateTaskRequest) (*domain.Task, error) {
	req.ID = id
	return callTask(ctx, a.container, ServiceUpdate, req)
}

// ToggleStatus calls the toggle-status service.
func (a *taskAdapter) ToggleStatus(ctx context.Context, id string) (*domain.Task, error) {
	return callTask(ctx, a.container, ServiceToggleStatus, GetTaskRequest{ID: id})
}

// ListByStatus calls the list-by-status service.
func (a *taskAdapter) ListByStatus(ctx context.Context, token string) ([]domain.Task, error) {
	req := ListByStatusRequest{Status: token}
	var resp TaskListResponse
	if err := callService(ctx, a.container, ServiceListByStatus, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	if resp.Tasks == nil {
		resp.Tasks = []domain.Task{}
	}
	return resp.Tasks, nil
}

// Delete calls the delete service.
func (a *taskAdapter) Delete(ctx context.Context, id string) error {
	req := GetTaskRequest{ID: id}
	var resp DeleteTaskResponse
	if err := callService(ctx, a.container, ServiceDelete, &req, &resp); err != nil {
		return err
	}
	return resp.Error.Err()
}
