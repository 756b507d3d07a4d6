package task

import (
	"context"

	"github.com/go-monolith/mono"
)

// Request-reply handlers. Domain failures travel in the response's error
// field so the caller can tell validation, not-found and internal errors apart.

func (m *Module) handleCreate(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Create(ctx, req)
	if err != nil {
		return TaskResponse{Error: m.serviceError("create", err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

func (m *Module) handleList(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	page, pageSize := DefaultPage, DefaultPageSize
	if req.Page != nil {
		page = *req.Page
	}
	if req.PageSize != nil {
		pageSize = *req.PageSize
	}
	result, err := m.service.List(ctx, page, pageSize)
	if err != nil {
		return ListTasksResponse{Error: m.serviceError("list", err)}, nil
	}
	return ListTasksResponse{Page: result}, nil
}

func (m *Module) handleGet(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Get(ctx, req.ID)
	if err != nil {
		return TaskResponse{Error: m.serviceError("get", err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

func (m *Module) handleUpdate(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Update(ctx, req.ID, req)
	if err != nil {
		return TaskResponse{Error: m.serviceError("update", err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

func (m *Module) handleToggleStatus(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.ToggleStatus(ctx, req.ID)
	if err != nil {
		return TaskResponse{Error: m.serviceError("toggle-status", err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

func (m *Module) handleListByStatus(ctx context.Context, req ListByStatusRequest, _ *mono.Msg) (TaskListResponse, error) {
	status, err := ParseStatusFilter(req.Status)
	if err != nil {
		return TaskListResponse{Error: m.serviceError("list-by-status", err)}, nil
	}
	tasks, err := m.service.ListByStatus(ctx, status)
	if err != nil {
		return TaskListResponse{Error: m.serviceError("list-by-status", err)}, nil
	}
	return TaskListResponse{Tasks: tasks}, nil
}

func (m *Module) handleDelete(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.ID); err != nil {
		return DeleteTaskResponse{ID: req.ID, Error: m.serviceError("delete", err)}, nil
	}
	return DeleteTaskResponse{Deleted: true, ID: req.ID}, nil
}

// serviceError logs internal failures, whose cause is never sent to callers.
func (m *Module) serviceError(op string, err error) *ServiceError {
	se := toServiceError(err)
	if se.Code == CodeInternal {
		m.logger.Error("Task operation failed", "operation", op, "error", err)
	}
	return se
}
