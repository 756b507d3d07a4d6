package task

import (
	domain "github.com/example/tarefas-api/domain/task"
)

// Default paging used when the caller omits pagina/porPagina.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Title       string  `json:"titulo" validate:"required,min=2,max=255"`
	Description *string `json:"descricao"`
}

// UpdateTaskRequest overwrites every mutable field of a task.
type UpdateTaskRequest struct {
	ID          string        `json:"id,omitempty"`
	Title       string        `json:"titulo" validate:"required,min=2,max=255"`
	Description *string       `json:"descricao"`
	Status      domain.Status `json:"status" validate:"required,oneof=PENDENTE CONCLUIDA"`
}

// GetTaskRequest identifies a single task.
type GetTaskRequest struct {
	ID string `json:"id"`
}

// ListTasksRequest asks for one page of tasks. Omitted values take the defaults.
type ListTasksRequest struct {
	Page     *int `json:"pagina,omitempty"`
	PageSize *int `json:"porPagina,omitempty"`
}

// ListByStatusRequest filters tasks by a status token ("pendente" or "concluida").
type ListByStatusRequest struct {
	Status string `json:"status"`
}

// PageMeta describes the page returned by List.
type PageMeta struct {
	Total        int64 `json:"total"`
	TotalPaginas int64 `json:"totalpaginas"`
	Pagina       int   `json:"pagina"`
	PorPagina    int   `json:"porPagina"`
}

// PageResult is one page of tasks plus its metadata.
type PageResult struct {
	Meta PageMeta      `json:"meta"`
	Data []domain.Task `json:"data"`
}

// ServiceError carries a failure across the request-reply boundary so the
// caller can restore the original error kind.
type ServiceError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// Service error codes.
const (
	CodeValidation = "validation"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal"
)

// TaskResponse wraps a single task or an error.
type TaskResponse struct {
	Task  *domain.Task  `json:"tarefa,omitempty"`
	Error *ServiceError `json:"error,omitempty"`
}

// ListTasksResponse wraps a page of tasks or an error.
type ListTasksResponse struct {
	Page  *PageResult   `json:"pagina,omitempty"`
	Error *ServiceError `json:"error,omitempty"`
}

// TaskListResponse wraps an unpaginated task list or an error.
type TaskListResponse struct {
	Tasks []domain.Task `json:"tarefas"`
	Error *ServiceError `json:"error,omitempty"`
}

// DeleteTaskResponse is the response after deleting a task.
type DeleteTaskResponse struct {
	Deleted bool          `json:"deleted"`
	ID      string        `json:"id"`
	Error   *ServiceError `json:"error,omitempty"`
}
