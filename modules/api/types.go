package api

import (
	"errors"

	domain "github.com/example/tarefas-api/domain/task"
	"github.com/example/tarefas-api/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Response messages.
const (
	msgRouteNotFound = "Rota não Encontrada"
	msgTaskNotFound  = "Tarefa não encontrada"
	msgInternal      = "Erro interno do servidor"
	msgInvalidBody   = "Corpo da requisição inválido"
	msgTaskUpdated   = "Tarefa Atualizada"
	msgTooMany       = "Muitas requisições, tente novamente mais tarde"
)

// ErrorResponse is the body of every 4xx/5xx answer from the task routes.
type ErrorResponse struct {
	Err     string            `json:"err"`
	Details []task.FieldError `json:"details,omitempty"`
}

// UpdateResponse is the body returned by PUT /api/tarefas/:id.
type UpdateResponse struct {
	Message          string       `json:"message"`
	TarefaAtualizada *domain.Task `json:"tarefaAtualizada"`
}

// HealthResponse reports the aggregated health of the application modules.
type HealthResponse struct {
	Status  string                  `json:"status"`
	Modules map[string]ModuleHealth `json:"modules"`
}

// ModuleHealth is the health of a single module.
type ModuleHealth struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError maps service errors onto HTTP status codes.
func (m *Module) writeError(c *fiber.Ctx, err error) error {
	var verr *task.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Err:     verr.Message,
			Details: verr.Fields,
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Err: msgTaskNotFound})
	default:
		m.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Err: msgInternal})
	}
}
