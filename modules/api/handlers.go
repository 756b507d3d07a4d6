package api

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/example/tarefas-api/modules/task"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultActivityLimit = 20
	healthCheckTimeout   = 2 * time.Second
)

// registerRoutes sets up all HTTP routes.
func (m *Module) registerRoutes() {
	m.app.Get("/health", m.healthCheck)

	m.app.Get("/api-docs.json", m.serveOpenAPI)
	m.app.Get("/api-docs", m.swaggerUI)

	api := m.app.Group("/api")
	if m.cfg.RateLimit > 0 {
		api.Use(m.rateLimiter())
	}

	tarefas := api.Group("/tarefas")
	tarefas.Post("/", m.createTask)
	tarefas.Get("/", m.listTasks)
	// Registered before /:id so "status" is never taken for an id.
	tarefas.Get("/status/:status", m.listTasksByStatus)
	tarefas.Get("/:id", m.getTask)
	tarefas.Put("/:id", m.updateTask)
	tarefas.Patch("/:id/status", m.toggleTaskStatus)
	tarefas.Delete("/:id", m.deleteTask)

	api.Get("/atividades", m.listActivity)
}

// createTask handles POST /api/tarefas.
func (m *Module) createTask(c *fiber.Ctx) error {
	body, err := parseBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Err: msgInvalidBody})
	}

	created, err := m.tasks.Create(c.UserContext(), task.DecodeCreate(body))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// listTasks handles GET /api/tarefas?pagina=&porPagina=.
func (m *Module) listTasks(c *fiber.Ctx) error {
	page, pageSize, err := task.ParsePagination(c.Query("pagina"), c.Query("porPagina"))
	if err != nil {
		return m.writeError(c, err)
	}

	result, err := m.tasks.List(c.UserContext(), page, pageSize)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(result)
}

// getTask handles GET /api/tarefas/:id.
func (m *Module) getTask(c *fiber.Ctx) error {
	t, err := m.tasks.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(t)
}

// updateTask handles PUT /api/tarefas/:id.
func (m *Module) updateTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := task.ValidateID(id); err != nil {
		return m.writeError(c, err)
	}

	body, err := parseBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Err: msgInvalidBody})
	}
	req, err := task.DecodeUpdate(body)
	if err != nil {
		return m.writeError(c, err)
	}

	updated, err := m.tasks.Update(c.UserContext(), id, req)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(UpdateResponse{
		Message:          msgTaskUpdated,
		TarefaAtualizada: updated,
	})
}

// toggleTaskStatus handles PATCH /api/tarefas/:id/status. The body is ignored.
func (m *Module) toggleTaskStatus(c *fiber.Ctx) error {
	t, err := m.tasks.ToggleStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(t)
}

// listTasksByStatus handles GET /api/tarefas/status/:status.
func (m *Module) listTasksByStatus(c *fiber.Ctx) error {
	tasks, err := m.tasks.ListByStatus(c.UserContext(), c.Params("status"))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(tasks)
}

// deleteTask handles DELETE /api/tarefas/:id.
func (m *Module) deleteTask(c *fiber.Ctx) error {
	if err := m.tasks.Delete(c.UserContext(), c.Params("id")); err != nil {
		return m.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// listActivity handles GET /api/atividades?limite=.
func (m *Module) listActivity(c *fiber.Ctx) error {
	if m.feed == nil {
		return c.JSON([]any{})
	}
	return c.JSON(m.feed.Recent(c.QueryInt("limite", defaultActivityLimit)))
}

// healthCheck handles GET /health.
func (m *Module) healthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:  "healthy",
		Modules: make(map[string]ModuleHealth, len(m.checks)),
	}
	for name, check := range m.checks {
		h := check.Health(ctx)
		resp.Modules[name] = ModuleHealth{
			Healthy: h.Healthy,
			Message: h.Message,
			Details: h.Details,
		}
		if !h.Healthy {
			resp.Status = "unhealthy"
		}
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

// notFound answers every request no route or static file matched.
func (m *Module) notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": msgRouteNotFound,
	})
}

// parseBody reads a JSON or form-encoded body into a generic map.
// An empty body yields an empty map.
func parseBody(c *fiber.Ctx) (map[string]any, error) {
	body := make(map[string]any)

	contentType := strings.ToLower(string(c.Request().Header.ContentType()))
	if strings.HasPrefix(contentType, fiber.MIMEApplicationForm) {
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			body[string(key)] = string(value)
		})
		return body, nil
	}

	raw := c.Body()
	if len(strings.TrimSpace(string(raw))) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}
