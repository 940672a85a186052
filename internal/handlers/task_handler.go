package handlers

import (
	"log/slog"

	"taskapp/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	service  *services.TaskService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service *services.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		service:  service,
		validate: newValidator(),
		logger:   logger,
	}
}

// RegisterRoutes registers the task routes with the Fiber app.
func (h *TaskHandler) RegisterRoutes(router fiber.Router) {
	taskRoutes := router.Group("/tasks")
	taskRoutes.Get("/", h.HandleListTasks)
	taskRoutes.Post("/", h.HandleCreateTask)
	taskRoutes.Patch("/:id", h.HandleUpdateTask)
	taskRoutes.Delete("/:id", h.HandleDeleteTask)
}

// HandleListTasks returns the tasks of the user named by the userId query parameter.
func (h *TaskHandler) HandleListTasks(c *fiber.Ctx) error {
	tasks, err := h.service.ListTasks(c.UserContext(), c.Query("userId"))
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(tasks)
}

// HandleCreateTask creates a new task.
func (h *TaskHandler) HandleCreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	task, err := h.service.CreateTask(c.UserContext(), req.input())
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(task)
}

// HandleUpdateTask applies a partial update.
func (h *TaskHandler) HandleUpdateTask(c *fiber.Ctx) error {
	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	task, err := h.service.UpdateTask(c.UserContext(), c.Params("id"), req.patch())
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(task)
}

// HandleDeleteTask removes a task.
func (h *TaskHandler) HandleDeleteTask(c *fiber.Ctx) error {
	if err := h.service.DeleteTask(c.UserContext(), c.Params("id")); err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(SuccessResponse{Success: true})
}
