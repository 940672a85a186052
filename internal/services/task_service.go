package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"taskapp/internal/models"
	"taskapp/internal/repositories"
)

// MaxTitleLength bounds task titles, in characters.
const MaxTitleLength = 200

// TaskService handles business logic related to tasks.
type TaskService struct {
	taskRepo  repositories.TaskRepository
	publisher EventPublisher // nil disables events
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService. publisher may be nil.
func NewTaskService(taskRepo repositories.TaskRepository, publisher EventPublisher, logger *slog.Logger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateTaskInput carries the fields accepted on creation.
type CreateTaskInput struct {
	Title       string
	Description *string
	DueDate     *time.Time
	UserID      string
}

// ListTasks returns every task owned by userID.
func (s *TaskService) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	tasks, err := s.taskRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask stores a new, not yet completed task.
func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}

	task := &models.Task{
		Title:       title,
		Description: in.Description,
		DueDate:     utcPtr(in.DueDate),
		Completed:   false,
		UserID:      userID,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	publishTaskEvent(s.publisher, s.logger, EventTaskCreated, task.ID, task.UserID)
	return task, nil
}

// UpdateTask merges the supplied fields into the task with the given id.
// The caller's ownership of the task is not checked.
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	if patch.Title != nil {
		title, err := normalizeTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	patch.DueDate = utcPtr(patch.DueDate)

	task, err := s.taskRepo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	publishTaskEvent(s.publisher, s.logger, EventTaskUpdated, task.ID, task.UserID)
	return task, nil
}

// DeleteTask removes the task permanently.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	publishTaskEvent(s.publisher, s.logger, EventTaskDeleted, id, "")
	return nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", fmt.Errorf("%w: title must be at most %d characters", ErrValidation, MaxTitleLength)
	}
	return title, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
