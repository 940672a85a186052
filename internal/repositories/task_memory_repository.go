package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taskapp/internal/models"

	"github.com/google/uuid"
)

// MemoryTaskRepository is an in-memory implementation of TaskRepository.
type MemoryTaskRepository struct {
	tasks map[string]models.Task
	order []string // insertion order of ids
	mu    sync.RWMutex
}

// NewMemoryTaskRepository creates a new instance of MemoryTaskRepository.
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks: make(map[string]models.Task),
	}
}

// ListByUser returns the user's tasks in insertion order.
func (r *MemoryTaskRepository) ListByUser(_ context.Context, userID string) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	taskList := make([]models.Task, 0)
	for _, id := range r.order {
		if t := r.tasks[id]; t.UserID == userID {
			taskList = append(taskList, cloneTask(t))
		}
	}
	return taskList, nil
}

// Create adds a new task.
func (r *MemoryTaskRepository) Create(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if _, exists := r.tasks[task.ID]; exists {
		return fmt.Errorf("task %s: %w", task.ID, ErrDuplicate)
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	r.tasks[task.ID] = cloneTask(*task)
	r.order = append(r.order, task.ID)
	return nil
}

// Update merges the patch into an existing task.
func (r *MemoryTaskRepository) Update(_ context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	patch.Apply(&task)
	task.UpdatedAt = time.Now().UTC()
	r.tasks[id] = task

	out := cloneTask(task)
	return &out, nil
}

// Delete removes a task by its ID.
func (r *MemoryTaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	delete(r.tasks, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// cloneTask copies the pointer fields so callers cannot alias stored state.
func cloneTask(t models.Task) models.Task {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}
