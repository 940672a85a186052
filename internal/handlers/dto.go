package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"taskapp/internal/models"
	"taskapp/internal/services"
)

// DueDate parses dueDate from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only values become the start of that day in UTC.
type DueDate struct{ t *time.Time }

func (d *DueDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dueDate: %w", err)
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("dueDate: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Ptr returns the parsed time, nil when absent.
func (d *DueDate) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	return d.t
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username          string  `json:"username" validate:"required,max=255"`
	Password          string  `json:"password" validate:"required,max=72"`
	Phone             *string `json:"phone" validate:"omitnil,max=32"`
	ProfileCompleted  bool    `json:"profileCompleted"`
	ProfilePictureURL *string `json:"profilePictureUrl" validate:"omitnil,url"`
}

func (r RegisterRequest) input() services.RegisterInput {
	return services.RegisterInput{
		Username:          r.Username,
		Password:          r.Password,
		Phone:             r.Phone,
		ProfileCompleted:  r.ProfileCompleted,
		ProfilePictureURL: r.ProfilePictureURL,
	}
}

// CreateTaskRequest represents the request body for task creation.
type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description *string  `json:"description"`
	DueDate     *DueDate `json:"dueDate"`
	UserID      string   `json:"userId" validate:"required"`
}

func (r CreateTaskRequest) input() services.CreateTaskInput {
	return services.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate.Ptr(),
		UserID:      r.UserID,
	}
}

// UpdateTaskRequest is a partial update; absent fields stay unchanged.
// A userId in the body is ignored.
type UpdateTaskRequest struct {
	Title       *string  `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string  `json:"description"`
	Completed   *bool    `json:"completed"`
	DueDate     *DueDate `json:"dueDate"`
}

func (r UpdateTaskRequest) patch() models.TaskPatch {
	return models.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		DueDate:     r.DueDate.Ptr(),
	}
}

// UserResponse wraps the public identity returned by login and register.
type UserResponse struct {
	User models.Identity `json:"user"`
}

// SuccessResponse is returned by deletions.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}
