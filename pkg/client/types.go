package client

import "time"

// Identity is the logged-in user as returned by the server.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Task mirrors the server's task representation.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	UserID      string     `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Registration carries the optional profile fields accepted at sign-up.
type Registration struct {
	Username          string  `json:"username"`
	Password          string  `json:"password"`
	Phone             *string `json:"phone,omitempty"`
	ProfileCompleted  bool    `json:"profileCompleted"`
	ProfilePictureURL *string `json:"profilePictureUrl,omitempty"`
}

// NewTask is the body of a create request. UserID is filled in by the
// Controller from the current identity.
type NewTask struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	UserID      string     `json:"userId"`
}

// TaskUpdate is a partial update; nil fields are not sent.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}
