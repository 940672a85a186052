package models

import "time"

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Title       string     `json:"title" gorm:"type:varchar(200);not null" bson:"title"`
	Description *string    `json:"description,omitempty" gorm:"type:text" bson:"description,omitempty"`
	Completed   bool       `json:"completed" gorm:"not null" bson:"completed"`
	DueDate     *time.Time `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	UserID      string     `json:"userId" gorm:"type:varchar(64);index;not null" bson:"userId"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// TaskPatch carries the fields of a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	DueDate     *time.Time
}

// Apply merges the non-nil fields of p into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		d := *p.Description
		t.Description = &d
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
}
