package task

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus converts a query value to a Status. Empty means no filter.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return "", nil
	}
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Task is a to-do item. OwnerUserID is the authorization anchor and is
// serialized as "userId".
type Task struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      Status    `gorm:"size:20;not null" json:"status"`
	OwnerUserID int64     `gorm:"not null;index:idx_tasks_owner_user_id" json:"userId"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`
}

// TableName pins the table name shared with the SQL migrations.
func (Task) TableName() string { return "tasks" }

// CreateRequest is the body of POST /tasks. UserID is accepted for
// compatibility but the owner always comes from the token.
type CreateRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Status      Status `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	UserID      *int64 `json:"userId,omitempty"`
}

// UpdateRequest is the body of PUT /tasks/:id. Nil fields are left unchanged.
type UpdateRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *Status `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
}

// Empty reports whether the update changes nothing.
func (r UpdateRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil
}
