package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskAssignment links an assignee to a task. Assignees can read, reorder
// and track time on the task but not edit or delete it.
type TaskAssignment struct {
	TaskID    uint64         `gorm:"primarykey" json:"task_id"`
	UserID    uint64         `gorm:"primarykey;index:idx_task_assignments_user" json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
