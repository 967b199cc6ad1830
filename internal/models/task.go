package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityNormal TaskPriority = "Normal"
	TaskPriorityHigh   TaskPriority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityNormal, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      string         `gorm:"type:varchar(50);not null" json:"status"`
	ContainerID uint64         `gorm:"not null;index:idx_tasks_container_sort,priority:1" json:"container_id"`
	Priority    TaskPriority   `gorm:"type:varchar(10);not null;default:'Normal'" json:"priority"`
	DueDate     *time.Time     `json:"due_date"`
	SortIndex   float64        `gorm:"not null;default:0;index:idx_tasks_container_sort,priority:2" json:"sort_index"`
	TimeTracked int64          `gorm:"not null;default:0" json:"time_tracked"`
	CreatorID   uint64         `gorm:"not null;index" json:"creator_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator     User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Container   Container        `gorm:"foreignKey:ContainerID" json:"container,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
	Sessions    []Session        `gorm:"foreignKey:TaskID" json:"sessions,omitempty"`
	Attachments []TaskAttachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

// AssigneeIDs returns the ids of the users assigned to the task.
// Assignments must be preloaded.
func (t Task) AssigneeIDs() []uint64 {
	ids := make([]uint64, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}

// IsAssigned reports whether userID is among the preloaded assignees.
func (t Task) IsAssigned(userID uint64) bool {
	for _, a := range t.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
