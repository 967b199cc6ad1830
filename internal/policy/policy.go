// Package policy decides what a requester may do with a task.
package policy

import "github.com/yukikurage/kanban-board-api/internal/models"

type Capability int

const (
	// CanView covers reading the task and its time tracking data.
	CanView Capability = iota
	// CanTrack covers starting and stopping sessions.
	CanTrack
	// CanReorder covers moving the task between or within containers.
	CanReorder
	// CanEdit covers changing task fields.
	CanEdit
	// CanDelete covers removing the task.
	CanDelete
)

// Allows reports whether userID holds capability on task. The creator holds
// every capability; assignees hold view, track and reorder. The task's
// Assignments must be preloaded.
func Allows(task *models.Task, userID uint64, capability Capability) bool {
	if task == nil {
		return false
	}
	if task.CreatorID == userID {
		return true
	}
	switch capability {
	case CanView, CanTrack, CanReorder:
		return task.IsAssigned(userID)
	default:
		return false
	}
}
