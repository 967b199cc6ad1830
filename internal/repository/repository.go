package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrActiveSessionExists is returned when inserting an active session for a
	// user who already holds one.
	ErrActiveSessionExists = errors.New("session repository: user already has an active session")
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task together with its assignments and attachments
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// FindByIDs finds tasks by ID with their assignments preloaded
	FindByIDs(ctx context.Context, ids []uint64) ([]models.Task, error)

	// List retrieves tasks visible to a user with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// ListByContainer retrieves every task of a container in sort order
	ListByContainer(ctx context.Context, containerID uint64) ([]models.Task, error)

	// MaxSortIndex returns the largest sort index in a container
	MaxSortIndex(ctx context.Context, containerID uint64) (float64, bool, error)

	// ContainerIDsInUse returns the containers that hold at least one task
	ContainerIDsInUse(ctx context.Context) ([]uint64, error)

	// UpdateByCreator applies updates only if creatorID still owns the task
	UpdateByCreator(ctx context.Context, id, creatorID uint64, updates map[string]interface{}) (int64, error)

	// Place sets container, status and sort index only if userID is the
	// creator or an assignee at write time and the container is open to the creator
	Place(ctx context.Context, id, userID uint64, placement Placement) (int64, error)

	// SetSortIndexInContainer sets the sort index only if the task is still in containerID
	SetSortIndexInContainer(ctx context.Context, id, containerID uint64, sortIndex float64) (int64, error)

	// SwapSortIndex replaces the sort index only if it still equals previous
	SwapSortIndex(ctx context.Context, id, containerID uint64, previous, next float64) (int64, error)

	// RenameStatus rewrites the denormalized status of a container's tasks
	RenameStatus(ctx context.Context, containerID uint64, title string) error

	// SyncTimeTracked recomputes the aggregate tracked time of a task from its closed sessions
	SyncTimeTracked(ctx context.Context, id uint64) error

	// DeleteByCreator soft deletes a task if creatorID owns it
	DeleteByCreator(ctx context.Context, id, creatorID uint64) (int64, error)

	// ReplaceAssignees makes userIDs the exact assignee set of a task
	ReplaceAssignees(ctx context.Context, taskID uint64, userIDs []uint64) error

	// CountByContainer counts the tasks that reference a container
	CountByContainer(ctx context.Context, containerID uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	VisibleTo  uint64
	Status     *string
	Priority   *models.TaskPriority
	AssigneeID *uint64
	Query      string
	Pagination *utils.PaginationParams
}

// Placement is the target position of a task on the board
type Placement struct {
	ContainerID uint64
	Status      string
	SortIndex   float64
}

// ContainerRepository defines the interface for container data access
type ContainerRepository interface {
	// Create creates a new container
	Create(ctx context.Context, container *models.Container) error

	// FindByID finds a container by ID
	FindByID(ctx context.Context, id uint64) (*models.Container, error)

	// FindByIDs finds containers by ID
	FindByIDs(ctx context.Context, ids []uint64) ([]models.Container, error)

	// ListVisible lists default containers and those owned by userID,
	// defaults first, then by creation time
	ListVisible(ctx context.Context, userID uint64) ([]models.Container, error)

	// EnsureDefault creates a default container unless one with the same title exists
	EnsureDefault(ctx context.Context, container *models.Container) error

	// UpdateOwned applies updates only to a custom container owned by ownerID
	UpdateOwned(ctx context.Context, id, ownerID uint64, updates map[string]interface{}) (int64, error)

	// DeleteOwned deletes a custom container owned by ownerID
	DeleteOwned(ctx context.Context, id, ownerID uint64) (int64, error)
}

// SessionRepository defines the interface for time tracking session data access
type SessionRepository interface {
	// Create inserts a session; ErrActiveSessionExists when the user already
	// holds an active session anywhere
	Create(ctx context.Context, session *models.Session) error

	// FindActive finds the active session of a user in a task
	FindActive(ctx context.Context, taskID, userID uint64) (*models.Session, error)

	// ListActiveByUser lists the active sessions of a user across all tasks
	ListActiveByUser(ctx context.Context, userID uint64) ([]models.Session, error)

	// ListActiveByTasks lists active sessions of any user on the given tasks
	ListActiveByTasks(ctx context.Context, taskIDs []uint64) ([]models.Session, error)

	// ListByTaskAndUser lists a user's sessions in a task, oldest first
	ListByTaskAndUser(ctx context.Context, taskID, userID uint64) ([]models.Session, error)

	// Close closes a session only if it is still active
	Close(ctx context.Context, id uint64, endTime time.Time, duration int64) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ctx context.Context, ids []uint64) (int64, error)
}

// isDuplicateKey reports whether err is a unique constraint violation. The
// string checks cover drivers that do not translate their errors.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}

// likePattern builds a case-insensitive substring pattern escaped with '!'.
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
