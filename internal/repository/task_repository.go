package repository

import (
	"context"

	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("Creator", "Container").Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindByIDs finds tasks by ID with assignments preloaded
func (r *GormTaskRepository) FindByIDs(ctx context.Context, ids []uint64) ([]models.Task, error) {
	var tasks []models.Task
	if len(ids) == 0 {
		return tasks, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Assignments").
		Where("id IN ?", ids).
		Find(&tasks).Error
	return tasks, err
}

// assignedTo builds the EXISTS subquery matching live assignments of userID.
func (r *GormTaskRepository) assignedTo(ctx context.Context, userID uint64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.TaskAssignment{}).
		Select("1").
		Where("task_assignments.task_id = tasks.id").
		Where("task_assignments.user_id = ?", userID).
		Where("task_assignments.deleted_at IS NULL")
}

// openToCreator builds the EXISTS subquery matching containerID when it is a
// default container or owned by the creator of the updated task.
func (r *GormTaskRepository) openToCreator(ctx context.Context, containerID uint64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Container{}).
		Select("1").
		Where("containers.id = ?", containerID).
		Where("(containers.is_default = ? OR containers.owner_id = tasks.creator_id)", true)
}

// List retrieves tasks visible to filter.VisibleTo with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("(tasks.creator_id = ? OR EXISTS (?))", filter.VisibleTo, r.assignedTo(ctx, filter.VisibleTo))

	// Apply filters
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.AssigneeID != nil {
		query = query.Where("EXISTS (?)", r.assignedTo(ctx, *filter.AssigneeID))
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query = query.Where("(LOWER(tasks.title) LIKE ? ESCAPE '!' OR LOWER(tasks.description) LIKE ? ESCAPE '!')", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.created_at DESC").Order("tasks.id DESC")
	if filter.Pagination != nil {
		listQuery = listQuery.Scopes(database.Paginate(*filter.Pagination))
	}

	if err := listQuery.
		Preload("Creator").
		Preload("Assignments").
		Preload("Assignments.User").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListByContainer retrieves every task of a container ordered by sort index
func (r *GormTaskRepository) ListByContainer(ctx context.Context, containerID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("container_id = ?", containerID).
		Order("sort_index ASC").
		Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}

// MaxSortIndex returns the largest sort index in a container, and false when it is empty
func (r *GormTaskRepository) MaxSortIndex(ctx context.Context, containerID uint64) (float64, bool, error) {
	var result struct {
		MaxIndex *float64
	}
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Select("MAX(sort_index) AS max_index").
		Where("container_id = ?", containerID).
		Scan(&result).Error
	if err != nil || result.MaxIndex == nil {
		return 0, false, err
	}
	return *result.MaxIndex, true, nil
}

// ContainerIDsInUse returns the distinct containers referenced by live tasks
func (r *GormTaskRepository) ContainerIDsInUse(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Distinct("container_id").
		Pluck("container_id", &ids).Error
	return ids, err
}

// UpdateByCreator applies updates only if creatorID still owns the task
func (r *GormTaskRepository) UpdateByCreator(ctx context.Context, id, creatorID uint64, updates map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND creator_id = ?", id, creatorID).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// Place moves a task only if userID is its creator or an assignee at write
// time and the destination container is shared or owned by the creator.
func (r *GormTaskRepository) Place(ctx context.Context, id, userID uint64, placement Placement) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Where("(tasks.creator_id = ? OR EXISTS (?))", userID, r.assignedTo(ctx, userID)).
		Where("EXISTS (?)", r.openToCreator(ctx, placement.ContainerID)).
		Updates(map[string]interface{}{
			"container_id": placement.ContainerID,
			"status":       placement.Status,
			"sort_index":   placement.SortIndex,
		})
	return result.RowsAffected, result.Error
}

// SetSortIndexInContainer sets the sort index only if the task is still in containerID
func (r *GormTaskRepository) SetSortIndexInContainer(ctx context.Context, id, containerID uint64, sortIndex float64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND container_id = ?", id, containerID).
		Update("sort_index", sortIndex)
	return result.RowsAffected, result.Error
}

// SwapSortIndex replaces the sort index only if the task was not moved since it was read
func (r *GormTaskRepository) SwapSortIndex(ctx context.Context, id, containerID uint64, previous, next float64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND container_id = ? AND sort_index = ?", id, containerID, previous).
		UpdateColumn("sort_index", next)
	return result.RowsAffected, result.Error
}

// RenameStatus rewrites the denormalized status of every task in a container
func (r *GormTaskRepository) RenameStatus(ctx context.Context, containerID uint64, title string) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("container_id = ?", containerID).
		UpdateColumn("status", title).Error
}

// SyncTimeTracked sets the tracked time of a task, deleted or not, to the
// sum of its closed sessions. Running it again changes nothing.
func (r *GormTaskRepository) SyncTimeTracked(ctx context.Context, id uint64) error {
	closed := r.db.WithContext(ctx).Model(&models.Session{}).
		Select("COALESCE(SUM(time_sessions.duration), 0)").
		Where("time_sessions.task_id = tasks.id").
		Where("time_sessions.is_active = ?", false)
	return r.db.WithContext(ctx).Unscoped().Model(&models.Task{}).
		Where("id = ?", id).
		UpdateColumn("time_tracked", gorm.Expr("(?)", closed)).Error
}

// DeleteByCreator soft deletes a task and its assignments if creatorID owns it
func (r *GormTaskRepository) DeleteByCreator(ctx context.Context, id, creatorID uint64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", id, creatorID).
		Delete(&models.Task{})
	if result.Error != nil || result.RowsAffected == 0 {
		return result.RowsAffected, result.Error
	}

	if err := r.db.WithContext(ctx).Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
		return result.RowsAffected, err
	}
	return result.RowsAffected, nil
}

// ReplaceAssignees makes userIDs the exact set of live assignments of a task
func (r *GormTaskRepository) ReplaceAssignees(ctx context.Context, taskID uint64, userIDs []uint64) error {
	remove := r.db.WithContext(ctx).Where("task_id = ?", taskID)
	if len(userIDs) > 0 {
		remove = remove.Where("user_id NOT IN ?", userIDs)
	}
	if err := remove.Delete(&models.TaskAssignment{}).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	assignments := make([]models.TaskAssignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{
			TaskID: taskID,
			UserID: userID,
		}
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": gorm.Expr("NULL")}),
		}).
		Create(&assignments).Error
}

// CountByContainer counts the live tasks that reference a container
func (r *GormTaskRepository) CountByContainer(ctx context.Context, containerID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("container_id = ?", containerID).
		Count(&count).Error
	return count, err
}
