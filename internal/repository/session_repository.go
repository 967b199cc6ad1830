package repository

import (
	"context"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
)

// GormSessionRepository is a GORM implementation of SessionRepository
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db: db}
}

// Create inserts a session. Active sessions carry the user's active key, so a
// second active session for the same user is rejected by the unique index.
func (r *GormSessionRepository) Create(ctx context.Context, session *models.Session) error {
	err := r.db.WithContext(ctx).Omit("Task", "User").Create(session).Error
	if isDuplicateKey(err) {
		return ErrActiveSessionExists
	}
	return err
}

// FindActive finds the active session of userID in taskID
func (r *GormSessionRepository) FindActive(ctx context.Context, taskID, userID uint64) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ? AND is_active = ?", taskID, userID, true).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListActiveByUser lists the active sessions of userID with their task
func (r *GormSessionRepository) ListActiveByUser(ctx context.Context, userID uint64) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Preload("Task", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("start_time ASC").
		Find(&sessions).Error
	return sessions, err
}

// ListActiveByTasks lists active sessions of any user on the given tasks
func (r *GormSessionRepository) ListActiveByTasks(ctx context.Context, taskIDs []uint64) ([]models.Session, error) {
	var sessions []models.Session
	if len(taskIDs) == 0 {
		return sessions, nil
	}
	err := r.db.WithContext(ctx).
		Where("task_id IN ? AND is_active = ?", taskIDs, true).
		Find(&sessions).Error
	return sessions, err
}

// ListByTaskAndUser lists a user's sessions in a task, oldest first
func (r *GormSessionRepository) ListByTaskAndUser(ctx context.Context, taskID, userID uint64) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Order("start_time ASC").
		Order("id ASC").
		Find(&sessions).Error
	return sessions, err
}

// Close closes a session only if it is still active and releases the
// user's active key
func (r *GormSessionRepository) Close(ctx context.Context, id uint64, endTime time.Time, duration int64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"end_time":   endTime,
			"duration":   duration,
			"is_active":  false,
			"active_key": nil,
		})
	return result.RowsAffected, result.Error
}
