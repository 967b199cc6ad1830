// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite("file:"+uuid.NewString()+"?mode=memory&cache=shared", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Name:         username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateContainer inserts a custom container owned by ownerID.
func CreateContainer(t *testing.T, db *gorm.DB, title string, ownerID uint64) *models.Container {
	t.Helper()
	container := &models.Container{Title: title, Color: constants.DefaultContainerColor, OwnerID: &ownerID}
	require.NoError(t, db.Create(container).Error)
	return container
}

// CreateTask inserts a task in container at sortIndex, assigned to assignees.
func CreateTask(t *testing.T, db *gorm.DB, title string, creatorID uint64, container *models.Container, sortIndex float64, assignees ...uint64) *models.Task {
	t.Helper()
	task := &models.Task{
		Title:       title,
		Description: "Test Description",
		Status:      container.Title,
		ContainerID: container.ID,
		SortIndex:   sortIndex,
		Priority:    models.TaskPriorityNormal,
		CreatorID:   creatorID,
	}
	require.NoError(t, db.Omit("Creator", "Container").Create(task).Error)
	for _, userID := range assignees {
		require.NoError(t, db.Create(&models.TaskAssignment{TaskID: task.ID, UserID: userID}).Error)
	}
	return task
}

// FixedClock is a settable clock for services that accept one.
type FixedClock struct {
	Now time.Time
}

// NewFixedClock starts a clock at a fixed UTC instant.
func NewFixedClock() *FixedClock {
	return &FixedClock{Now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

// Read returns the current instant.
func (c *FixedClock) Read() time.Time {
	return c.Now
}

// Advance moves the clock forward.
func (c *FixedClock) Advance(d time.Duration) {
	c.Now = c.Now.Add(d)
}
