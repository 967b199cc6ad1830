package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// AddIndexes adds indexes for the list and dashboard queries that the model
// tags do not already declare.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task listing is ordered by creation time
		{"tasks", "idx_tasks_created_at", "created_at"},
		{"tasks", "idx_tasks_status", "status"},
		{"tasks", "idx_tasks_priority", "priority"},

		// Container listing: defaults first, then creation order
		{"containers", "idx_containers_default_created", "is_default, created_at"},

		// History lookups per task and user
		{"time_sessions", "idx_time_sessions_task_user", "task_id, user_id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, idx.columns)
	}

	return nil
}

// MigrateDatabase runs the migrations that AutoMigrate does not cover.
func MigrateDatabase(db *gorm.DB) error {
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
