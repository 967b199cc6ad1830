package models

import "time"

type TaskAttachment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
