package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Name         string         `gorm:"type:varchar(255)" json:"name"`
	Email        string         `gorm:"type:varchar(255)" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedTasks []Task           `gorm:"foreignKey:CreatorID" json:"-"`
	Assignments  []TaskAssignment `gorm:"foreignKey:UserID" json:"-"`
	Containers   []Container      `gorm:"foreignKey:OwnerID" json:"-"`
}

// DisplayName is the name shown on board badges.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
