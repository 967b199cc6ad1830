package models

import (
	"time"

	"gorm.io/gorm"
)

// Container is a board section. Default containers are shared by every user
// and have no owner; custom containers belong to exactly one user.
type Container struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Title     string         `gorm:"type:varchar(50);not null" json:"title"`
	Color     string         `gorm:"type:varchar(7);not null" json:"color"`
	IsDefault bool           `gorm:"not null;default:false;index" json:"is_default"`
	OwnerID   *uint64        `gorm:"index" json:"owner_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Tasks []Task `gorm:"foreignKey:ContainerID" json:"-"`
}

// VisibleTo reports whether userID may place tasks in the container.
func (c Container) VisibleTo(userID uint64) bool {
	return c.IsDefault || (c.OwnerID != nil && *c.OwnerID == userID)
}
