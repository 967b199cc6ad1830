package dto

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
)

// ContainerDTO represents a board section in API responses
type ContainerDTO struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Color     string    `json:"color"`
	IsDefault bool      `json:"is_default"`
	OwnerID   *uint64   `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToContainerDTO converts a Container model to ContainerDTO
func ToContainerDTO(container models.Container) ContainerDTO {
	return ContainerDTO{
		ID:        container.ID,
		Title:     container.Title,
		Color:     container.Color,
		IsDefault: container.IsDefault,
		OwnerID:   container.OwnerID,
		CreatedAt: container.CreatedAt,
	}
}

// ToContainerDTOs converts a slice of containers
func ToContainerDTOs(containers []models.Container) []ContainerDTO {
	dtos := make([]ContainerDTO, len(containers))
	for i, c := range containers {
		dtos[i] = ToContainerDTO(c)
	}
	return dtos
}
