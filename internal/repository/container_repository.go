package repository

import (
	"context"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/gorm"
)

// GormContainerRepository is a GORM implementation of ContainerRepository
type GormContainerRepository struct {
	db *gorm.DB
}

// NewContainerRepository creates a new ContainerRepository
func NewContainerRepository(db *gorm.DB) ContainerRepository {
	return &GormContainerRepository{db: db}
}

// Create creates a new container
func (r *GormContainerRepository) Create(ctx context.Context, container *models.Container) error {
	return r.db.WithContext(ctx).Create(container).Error
}

// FindByID finds a container by ID
func (r *GormContainerRepository) FindByID(ctx context.Context, id uint64) (*models.Container, error) {
	var container models.Container
	if err := r.db.WithContext(ctx).First(&container, id).Error; err != nil {
		return nil, err
	}
	return &container, nil
}

// FindByIDs finds containers by ID in creation order
func (r *GormContainerRepository) FindByIDs(ctx context.Context, ids []uint64) ([]models.Container, error) {
	var containers []models.Container
	if len(ids) == 0 {
		return containers, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at ASC").
		Order("id ASC").
		Find(&containers).Error
	return containers, err
}

// ListVisible lists default containers and the custom containers of userID
func (r *GormContainerRepository) ListVisible(ctx context.Context, userID uint64) ([]models.Container, error) {
	var containers []models.Container
	err := r.db.WithContext(ctx).
		Where("is_default = ? OR owner_id = ?", true, userID).
		Order("is_default DESC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&containers).Error
	return containers, err
}

// EnsureDefault creates a default container unless one with the same title exists
func (r *GormContainerRepository) EnsureDefault(ctx context.Context, container *models.Container) error {
	container.IsDefault = true
	container.OwnerID = nil
	return r.db.WithContext(ctx).
		Where("title = ? AND is_default = ?", container.Title, true).
		Attrs(models.Container{Color: container.Color}).
		FirstOrCreate(container).Error
}

// UpdateOwned applies updates to a custom container only if ownerID owns it
func (r *GormContainerRepository) UpdateOwned(ctx context.Context, id, ownerID uint64, updates map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Container{}).
		Where("id = ? AND owner_id = ? AND is_default = ?", id, ownerID, false).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// DeleteOwned deletes a custom container only if ownerID owns it
func (r *GormContainerRepository) DeleteOwned(ctx context.Context, id, ownerID uint64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND is_default = ?", id, ownerID, false).
		Delete(&models.Container{})
	return result.RowsAffected, result.Error
}
