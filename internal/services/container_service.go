package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"gorm.io/gorm"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ContainerService manages board sections: the shared default containers and
// the custom containers owned by individual users.
type ContainerService struct {
	containerRepo repository.ContainerRepository
	taskRepo      repository.TaskRepository
}

// NewContainerService creates a new ContainerService.
func NewContainerService(containerRepo repository.ContainerRepository, taskRepo repository.TaskRepository) *ContainerService {
	return &ContainerService{
		containerRepo: containerRepo,
		taskRepo:      taskRepo,
	}
}

// CreateContainerInput represents parameters to create a custom container.
type CreateContainerInput struct {
	Title   string
	Color   string
	OwnerID uint64
}

// UpdateContainerInput represents a partial container update.
type UpdateContainerInput struct {
	Title *string
	Color *string
}

// Create creates a custom container owned by input.OwnerID.
func (s *ContainerService) Create(ctx context.Context, input CreateContainerInput) (*models.Container, error) {
	title, err := validateContainerTitle(input.Title)
	if err != nil {
		return nil, err
	}
	color, err := validateColor(input.Color)
	if err != nil {
		return nil, err
	}

	ownerID := input.OwnerID
	container := &models.Container{
		Title:   title,
		Color:   color,
		OwnerID: &ownerID,
	}

	if err := s.containerRepo.Create(ctx, container); err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	return container, nil
}

// List returns every default container followed by the user's own containers
// in creation order.
func (s *ContainerService) List(ctx context.Context, userID uint64) ([]models.Container, error) {
	containers, err := s.containerRepo.ListVisible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	return containers, nil
}

// FindVisible resolves a container the user may place tasks in. Missing and
// foreign containers are reported the same way.
func (s *ContainerService) FindVisible(ctx context.Context, id, userID uint64) (*models.Container, error) {
	container, err := s.containerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContainerNotVisible
		}
		return nil, fmt.Errorf("failed to find container: %w", err)
	}
	if !container.VisibleTo(userID) {
		return nil, ErrContainerNotVisible
	}
	return container, nil
}

// Update changes the title or color of a custom container owned by requesterID.
func (s *ContainerService) Update(ctx context.Context, id uint64, input UpdateContainerInput, requesterID uint64) (*models.Container, error) {
	container, err := s.findMutable(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		title, err := validateContainerTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if input.Color != nil {
		color, err := validateColor(*input.Color)
		if err != nil {
			return nil, err
		}
		updates["color"] = color
	}
	if len(updates) == 0 {
		return container, nil
	}

	rows, err := s.containerRepo.UpdateOwned(ctx, id, requesterID, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update container: %w", err)
	}
	if rows == 0 {
		// Deleted or changed hands between the read and the write.
		if _, err := s.findMutable(ctx, id, requesterID); err != nil {
			return nil, err
		}
	}

	if title, ok := updates["title"].(string); ok && title != container.Title {
		if err := s.taskRepo.RenameStatus(ctx, id, title); err != nil {
			return nil, fmt.Errorf("failed to propagate container title: %w", err)
		}
	}

	updated, err := s.containerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload container: %w", err)
	}
	return updated, nil
}

// Delete removes an empty custom container owned by requesterID.
func (s *ContainerService) Delete(ctx context.Context, id, requesterID uint64) error {
	if _, err := s.findMutable(ctx, id, requesterID); err != nil {
		return err
	}

	count, err := s.taskRepo.CountByContainer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count container tasks: %w", err)
	}
	if count > 0 {
		return ErrContainerInUse
	}

	rows, err := s.containerRepo.DeleteOwned(ctx, id, requesterID)
	if err != nil {
		return fmt.Errorf("failed to delete container: %w", err)
	}
	if rows == 0 {
		return ErrContainerNotFound
	}
	return nil
}

// SeedDefaults creates the shared default containers that do not exist yet.
func (s *ContainerService) SeedDefaults(ctx context.Context) error {
	for _, d := range constants.DefaultContainers {
		container := &models.Container{Title: d.Title, Color: d.Color}
		if err := s.containerRepo.EnsureDefault(ctx, container); err != nil {
			return fmt.Errorf("failed to seed container %q: %w", d.Title, err)
		}
	}
	return nil
}

// findMutable loads a container and checks it may be changed by requesterID.
// Default containers are rejected before ownership is considered.
func (s *ContainerService) findMutable(ctx context.Context, id, requesterID uint64) (*models.Container, error) {
	container, err := s.containerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContainerNotFound
		}
		return nil, fmt.Errorf("failed to find container: %w", err)
	}
	if container.IsDefault {
		return nil, ErrDefaultContainerImmutable
	}
	if container.OwnerID == nil || *container.OwnerID != requesterID {
		return nil, ErrNotContainerOwner
	}
	return container, nil
}

func validateContainerTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > constants.MaxContainerTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func validateColor(raw string) (string, error) {
	color := strings.TrimSpace(raw)
	if color == "" {
		return constants.DefaultContainerColor, nil
	}
	if !colorPattern.MatchString(color) {
		return "", ErrInvalidColor
	}
	return strings.ToUpper(color), nil
}
