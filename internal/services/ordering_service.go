package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/ordering"
	"github.com/yukikurage/kanban-board-api/internal/policy"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"golang.org/x/sync/errgroup"
)

// OrderingService places tasks on the board. Every write it issues is a
// single-row conditional update; batches are not atomic and report how many
// rows actually changed.
type OrderingService struct {
	taskRepo   repository.TaskRepository
	containers *ContainerService
}

// NewOrderingService creates a new OrderingService.
func NewOrderingService(taskRepo repository.TaskRepository, containers *ContainerService) *OrderingService {
	return &OrderingService{
		taskRepo:   taskRepo,
		containers: containers,
	}
}

// MoveTaskInput moves one task. The destination slot is either an explicit
// SortIndex or the neighbours it is dropped between; with neither the task is
// placed last.
type MoveTaskInput struct {
	TaskID       uint64
	ContainerID  uint64
	SortIndex    *float64
	AfterTaskID  *uint64
	BeforeTaskID *uint64
}

func (in MoveTaskInput) hasNeighbours() bool {
	return in.AfterTaskID != nil || in.BeforeTaskID != nil
}

// ReorderItem is one entry of a bulk reorder. A nil ContainerID keeps the
// task in its current container.
type ReorderItem struct {
	TaskID      uint64
	SortIndex   float64
	ContainerID *uint64
}

// BulkFailure is an item whose write did not apply.
type BulkFailure struct {
	TaskID uint64 `json:"task_id"`
	Reason string `json:"reason"`
}

// BulkResult reports the outcome of a batch of conditional writes.
type BulkResult struct {
	Requested int
	Modified  int64
	Failed    []BulkFailure
}

// Move updates container, status and sort index of a task together. The
// destination must be open to the requester and to the task's creator.
func (s *OrderingService) Move(ctx context.Context, input MoveTaskInput, requesterID uint64) (*models.Task, error) {
	if input.ContainerID == 0 {
		return nil, ErrContainerRequired
	}
	if input.SortIndex != nil && !ordering.Valid(*input.SortIndex) {
		return nil, ErrInvalidSortIndex
	}
	if input.SortIndex != nil && input.hasNeighbours() {
		return nil, ErrAmbiguousPlacement
	}

	task, err := findTask(ctx, s.taskRepo, input.TaskID, "Assignments")
	if err != nil {
		return nil, err
	}
	if !policy.Allows(task, requesterID, policy.CanReorder) {
		return nil, ErrTaskAccessDenied
	}

	container, err := s.containers.FindVisible(ctx, input.ContainerID, requesterID)
	if err != nil {
		return nil, err
	}
	if !container.VisibleTo(task.CreatorID) {
		return nil, ErrContainerNotVisible
	}

	sortIndex, err := s.dropIndex(ctx, container.ID, task.ID, input)
	if err != nil {
		return nil, err
	}

	rows, err := s.taskRepo.Place(ctx, task.ID, requesterID, repository.Placement{
		ContainerID: container.ID,
		Status:      container.Title,
		SortIndex:   sortIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move task: %w", err)
	}
	if rows == 0 {
		// Deleted, unassigned or its container withdrawn since it was read.
		current, err := findTask(ctx, s.taskRepo, task.ID, "Assignments")
		if err != nil {
			return nil, err
		}
		if !policy.Allows(current, requesterID, policy.CanReorder) {
			return nil, ErrTaskAccessDenied
		}
		return nil, ErrContainerNotVisible
	}

	return s.taskRepo.FindByID(ctx, task.ID, taskPreloads...)
}

// dropIndex resolves the sort index a moved task takes in containerID. When
// the named neighbours sit too close to split, the container is respaced once
// and the neighbours are read again.
func (s *OrderingService) dropIndex(ctx context.Context, containerID, movingID uint64, input MoveTaskInput) (float64, error) {
	if !input.hasNeighbours() {
		return appendIndex(ctx, s.taskRepo, containerID, input.SortIndex)
	}

	for respaced := false; ; respaced = true {
		siblings, err := s.taskRepo.ListByContainer(ctx, containerID)
		if err != nil {
			return 0, fmt.Errorf("failed to list container tasks: %w", err)
		}
		prev, next, err := neighbours(siblings, movingID, input.AfterTaskID, input.BeforeTaskID)
		if err != nil {
			return 0, err
		}
		if respaced || prev == nil || next == nil || *next-*prev >= 2*ordering.MinGap {
			return ordering.Place(prev, next), nil
		}
		if _, err := s.Renormalize(ctx, containerID); err != nil {
			return 0, err
		}
	}
}

// neighbours finds the sort indices around the slot named by after and
// before among siblings, which are in sort order. The moving task itself is
// not a neighbour. A nil result marks an end of the container.
func neighbours(siblings []models.Task, movingID uint64, after, before *uint64) (*float64, *float64, error) {
	order := make([]float64, 0, len(siblings))
	position := map[uint64]int{}
	for _, sibling := range siblings {
		if sibling.ID == movingID {
			continue
		}
		position[sibling.ID] = len(order)
		order = append(order, sibling.SortIndex)
	}

	lo, hi := -1, len(order)
	if after != nil {
		i, ok := position[*after]
		if !ok {
			return nil, nil, ErrTaskNotInContainer
		}
		lo, hi = i, i+1
	}
	if before != nil {
		i, ok := position[*before]
		if !ok {
			return nil, nil, ErrTaskNotInContainer
		}
		if after == nil {
			lo = i - 1
		}
		hi = i
	}
	if lo >= hi {
		return nil, nil, ErrInvalidNeighbours
	}

	var prev, next *float64
	if lo >= 0 {
		prev = &order[lo]
	}
	if hi < len(order) {
		next = &order[hi]
	}
	return prev, next, nil
}

// BulkReorder validates every item before writing any of them, then applies
// the writes concurrently. Failed writes are listed in the result.
func (s *OrderingService) BulkReorder(ctx context.Context, items []ReorderItem, requesterID uint64) (*BulkResult, error) {
	ids, err := validateReorderItems(items)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	byID := make(map[uint64]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	containers := map[uint64]*models.Container{}
	placements := make([]repository.Placement, len(items))
	for i, item := range items {
		task, ok := byID[item.TaskID]
		if !ok {
			return nil, ErrTaskNotFound
		}
		if !policy.Allows(task, requesterID, policy.CanReorder) {
			return nil, ErrTaskAccessDenied
		}

		containerID := task.ContainerID
		if item.ContainerID != nil {
			containerID = *item.ContainerID
		}
		container, ok := containers[containerID]
		if !ok {
			container, err = s.containers.FindVisible(ctx, containerID, requesterID)
			if err != nil {
				return nil, err
			}
			containers[containerID] = container
		}
		if !container.VisibleTo(task.CreatorID) {
			return nil, ErrContainerNotVisible
		}

		placements[i] = repository.Placement{
			ContainerID: container.ID,
			Status:      container.Title,
			SortIndex:   item.SortIndex,
		}
	}

	return s.applyBatch(ctx, items, func(ctx context.Context, i int) (int64, error) {
		return s.taskRepo.Place(ctx, items[i].TaskID, requesterID, placements[i])
	}), nil
}

// ReorderInContainer sets new sort indices for tasks that must already live
// in containerID.
func (s *OrderingService) ReorderInContainer(ctx context.Context, containerID uint64, items []ReorderItem, requesterID uint64) (*BulkResult, error) {
	ids, err := validateReorderItems(items)
	if err != nil {
		return nil, err
	}
	if _, err := s.containers.FindVisible(ctx, containerID, requesterID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	byID := make(map[uint64]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	for _, item := range items {
		task, ok := byID[item.TaskID]
		if !ok {
			return nil, ErrTaskNotFound
		}
		if !policy.Allows(task, requesterID, policy.CanReorder) {
			return nil, ErrTaskAccessDenied
		}
		if task.ContainerID != containerID || (item.ContainerID != nil && *item.ContainerID != containerID) {
			return nil, ErrTaskNotInContainer
		}
	}

	return s.applyBatch(ctx, items, func(ctx context.Context, i int) (int64, error) {
		return s.taskRepo.SetSortIndexInContainer(ctx, items[i].TaskID, containerID, items[i].SortIndex)
	}), nil
}

// Renormalize respaces the sort indices of a container evenly while keeping
// the current order. A task moved concurrently keeps the position it was
// given.
func (s *OrderingService) Renormalize(ctx context.Context, containerID uint64) (*BulkResult, error) {
	tasks, err := s.taskRepo.ListByContainer(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list container tasks: %w", err)
	}

	spaced := ordering.Spaced(len(tasks))
	items := make([]ReorderItem, 0, len(tasks))
	previous := make([]float64, 0, len(tasks))
	for i, task := range tasks {
		if task.SortIndex == spaced[i] {
			continue
		}
		items = append(items, ReorderItem{TaskID: task.ID, SortIndex: spaced[i]})
		previous = append(previous, task.SortIndex)
	}

	return s.applyBatch(ctx, items, func(ctx context.Context, i int) (int64, error) {
		return s.taskRepo.SwapSortIndex(ctx, items[i].TaskID, containerID, previous[i], items[i].SortIndex)
	}), nil
}

// RenormalizeAll renormalizes every container whose indices have collapsed.
// It returns the number of containers rewritten.
func (s *OrderingService) RenormalizeAll(ctx context.Context) (int, error) {
	containerIDs, err := s.taskRepo.ContainerIDsInUse(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list containers: %w", err)
	}

	renormalized := 0
	for _, containerID := range containerIDs {
		tasks, err := s.taskRepo.ListByContainer(ctx, containerID)
		if err != nil {
			return renormalized, fmt.Errorf("failed to list container tasks: %w", err)
		}
		indices := make([]float64, len(tasks))
		for i, task := range tasks {
			indices[i] = task.SortIndex
		}
		if !ordering.NeedsRenormalization(indices) {
			continue
		}

		result, err := s.Renormalize(ctx, containerID)
		if err != nil {
			return renormalized, err
		}
		renormalized++
		log.Printf("[ordering] renormalized container %d: %d/%d tasks rewritten", containerID, result.Modified, result.Requested)
	}

	return renormalized, nil
}

// applyBatch runs write for every item with bounded parallelism. A write that
// errors or matches no row is recorded as a failure; the batch always runs to
// completion.
func (s *OrderingService) applyBatch(ctx context.Context, items []ReorderItem, write func(context.Context, int) (int64, error)) *BulkResult {
	result := &BulkResult{Requested: len(items)}
	var (
		modified atomic.Int64
		mu       sync.Mutex
	)
	fail := func(taskID uint64, reason string) {
		mu.Lock()
		defer mu.Unlock()
		result.Failed = append(result.Failed, BulkFailure{TaskID: taskID, Reason: reason})
	}

	var g errgroup.Group
	g.SetLimit(constants.BulkWriteConcurrency)
	for i := range items {
		i := i
		g.Go(func() error {
			rows, err := write(ctx, i)
			switch {
			case err != nil:
				fail(items[i].TaskID, err.Error())
			case rows == 0:
				fail(items[i].TaskID, "task changed before the write was applied")
			default:
				modified.Add(rows)
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Modified = modified.Load()
	if len(result.Failed) > 0 {
		log.Printf("[ordering] batch applied %d/%d writes", result.Modified, result.Requested)
	}
	return result
}

func validateReorderItems(items []ReorderItem) ([]uint64, error) {
	if len(items) == 0 {
		return nil, ErrEmptyReorder
	}
	if len(items) > constants.MaxBulkReorderItems {
		return nil, ErrTooManyItems
	}

	seen := make(map[uint64]struct{}, len(items))
	ids := make([]uint64, 0, len(items))
	for _, item := range items {
		if item.TaskID == 0 {
			return nil, ErrTaskNotFound
		}
		if !ordering.Valid(item.SortIndex) {
			return nil, ErrInvalidSortIndex
		}
		if _, dup := seen[item.TaskID]; dup {
			return nil, ErrDuplicateItem
		}
		seen[item.TaskID] = struct{}{}
		ids = append(ids, item.TaskID)
	}
	return ids, nil
}
