package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/policy"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/utils"
	"gorm.io/gorm"
)

// TimeTrackingService runs the per-user time tracking sessions. A user holds
// at most one active session across all tasks; the session table's unique
// active key enforces it at write time.
type TimeTrackingService struct {
	taskRepo    repository.TaskRepository
	sessionRepo repository.SessionRepository
	clock       Clock
}

// NewTimeTrackingService creates a new TimeTrackingService.
func NewTimeTrackingService(taskRepo repository.TaskRepository, sessionRepo repository.SessionRepository) *TimeTrackingService {
	return &TimeTrackingService{
		taskRepo:    taskRepo,
		sessionRepo: sessionRepo,
		clock:       systemClock,
	}
}

// SetClock replaces the time source.
func (s *TimeTrackingService) SetClock(c Clock) {
	s.clock = c
}

// SessionView is a session with its duration computed as of the request.
type SessionView struct {
	ID                uint64
	TaskID            uint64
	StartTime         time.Time
	EndTime           *time.Time
	IsActive          bool
	Duration          int64
	FormattedDuration string
}

// ActiveSessionView is an active session together with the task holding it.
type ActiveSessionView struct {
	SessionView
	TaskTitle string
}

// ActiveSessionConflict is attached to the conflict returned by Start when
// the requester is already tracking time on another task.
type ActiveSessionConflict struct {
	TaskID    uint64 `json:"task_id"`
	TaskTitle string `json:"task_title"`
	SessionID uint64 `json:"session_id"`
}

// TrackingStatus summarizes a requester's tracking state on one task.
type TrackingStatus struct {
	IsActive        bool
	ActiveSession   *SessionView
	CurrentDuration int64
	TaskTimeTracked int64
	UserTotal       int64
}

// DashboardTask is the time summary of a single task.
type DashboardTask struct {
	TaskID       uint64
	Title        string
	Status       string
	TotalSeconds int64
	IsActive     bool
}

// StatusCount is the number of visible tasks carrying a status.
type StatusCount struct {
	Status string
	Count  int64
}

// Dashboard aggregates the requester's visible tasks.
type Dashboard struct {
	TaskCount      int
	StatusCounts   []StatusCount
	Tasks          []DashboardTask
	TotalSeconds   int64
	ActiveSessions int
}

// Start opens a session for the requester on a task.
func (s *TimeTrackingService) Start(ctx context.Context, taskID, requesterID uint64) (*SessionView, error) {
	task, err := findTask(ctx, s.taskRepo, taskID, "Assignments")
	if err != nil {
		return nil, err
	}
	if !policy.Allows(task, requesterID, policy.CanTrack) {
		return nil, ErrTaskAccessDenied
	}

	if _, err := s.sessionRepo.FindActive(ctx, taskID, requesterID); err == nil {
		return nil, ErrSessionAlreadyActive
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}

	if conflict, err := s.activeElsewhere(ctx, requesterID); err != nil || conflict != nil {
		if err != nil {
			return nil, err
		}
		return nil, conflict
	}

	now := wallTime(s.clock)
	key := strconv.FormatUint(requesterID, 10)
	session := &models.Session{
		TaskID:    taskID,
		UserID:    requesterID,
		StartTime: now,
		IsActive:  true,
		ActiveKey: &key,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if !errors.Is(err, repository.ErrActiveSessionExists) {
			return nil, fmt.Errorf("failed to start session: %w", err)
		}
		// Lost a race with a concurrent start.
		conflict, lookupErr := s.activeElsewhere(ctx, requesterID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if holder, _ := conflictDetails(conflict); conflict == nil || holder.TaskID == taskID {
			return nil, ErrSessionAlreadyActive
		}
		return nil, conflict
	}

	view := toSessionView(*session, now)
	return &view, nil
}

// Stop closes the requester's active session on a task and adds its duration
// to the task's tracked time.
func (s *TimeTrackingService) Stop(ctx context.Context, taskID, requesterID uint64) (*SessionView, error) {
	if _, err := findTask(ctx, s.taskRepo, taskID); err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.FindActive(ctx, taskID, requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A session closed by an earlier stop whose credit failed is
			// counted now.
			if err := syncTimeTracked(ctx, s.taskRepo, taskID); err != nil {
				return nil, err
			}
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}

	now := wallTime(s.clock)
	if err := closeSession(ctx, s.sessionRepo, s.taskRepo, session, now); err != nil {
		return nil, err
	}

	view := toSessionView(*session, now)
	return &view, nil
}

// Status reports whether the requester is tracking the task, the live length
// of that session and the totals of the task and of the requester.
func (s *TimeTrackingService) Status(ctx context.Context, taskID, requesterID uint64) (*TrackingStatus, error) {
	task, sessions, err := s.requesterSessions(ctx, taskID, requesterID)
	if err != nil {
		return nil, err
	}

	now := wallTime(s.clock)
	status := &TrackingStatus{TaskTimeTracked: task.TimeTracked}
	for _, session := range sessions {
		live := session.LiveDuration(now)
		status.UserTotal += live
		if session.IsActive {
			view := toSessionView(session, now)
			status.IsActive = true
			status.ActiveSession = &view
			status.CurrentDuration = live
		}
	}

	return status, nil
}

// History lists the requester's sessions on a task, oldest first.
func (s *TimeTrackingService) History(ctx context.Context, taskID, requesterID uint64) ([]SessionView, error) {
	_, sessions, err := s.requesterSessions(ctx, taskID, requesterID)
	if err != nil {
		return nil, err
	}

	now := wallTime(s.clock)
	views := make([]SessionView, len(sessions))
	for i, session := range sessions {
		views[i] = toSessionView(session, now)
	}
	return views, nil
}

// ListActive returns the requester's active session, if any, with its task.
func (s *TimeTrackingService) ListActive(ctx context.Context, requesterID uint64) ([]ActiveSessionView, error) {
	sessions, err := s.sessionRepo.ListActiveByUser(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	now := wallTime(s.clock)
	views := make([]ActiveSessionView, len(sessions))
	for i, session := range sessions {
		views[i] = ActiveSessionView{
			SessionView: toSessionView(session, now),
			TaskTitle:   session.Task.Title,
		}
	}
	return views, nil
}

// Dashboard groups the requester's visible tasks by status and reports the
// time spent on each: closed sessions plus the live part of running ones.
func (s *TimeTrackingService) Dashboard(ctx context.Context, requesterID uint64) (*Dashboard, error) {
	tasks, _, err := s.taskRepo.List(ctx, repository.TaskFilter{VisibleTo: requesterID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	ids := make([]uint64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	active, err := s.sessionRepo.ListActiveByTasks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	now := wallTime(s.clock)
	live := make(map[uint64]int64, len(active))
	for _, session := range active {
		live[session.TaskID] += session.LiveDuration(now)
	}
	running := make(map[uint64]bool, len(active))
	for _, session := range active {
		running[session.TaskID] = true
	}

	dashboard := &Dashboard{
		TaskCount:      len(tasks),
		Tasks:          make([]DashboardTask, len(tasks)),
		ActiveSessions: len(active),
	}
	counts := map[string]int64{}
	for i, task := range tasks {
		total := task.TimeTracked + live[task.ID]
		counts[task.Status]++
		dashboard.TotalSeconds += total
		dashboard.Tasks[i] = DashboardTask{
			TaskID:       task.ID,
			Title:        task.Title,
			Status:       task.Status,
			TotalSeconds: total,
			IsActive:     running[task.ID],
		}
	}

	for status, count := range counts {
		dashboard.StatusCounts = append(dashboard.StatusCounts, StatusCount{Status: status, Count: count})
	}
	sort.Slice(dashboard.StatusCounts, func(i, j int) bool {
		return dashboard.StatusCounts[i].Status < dashboard.StatusCounts[j].Status
	})

	return dashboard, nil
}

// activeElsewhere returns a conflict describing the requester's active
// session, or nil when there is none.
func (s *TimeTrackingService) activeElsewhere(ctx context.Context, requesterID uint64) (*apierrors.APIError, error) {
	sessions, err := s.sessionRepo.ListActiveByUser(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	holder := sessions[0]
	return apierrors.NewAPIErrorWithDetails(
		apierrors.ErrCodeConflict,
		fmt.Sprintf("time tracking is already running on task %d (%s)", holder.TaskID, holder.Task.Title),
		ActiveSessionConflict{
			TaskID:    holder.TaskID,
			TaskTitle: holder.Task.Title,
			SessionID: holder.ID,
		},
	), nil
}

func conflictDetails(err *apierrors.APIError) (ActiveSessionConflict, bool) {
	if err == nil {
		return ActiveSessionConflict{}, false
	}
	details, ok := err.Details.(ActiveSessionConflict)
	return details, ok
}

func (s *TimeTrackingService) requesterSessions(ctx context.Context, taskID, requesterID uint64) (*models.Task, []models.Session, error) {
	task, err := findTask(ctx, s.taskRepo, taskID, "Assignments")
	if err != nil {
		return nil, nil, err
	}
	if !policy.Allows(task, requesterID, policy.CanView) {
		return nil, nil, ErrTaskAccessDenied
	}

	sessions, err := s.sessionRepo.ListByTaskAndUser(ctx, taskID, requesterID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return task, sessions, nil
}

// closeSession closes an active session at now and recomputes the task's
// tracked time from its closed sessions. ErrNoActiveSession means another
// request closed it first.
func closeSession(ctx context.Context, sessions repository.SessionRepository, tasks repository.TaskRepository, session *models.Session, now time.Time) error {
	end := now
	if end.Before(session.StartTime) {
		end = session.StartTime
	}
	duration := models.ElapsedSeconds(session.StartTime, end)

	rows, err := sessions.Close(ctx, session.ID, end, duration)
	if err != nil {
		return fmt.Errorf("failed to stop session: %w", err)
	}
	if rows == 0 {
		return ErrNoActiveSession
	}

	session.EndTime = &end
	session.Duration = duration
	session.IsActive = false
	session.ActiveKey = nil
	return syncTimeTracked(ctx, tasks, session.TaskID)
}

func syncTimeTracked(ctx context.Context, tasks repository.TaskRepository, taskID uint64) error {
	if err := tasks.SyncTimeTracked(ctx, taskID); err != nil {
		return fmt.Errorf("failed to record tracked time: %w", err)
	}
	return nil
}

func toSessionView(session models.Session, now time.Time) SessionView {
	duration := session.LiveDuration(now)
	return SessionView{
		ID:                session.ID,
		TaskID:            session.TaskID,
		StartTime:         session.StartTime,
		EndTime:           session.EndTime,
		IsActive:          session.IsActive,
		Duration:          duration,
		FormattedDuration: utils.FormatDuration(duration),
	}
}
