package dto

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/services"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

// SessionDTO represents a time tracking session
type SessionDTO struct {
	ID                uint64     `json:"id"`
	TaskID            uint64     `json:"task_id"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time"`
	IsActive          bool       `json:"is_active"`
	Duration          int64      `json:"duration"`
	FormattedDuration string     `json:"formatted_duration"`
}

// ActiveSessionDTO is an active session with its task title
type ActiveSessionDTO struct {
	SessionDTO
	TaskTitle string `json:"task_title"`
}

// TrackingStatusDTO summarizes a user's tracking state on one task
type TrackingStatusDTO struct {
	IsActive        bool        `json:"is_active"`
	ActiveSession   *SessionDTO `json:"active_session"`
	CurrentDuration int64       `json:"current_duration"`
	TaskTimeTracked int64       `json:"task_time_tracked"`
	UserTotal       int64       `json:"user_total"`
	FormattedTotal  string      `json:"formatted_user_total"`
}

// DashboardTaskDTO is the time summary of one task
type DashboardTaskDTO struct {
	TaskID         uint64 `json:"task_id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	TotalSeconds   int64  `json:"total_seconds"`
	FormattedTotal string `json:"formatted_total"`
	IsActive       bool   `json:"is_active"`
}

// StatusCountDTO is the number of tasks in a status
type StatusCountDTO struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DashboardResponse aggregates a user's visible tasks
type DashboardResponse struct {
	TaskCount      int                `json:"task_count"`
	StatusCounts   []StatusCountDTO   `json:"status_counts"`
	Tasks          []DashboardTaskDTO `json:"tasks"`
	TotalSeconds   int64              `json:"total_seconds"`
	FormattedTotal string             `json:"formatted_total"`
	ActiveSessions int                `json:"active_sessions"`
}

// ToSessionViewDTO converts a session view computed by the service
func ToSessionViewDTO(view services.SessionView) SessionDTO {
	return SessionDTO{
		ID:                view.ID,
		TaskID:            view.TaskID,
		StartTime:         view.StartTime,
		EndTime:           view.EndTime,
		IsActive:          view.IsActive,
		Duration:          view.Duration,
		FormattedDuration: view.FormattedDuration,
	}
}

// ToSessionViewDTOs converts a session history
func ToSessionViewDTOs(views []services.SessionView) []SessionDTO {
	dtos := make([]SessionDTO, len(views))
	for i, v := range views {
		dtos[i] = ToSessionViewDTO(v)
	}
	return dtos
}

// ToActiveSessionDTOs converts the active session listing
func ToActiveSessionDTOs(views []services.ActiveSessionView) []ActiveSessionDTO {
	dtos := make([]ActiveSessionDTO, len(views))
	for i, v := range views {
		dtos[i] = ActiveSessionDTO{
			SessionDTO: ToSessionViewDTO(v.SessionView),
			TaskTitle:  v.TaskTitle,
		}
	}
	return dtos
}

// ToTrackingStatusDTO converts a tracking status
func ToTrackingStatusDTO(status services.TrackingStatus) TrackingStatusDTO {
	dto := TrackingStatusDTO{
		IsActive:        status.IsActive,
		CurrentDuration: status.CurrentDuration,
		TaskTimeTracked: status.TaskTimeTracked,
		UserTotal:       status.UserTotal,
		FormattedTotal:  utils.FormatDuration(status.UserTotal),
	}
	if status.ActiveSession != nil {
		active := ToSessionViewDTO(*status.ActiveSession)
		dto.ActiveSession = &active
	}
	return dto
}

// ToDashboardResponse converts a dashboard
func ToDashboardResponse(d services.Dashboard) DashboardResponse {
	counts := make([]StatusCountDTO, len(d.StatusCounts))
	for i, c := range d.StatusCounts {
		counts[i] = StatusCountDTO{Status: c.Status, Count: c.Count}
	}
	tasks := make([]DashboardTaskDTO, len(d.Tasks))
	for i, t := range d.Tasks {
		tasks[i] = DashboardTaskDTO{
			TaskID:         t.TaskID,
			Title:          t.Title,
			Status:         t.Status,
			TotalSeconds:   t.TotalSeconds,
			FormattedTotal: utils.FormatDuration(t.TotalSeconds),
			IsActive:       t.IsActive,
		}
	}
	return DashboardResponse{
		TaskCount:      d.TaskCount,
		StatusCounts:   counts,
		Tasks:          tasks,
		TotalSeconds:   d.TotalSeconds,
		FormattedTotal: utils.FormatDuration(d.TotalSeconds),
		ActiveSessions: d.ActiveSessions,
	}
}
