package models

import "time"

// Session is one contiguous interval of a user's time tracked against a task.
//
// ActiveKey carries the user id while the session is active and is NULL once
// it is closed. Its unique index is what allows at most one active session
// per user across all tasks.
type Session struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	TaskID    uint64     `gorm:"not null;index" json:"task_id"`
	UserID    uint64     `gorm:"not null;index:idx_time_sessions_user_active,priority:1" json:"user_id"`
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Duration  int64      `gorm:"not null;default:0" json:"duration"`
	IsActive  bool       `gorm:"not null;default:false;index:idx_time_sessions_user_active,priority:2" json:"is_active"`
	ActiveKey *string    `gorm:"type:varchar(32);uniqueIndex" json:"-"`
	CreatedAt time.Time  `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string {
	return "time_sessions"
}

// LiveDuration is the session length in whole seconds as of now. Closed
// sessions report their stored duration.
func (s Session) LiveDuration(now time.Time) int64 {
	if !s.IsActive {
		return s.Duration
	}
	return ElapsedSeconds(s.StartTime, now)
}

// ElapsedSeconds returns end-start in whole seconds, never negative.
func ElapsedSeconds(start, end time.Time) int64 {
	d := int64(end.Sub(start) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}
