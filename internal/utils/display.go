package utils

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/constants"
)

// FormatDuration renders seconds as HH:MM:SS. Hours are not wrapped at 24.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// DueDateLabel describes a due date relative to now.
func DueDateLabel(due *time.Time, now time.Time) string {
	if due == nil {
		return constants.NoDueDateLabel
	}
	formatted := due.Format(constants.DueDateLayout)
	if due.Before(now) {
		return constants.OverduePrefix + formatted
	}
	return formatted
}

// AssigneeColor picks a palette color for a display name. The same name
// always maps to the same color.
func AssigneeColor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	palette := constants.AssigneePalette
	return palette[h.Sum32()%uint32(len(palette))]
}
