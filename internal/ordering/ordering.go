// Package ordering holds the sort-index arithmetic of the board.
//
// Tasks in a container are ordered by a float64 sort index. Indices are
// sparse so a task can be dropped between two neighbours by picking a value
// strictly between them without touching any sibling. Repeated midpoint
// insertions eventually exhaust float precision; NeedsRenormalization detects
// that and Spaced produces the replacement indices.
package ordering

import (
	"math"

	"github.com/yukikurage/kanban-board-api/internal/constants"
)

const (
	// MinGap is the smallest distance between neighbours still considered splittable.
	MinGap = 1e-6
	// MaxMagnitude bounds indices before precision of the step itself degrades.
	MaxMagnitude = 1e12
)

// Valid reports whether v can be stored as a sort index.
func Valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Between returns the midpoint of prev and next.
func Between(prev, next float64) float64 {
	return prev + (next-prev)/2
}

// After returns an index placed one step after last.
func After(last float64) float64 {
	return last + constants.SortIndexStep
}

// Before returns an index placed one step before first.
func Before(first float64) float64 {
	return first - constants.SortIndexStep
}

// Place returns an index for a task dropped between prev and next. Either
// neighbour may be nil when the task is dropped at an end of the container.
func Place(prev, next *float64) float64 {
	switch {
	case prev == nil && next == nil:
		return constants.SortIndexStep
	case prev == nil:
		return Before(*next)
	case next == nil:
		return After(*prev)
	default:
		return Between(*prev, *next)
	}
}

// Spaced returns n evenly spaced indices starting at one step.
func Spaced(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i+1) * constants.SortIndexStep
	}
	return out
}

// NeedsRenormalization reports whether an ascending slice of indices has
// neighbours too close to split or values large enough to lose precision.
func NeedsRenormalization(sorted []float64) bool {
	for i, v := range sorted {
		if math.Abs(v) > MaxMagnitude {
			return true
		}
		if i > 0 && v-sorted[i-1] < MinGap {
			return true
		}
	}
	return false
}
