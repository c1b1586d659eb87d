package sm2

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/conorfennell/cuecard/internal/domain"
)

// DueLines returns the lines whose due date is at or before now, by order.
func DueLines(lines []domain.Line, now time.Time) []domain.Line {
	var due []domain.Line
	for _, l := range lines {
		if !l.DueDate.After(now) {
			due = append(due, l)
		}
	}
	slices.SortStableFunc(due, func(a, b domain.Line) int { return a.Order - b.Order })
	return due
}

// TimeUntilNextReview describes how long until the earliest future due date,
// e.g. "5 minutes", "1 hour", "3 days". It returns "" when no line is due in
// the future.
func TimeUntilNextReview(lines []domain.Line, now time.Time) string {
	var earliest time.Time
	for _, l := range lines {
		if !l.DueDate.After(now) {
			continue
		}
		if earliest.IsZero() || l.DueDate.Before(earliest) {
			earliest = l.DueDate
		}
	}
	if earliest.IsZero() {
		return ""
	}

	diff := earliest.Sub(now)
	mins := int(math.Ceil(diff.Minutes()))
	hours := int(math.Ceil(diff.Hours()))
	days := int(math.Ceil(diff.Hours() / 24))

	switch {
	case mins < 60:
		return plural(mins, "minute")
	case hours < 24:
		return plural(hours, "hour")
	default:
		return plural(days, "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
