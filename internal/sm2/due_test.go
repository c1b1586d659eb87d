package sm2

import (
	"testing"
	"time"

	"github.com/conorfennell/cuecard/internal/domain"
)

func lineDue(id string, order int, due time.Time) domain.Line {
	return domain.Line{ID: id, Order: order, DueDate: due, EasinessFactor: InitialEasiness}
}

func TestDueLines(t *testing.T) {
	t.Run("returns lines due at or before now", func(t *testing.T) {
		lines := []domain.Line{
			lineDue("1", 1, now.Add(-24*time.Hour)),
			lineDue("2", 2, now.Add(24*time.Hour)),
			lineDue("3", 3, now),
		}
		due := DueLines(lines, now)
		if len(due) != 2 || due[0].ID != "1" || due[1].ID != "3" {
			t.Errorf("Expected lines 1 and 3, got %+v", due)
		}
	})

	t.Run("sorts by order", func(t *testing.T) {
		past := now.Add(-time.Hour)
		lines := []domain.Line{lineDue("3", 3, past), lineDue("1", 1, past), lineDue("2", 2, past)}
		due := DueLines(lines, now)
		for i, want := range []string{"1", "2", "3"} {
			if due[i].ID != want {
				t.Errorf("Position %d: expected %s, got %s", i, want, due[i].ID)
			}
		}
	})
}

func TestTimeUntilNextReview(t *testing.T) {
	testCases := []struct {
		name  string
		lines []domain.Line
		want  string
	}{
		{"no lines", nil, ""},
		{"nothing in the future", []domain.Line{lineDue("1", 0, now)}, ""},
		{"one minute", []domain.Line{lineDue("1", 0, now.Add(30*time.Second))}, "1 minute"},
		{"minutes", []domain.Line{lineDue("1", 0, now.Add(5*time.Minute))}, "5 minutes"},
		{"hours round up", []domain.Line{lineDue("1", 0, now.Add(90*time.Minute))}, "2 hours"},
		{"one day", []domain.Line{lineDue("1", 0, now.AddDate(0, 0, 1))}, "1 day"},
		{"earliest wins", []domain.Line{
			lineDue("1", 0, now.AddDate(0, 0, 6)),
			lineDue("2", 1, now.AddDate(0, 0, 2)),
		}, "2 days"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TimeUntilNextReview(tc.lines, now); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}
