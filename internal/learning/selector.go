package learning

import "github.com/conorfennell/cuecard/internal/domain"

// NextLine picks the line to present from the active chunk: the unmastered
// line at cursor modulo the number of unmastered lines. It returns false when
// every line of the chunk is mastered, in which case the caller derives a
// fresh State to move on to the next chunk.
func NextLine(active []domain.Line, cursor int) (domain.Line, bool) {
	pending := Unmastered(active)
	if len(pending) == 0 {
		return domain.Line{}, false
	}
	i := cursor % len(pending)
	if i < 0 {
		i += len(pending)
	}
	return pending[i], true
}

// CursorAfter returns the rotation cursor that follows grading the line with
// order gradedOrder, measured against the unmastered lines of active as they
// are now. It points at the first unmastered line ordered after the graded
// one and wraps to 0 past the end, so a line that was just mastered is
// skipped without leaving a gap.
func CursorAfter(active []domain.Line, gradedOrder int) int {
	for i, l := range Unmastered(active) {
		if l.Order > gradedOrder {
			return i
		}
	}
	return 0
}
