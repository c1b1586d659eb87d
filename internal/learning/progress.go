package learning

import (
	"fmt"

	"github.com/conorfennell/cuecard/internal/domain"
)

// LineProgress is the per-line progress shown for the active chunk.
type LineProgress struct {
	LineID string
	// Streak is ConsecutiveCorrect clamped to MasteryThreshold.
	Streak   int
	Mastered bool
	Current  bool
}

// Percent is how far the line is towards mastery, 0-100.
func (p LineProgress) Percent() int {
	return p.Streak * 100 / MasteryThreshold
}

// ClampStreak limits a streak to MasteryThreshold for display.
func ClampStreak(n int) int {
	return min(max(n, 0), MasteryThreshold)
}

// Progress reports the mastery counters of the active chunk, marking the
// line with id currentID as current.
func Progress(active []domain.Line, currentID string) []LineProgress {
	out := make([]LineProgress, 0, len(active))
	for _, l := range active {
		out = append(out, LineProgress{
			LineID:   l.ID,
			Streak:   ClampStreak(l.ConsecutiveCorrect),
			Mastered: IsMastered(l),
			Current:  l.ID == currentID,
		})
	}
	return out
}

// ChunkSummary labels a chunk for display.
type ChunkSummary struct {
	Label     string // "Chunk 2 of 4"
	LineRange string // "Lines 6-10"
}

// Summarize labels the chunk at chunkIndex. Line numbers are one-based and
// the last chunk's range ends at totalLines.
func Summarize(chunkIndex, totalChunks, chunkSize, totalLines int) ChunkSummary {
	start := chunkIndex*chunkSize + 1
	end := min((chunkIndex+1)*chunkSize, totalLines)
	return ChunkSummary{
		Label:     fmt.Sprintf("Chunk %d of %d", chunkIndex+1, totalChunks),
		LineRange: fmt.Sprintf("Lines %d-%d", start, end),
	}
}
