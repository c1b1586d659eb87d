// Package learning decides which line of a script the learner works on next.
//
// Progression is gated by chunks: the lines of a script, in order, are cut
// into fixed-size groups and the learner stays on the first group that is not
// fully mastered. A line is mastered once it has been recalled correctly
// MasteryThreshold times in a row. Everything here is a pure derivation from
// the current line state; nothing is cached between calls.
package learning

import (
	"slices"

	"github.com/conorfennell/cuecard/internal/domain"
)

const (
	// MasteryThreshold is the streak of correct answers that masters a line.
	MasteryThreshold = 3
	// DefaultChunkSize is the chunk size of a script created without one.
	DefaultChunkSize = 5
)

// Phase is the coarse position of a learner in a script.
type Phase string

const (
	PhaseChunk    Phase = "chunk"
	PhaseComplete Phase = "complete"
)

// State is the learning state derived from a script's lines.
type State struct {
	Phase            Phase
	ActiveChunkIndex int
	TotalChunks      int
	// LinesToReview holds every line of the active chunk, mastered or not.
	LinesToReview []domain.Line
}

// IsMastered reports whether the line's streak has reached MasteryThreshold.
func IsMastered(line domain.Line) bool {
	return line.ConsecutiveCorrect >= MasteryThreshold
}

// IsChunkMastered reports whether every line in chunk is mastered.
// An empty chunk is mastered.
func IsChunkMastered(chunk []domain.Line) bool {
	for _, l := range chunk {
		if !IsMastered(l) {
			return false
		}
	}
	return true
}

// Unmastered returns the lines that are not yet mastered, keeping their order.
func Unmastered(lines []domain.Line) []domain.Line {
	var out []domain.Line
	for _, l := range lines {
		if !IsMastered(l) {
			out = append(out, l)
		}
	}
	return out
}

// ChunksOf sorts lines by order and slices them into consecutive groups of
// chunkSize. The last group may be shorter. Zero lines yield zero chunks.
// ChunksOf panics if chunkSize is not positive; see Validate.
func ChunksOf(lines []domain.Line, chunkSize int) [][]domain.Line {
	if chunkSize <= 0 {
		panic("learning: chunk size must be positive")
	}

	sorted := slices.Clone(lines)
	slices.SortStableFunc(sorted, func(a, b domain.Line) int { return a.Order - b.Order })

	var chunks [][]domain.Line
	for start := 0; start < len(sorted); start += chunkSize {
		end := min(start+chunkSize, len(sorted))
		chunks = append(chunks, sorted[start:end:end])
	}
	return chunks
}

// Derive computes the learning state of a script. The active chunk is the
// first chunk that is not fully mastered; a later chunk never becomes active
// while an earlier one is unmastered.
func Derive(lines []domain.Line, chunkSize int) State {
	if len(lines) == 0 {
		return State{Phase: PhaseComplete, LinesToReview: []domain.Line{}}
	}

	chunks := ChunksOf(lines, chunkSize)
	for i, chunk := range chunks {
		if !IsChunkMastered(chunk) {
			return State{
				Phase:            PhaseChunk,
				ActiveChunkIndex: i,
				TotalChunks:      len(chunks),
				LinesToReview:    chunk,
			}
		}
	}

	return State{
		Phase:            PhaseComplete,
		ActiveChunkIndex: len(chunks) - 1,
		TotalChunks:      len(chunks),
		LinesToReview:    []domain.Line{},
	}
}
