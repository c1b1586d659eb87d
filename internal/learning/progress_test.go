package learning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/cuecard/internal/domain"
)

func TestProgress(t *testing.T) {
	chunk := []domain.Line{newLine(0, 2), newLine(1, 1), newLine(2, 7)}
	got := Progress(chunk, "line-1")

	require.Len(t, got, 3)
	assert.Equal(t, LineProgress{LineID: "line-0", Streak: 2}, got[0])
	assert.Equal(t, LineProgress{LineID: "line-1", Streak: 1, Current: true}, got[1])
	assert.Equal(t, LineProgress{LineID: "line-2", Streak: 3, Mastered: true}, got[2], "streak is clamped")
	assert.Equal(t, 66, got[0].Percent())
	assert.Equal(t, 100, got[2].Percent())
}

func TestClampStreak(t *testing.T) {
	assert.Equal(t, 0, ClampStreak(-1))
	assert.Equal(t, 2, ClampStreak(2))
	assert.Equal(t, 3, ClampStreak(3))
	assert.Equal(t, 3, ClampStreak(12))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, ChunkSummary{Label: "Chunk 1 of 3", LineRange: "Lines 1-3"}, Summarize(0, 3, 3, 7))
	assert.Equal(t, ChunkSummary{Label: "Chunk 3 of 3", LineRange: "Lines 7-7"}, Summarize(2, 3, 3, 7))
}

func TestValidate(t *testing.T) {
	t.Run("accepts a well formed ledger", func(t *testing.T) {
		assert.NoError(t, Validate(seven(), 3))
		assert.NoError(t, Validate(nil, 1))
	})

	t.Run("rejects a non-positive chunk size", func(t *testing.T) {
		err := Validate(seven(), 0)
		assert.True(t, errors.Is(err, ErrInvalidChunkSize))
	})

	t.Run("rejects a negative order", func(t *testing.T) {
		err := Validate([]domain.Line{newLine(-1, 0)}, 3)
		assert.True(t, errors.Is(err, ErrInvalidLine))
	})

	t.Run("rejects easiness below the floor", func(t *testing.T) {
		l := newLine(0, 0)
		l.EasinessFactor = 1.2
		assert.ErrorIs(t, Validate([]domain.Line{l}, 3), ErrInvalidLine)
	})

	t.Run("rejects duplicate orders", func(t *testing.T) {
		a, b := newLine(1, 0), newLine(1, 0)
		b.ID = "other"
		assert.ErrorIs(t, Validate([]domain.Line{a, b}, 3), ErrInvalidLine)
	})
}
