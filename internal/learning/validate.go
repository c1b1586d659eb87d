package learning

import (
	"errors"
	"fmt"

	"github.com/conorfennell/cuecard/internal/domain"
)

var (
	ErrInvalidChunkSize = errors.New("learning: chunk size must be positive")
	ErrInvalidLine      = errors.New("learning: invalid line state")
)

// Validate checks the input contract of the engine: a positive chunk size,
// lines whose state satisfies the domain invariants, and orders that are
// unique within the set. Callers run it before Derive.
func Validate(lines []domain.Line, chunkSize int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, chunkSize)
	}

	seen := make(map[int]string, len(lines))
	for _, l := range lines {
		if err := domain.Validate(l); err != nil {
			return fmt.Errorf("%w: line %s: %v", ErrInvalidLine, l.ID, err)
		}
		if other, ok := seen[l.Order]; ok {
			return fmt.Errorf("%w: lines %s and %s share order %d", ErrInvalidLine, other, l.ID, l.Order)
		}
		seen[l.Order] = l.ID
	}
	return nil
}
