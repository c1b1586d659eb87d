package sm2

import (
	"math"
	"time"

	"github.com/conorfennell/cuecard/internal/domain"
)

// Quality is the 0-5 recall quality of the SM-2 family.
type Quality int

const (
	QualityBlackout          Quality = 0
	QualityIncorrect         Quality = 1 // wrong, but remembered on seeing the answer
	QualityIncorrectFamiliar Quality = 2
	QualityCorrectDifficult  Quality = 3
	QualityCorrectHesitation Quality = 4 // right after some hesitation
	QualityPerfect           Quality = 5
)

const (
	// PassThreshold is the lowest quality that counts as a successful recall.
	PassThreshold = QualityCorrectDifficult
	// InitialEasiness is the easiness factor of a line that was never graded.
	InitialEasiness = 2.5
	// MinEasiness is the floor of the easiness factor.
	MinEasiness = 1.3
)

// State is the long-horizon recurrence state of a line.
type State struct {
	Interval       int // days
	Repetition     int
	EasinessFactor float64
}

// QualityOf maps a binary grade onto the SM-2 scale. Correct is 4 and
// incorrect is 1; 0, 2, 3 and 5 are never produced.
func QualityOf(correct bool) Quality {
	if correct {
		return QualityCorrectHesitation
	}
	return QualityIncorrect
}

// Next applies one SM-2 step.
func Next(s State, q Quality) State {
	var next State

	if q < PassThreshold {
		next.Repetition = 0
		next.Interval = 1
	} else {
		switch s.Repetition {
		case 0:
			next.Interval = 1
		case 1:
			next.Interval = 6
		default:
			next.Interval = int(math.Round(float64(s.Interval) * s.EasinessFactor))
		}
		next.Repetition = s.Repetition + 1
	}

	miss := float64(5 - q)
	next.EasinessFactor = math.Max(s.EasinessFactor+(0.1-miss*(0.08+miss*0.02)), MinEasiness)

	return next
}

// Grade returns a copy of line advanced by one binary grading event at now.
// The SM-2 fields and due date follow Next; ConsecutiveCorrect grows by one
// on a correct answer and resets to zero otherwise. Identity, content, order
// and provenance pass through unchanged.
func Grade(line domain.Line, correct bool, now time.Time) domain.Line {
	next := Next(State{
		Interval:       line.Interval,
		Repetition:     line.Repetition,
		EasinessFactor: line.EasinessFactor,
	}, QualityOf(correct))

	line.Interval = next.Interval
	line.Repetition = next.Repetition
	line.EasinessFactor = next.EasinessFactor
	line.DueDate = now.AddDate(0, 0, next.Interval)

	if correct {
		line.ConsecutiveCorrect++
	} else {
		line.ConsecutiveCorrect = 0
	}
	return line
}
