package domain

import "time"

// SceneOpens is the cue shown for a line that opens its scene.
const SceneOpens = "(Scene opens)"

// Script is a named collection of dialogue committed from parsed source text.
// Only the timestamps change after creation.
type Script struct {
	ID          string    `db:"id" validate:"required"`
	Title       string    `db:"title" validate:"required"`
	RawMarkdown string    `db:"raw_markdown"`
	MyCharacter string    `db:"my_character" validate:"required"`
	ChunkSize   int       `db:"chunk_size" validate:"gte=1"`
	Fingerprint string    `db:"fingerprint"`
	SourceID    *int64    `db:"source_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Scene is an ordered subdivision of a script.
type Scene struct {
	ID       string `db:"id" validate:"required"`
	ScriptID string `db:"script_id" validate:"required"`
	Name     string `db:"name"`
	Order    int    `db:"scene_order" validate:"gte=0"`
}

// Line is one utterance of the learner's character paired with the cue
// that precedes it. Order is the single source of truth for presentation
// sequence and chunk membership.
type Line struct {
	ID                string `db:"id" validate:"required"`
	ScriptID          string `db:"script_id" validate:"required"`
	SceneID           string `db:"scene_id" validate:"required"`
	Cue               string `db:"cue"`
	CueCharacter      string `db:"cue_character"`
	Response          string `db:"response"`
	ResponseCharacter string `db:"response_character"`
	Order             int    `db:"line_order" validate:"gte=0"`

	// SM-2 state.
	Interval       int       `db:"interval" validate:"gte=0"`
	Repetition     int       `db:"repetition" validate:"gte=0"`
	EasinessFactor float64   `db:"efactor" validate:"gte=1.3"`
	DueDate        time.Time `db:"due_date"`

	// Short-horizon streak read by the chunk engine.
	ConsecutiveCorrect int `db:"consecutive_correct" validate:"gte=0"`
}

// ReviewLog records a single grading event for a line.
// ChunkIndex is the active chunk at the time of grading.
type ReviewLog struct {
	ID         int64     `db:"id"`
	LineID     string    `db:"line_id"`
	ScriptID   string    `db:"script_id"`
	Correct    bool      `db:"correct"`
	ChunkIndex int       `db:"chunk_index"`
	ReviewedAt time.Time `db:"reviewed_at"`
}
