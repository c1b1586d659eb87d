package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/cuecard/internal/domain"
)

const lineColumns = `id, script_id, scene_id, cue, cue_character, response, response_character,
	line_order, interval, repetition, efactor, due_date, consecutive_correct`

// LinesByScript returns the full line ledger of a script ordered by line order.
func (db *DB) LinesByScript(ctx context.Context, scriptID string) ([]domain.Line, error) {
	var lines []domain.Line
	err := db.conn.SelectContext(ctx, &lines, `
		SELECT `+lineColumns+`
		FROM lines WHERE script_id = ?
		ORDER BY line_order
	`, scriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lines for script %s: %w", scriptID, err)
	}
	return lines, nil
}

// FindLine retrieves a line by ID. It returns nil if there is no such line.
func (db *DB) FindLine(ctx context.Context, id string) (*domain.Line, error) {
	var l domain.Line
	err := db.conn.GetContext(ctx, &l, `SELECT `+lineColumns+` FROM lines WHERE id = ?`, id)
	if err != nil {
		if notFound(err) {
			return nil, nil // Line not found
		}
		return nil, fmt.Errorf("failed to find line %s: %w", id, err)
	}
	return &l, nil
}

// RecordGrade stores the graded state of a line and appends entry to the
// review log in one transaction. On failure the prior state is left intact.
func (db *DB) RecordGrade(ctx context.Context, line domain.Line, entry domain.ReviewLog) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
			UPDATE lines
			SET interval = :interval, repetition = :repetition, efactor = :efactor,
				due_date = :due_date, consecutive_correct = :consecutive_correct
			WHERE id = :id
		`, line)
		if err != nil {
			return fmt.Errorf("failed to update line %s: %w", line.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update line %s: %w", line.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrLineNotFound, line.ID)
		}

		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO reviews (line_id, script_id, correct, chunk_index, reviewed_at)
			VALUES (:line_id, :script_id, :correct, :chunk_index, :reviewed_at)
		`, entry); err != nil {
			return fmt.Errorf("failed to record review of line %s: %w", line.ID, err)
		}
		return nil
	})
}

// LastReview returns the most recent review of a script, or nil if it has
// never been reviewed.
func (db *DB) LastReview(ctx context.Context, scriptID string) (*domain.ReviewLog, error) {
	var r domain.ReviewLog
	err := db.conn.GetContext(ctx, &r, `
		SELECT id, line_id, script_id, correct, chunk_index, reviewed_at
		FROM reviews WHERE script_id = ?
		ORDER BY id DESC LIMIT 1
	`, scriptID)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last review for script %s: %w", scriptID, err)
	}
	return &r, nil
}

// CountReviews returns how many times the lines of a script have been graded.
func (db *DB) CountReviews(ctx context.Context, scriptID string) (int, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM reviews WHERE script_id = ?`, scriptID); err != nil {
		return 0, fmt.Errorf("failed to count reviews for script %s: %w", scriptID, err)
	}
	return n, nil
}
