package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/cuecard/internal/domain"
)

const scriptColumns = `id, title, raw_markdown, my_character, chunk_size, fingerprint, source_id, created_at, updated_at`

// CommitScript writes a script with its scenes and lines in one transaction.
// Either all of them are stored or none are.
func (db *DB) CommitScript(ctx context.Context, script domain.Script, scenes []domain.Scene, lines []domain.Line) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO scripts (`+scriptColumns+`)
			VALUES (:id, :title, :raw_markdown, :my_character, :chunk_size, :fingerprint, :source_id, :created_at, :updated_at)
		`, script); err != nil {
			return fmt.Errorf("failed to insert script %s: %w", script.ID, err)
		}

		for _, scene := range scenes {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO scenes (id, script_id, name, scene_order)
				VALUES (:id, :script_id, :name, :scene_order)
			`, scene); err != nil {
				return fmt.Errorf("failed to insert scene %s: %w", scene.ID, err)
			}
		}

		for _, line := range lines {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO lines (`+lineColumns+`)
				VALUES (:id, :script_id, :scene_id, :cue, :cue_character, :response, :response_character,
					:line_order, :interval, :repetition, :efactor, :due_date, :consecutive_correct)
			`, line); err != nil {
				return fmt.Errorf("failed to insert line %s: %w", line.ID, err)
			}
		}
		return nil
	})
}

// ListScripts returns every script, newest first.
func (db *DB) ListScripts(ctx context.Context) ([]domain.Script, error) {
	var scripts []domain.Script
	err := db.conn.SelectContext(ctx, &scripts, `
		SELECT `+scriptColumns+`
		FROM scripts ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	return scripts, nil
}

// FindScript retrieves a script by ID. It returns nil if there is no such script.
func (db *DB) FindScript(ctx context.Context, id string) (*domain.Script, error) {
	var s domain.Script
	err := db.conn.GetContext(ctx, &s, `SELECT `+scriptColumns+` FROM scripts WHERE id = ?`, id)
	if err != nil {
		if notFound(err) {
			return nil, nil // Script not found
		}
		return nil, fmt.Errorf("failed to find script %s: %w", id, err)
	}
	return &s, nil
}

// FindScriptByFingerprint retrieves the oldest script imported with the given
// fingerprint, or nil if none was.
func (db *DB) FindScriptByFingerprint(ctx context.Context, fp string) (*domain.Script, error) {
	var s domain.Script
	err := db.conn.GetContext(ctx, &s, `
		SELECT `+scriptColumns+`
		FROM scripts WHERE fingerprint = ?
		ORDER BY created_at, rowid LIMIT 1
	`, fp)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find script by fingerprint %s: %w", fp, err)
	}
	return &s, nil
}

// ScriptsBySource retrieves all scripts imported from a source.
func (db *DB) ScriptsBySource(ctx context.Context, sourceID int64) ([]domain.Script, error) {
	var scripts []domain.Script
	err := db.conn.SelectContext(ctx, &scripts, `
		SELECT `+scriptColumns+`
		FROM scripts WHERE source_id = ?
		ORDER BY created_at, rowid
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scripts for source ID %d: %w", sourceID, err)
	}
	return scripts, nil
}

// DeleteScript removes a script together with its scenes, lines and reviews.
// Deleting a missing script is not an error.
func (db *DB) DeleteScript(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM scripts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete script %s: %w", id, err)
	}
	return nil
}

// ScenesByScript returns the scenes of a script in order.
func (db *DB) ScenesByScript(ctx context.Context, scriptID string) ([]domain.Scene, error) {
	var scenes []domain.Scene
	err := db.conn.SelectContext(ctx, &scenes, `
		SELECT id, script_id, name, scene_order
		FROM scenes WHERE script_id = ?
		ORDER BY scene_order
	`, scriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scenes for script %s: %w", scriptID, err)
	}
	return scenes, nil
}
