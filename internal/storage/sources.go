package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/cuecard/internal/domain"
)

const sourceColumns = `id, path, type, character, chunk_size, last_scanned`

// InsertSource inserts a new source into the database and returns its ID.
func (db *DB) InsertSource(ctx context.Context, s domain.Source) (int64, error) {
	res, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO sources (path, type, character, chunk_size, last_scanned)
		VALUES (:path, :type, :character, :chunk_size, :last_scanned)
	`, s)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", s.Path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", s.Path, err)
	}
	return id, nil
}

// FindSource retrieves a source by ID. It returns nil if there is no such source.
func (db *DB) FindSource(ctx context.Context, id int64) (*domain.Source, error) {
	var s domain.Source
	err := db.conn.GetContext(ctx, &s, `SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)
	if err != nil {
		if notFound(err) {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source %d: %w", id, err)
	}
	return &s, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (*domain.Source, error) {
	var s domain.Source
	err := db.conn.GetContext(ctx, &s, `SELECT `+sourceColumns+` FROM sources WHERE path = ?`, path)
	if err != nil {
		if notFound(err) {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// ListSources retrieves all stored sources from the database.
func (db *DB) ListSources(ctx context.Context) ([]domain.Source, error) {
	var sources []domain.Source
	if err := db.conn.SelectContext(ctx, &sources, `SELECT `+sourceColumns+` FROM sources ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	return sources, nil
}

// DeleteSource removes a source. Scripts imported from it are kept.
func (db *DB) DeleteSource(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, at, sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}
