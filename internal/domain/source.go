package domain

import (
	"strings"
	"time"
)

// Source types.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Source is a local directory or git repository that scripts are synced from.
type Source struct {
	ID          int64      `db:"id"`
	Path        string     `db:"path" validate:"required"`
	Type        string     `db:"type" validate:"oneof=local git"`
	Character   string     `db:"character" validate:"required"`
	ChunkSize   int        `db:"chunk_size" validate:"gte=1"`
	LastScanned *time.Time `db:"last_scanned"`
}

// SourceType guesses whether path names a git remote or a local directory.
func SourceType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return SourceGit
	}
	return SourceLocal
}
