// Package sync imports scripts from configured sources. Existing scripts are
// never changed: a file that was edited is imported again as a new script,
// and scripts whose file disappeared are reported as stale.
package sync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/cuecard/internal/domain"
	"github.com/conorfennell/cuecard/internal/fingerprint"
	"github.com/conorfennell/cuecard/internal/gitsource"
	"github.com/conorfennell/cuecard/internal/parser"
	"github.com/conorfennell/cuecard/internal/storage"
)

// Report summarizes a sync run.
type Report struct {
	Sources  int
	Imported []domain.Script
	// Skipped counts files already imported or without the source's character.
	Skipped int
	// Stale lists scripts whose source file is no longer present.
	Stale  []domain.Script
	Errors []error
}

func (r *Report) merge(other *Report) {
	r.Sources += other.Sources
	r.Imported = append(r.Imported, other.Imported...)
	r.Skipped += other.Skipped
	r.Stale = append(r.Stale, other.Stale...)
	r.Errors = append(r.Errors, other.Errors...)
}

// Syncer reconciles sources into scripts.
type Syncer struct {
	db       *storage.DB
	logger   *slog.Logger
	reposDir string
	now      func() time.Time
}

// New creates a Syncer. Git sources are checked out below reposDir.
func New(db *storage.DB, logger *slog.Logger, reposDir string) *Syncer {
	return &Syncer{db: db, logger: logger, reposDir: reposDir, now: time.Now}
}

// Run iterates over all sources and reconciles them. A failing source is
// logged and recorded in the report; the others still sync.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	s.logger.Info("starting sync for all sources")
	sources, err := s.db.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if len(sources) == 0 {
		s.logger.Info("no sources configured; add one with 'cuecard source add'")
		return report, nil
	}

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r, err := s.SyncSource(ctx, source)
		if err != nil {
			s.logger.Error("failed to sync source", "source_id", source.ID, "path", source.Path, "error", err)
			report.Sources++
			report.Errors = append(report.Errors, fmt.Errorf("source %s: %w", source.Path, err))
			continue
		}
		report.merge(r)
	}

	s.logger.Info("sync complete",
		"sources", report.Sources,
		"imported", len(report.Imported),
		"skipped", report.Skipped,
		"stale", len(report.Stale),
		"errors", len(report.Errors),
	)
	return report, nil
}

// SyncSource reconciles a single source, fetching it first if it is a git
// repository.
func (s *Syncer) SyncSource(ctx context.Context, source domain.Source) (*Report, error) {
	s.logger.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

	dir := source.Path
	if source.Type == domain.SourceGit {
		if err := os.MkdirAll(s.reposDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create repos directory: %w", err)
		}
		localRepoPath, err := gitUrlToLocalPath(s.reposDir, source.Path)
		if err != nil {
			return nil, err
		}
		if err := gitsource.Sync(ctx, s.logger, source.Path, localRepoPath); err != nil {
			return nil, err
		}
		dir = localRepoPath
	}

	return s.reconcile(ctx, source, dir)
}

func (s *Syncer) reconcile(ctx context.Context, source domain.Source, dir string) (*Report, error) {
	report := &Report{Sources: 1}
	found := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.Supported(path) {
			return nil
		}

		p, err := parser.ParseFile(path)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, err))
			return nil
		}
		fp := fingerprint.Of(p.Source, source.Character)
		found[fp] = true

		existing, err := s.db.FindScriptByFingerprint(ctx, fp)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("db check for %s: %w", path, err))
			return nil
		}
		if existing != nil {
			report.Skipped++
			return nil
		}
		if !p.HasCharacter(source.Character) {
			s.logger.Info("character not in script, skipping", "path", path, "character", source.Character)
			report.Skipped++
			return nil
		}

		script, err := s.importScript(ctx, source, p)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("importing %s: %w", path, err))
			return nil
		}
		s.logger.Info("new script found, imported", "path", path, "script_id", script.ID, "title", script.Title)
		report.Imported = append(report.Imported, *script)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}

	scripts, err := s.db.ScriptsBySource(ctx, source.ID)
	if err != nil {
		return nil, err
	}
	for _, script := range scripts {
		if !found[script.Fingerprint] {
			s.logger.Info("script no longer in source", "script_id", script.ID, "title", script.Title)
			report.Stale = append(report.Stale, script)
		}
	}

	if err := s.db.UpdateSourceLastScanned(ctx, source.ID, s.now()); err != nil {
		s.logger.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	s.logger.Info("reconciliation complete",
		"path", dir,
		"imported", len(report.Imported),
		"skipped", report.Skipped,
		"stale", len(report.Stale),
		"errors", len(report.Errors),
	)
	return report, nil
}

func (s *Syncer) importScript(ctx context.Context, source domain.Source, p *parser.ParsedScript) (*domain.Script, error) {
	b, err := parser.Build(p, source.Character, source.ChunkSize, s.now())
	if err != nil {
		return nil, err
	}
	id := source.ID
	b.Script.SourceID = &id
	if err := s.db.CommitScript(ctx, b.Script, b.Scenes, b.Lines); err != nil {
		return nil, err
	}
	return &b.Script, nil
}

func gitUrlToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
