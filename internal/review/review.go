// Package review runs the review loop of a script: it reads the full line
// ledger, derives what to present, and persists one grade at a time.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conorfennell/cuecard/internal/domain"
	"github.com/conorfennell/cuecard/internal/learning"
	"github.com/conorfennell/cuecard/internal/sm2"
)

var (
	ErrScriptNotFound = errors.New("review: script not found")
	ErrLineNotFound   = errors.New("review: line not found")
	// ErrNotCurrentLine rejects a grade that does not answer the current
	// presentation, such as a double submission or a stale page.
	ErrNotCurrentLine = errors.New("review: line is not the current line")
)

// Store is the persistence the review loop needs.
type Store interface {
	ListScripts(ctx context.Context) ([]domain.Script, error)
	FindScript(ctx context.Context, id string) (*domain.Script, error)
	LinesByScript(ctx context.Context, scriptID string) ([]domain.Line, error)
	ScenesByScript(ctx context.Context, scriptID string) ([]domain.Scene, error)
	FindLine(ctx context.Context, id string) (*domain.Line, error)
	LastReview(ctx context.Context, scriptID string) (*domain.ReviewLog, error)
	CountReviews(ctx context.Context, scriptID string) (int, error)
	RecordGrade(ctx context.Context, line domain.Line, entry domain.ReviewLog) error
}

// Presentation is what a learner sees for a script at a moment in time.
type Presentation struct {
	Script      domain.Script
	Phase       learning.Phase
	ChunkIndex  int
	TotalChunks int
	Summary     learning.ChunkSummary

	// Line is the line to recall. It is nil once the script is complete.
	Line     *domain.Line
	Scene    string
	Streak   int
	Progress []learning.LineProgress

	// Turn is the number of grades recorded for the script when this was
	// presented. Grade only accepts an answer carrying the current turn.
	Turn int

	TotalLines    int
	MasteredLines int
	// Set when complete: lines past their SM-2 due date, and how long until
	// the next one falls due, e.g. "3 days".
	DueLines     int
	NextReviewIn string
}

// Complete reports whether every line of the script is mastered.
func (p *Presentation) Complete() bool {
	return p.Phase == learning.PhaseComplete
}

// Overview summarizes a script for listings.
type Overview struct {
	Script        domain.Script
	Phase         learning.Phase
	Summary       learning.ChunkSummary
	TotalLines    int
	MasteredLines int
	DueLines      int
}

// Percent is the share of mastered lines, 0-100.
func (o Overview) Percent() int {
	if o.TotalLines == 0 {
		return 100
	}
	return o.MasteredLines * 100 / o.TotalLines
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used to time grades.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service serializes grading per process so two submissions never race on
// the same ledger.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewService creates a review service backed by store.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the current presentation of a script.
func (s *Service) Next(ctx context.Context, scriptID string) (*Presentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next(ctx, scriptID)
}

// Grade records a judgement of the line presented for a script at turn and
// returns the presentation that follows. Only the current line at the
// current turn can be graded, so replaying an answer fails with
// ErrNotCurrentLine even when the same line comes up again. If persisting
// the grade fails nothing changes and the error is returned.
func (s *Service) Grade(ctx context.Context, scriptID, lineID string, turn int, correct bool) (*Presentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	script, lines, err := s.load(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	state := learning.Derive(lines, script.ChunkSize)
	current, err := s.current(ctx, script.ID, state)
	if err != nil {
		return nil, err
	}

	line, err := s.store.FindLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line == nil || line.ScriptID != script.ID {
		return nil, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	reviews, err := s.store.CountReviews(ctx, script.ID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.ID != lineID || turn != reviews {
		return nil, ErrNotCurrentLine
	}

	now := s.now()
	graded := sm2.Grade(*current, correct, now)
	entry := domain.ReviewLog{
		LineID:     graded.ID,
		ScriptID:   script.ID,
		Correct:    correct,
		ChunkIndex: state.ActiveChunkIndex,
		ReviewedAt: now,
	}
	if err := s.store.RecordGrade(ctx, graded, entry); err != nil {
		s.logger.Error("failed to record grade", "script_id", script.ID, "line_id", lineID, "error", err)
		return nil, fmt.Errorf("failed to record grade: %w", err)
	}

	s.logger.Debug("graded line",
		"script_id", script.ID,
		"line_order", graded.Order,
		"correct", correct,
		"streak", graded.ConsecutiveCorrect,
		"interval", graded.Interval,
	)

	return s.next(ctx, scriptID)
}

// Overviews summarizes every script, newest first.
func (s *Service) Overviews(ctx context.Context) ([]Overview, error) {
	scripts, err := s.store.ListScripts(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	out := make([]Overview, 0, len(scripts))
	for _, script := range scripts {
		lines, err := s.store.LinesByScript(ctx, script.ID)
		if err != nil {
			return nil, err
		}
		o := Overview{Script: script, TotalLines: len(lines), DueLines: len(sm2.DueLines(lines, now))}
		for _, l := range lines {
			if learning.IsMastered(l) {
				o.MasteredLines++
			}
		}
		if err := learning.Validate(lines, script.ChunkSize); err != nil {
			s.logger.Warn("skipping progress of invalid script", "script_id", script.ID, "error", err)
			out = append(out, o)
			continue
		}
		state := learning.Derive(lines, script.ChunkSize)
		o.Phase = state.Phase
		o.Summary = summarize(state, script.ChunkSize, len(lines))
		out = append(out, o)
	}
	return out, nil
}

func (s *Service) next(ctx context.Context, scriptID string) (*Presentation, error) {
	script, lines, err := s.load(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	state := learning.Derive(lines, script.ChunkSize)

	p := &Presentation{
		Script:      *script,
		Phase:       state.Phase,
		ChunkIndex:  state.ActiveChunkIndex,
		TotalChunks: state.TotalChunks,
		Summary:     summarize(state, script.ChunkSize, len(lines)),
		TotalLines:  len(lines),
	}
	for _, l := range lines {
		if learning.IsMastered(l) {
			p.MasteredLines++
		}
	}

	if p.Turn, err = s.store.CountReviews(ctx, script.ID); err != nil {
		return nil, err
	}

	if state.Phase == learning.PhaseComplete {
		now := s.now()
		p.DueLines = len(sm2.DueLines(lines, now))
		p.NextReviewIn = sm2.TimeUntilNextReview(lines, now)
		return p, nil
	}

	current, err := s.current(ctx, script.ID, state)
	if err != nil {
		return nil, err
	}
	if p.Scene, err = s.sceneName(ctx, script.ID, current.SceneID); err != nil {
		return nil, err
	}
	p.Line = current
	p.Streak = learning.ClampStreak(current.ConsecutiveCorrect)
	p.Progress = learning.Progress(state.LinesToReview, current.ID)
	return p, nil
}

func (s *Service) sceneName(ctx context.Context, scriptID, sceneID string) (string, error) {
	scenes, err := s.store.ScenesByScript(ctx, scriptID)
	if err != nil {
		return "", err
	}
	for _, sc := range scenes {
		if sc.ID == sceneID {
			return sc.Name, nil
		}
	}
	return "", nil
}

func summarize(state learning.State, chunkSize, totalLines int) learning.ChunkSummary {
	if state.TotalChunks == 0 {
		return learning.ChunkSummary{}
	}
	return learning.Summarize(state.ActiveChunkIndex, state.TotalChunks, chunkSize, totalLines)
}

// load reads a script and its full ledger and checks the ledger is usable.
func (s *Service) load(ctx context.Context, scriptID string) (*domain.Script, []domain.Line, error) {
	script, err := s.store.FindScript(ctx, scriptID)
	if err != nil {
		return nil, nil, err
	}
	if script == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrScriptNotFound, scriptID)
	}
	lines, err := s.store.LinesByScript(ctx, scriptID)
	if err != nil {
		return nil, nil, err
	}
	if err := learning.Validate(lines, script.ChunkSize); err != nil {
		return nil, nil, fmt.Errorf("script %s: %w", scriptID, err)
	}
	return script, lines, nil
}

// current selects the line to present from state, or nil when complete.
// The rotation cursor comes from the last review: if that line is still in
// the active chunk the next unmastered line after it is chosen, otherwise
// the chunk starts from its first unmastered line.
func (s *Service) current(ctx context.Context, scriptID string, state learning.State) (*domain.Line, error) {
	if state.Phase == learning.PhaseComplete {
		return nil, nil
	}

	last, err := s.store.LastReview(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	cursor := 0
	if last != nil {
		for _, l := range state.LinesToReview {
			if l.ID == last.LineID {
				cursor = learning.CursorAfter(state.LinesToReview, l.Order)
				break
			}
		}
	}

	line, ok := learning.NextLine(state.LinesToReview, cursor)
	if !ok {
		// Derive never returns a mastered active chunk.
		return nil, fmt.Errorf("script %s: active chunk has no unmastered lines", scriptID)
	}
	return &line, nil
}
