package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/cuecard/internal/domain"
	"github.com/conorfennell/cuecard/internal/parser"
)

const play = `# Play

## One

ALICE: Hello.
BOB: Hi.
ALICE: How are you?

## Two

BOB: Fine.
ALICE: Good.
`

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func commitPlay(t *testing.T, db *DB, now time.Time) *parser.Bundle {
	t.Helper()
	b, err := parser.Build(parser.ParseMarkdown(play), "ALICE", 2, now)
	require.NoError(t, err)
	require.NoError(t, db.CommitScript(context.Background(), b.Script, b.Scenes, b.Lines))
	return b
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cuecard.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening applies the schema again without error.
	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestCommitScript(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := commitPlay(t, db, now)

	got, err := db.FindScript(ctx, b.Script.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Play", got.Title)
	assert.Equal(t, "ALICE", got.MyCharacter)
	assert.Equal(t, 2, got.ChunkSize)
	assert.Nil(t, got.SourceID)
	assert.True(t, got.CreatedAt.Equal(now))

	scenes, err := db.ScenesByScript(ctx, b.Script.ID)
	require.NoError(t, err)
	assert.Len(t, scenes, 2)

	lines, err := db.LinesByScript(ctx, b.Script.ID)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for i, l := range lines {
		assert.Equal(t, i, l.Order)
		assert.Equal(t, 2.5, l.EasinessFactor)
		assert.True(t, l.DueDate.Equal(now))
	}
	assert.Equal(t, "Hi.", lines[1].Cue)
	assert.Equal(t, "BOB", lines[1].CueCharacter)
}

func TestCommitScriptIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b, err := parser.Build(parser.ParseMarkdown(play), "ALICE", 2, time.Now())
	require.NoError(t, err)

	// Duplicate order violates UNIQUE(script_id, line_order).
	b.Lines[2].Order = 0
	require.Error(t, db.CommitScript(ctx, b.Script, b.Scenes, b.Lines))

	got, err := db.FindScript(ctx, b.Script.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	lines, err := db.LinesByScript(ctx, b.Script.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFindMissing(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s, err := db.FindScript(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, s)

	l, err := db.FindLine(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, l)

	r, err := db.LastReview(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, r)

	src, err := db.FindSource(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, src)
}

func TestListAndDeleteScripts(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	older := commitPlay(t, db, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := commitPlay(t, db, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	scripts, err := db.ListScripts(ctx)
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	assert.Equal(t, newer.Script.ID, scripts[0].ID)
	assert.Equal(t, older.Script.ID, scripts[1].ID)

	byFP, err := db.FindScriptByFingerprint(ctx, older.Script.Fingerprint)
	require.NoError(t, err)
	require.NotNil(t, byFP)
	assert.Equal(t, older.Script.ID, byFP.ID)

	require.NoError(t, db.RecordGrade(ctx, older.Lines[0], domain.ReviewLog{
		LineID: older.Lines[0].ID, ScriptID: older.Script.ID, Correct: true, ReviewedAt: time.Now(),
	}))
	require.NoError(t, db.DeleteScript(ctx, older.Script.ID))

	scripts, err = db.ListScripts(ctx)
	require.NoError(t, err)
	assert.Len(t, scripts, 1)
	lines, err := db.LinesByScript(ctx, older.Script.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	n, err := db.CountReviews(ctx, older.Script.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordGrade(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := commitPlay(t, db, time.Now())
	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

	line := b.Lines[1]
	line.Interval = 1
	line.Repetition = 1
	line.EasinessFactor = 2.6
	line.DueDate = at.AddDate(0, 0, 1)
	line.ConsecutiveCorrect = 1
	// Fields other than the SM-2 state and streak are never rewritten.
	line.Response = "changed"

	require.NoError(t, db.RecordGrade(ctx, line, domain.ReviewLog{
		LineID: line.ID, ScriptID: b.Script.ID, Correct: true, ChunkIndex: 0, ReviewedAt: at,
	}))

	got, err := db.FindLine(ctx, line.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Interval)
	assert.Equal(t, 1, got.Repetition)
	assert.Equal(t, 2.6, got.EasinessFactor)
	assert.Equal(t, 1, got.ConsecutiveCorrect)
	assert.True(t, got.DueDate.Equal(at.AddDate(0, 0, 1)))
	assert.Equal(t, b.Lines[1].Response, got.Response)

	last, err := db.LastReview(ctx, b.Script.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, line.ID, last.LineID)
	assert.True(t, last.Correct)
	assert.True(t, last.ReviewedAt.Equal(at))

	require.NoError(t, db.RecordGrade(ctx, b.Lines[2], domain.ReviewLog{
		LineID: b.Lines[2].ID, ScriptID: b.Script.ID, Correct: false, ChunkIndex: 1, ReviewedAt: at,
	}))
	last, err = db.LastReview(ctx, b.Script.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Lines[2].ID, last.LineID)
	assert.False(t, last.Correct)
	assert.Equal(t, 1, last.ChunkIndex)

	n, err := db.CountReviews(ctx, b.Script.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordGradeMissingLine(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := commitPlay(t, db, time.Now())

	ghost := b.Lines[0]
	ghost.ID = "ghost"
	err := db.RecordGrade(ctx, ghost, domain.ReviewLog{LineID: ghost.ID, ScriptID: b.Script.ID, ReviewedAt: time.Now()})
	assert.True(t, errors.Is(err, ErrLineNotFound))

	n, err := db.CountReviews(ctx, b.Script.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id, err := db.InsertSource(ctx, domain.Source{Path: "/scripts", Type: domain.SourceLocal, Character: "ALICE", ChunkSize: 5})
	require.NoError(t, err)

	_, err = db.InsertSource(ctx, domain.Source{Path: "/scripts", Type: domain.SourceLocal, Character: "BOB", ChunkSize: 5})
	assert.Error(t, err, "paths are unique")

	s, err := db.FindSourceByPath(ctx, "/scripts")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, id, s.ID)
	assert.Nil(t, s.LastScanned)

	at := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.UpdateSourceLastScanned(ctx, id, at))
	s, err = db.FindSource(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, s.LastScanned)
	assert.True(t, s.LastScanned.Equal(at))

	b, err := parser.Build(parser.ParseMarkdown(play), "ALICE", 2, time.Now())
	require.NoError(t, err)
	b.Script.SourceID = &id
	require.NoError(t, db.CommitScript(ctx, b.Script, b.Scenes, b.Lines))

	scripts, err := db.ScriptsBySource(ctx, id)
	require.NoError(t, err)
	require.Len(t, scripts, 1)

	require.NoError(t, db.DeleteSource(ctx, id))
	sources, err := db.ListSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)

	kept, err := db.FindScript(ctx, b.Script.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Nil(t, kept.SourceID)
}
