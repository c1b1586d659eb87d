package parser

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/cuecard/internal/domain"
	"github.com/conorfennell/cuecard/internal/fingerprint"
	"github.com/conorfennell/cuecard/internal/sm2"
)

var (
	ErrNoDialogue        = errors.New("parser: no dialogue found")
	ErrCharacterNotFound = errors.New("parser: character not found")
	ErrInvalidChunkSize  = errors.New("parser: chunk size must be at least 1")
)

// Bundle is everything committed together when a script is imported.
type Bundle struct {
	Script domain.Script
	Scenes []domain.Scene
	Lines  []domain.Line
}

// Build turns a parsed script into records for character. Each of the
// character's utterances becomes a line cued by the utterance before it in
// the same scene. Lines are numbered across scenes from zero and start due
// at now with fresh SM-2 state.
func Build(p *ParsedScript, character string, chunkSize int, now time.Time) (*Bundle, error) {
	if len(p.Characters) == 0 {
		return nil, ErrNoDialogue
	}
	if !p.HasCharacter(character) {
		return nil, fmt.Errorf("%w: %q", ErrCharacterNotFound, character)
	}
	if chunkSize < 1 {
		return nil, ErrInvalidChunkSize
	}

	title := p.Title
	if title == "" {
		title = DefaultTitle
	}

	b := &Bundle{
		Script: domain.Script{
			ID:          uuid.NewString(),
			Title:       title,
			RawMarkdown: p.Source,
			MyCharacter: character,
			ChunkSize:   chunkSize,
			Fingerprint: fingerprint.Of(p.Source, character),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	order := 0
	for i, ps := range p.Scenes {
		scene := domain.Scene{
			ID:       uuid.NewString(),
			ScriptID: b.Script.ID,
			Name:     ps.Name,
			Order:    i,
		}
		b.Scenes = append(b.Scenes, scene)

		for j, u := range ps.Dialogue {
			if u.Character != character {
				continue
			}
			line := domain.Line{
				ID:                 uuid.NewString(),
				ScriptID:           b.Script.ID,
				SceneID:            scene.ID,
				Cue:                domain.SceneOpens,
				Response:           u.Text,
				ResponseCharacter:  u.Character,
				Order:              order,
				Interval:           0,
				Repetition:         0,
				EasinessFactor:     sm2.InitialEasiness,
				DueDate:            now,
				ConsecutiveCorrect: 0,
			}
			if j > 0 {
				prev := ps.Dialogue[j-1]
				line.Cue = prev.Text
				line.CueCharacter = prev.Character
			}
			b.Lines = append(b.Lines, line)
			order++
		}
	}

	if err := domain.Validate(b.Script); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return b, nil
}
