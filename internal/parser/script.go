package parser

import (
	"fmt"
	"strings"
)

// DefaultTitle is the title of a script without a "# " heading.
const DefaultTitle = "Untitled Script"

// defaultScene names the scene that holds dialogue found before any "## " heading.
const defaultScene = "Scene 1"

// Utterance is a single line of dialogue.
type Utterance struct {
	Character string
	Text      string
}

// ParsedScene is a scene and its dialogue in reading order.
type ParsedScene struct {
	Name     string
	Dialogue []Utterance
}

// ParsedScript is the result of parsing a script source.
type ParsedScript struct {
	Title  string
	Scenes []ParsedScene
	// Characters lists every speaker in order of first appearance.
	Characters []string
	// Source is the text the script was parsed from. Tabular sources are
	// rendered to markdown so the source can always be parsed again.
	Source string
}

// CharacterLines pairs a character with the number of lines they speak.
type CharacterLines struct {
	Character string
	Lines     int
}

// LineCount returns how many utterances character has across all scenes.
func (p *ParsedScript) LineCount(character string) int {
	n := 0
	for _, scene := range p.Scenes {
		for _, u := range scene.Dialogue {
			if u.Character == character {
				n++
			}
		}
	}
	return n
}

// LineCounts returns the line count of every character in order of first appearance.
func (p *ParsedScript) LineCounts() []CharacterLines {
	out := make([]CharacterLines, 0, len(p.Characters))
	for _, c := range p.Characters {
		out = append(out, CharacterLines{Character: c, Lines: p.LineCount(c)})
	}
	return out
}

// HasCharacter reports whether character speaks in the script.
func (p *ParsedScript) HasCharacter(character string) bool {
	for _, c := range p.Characters {
		if c == character {
			return true
		}
	}
	return false
}

// Render writes the script back out in the markdown dialogue format.
func (p *ParsedScript) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", p.Title)
	for _, scene := range p.Scenes {
		fmt.Fprintf(&b, "\n## %s\n\n", scene.Name)
		for _, u := range scene.Dialogue {
			fmt.Fprintf(&b, "**%s**: %s\n", u.Character, u.Text)
		}
	}
	return b.String()
}

// collector accumulates scenes and characters while a source is read.
type collector struct {
	script  ParsedScript
	current *ParsedScene
	seen    map[string]bool
}

func newCollector() *collector {
	return &collector{
		script: ParsedScript{Title: DefaultTitle},
		seen:   make(map[string]bool),
	}
}

func (c *collector) startScene(name string) {
	c.flush()
	c.current = &ParsedScene{Name: name}
}

func (c *collector) add(character, text string) {
	if c.current == nil {
		c.current = &ParsedScene{Name: defaultScene}
	}
	if !c.seen[character] {
		c.seen[character] = true
		c.script.Characters = append(c.script.Characters, character)
	}
	c.current.Dialogue = append(c.current.Dialogue, Utterance{Character: character, Text: text})
}

func (c *collector) flush() {
	if c.current != nil {
		c.script.Scenes = append(c.script.Scenes, *c.current)
		c.current = nil
	}
}

func (c *collector) finish() *ParsedScript {
	c.flush()
	return &c.script
}
