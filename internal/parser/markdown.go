package parser

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Dialogue line forms, most specific first. Names are one to three words.
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\*\*([^*]+)\*\*:\s*(.+)$`),                             // **Name**: text
	regexp.MustCompile(`^\*\*([^*]+)\*\*\s*-\s*(.+)$`),                          // **Name** - text
	regexp.MustCompile(`^([A-Z][A-Z.']*(?:\s+[A-Z][A-Z.']*){0,2}):\s*(.+)$`),    // NAME: text
	regexp.MustCompile(`^([A-Z][A-Z.']*(?:\s+[A-Z][A-Z.']*){0,2})\s+-\s+(.+)$`), // NAME - text
	regexp.MustCompile(`^([A-Z][a-z.']*(?:\s+[A-Z][a-z.']*){0,2}):\s*(.+)$`),    // Name: text
	regexp.MustCompile(`^([A-Z][a-z.']*(?:\s+[A-Z][a-z.']*){0,2})\s+-\s+(.+)$`), // Name - text
}

// Full-line stage directions that are skipped.
var notePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\*[^*]+\*$`),
	regexp.MustCompile(`^_[^_]+_$`),
	regexp.MustCompile(`^\([^)]+\)$`),
	regexp.MustCompile(`^\[[^\]]+\]$`),
}

// ParseFile parses the script at path, choosing the format by extension:
// .xlsx and .csv are tabular, anything else is markdown.
func ParseFile(path string) (*ParsedScript, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch formatOf(path) {
	case formatWorkbook:
		return ParseWorkbook(file, titleFromPath(path))
	case formatCSV:
		return ParseCSV(file, titleFromPath(path))
	default:
		return Parse(file)
	}
}

// Parse reads a markdown script from r.
func Parse(r io.Reader) (*ParsedScript, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseMarkdown(string(src)), nil
}

// ParseMarkdown extracts the title, scenes and dialogue of a markdown script.
// The first level one heading is the title and level two headings open
// scenes. Every other line of running text is matched against the dialogue
// forms; lines that match none of them, and full-line stage directions, are
// ignored.
func ParseMarkdown(markdown string) *ParsedScript {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	c := newCollector()
	titled := false

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if !isATX(src, node) {
				// "Text" underlined with --- or ===: treat it as running text.
				readLines(c, src, node)
				return ast.WalkSkipChildren, nil
			}
			heading := strings.TrimSpace(string(segmentsText(src, node)))
			switch {
			case node.Level == 1 && !titled && heading != "":
				c.script.Title = heading
				titled = true
			case node.Level == 2:
				c.startScene(heading)
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.TextBlock, *ast.CodeBlock:
			readLines(c, src, n)
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	script := c.finish()
	script.Source = markdown
	return script
}

// readLines feeds the raw source lines of a block node to the collector.
func readLines(c *collector, src []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimSpace(string(seg.Value(src)))
		if line == "" || isSceneNote(line) {
			continue
		}
		if character, said, ok := parseCharacterLine(line); ok {
			c.add(character, said)
		}
	}
}

func segmentsText(src []byte, n ast.Node) []byte {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.Bytes()
}

// isATX reports whether a heading was written with leading #'s.
func isATX(src []byte, h *ast.Heading) bool {
	if h.Lines().Len() == 0 {
		// "##" on its own has no content segment.
		return true
	}
	start := h.Lines().At(0).Start
	lineStart := bytes.LastIndexByte(src[:start], '\n') + 1
	return bytes.HasPrefix(bytes.TrimLeft(src[lineStart:start], " \t"), []byte("#"))
}

func isSceneNote(line string) bool {
	for _, p := range notePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

func parseCharacterLine(line string) (character, said string, ok bool) {
	for _, p := range linePatterns {
		m := p.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		character = strings.TrimSpace(m[1])
		said = strings.TrimSpace(m[2])
		if validCharacter(character) {
			return character, said, true
		}
	}
	return "", "", false
}

// validCharacter rejects names that look like sentences rather than speakers.
func validCharacter(name string) bool {
	return len(name) > 0 && len(name) < 40 && !strings.Contains(name, ",")
}
