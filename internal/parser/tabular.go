package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyWorkbook is returned when a workbook has no sheets.
var ErrEmptyWorkbook = errors.New("parser: workbook has no sheets")

type format int

const (
	formatMarkdown format = iota
	formatWorkbook
	formatCSV
)

// Extensions lists the file extensions a source directory is scanned for.
var Extensions = []string{".md", ".markdown", ".xlsx", ".csv"}

// Supported reports whether path has an extension ParseFile understands.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func formatOf(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return formatWorkbook
	case ".csv":
		return formatCSV
	default:
		return formatMarkdown
	}
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	title := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if title == "" {
		return DefaultTitle
	}
	return title
}

// ParseCSV reads a script laid out as Scene, Character, Line columns.
// Two-column files are read as Character, Line in a single scene.
func ParseCSV(r io.Reader, title string) (*ParsedScript, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return fromRows(rows, title)
}

// ParseWorkbook reads the first sheet of an xlsx workbook with the same
// column layout as ParseCSV.
func ParseWorkbook(r io.Reader, title string) (*ParsedScript, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows, title)
}

func fromRows(rows [][]string, title string) (*ParsedScript, error) {
	c := newCollector()
	if title != "" {
		c.script.Title = title
	}

	scene := ""
	for i, row := range rows {
		row = trimRow(row)
		if len(row) == 0 || (i == 0 && isHeader(row)) {
			continue
		}

		var character, said string
		switch len(row) {
		case 1:
			continue
		case 2:
			character, said = row[0], row[1]
		default:
			if row[0] != "" && row[0] != scene {
				scene = row[0]
				c.startScene(scene)
			}
			character, said = row[1], row[2]
		}

		said = strings.Join(strings.Fields(said), " ")
		if character == "" || said == "" {
			continue
		}
		if !validCharacter(character) || strings.Contains(character, "*") {
			return nil, fmt.Errorf("row %d: invalid character name %q", i+1, character)
		}
		c.add(character, said)
	}

	script := c.finish()
	script.Source = script.Render()
	return script, nil
}

func trimRow(row []string) []string {
	out := make([]string, len(row))
	last := -1
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
		if out[i] != "" {
			last = i
		}
	}
	return out[:last+1]
}

func isHeader(row []string) bool {
	for _, cell := range row {
		switch strings.ToLower(cell) {
		case "character", "line", "text", "dialogue":
			return true
		}
	}
	return false
}
