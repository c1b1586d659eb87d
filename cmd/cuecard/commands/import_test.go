package commands

import (
	"strings"
	"testing"
)

const tempest = `# The Tempest

## Act 1

PROSPERO: Canst thou remember?
MIRANDA: Certainly, sir, I can.
PROSPERO: By what?
MIRANDA: 'Tis far off.
`

// scriptID pulls the ID out of import's "Start with" hint.
func scriptID(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Start with: cuecard review ") {
			return strings.TrimPrefix(line, "Start with: cuecard review ")
		}
	}
	t.Fatalf("no script ID in output %q", out)
	return ""
}

func TestCharactersCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "tempest.md", tempest)

	out, err := runCLI(t, dir, "", "characters", path)
	if err != nil {
		t.Fatalf("characters: %v", err)
	}
	if !strings.Contains(out, "The Tempest") || !strings.Contains(out, "PROSPERO") || !strings.Contains(out, "MIRANDA") {
		t.Errorf("unexpected output %q", out)
	}

	empty := writeScript(t, dir, "empty.md", "no dialogue here\n")
	if _, err := runCLI(t, dir, "", "characters", empty); err == nil {
		t.Error("expected an error for a script without dialogue")
	}
}

func TestImportCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "tempest.md", tempest)

	out, err := runCLI(t, dir, "", "import", path, "--character", "MIRANDA", "--chunk-size", "1")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "2 lines in 2 chunks") {
		t.Errorf("unexpected output %q", out)
	}
	id := scriptID(t, out)

	out, err = runCLI(t, dir, "", "import", path, "-c", "MIRANDA")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if !strings.Contains(out, "Already imported") {
		t.Errorf("expected duplicate notice, got %q", out)
	}

	out, err = runCLI(t, dir, "", "scripts", "list")
	if err != nil {
		t.Fatalf("scripts list: %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "0/2 (0%)") || !strings.Contains(out, "Chunk 1 of 2") {
		t.Errorf("unexpected list output %q", out)
	}
	// New lines are due from the moment they are imported.
	if !strings.Contains(out, "DUE") || !strings.Contains(out, "0/2 (0%)  2 ") {
		t.Errorf("expected a due count of 2, got %q", out)
	}

	if _, err := runCLI(t, dir, "", "import", path, "-c", "MIRANDA", "--force"); err != nil {
		t.Fatalf("forced import: %v", err)
	}

	out, err = runCLI(t, dir, "", "scripts", "rm", id)
	if err != nil {
		t.Fatalf("scripts rm: %v", err)
	}
	if !strings.Contains(out, "Deleted") {
		t.Errorf("unexpected rm output %q", out)
	}
	if _, err := runCLI(t, dir, "", "scripts", "rm", id); err == nil {
		t.Error("removing a missing script should fail")
	}
}

func TestImportCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "tempest.md", tempest)

	out, err := runCLI(t, dir, "", "import", path)
	if err == nil {
		t.Error("import without --character should fail")
	}
	if !strings.Contains(out, "MIRANDA") {
		t.Errorf("characters should be listed, got %q", out)
	}

	if _, err := runCLI(t, dir, "", "import", path, "-c", "ARIEL"); err == nil {
		t.Error("import of an unknown character should fail")
	}
	if _, err := runCLI(t, dir, "", "import", "missing.md", "-c", "MIRANDA"); err == nil {
		t.Error("import of a missing file should fail")
	}
}
