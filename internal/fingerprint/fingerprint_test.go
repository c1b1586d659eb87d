package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"testing"
)

func TestNormalize(t *testing.T) {
	source := "  # Hamlet \r\n**HAMLET**: To be\r\n"
	expected := "# hamlet \n**hamlet**: to be\nhamlet"
	normalized := Normalize(source, " HAMLET ")

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestOf(t *testing.T) {
	t.Run("hashes the normalized form", func(t *testing.T) {
		want := fmt.Sprintf("%x", sha256.Sum256([]byte("src\nme")))
		if got := Of("SRC", "Me"); got != want {
			t.Errorf("Expected fingerprint '%s', but got '%s'", want, got)
		}
	})

	t.Run("fingerprint is deterministic", func(t *testing.T) {
		if Of("**A**: hi", "A") != Of("**A**: hi", "A") {
			t.Error("Expected fingerprints for identical input to be the same")
		}
	})

	t.Run("line endings do not matter", func(t *testing.T) {
		if Of("**A**: hi\r\n**B**: yo", "A") != Of("**A**: hi\n**B**: yo", "A") {
			t.Error("Expected CRLF and LF sources to share a fingerprint")
		}
	})

	t.Run("character is part of the fingerprint", func(t *testing.T) {
		if Of("**A**: hi\n**B**: yo", "A") == Of("**A**: hi\n**B**: yo", "B") {
			t.Error("Expected different characters to produce different fingerprints")
		}
	})
}
