package compileinfo

import (
	"strings"
	"testing"
)

func TestShort(t *testing.T) {
	cases := map[string]string{
		"":                                         "unknown",
		"abc123":                                   "abc123",
		"0123456789abcdef0123456789abcdef01234567": "0123456789ab",
	}

	for commit, want := range cases {
		if got := (CompileInfo{Commit: commit}).Short(); got != want {
			t.Errorf("Short(%q): expected %q, got %q", commit, want, got)
		}
	}
}

func TestString(t *testing.T) {
	c := CompileInfo{
		Binary:    "esetclust",
		Module:    "github.com/carbocation/esetclust",
		Version:   "(devel)",
		GoVersion: "go1.18",
		Commit:    "0123456789abcdef",
		Modified:  true,
	}

	s := c.String()
	if strings.Contains(s, "(devel)") {
		t.Errorf("Development versions should be omitted: %s", s)
	}
	for _, want := range []string{"esetclust:", "go1.18", "0123456789ab", "uncommitted"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in %s", want, s)
		}
	}
}
