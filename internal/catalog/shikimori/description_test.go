package shikimori

import (
	"strings"
	"testing"
)

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text passes through",
			input: "Space bounty hunters.",
			want:  "Space bounty hunters.",
		},
		{
			name:  "character markup collapses to name",
			input: "История о [character=1]Спайке[/character] и его команде.",
			want:  "История о Спайке и его команде.",
		},
		{
			name:  "empty stays empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanDescription(tt.input); got != tt.want {
				t.Errorf("CleanDescription(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanDescriptionConvertsHTML(t *testing.T) {
	got := CleanDescription("<p>Space <b>bounty</b> hunters.</p>")
	if strings.Contains(got, "<p>") || strings.Contains(got, "<b>") {
		t.Errorf("CleanDescription left HTML tags: %q", got)
	}
	if !strings.Contains(got, "bounty") {
		t.Errorf("CleanDescription lost content: %q", got)
	}
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("аб", 200)
	got := Snippet(long, 300)
	if want := 303; len([]rune(got)) != want {
		t.Errorf("Snippet length: got %d runes, want %d", len([]rune(got)), want)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Snippet should end with ellipsis: %q", got[len(got)-9:])
	}
}

func TestSnippetStripsMarkup(t *testing.T) {
	got := Snippet("<p>Space <b>bounty</b> hunters.</p>", 300)
	if got != "Space bounty hunters." {
		t.Errorf("Snippet = %q, want %q", got, "Space bounty hunters.")
	}
}

func TestSnippetShortInputUnchanged(t *testing.T) {
	if got := Snippet("short", 300); got != "short" {
		t.Errorf("Snippet = %q, want %q", got, "short")
	}
}
