package toc

import (
	"reflect"
	"testing"
)

func TestExtractWikitext(t *testing.T) {
	raw := `{{Infobox medical condition}}
'''Opioid-induced hyperalgesia''' is a condition.

== Signs and symptoms ==
Some text here.

=== Diagnosis ===
More text.

== Treatment ==
=== Dose reduction ===
== History ==
Closing text.
`
	sections := ExtractWikitext(raw)

	wantTitles := []string{"Signs and symptoms", "Diagnosis", "Treatment", "Dose reduction", "History"}
	wantLevels := []int{2, 3, 2, 3, 2}

	if len(sections) != len(wantTitles) {
		t.Fatalf("Expected %d sections, got %d: %+v", len(wantTitles), len(sections), sections)
	}
	for i, sec := range sections {
		if sec.Title != wantTitles[i] {
			t.Errorf("Section %d: expected title %q, got %q", i, wantTitles[i], sec.Title)
		}
		if sec.Level != wantLevels[i] {
			t.Errorf("Section %d (%s): expected level %d, got %d", i, sec.Title, wantLevels[i], sec.Level)
		}
		if sec.OrderIndex != i {
			t.Errorf("Section %d: expected order index %d, got %d", i, i, sec.OrderIndex)
		}
	}
}

func TestExtractWikitextMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{
			name:  "unbalanced markers skipped",
			input: "=== Broken ==\n== Fine ==\n",
			want:  1,
		},
		{
			name:  "empty title skipped",
			input: "== ==\n==  ==\n== Real ==\n",
			want:  1,
		},
		{
			name:  "bare equals line skipped",
			input: "====\n== Kept ==\n",
			want:  1,
		},
		{
			name:  "title that is only a comment skipped",
			input: "== <!-- hidden --> ==\n== Visible ==\n",
			want:  1,
		},
		{
			name:  "empty content",
			input: "",
			want:  0,
		},
		{
			name:  "no headings at all",
			input: "Just prose.\nMore prose = with an equals sign.\n",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections := ExtractWikitext(tt.input)
			if len(sections) != tt.want {
				t.Errorf("Expected %d sections, got %d: %+v", tt.want, len(sections), sections)
			}
		})
	}
}

func TestExtractWikitextIdempotent(t *testing.T) {
	raw := "== Intro ==\ntext\n=== Detail ===\n== History<ref>cite</ref> ==\n"

	first := ExtractWikitext(raw)
	second := ExtractWikitext(raw)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Extraction not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "History", "history"},
		{"collapses whitespace", "  Signs   and\tsymptoms ", "signs and symptoms"},
		{"strips ref pair", "Treatment<ref>smith 2020</ref>", "treatment"},
		{"strips self-closing ref", `Treatment<ref name="a"/>`, "treatment"},
		{"strips comment", "Legacy<!-- check this -->", "legacy"},
		{"strips footnote marker", "Findings[3]", "findings"},
		{"unwraps piped link", "[[Pain management|Management]]", "management"},
		{"unwraps plain link", "[[Epidemiology]]", "epidemiology"},
		{"strips emphasis", "'''Bold''' and ''italic''", "bold and italic"},
		{"strips template", "Overview{{anchor|top}}", "overview"},
		{"strips html tag", "<small>Notes</small>", "notes"},
		{"empty stays empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeIdentifier(tt.input); got != tt.want {
				t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// Section count never exceeds the number of heading-like lines in the input.
func TestExtractWikitextBounded(t *testing.T) {
	inputs := []string{
		"== A ==\n== B ==\n",
		"=== x ==\n== y ==\n====\n",
		"no headings here",
		"== dup ==\n== dup ==\n== dup ==\n",
	}
	for _, raw := range inputs {
		headingish := 0
		for _, line := range splitLines(raw) {
			if len(line) > 0 && line[0] == '=' {
				headingish++
			}
		}
		if got := len(ExtractWikitext(raw)); got > headingish {
			t.Errorf("Input %q: %d sections from %d heading-like lines", raw, got, headingish)
		}
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
