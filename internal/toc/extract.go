package toc

import (
	"bufio"
	"regexp"
	"strings"
	"time"
)

// headingRegex matches wikitext headings (= Title = through ====== Title ======).
var headingRegex = regexp.MustCompile(`^(={1,6})\s*(.+?)\s*(={1,6})\s*$`)

var (
	commentRegex  = regexp.MustCompile(`<!--.*?-->`)
	refPairRegex  = regexp.MustCompile(`(?is)<ref[^>/]*>.*?</ref>`)
	refEmptyRegex = regexp.MustCompile(`(?i)<ref[^>]*/>`)
	htmlTagRegex  = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	footnoteRegex = regexp.MustCompile(`\[\d+\]`)
	wikiLinkRegex = regexp.MustCompile(`\[\[(?:[^]|]*\|)?([^]]*)]]`)
	templateRegex = regexp.MustCompile(`\{\{[^}]*}}`)
	quotesRegex   = regexp.MustCompile(`'{2,}`)
)

// NormalizeIdentifier derives the stable matching key for a heading title:
// markup and reference markers are stripped, the result is lower-cased and
// internal whitespace collapsed. Pure and deterministic.
func NormalizeIdentifier(title string) string {
	s := commentRegex.ReplaceAllString(title, "")
	s = refPairRegex.ReplaceAllString(s, "")
	s = refEmptyRegex.ReplaceAllString(s, "")
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = footnoteRegex.ReplaceAllString(s, "")
	s = wikiLinkRegex.ReplaceAllString(s, "$1")
	s = templateRegex.ReplaceAllString(s, "")
	s = quotesRegex.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// ExtractWikitext parses wikitext and returns its headings in document
// order. Malformed heading lines (unbalanced markers, titles that are empty
// once markup is stripped) are skipped; extraction never fails.
func ExtractWikitext(raw string) []Section {
	var sections []Section

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		match := headingRegex.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		// MediaWiki headings close with the same number of '=' they open with.
		if len(match[1]) != len(match[3]) {
			continue
		}

		title := strings.TrimSpace(match[2])
		id := NormalizeIdentifier(title)
		if id == "" || strings.Trim(id, "=") == "" {
			continue
		}

		sections = append(sections, Section{
			Identifier: id,
			Title:      title,
			Level:      len(match[1]),
			OrderIndex: len(sections),
		})
	}

	return sections
}

// NewSnapshot attaches revision identity to extracted sections.
func NewSnapshot(revisionID string, timestamp time.Time, sections []Section) Snapshot {
	return Snapshot{RevisionID: revisionID, Timestamp: timestamp, Sections: sections}
}
