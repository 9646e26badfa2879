// Package history assembles an article's TOC history: it pulls revisions
// from a source, extracts a snapshot per sampled revision, and diffs the
// resulting sequence.
package history

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"tochist/internal/toc"
	"tochist/internal/wiki"
)

// Source supplies revision metadata and content for an article. The wiki
// client implements it; tests substitute fakes.
type Source interface {
	Revisions(ctx context.Context, title string, from, to time.Time) ([]wiki.RevisionMeta, error)
	Content(ctx context.Context, revID int64) (string, error)
}

// ContentCache caches raw revision content between runs. Implementations
// must treat a miss as ("", false, nil).
type ContentCache interface {
	Get(title string, revID int64) (string, bool, error)
	Put(title string, revID int64, content string) error
}

// Sampling selects which revisions become snapshots.
type Sampling int

const (
	// SampleYearly keeps the latest revision of each calendar year.
	SampleYearly Sampling = iota
	// SampleAll keeps every revision in the range.
	SampleAll
)

func (s Sampling) String() string {
	if s == SampleAll {
		return "all"
	}
	return "yearly"
}

// ParseSampling parses "yearly" or "all".
func ParseSampling(s string) (Sampling, error) {
	switch s {
	case "yearly", "":
		return SampleYearly, nil
	case "all":
		return SampleAll, nil
	}
	return 0, fmt.Errorf("unknown sampling mode %q (want yearly or all)", s)
}

// Options configures a Build call.
type Options struct {
	From     time.Time
	To       time.Time
	Sampling Sampling
	Cache    ContentCache
}

// History is the assembled result for one article.
type History struct {
	Title       string                   `json:"title"`
	Snapshots   []toc.Snapshot           `json:"snapshots"`
	Transitions []toc.Transition         `json:"transitions"`
	Activity    map[string]*toc.Activity `json:"activity"`
}

// Build fetches and analyzes the TOC history of one article. Content for
// sampled revisions is served from opts.Cache when possible; fresh fetches
// are written back to it.
func Build(ctx context.Context, src Source, title string, opts Options) (*History, error) {
	metas, err := src.Revisions(ctx, title, opts.From, opts.To)
	if err != nil {
		return nil, fmt.Errorf("fetch revision list: %w", err)
	}

	sampled := sample(metas, opts.Sampling)

	snaps := make([]toc.Snapshot, 0, len(sampled))
	for _, meta := range sampled {
		content, err := revisionContent(ctx, src, opts.Cache, title, meta.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch revision %d: %w", meta.ID, err)
		}
		snaps = append(snaps, toc.NewSnapshot(
			strconv.FormatInt(meta.ID, 10),
			meta.Timestamp,
			extract(content),
		))
	}

	transitions, activity, err := toc.DiffSequence(snaps)
	if err != nil {
		return nil, err
	}

	return &History{
		Title:       title,
		Snapshots:   snaps,
		Transitions: transitions,
		Activity:    activity,
	}, nil
}

func revisionContent(ctx context.Context, src Source, cache ContentCache, title string, revID int64) (string, error) {
	if cache != nil {
		content, ok, err := cache.Get(title, revID)
		if err != nil {
			return "", err
		}
		if ok {
			return content, nil
		}
	}

	content, err := src.Content(ctx, revID)
	if err != nil {
		return "", err
	}
	if cache != nil {
		if err := cache.Put(title, revID, content); err != nil {
			return "", err
		}
	}
	return content, nil
}

// sample reduces the revision list per the sampling mode, preserving
// chronological order. Yearly sampling keeps the latest revision of each
// calendar year (UTC).
func sample(metas []wiki.RevisionMeta, mode Sampling) []wiki.RevisionMeta {
	if mode == SampleAll {
		return metas
	}

	byYear := make(map[int]wiki.RevisionMeta)
	for _, m := range metas {
		year := m.Timestamp.UTC().Year()
		if cur, ok := byYear[year]; !ok || m.Timestamp.After(cur.Timestamp) {
			byYear[year] = m
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]wiki.RevisionMeta, 0, len(years))
	for _, y := range years {
		out = append(out, byYear[y])
	}
	return out
}

var htmlHeadingRegex = regexp.MustCompile(`(?i)<h[1-6][\s>]`)

// extract picks the right extractor for the revision content. Revisions are
// normally wikitext; rendered HTML is recognized and handled too.
func extract(content string) []toc.Section {
	if strings.Contains(content, "<html") || htmlHeadingRegex.MatchString(content) {
		return toc.ExtractHTML(content)
	}
	return toc.ExtractWikitext(content)
}

// CountPoint is one snapshot's section count, for the count view.
type CountPoint struct {
	RevisionID string    `json:"revision_id"`
	Timestamp  time.Time `json:"timestamp"`
	Count      int       `json:"count"`
}

// SectionCounts returns the per-snapshot section counts in order.
func (h *History) SectionCounts() []CountPoint {
	points := make([]CountPoint, len(h.Snapshots))
	for i, s := range h.Snapshots {
		points[i] = CountPoint{RevisionID: s.RevisionID, Timestamp: s.Timestamp, Count: len(s.Sections)}
	}
	return points
}

// CellState is one identifier's fate in one transition, for the heatmap.
type CellState int

const (
	CellAbsent CellState = iota
	CellPresent
	CellReordered
	CellRemoved
	CellAdded
)

// HeatRow is one heatmap row: an identifier and its state per transition.
type HeatRow struct {
	Identifier   string
	ChangeEvents int
	Cells        []CellState
}

// HeatRows builds the heatmap grid, most active identifiers first.
// Ties are broken by identifier so output is deterministic.
func (h *History) HeatRows() []HeatRow {
	rows := make([]HeatRow, 0, len(h.Activity))
	for id, act := range h.Activity {
		row := HeatRow{
			Identifier:   id,
			ChangeEvents: act.ChangeEvents,
			Cells:        make([]CellState, len(h.Transitions)),
		}
		for t, tr := range h.Transitions {
			row.Cells[t] = cellFor(tr.Entries, id)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ChangeEvents != rows[j].ChangeEvents {
			return rows[i].ChangeEvents > rows[j].ChangeEvents
		}
		return rows[i].Identifier < rows[j].Identifier
	})
	return rows
}

// Cells collapses one transition into a per-identifier state, for callers
// rendering a single column of the timeline.
func Cells(tr toc.Transition) map[string]CellState {
	cells := make(map[string]CellState)
	for _, e := range tr.Entries {
		id := e.Section.Identifier
		var c CellState
		switch e.Kind {
		case toc.Added:
			c = CellAdded
		case toc.Removed:
			c = CellRemoved
		case toc.Reordered:
			c = CellReordered
		default:
			c = CellPresent
		}
		if c > cells[id] {
			cells[id] = c
		}
	}
	return cells
}

func cellFor(entries []toc.DiffEntry, id string) CellState {
	cell := CellAbsent
	for _, e := range entries {
		if e.Section.Identifier != id {
			continue
		}
		var c CellState
		switch e.Kind {
		case toc.Added:
			c = CellAdded
		case toc.Removed:
			c = CellRemoved
		case toc.Reordered:
			c = CellReordered
		default:
			c = CellPresent
		}
		if c > cell {
			cell = c
		}
	}
	return cell
}
