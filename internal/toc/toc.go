// Package toc extracts table-of-contents structure from article revisions
// and computes how that structure changed across an ordered revision history.
package toc

import "time"

// Section is one heading in a revision's table of contents.
type Section struct {
	// Identifier is the normalized heading text, used to match the same
	// section across revisions. Not necessarily unique within a snapshot.
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Level      int    `json:"level"`
	OrderIndex int    `json:"order_index"`
}

// Snapshot is the full table of contents at one revision. Sections are in
// document order; Level encodes nesting depth.
type Snapshot struct {
	RevisionID string    `json:"revision_id"`
	Timestamp  time.Time `json:"timestamp"`
	Sections   []Section `json:"sections"`
}

// ChangeKind classifies a section's fate between two adjacent snapshots.
type ChangeKind int

const (
	Unchanged ChangeKind = iota
	Added
	Removed
	Reordered
)

func (k ChangeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Reordered:
		return "reordered"
	}
	return "unknown"
}

// MarshalText makes ChangeKind render as its name in JSON exports.
func (k ChangeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DiffEntry is the result of comparing one section between two adjacent
// snapshots. FromIndex/ToIndex are document positions in the earlier and
// later snapshot; -1 means the section is absent on that side.
type DiffEntry struct {
	Kind      ChangeKind `json:"kind"`
	Section   Section    `json:"section"`
	FromIndex int        `json:"from_index"`
	ToIndex   int        `json:"to_index"`
}

// Transition is the full diff between two chronologically adjacent snapshots.
type Transition struct {
	FromRevision string      `json:"from_revision"`
	ToRevision   string      `json:"to_revision"`
	Entries      []DiffEntry `json:"entries"`
}

// Activity aggregates how often one identifier appeared and changed across
// an entire snapshot sequence.
type Activity struct {
	Identifier   string `json:"identifier"`
	Appearances  int    `json:"appearances"`
	ChangeEvents int    `json:"change_events"`
}
