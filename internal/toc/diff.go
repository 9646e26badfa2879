package toc

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfOrder is returned by DiffSequence when the input snapshots are not
// in strictly increasing timestamp order. The differ never reorders input.
var ErrOutOfOrder = errors.New("snapshots out of order")

// DiffSnapshots compares two adjacent snapshots.
//
// Occurrences of the same identifier are paired greedily in document order
// (the k-th occurrence in prev pairs with the k-th in curr), so duplicate
// headings never crash or cross-match. A paired section is Unchanged when it
// keeps its rank among the paired sections of each snapshot, Reordered
// otherwise; ranking over paired sections only means an insertion or removal
// elsewhere does not mark untouched sections as moved.
//
// Entries for curr's sections come first in curr document order, then
// Removed entries in prev document order.
func DiffSnapshots(prev, curr Snapshot) []DiffEntry {
	prevOcc, prevK := occurrences(prev.Sections)
	currOcc, currK := occurrences(curr.Sections)

	paired := func(id string) int {
		n := len(prevOcc[id])
		if c := len(currOcc[id]); c < n {
			n = c
		}
		return n
	}

	prevRank := pairedRanks(prev.Sections, prevK, paired)
	currRank := pairedRanks(curr.Sections, currK, paired)

	entries := make([]DiffEntry, 0, len(curr.Sections))
	for j, sec := range curr.Sections {
		if currK[j] >= paired(sec.Identifier) {
			entries = append(entries, DiffEntry{Kind: Added, Section: sec, FromIndex: -1, ToIndex: j})
			continue
		}
		i := prevOcc[sec.Identifier][currK[j]]
		kind := Unchanged
		if prevRank[i] != currRank[j] {
			kind = Reordered
		}
		entries = append(entries, DiffEntry{Kind: kind, Section: sec, FromIndex: i, ToIndex: j})
	}
	for i, sec := range prev.Sections {
		if prevK[i] >= paired(sec.Identifier) {
			entries = append(entries, DiffEntry{Kind: Removed, Section: sec, FromIndex: i, ToIndex: -1})
		}
	}
	return entries
}

// occurrences returns, per identifier, the ascending document positions of
// its occurrences, plus for every position the occurrence index of the
// section at that position within its identifier's list.
func occurrences(sections []Section) (map[string][]int, []int) {
	occ := make(map[string][]int)
	k := make([]int, len(sections))
	for i, sec := range sections {
		k[i] = len(occ[sec.Identifier])
		occ[sec.Identifier] = append(occ[sec.Identifier], i)
	}
	return occ, k
}

// pairedRanks maps each paired document position to its rank among the
// snapshot's paired positions. Unpaired positions are absent.
func pairedRanks(sections []Section, k []int, paired func(string) int) map[int]int {
	var positions []int
	for i, sec := range sections {
		if k[i] < paired(sec.Identifier) {
			positions = append(positions, i)
		}
	}
	sort.Ints(positions)
	ranks := make(map[int]int, len(positions))
	for r, pos := range positions {
		ranks[pos] = r
	}
	return ranks
}

// DiffSequence diffs every adjacent pair of a chronologically ordered
// snapshot sequence and aggregates per-identifier activity. Sequences of
// length 0 or 1 are valid and produce no transitions; a single snapshot
// still yields activity records with one appearance each. Timestamps must be
// strictly increasing or ErrOutOfOrder is returned.
func DiffSequence(snaps []Snapshot) ([]Transition, map[string]*Activity, error) {
	for i := 1; i < len(snaps); i++ {
		if !snaps[i].Timestamp.After(snaps[i-1].Timestamp) {
			return nil, nil, fmt.Errorf("%w: revision %s (%s) is not after revision %s (%s)",
				ErrOutOfOrder,
				snaps[i].RevisionID, snaps[i].Timestamp.Format("2006-01-02T15:04:05Z07:00"),
				snaps[i-1].RevisionID, snaps[i-1].Timestamp.Format("2006-01-02T15:04:05Z07:00"))
		}
	}

	activity := make(map[string]*Activity)
	record := func(id string) *Activity {
		a, ok := activity[id]
		if !ok {
			a = &Activity{Identifier: id}
			activity[id] = a
		}
		return a
	}

	for _, snap := range snaps {
		seen := make(map[string]bool)
		for _, sec := range snap.Sections {
			if !seen[sec.Identifier] {
				seen[sec.Identifier] = true
				record(sec.Identifier).Appearances++
			}
		}
	}

	transitions := make([]Transition, 0, max(len(snaps)-1, 0))
	for i := 1; i < len(snaps); i++ {
		entries := DiffSnapshots(snaps[i-1], snaps[i])
		transitions = append(transitions, Transition{
			FromRevision: snaps[i-1].RevisionID,
			ToRevision:   snaps[i].RevisionID,
			Entries:      entries,
		})

		changed := make(map[string]bool)
		for _, e := range entries {
			if e.Kind == Added || e.Kind == Removed {
				changed[e.Section.Identifier] = true
			}
		}
		for id := range changed {
			record(id).ChangeEvents++
		}
	}

	return transitions, activity, nil
}
