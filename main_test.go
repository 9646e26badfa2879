//go:build !gui

package main

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tochist/internal/history"
	"tochist/internal/toc"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"fits", "Intro", 10, "Intro"},
		{"exact", "Intro", 5, "Intro"},
		{"truncated", "Signs and symptoms", 10, "Signs and…"},
		{"width one", "Intro", 1, "I"},
		{"width zero", "Intro", 0, ""},
		{"unicode", "Références", 6, "Référ…"},
		{"empty", "", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.width); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
		})
	}
}

func TestPad(t *testing.T) {
	if got := pad("ab", 5); got != "ab   " {
		t.Errorf("pad = %q", got)
	}
	if got := pad("abcdef", 3); got != "abcdef" {
		t.Errorf("pad should not shorten, got %q", got)
	}
	if got := pad("héé", 4); got != "héé " {
		t.Errorf("pad should count runes, got %q", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ v, lo, hi, want int }{
		{5, 0, 10, 5},
		{-3, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 0, 0},
	}
	for _, tt := range tests {
		if got := clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestBarFor(t *testing.T) {
	if got := barFor(10, 10, 8); len([]rune(got)) != 8 {
		t.Errorf("full bar should fill the width, got %q", got)
	}
	if got := barFor(0, 10, 8); got != "" {
		t.Errorf("zero count should give empty bar, got %q", got)
	}
	if got := barFor(1, 100, 8); len([]rune(got)) != 1 {
		t.Errorf("nonzero count should show at least one cell, got %q", got)
	}
	if got := barFor(5, 0, 8); got != "" {
		t.Errorf("zero max should give empty bar, got %q", got)
	}
}

func TestIndentFor(t *testing.T) {
	if got := indentFor(1); got != "" {
		t.Errorf("level 1 should not indent, got %q", got)
	}
	if got := indentFor(3); got != "    " {
		t.Errorf("level 3 should indent two steps, got %q", got)
	}
	if got := indentFor(0); got != "" {
		t.Errorf("level 0 should not indent, got %q", got)
	}
}

func TestSnapshotLabel(t *testing.T) {
	snap := toc.NewSnapshot("1", time.Date(2014, 6, 15, 0, 0, 0, 0, time.UTC), nil)
	if got := snapshotLabel(snap, history.SampleYearly); got != "2014" {
		t.Errorf("yearly label = %q, want 2014", got)
	}
	if got := snapshotLabel(snap, history.SampleAll); got != "2014-06-15" {
		t.Errorf("full label = %q, want 2014-06-15", got)
	}
}

func TestModelViewCycling(t *testing.T) {
	m := newModel("T", nil, history.Options{}, nil, viewTimeline)
	m.hist = &history.History{}
	m.loading = false

	for i := 0; i < len(viewNames); i++ {
		if m.view != i {
			t.Fatalf("Expected view %d, got %d", i, m.view)
		}
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = next.(model)
	}
	if m.view != viewTimeline {
		t.Errorf("Tab should wrap back to the timeline view, got %d", m.view)
	}
}

func TestModelScrollClamped(t *testing.T) {
	m := newModel("T", nil, history.Options{}, nil, viewTimeline)
	m.loading = false
	m.hist = &history.History{
		Snapshots: []toc.Snapshot{
			toc.NewSnapshot("1", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), nil),
			toc.NewSnapshot("2", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), nil),
		},
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(model)
	if m.offsetX != 0 {
		t.Errorf("Scrolling left at the start should stay at 0, got %d", m.offsetX)
	}

	for i := 0; i < 10; i++ {
		next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
		m = next.(model)
	}
	if m.offsetX != 1 {
		t.Errorf("Scrolling right should clamp to last snapshot, got %d", m.offsetX)
	}
}
