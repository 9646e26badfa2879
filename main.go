//go:build !gui

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tochist/internal/cache"
	"tochist/internal/config"
	"tochist/internal/history"
	"tochist/internal/state"
	"tochist/internal/toc"
	"tochist/internal/wiki"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#AAAAFF"))

	addedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	removedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	reorderedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)
)

const (
	viewTimeline = iota
	viewActivity
	viewCounts
)

var viewNames = [...]string{"timeline", "activity", "counts"}

const colWidth = 28

type historyMsg *history.History

type errMsg struct{ err error }

type model struct {
	article string
	src     history.Source
	opts    history.Options
	states  *state.Store

	spin    spinner.Model
	loading bool
	err     error
	hist    *history.History

	view    int
	offsetX int
	offsetY int
	width   int
	height  int

	quitting bool
}

func newModel(article string, src history.Source, opts history.Options, states *state.Store, view int) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return model{
		article: article,
		src:     src,
		opts:    opts,
		states:  states,
		spin:    sp,
		loading: true,
		view:    view,
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetch())
}

func (m model) fetch() tea.Cmd {
	return func() tea.Msg {
		h, err := history.Build(context.Background(), m.src, m.article, m.opts)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg(h)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			if m.states != nil {
				_ = m.states.Set(m.article, state.ViewState{
					View:     viewNames[m.view],
					Sampling: m.opts.Sampling.String(),
				})
			}
			m.quitting = true
			return m, tea.Quit

		case "tab":
			m.view = (m.view + 1) % len(viewNames)
			m.offsetX, m.offsetY = 0, 0
			return m, nil

		case "1":
			m.view = viewTimeline
			m.offsetX, m.offsetY = 0, 0
			return m, nil

		case "2":
			m.view = viewActivity
			m.offsetX, m.offsetY = 0, 0
			return m, nil

		case "3":
			m.view = viewCounts
			m.offsetX, m.offsetY = 0, 0
			return m, nil

		case "left", "h":
			m.offsetX = clamp(m.offsetX-1, 0, m.maxOffsetX())
			return m, nil

		case "right", "l":
			m.offsetX = clamp(m.offsetX+1, 0, m.maxOffsetX())
			return m, nil

		case "up", "k":
			m.offsetY = clamp(m.offsetY-1, 0, m.maxOffsetY())
			return m, nil

		case "down", "j":
			m.offsetY = clamp(m.offsetY+1, 0, m.maxOffsetY())
			return m, nil

		case "home", "g":
			m.offsetX, m.offsetY = 0, 0
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case historyMsg:
		m.loading = false
		m.hist = msg
		return m, nil

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) maxOffsetX() int {
	if m.hist == nil {
		return 0
	}
	return max(0, len(m.hist.Snapshots)-1)
}

func (m model) maxOffsetY() int {
	if m.hist == nil {
		return 0
	}
	longest := 0
	switch m.view {
	case viewTimeline:
		for _, s := range m.hist.Snapshots {
			if n := len(s.Sections); n > longest {
				longest = n
			}
		}
		// Leave room for removed entries under a column.
		longest += 4
	case viewActivity:
		longest = len(m.hist.Activity)
	case viewCounts:
		longest = len(m.hist.Snapshots)
	}
	return max(0, longest-1)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	if m.loading {
		return fmt.Sprintf("\n  %s Fetching revision history for %s...\n",
			m.spin.View(), titleStyle.Render(m.article))
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v\n", m.err)) +
			controlsStyle.Render("\n  Q: quit\n")
	}

	if len(m.hist.Snapshots) == 0 {
		return statusStyle.Render("\n  No revisions found in the selected range.\n") +
			controlsStyle.Render("\n  Q: quit\n")
	}

	status := statusStyle.Render(fmt.Sprintf("%s | %s view | %d snapshots | %d transitions",
		titleStyle.Render(m.article),
		viewNames[m.view],
		len(m.hist.Snapshots),
		len(m.hist.Transitions),
	))

	var body string
	switch m.view {
	case viewTimeline:
		body = m.renderTimeline()
	case viewActivity:
		body = m.renderActivity()
	case viewCounts:
		body = m.renderCounts()
	}

	controls := controlsStyle.Render("TAB/1/2/3: view  ←/→ ↑/↓: scroll  G: top  Q: quit")

	avail := m.height - 2
	lines := strings.Split(body, "\n")
	if len(lines) > avail {
		lines = lines[:avail]
	}
	for len(lines) < avail {
		lines = append(lines, "")
	}

	return status + "\n" + strings.Join(lines, "\n") + "\n" + controls
}

// renderTimeline shows one column per snapshot, additions green, reorders
// yellow, with that transition's removals listed under each column in red.
func (m model) renderTimeline() string {
	h := m.hist
	visible := max(1, m.width/colWidth)
	start := clamp(m.offsetX, 0, max(0, len(h.Snapshots)-visible))
	end := min(start+visible, len(h.Snapshots))

	cols := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		cols = append(cols, m.renderColumn(i))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m model) renderColumn(i int) string {
	h := m.hist
	snap := h.Snapshots[i]

	var cells map[string]history.CellState
	var removed []toc.DiffEntry
	if i > 0 {
		tr := h.Transitions[i-1]
		cells = history.Cells(tr)
		for _, e := range tr.Entries {
			if e.Kind == toc.Removed {
				removed = append(removed, e)
			}
		}
	}

	lines := []string{headerStyle.Render(pad(snapshotLabel(snap, m.opts.Sampling), colWidth-2))}
	for _, sec := range snap.Sections {
		text := truncate(indentFor(sec.Level)+sec.Title, colWidth-2)
		switch cells[sec.Identifier] {
		case history.CellAdded:
			text = addedStyle.Render(text)
		case history.CellReordered:
			text = reorderedStyle.Render(text)
		}
		lines = append(lines, text)
	}
	for _, e := range removed {
		lines = append(lines, removedStyle.Render(truncate("- "+e.Section.Title, colWidth-2)))
	}

	if m.offsetY < len(lines)-1 {
		lines = append(lines[:1], lines[1+m.offsetY:]...)
	} else {
		lines = lines[:1]
	}

	for j := range lines {
		lines[j] = pad(lines[j], colWidth)
	}
	return strings.Join(lines, "\n")
}

// renderActivity is the heatmap: one row per identifier, one cell per
// transition, most active identifiers first.
func (m model) renderActivity() string {
	h := m.hist
	rows := h.HeatRows()
	idWidth := min(32, max(12, m.width/3))

	header := pad("section", idWidth) + " "
	for _, snap := range h.Snapshots[1:] {
		header += pad(snap.Timestamp.Format("06"), 3)
	}
	lines := []string{headerStyle.Render(header), ""}

	for _, row := range rows[min(m.offsetY, len(rows)):] {
		line := pad(truncate(row.Identifier, idWidth), idWidth) + " "
		for _, cell := range row.Cells {
			line += pad(cellGlyph(cell), 3)
		}
		line += dimStyle.Render(fmt.Sprintf(" %d", row.ChangeEvents))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func cellGlyph(cell history.CellState) string {
	switch cell {
	case history.CellAdded:
		return addedStyle.Render("+")
	case history.CellRemoved:
		return removedStyle.Render("x")
	case history.CellReordered:
		return reorderedStyle.Render("~")
	case history.CellPresent:
		return dimStyle.Render(".")
	}
	return " "
}

// renderCounts is a horizontal bar per snapshot of its section count.
func (m model) renderCounts() string {
	points := m.hist.SectionCounts()
	maxCount := 0
	for _, p := range points {
		if p.Count > maxCount {
			maxCount = p.Count
		}
	}
	barWidth := max(10, m.width-24)

	var lines []string
	for _, p := range points[min(m.offsetY, len(points)):] {
		label := pad(p.Timestamp.Format("2006-01"), 9)
		lines = append(lines, fmt.Sprintf("%s %s %d",
			headerStyle.Render(label),
			barFor(p.Count, maxCount, barWidth),
			p.Count,
		))
	}
	return strings.Join(lines, "\n")
}

func snapshotLabel(snap toc.Snapshot, mode history.Sampling) string {
	if mode == history.SampleYearly {
		return snap.Timestamp.Format("2006")
	}
	return snap.Timestamp.Format("2006-01-02")
}

func indentFor(level int) string {
	return strings.Repeat("  ", max(0, level-1))
}

func barFor(count, maxCount, width int) string {
	if maxCount <= 0 || width <= 0 {
		return ""
	}
	n := count * width / maxCount
	if count > 0 && n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func truncate(s string, w int) string {
	runes := []rune(s)
	if len(runes) <= w {
		return s
	}
	if w <= 1 {
		return string(runes[:max(0, w)])
	}
	return string(runes[:w-1]) + "…"
}

// pad right-pads to width, rune aware. Strings longer than the width pass
// through untouched.
func pad(s string, w int) string {
	n := len([]rune(s))
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func main() {
	fromYear := flag.Int("from", 0, "First year of history to analyze (default: span from config)")
	toYear := flag.Int("to", 0, "Last year of history to analyze (default: now)")
	sampleFlag := flag.String("sample", "", "Sampling mode: yearly or all (default: from config)")
	configFlag := flag.String("config", "", "Path to config file")
	apiFlag := flag.String("api", "", "MediaWiki api.php URL (default: from config)")
	exportFlag := flag.Bool("export", false, "Write history as JSON to stdout instead of opening the UI")
	noCache := flag.Bool("no-cache", false, "Skip the local revision cache")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Tochist - Wikipedia TOC History Viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  tochist [options] <article title>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tochist \"Opioid-induced hyperalgesia\"        Browse the last decade of TOC changes\n")
		fmt.Fprintf(os.Stderr, "  tochist -from 2005 -to 2020 \"Go (programming language)\"\n")
		fmt.Fprintf(os.Stderr, "  tochist -sample all -export \"Coffee\" > history.json\n")
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  TAB      Cycle views (timeline, activity, counts)\n")
		fmt.Fprintf(os.Stderr, "  1/2/3    Select view directly\n")
		fmt.Fprintf(os.Stderr, "  ←/→ ↑/↓  Scroll\n")
		fmt.Fprintf(os.Stderr, "  G        Jump back to the top\n")
		fmt.Fprintf(os.Stderr, "  Q        Quit\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("tochist %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	article := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if article == "" {
		fmt.Fprintln(os.Stderr, "Error: No article title provided.")
		fmt.Fprintln(os.Stderr, "Try: tochist -h")
		os.Exit(1)
	}

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *apiFlag != "" {
		cfg.API.BaseURL = *apiFlag
	}

	samplingName := *sampleFlag
	if samplingName == "" {
		samplingName = cfg.View.Sampling
	}
	sampling, err := history.ParseSampling(samplingName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	to := time.Now().UTC()
	if *toYear > 0 {
		to = time.Date(*toYear, 12, 31, 23, 59, 59, 0, time.UTC)
	}
	from := to.AddDate(-cfg.View.Years, 0, 0)
	if *fromYear > 0 {
		from = time.Date(*fromYear, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	opts := history.Options{From: from, To: to, Sampling: sampling}

	if !*noCache {
		if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0755); err == nil {
			if store, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTL()); err == nil {
				defer store.Close()
				_, _ = store.Purge()
				opts.Cache = store
			} else {
				fmt.Fprintf(os.Stderr, "Warning: revision cache unavailable: %v\n", err)
			}
		}
	}

	client := wiki.NewClient(cfg.API.BaseURL, cfg.API.UserAgent)

	if *exportFlag {
		h, err := history.Build(context.Background(), client, article, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		out, err := json.MarshalIndent(h, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	states, _ := state.NewStore()
	view := viewTimeline
	if states != nil {
		if vs, ok := states.Get(article); ok {
			for i, name := range viewNames {
				if name == vs.View {
					view = i
				}
			}
		}
	}

	m := newModel(article, client, opts, states, view)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
