//go:build gui

package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"tochist/internal/cache"
	"tochist/internal/config"
	"tochist/internal/history"
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
	colPlain     = color.White
	colAdded     = color.RGBA{R: 80, G: 220, B: 80, A: 255}
	colRemoved   = color.RGBA{R: 240, G: 90, B: 90, A: 255}
	colReordered = color.RGBA{R: 250, G: 170, B: 40, A: 255}
)

func sectionText(s string, col color.Color) *canvas.Text {
	t := canvas.NewText(s, col)
	t.TextSize = 13
	return t
}

func columnLabel(snap toc.Snapshot, mode history.Sampling) string {
	if mode == history.SampleYearly {
		return snap.Timestamp.Format("2006")
	}
	return snap.Timestamp.Format("2006-01-02")
}

// timelineColumn renders one snapshot: its sections top to bottom, colored
// by what the transition into this snapshot did to them, with that
// transition's removals listed underneath in red.
func timelineColumn(h *history.History, i int, mode history.Sampling) fyne.CanvasObject {
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

	header := canvas.NewText(columnLabel(snap, mode), colPlain)
	header.TextSize = 14
	header.TextStyle.Bold = true

	items := []fyne.CanvasObject{header}
	for _, sec := range snap.Sections {
		col := color.Color(colPlain)
		switch cells[sec.Identifier] {
		case history.CellAdded:
			col = colAdded
		case history.CellReordered:
			col = colReordered
		}
		indent := strings.Repeat("  ", max(0, sec.Level-1))
		items = append(items, sectionText(indent+sec.Title, col))
	}
	for _, e := range removed {
		items = append(items, sectionText("- "+e.Section.Title, colRemoved))
	}

	return container.NewVBox(items...)
}

func buildTimeline(h *history.History, mode history.Sampling) fyne.CanvasObject {
	cols := make([]fyne.CanvasObject, 0, len(h.Snapshots))
	for i := range h.Snapshots {
		cols = append(cols, container.NewPadded(timelineColumn(h, i, mode)))
	}
	return container.NewHScroll(container.NewHBox(cols...))
}

func buildActivityList(h *history.History) *widget.List {
	rows := h.HeatRows()
	return widget.NewList(
		func() int { return len(rows) },
		func() fyne.CanvasObject {
			return widget.NewLabel("section")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			row := rows[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%d  %s", row.ChangeEvents, row.Identifier))
		},
	)
}

func main() {
	fromYear := flag.Int("from", 0, "First year of history to analyze (default: span from config)")
	toYear := flag.Int("to", 0, "Last year of history to analyze (default: now)")
	sampleFlag := flag.String("sample", "", "Sampling mode: yearly or all (default: from config)")
	configFlag := flag.String("config", "", "Path to config file")
	apiFlag := flag.String("api", "", "MediaWiki api.php URL (default: from config)")
	noCache := flag.Bool("no-cache", false, "Skip the local revision cache")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Tochist GUI - Wikipedia TOC History Viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  tochist-gui [options] <article title>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tochist-gui \"Opioid-induced hyperalgesia\"\n")
		fmt.Fprintf(os.Stderr, "  tochist-gui -from 2005 -to 2020 \"Go (programming language)\"\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("tochist-gui %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	article := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if article == "" {
		fmt.Fprintln(os.Stderr, "Error: No article title provided.")
		fmt.Fprintln(os.Stderr, "Try: tochist-gui -h")
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

	a := app.New()
	w := a.NewWindow("tochist - " + article)

	statusLabel := widget.NewLabel(fmt.Sprintf("Fetching revision history for %s...", article))
	statusLabel.Alignment = fyne.TextAlignCenter

	controlsLabel := widget.NewLabel("A: activity panel  F: fullscreen  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter

	body := container.NewMax(widget.NewLabel(""))
	mainContainer := container.NewBorder(statusLabel, controlsLabel, nil, nil, body)

	var split *container.Split
	activityVisible := false

	go func() {
		h, err := history.Build(context.Background(), client, article, opts)
		fyne.Do(func() {
			if err != nil {
				statusLabel.SetText(fmt.Sprintf("Error: %v", err))
				return
			}
			if len(h.Snapshots) == 0 {
				statusLabel.SetText("No revisions found in the selected range.")
				return
			}

			activityContainer := container.NewBorder(
				widget.NewLabel("Section activity"),
				widget.NewLabel("Changes • A to close"),
				nil, nil,
				buildActivityList(h),
			)

			split = container.NewHSplit(activityContainer, buildTimeline(h, sampling))
			split.Offset = 0.33
			activityContainer.Hide()

			body.Objects = []fyne.CanvasObject{split}
			body.Refresh()

			statusLabel.SetText(fmt.Sprintf("%s | %d snapshots | %d transitions",
				article, len(h.Snapshots), len(h.Transitions)))
		})
	}()

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyF:
			w.SetFullScreen(!w.FullScreen())
		case fyne.KeyQ:
			a.Quit()
		}
	})

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 'a', 'A':
			if split == nil {
				return
			}
			activityVisible = !activityVisible
			if activityVisible {
				split.Leading.Show()
			} else {
				split.Leading.Hide()
			}
			split.Refresh()
		}
	})

	w.Resize(fyne.NewSize(1000, 700))
	w.SetContent(mainContainer)
	w.ShowAndRun()
}
