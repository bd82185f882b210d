package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/sectionrank/internal/config"
	"github.com/dgallion1/sectionrank/internal/pipeline"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for the run summary
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// console renders per-document progress. Workers report concurrently.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, s)
}

func (c *console) DocumentStarted(job *pipeline.Job) {
	c.println(fmt.Sprintf("%s %s %s", dimStyle.Render("…"), job.Collection, dimStyle.Render(job.Document)))
}

func (c *console) DocumentWritten(job *pipeline.Job, path string) {
	snap := job.Snapshot()
	c.println(fmt.Sprintf("%s %s %s %s",
		successStyle.Render("✓"), job.Document,
		dimStyle.Render(fmt.Sprintf("%d sections, top %d ->", snap.Progress.Sections, snap.Progress.Ranked)),
		path,
	))
}

func (c *console) DocumentFailed(job *pipeline.Job, err error) {
	c.println(fmt.Sprintf("%s %s %s", errorStyle.Render("✗"), job.Document, errorStyle.Render(err.Error())))
}

func (c *console) CollectionSkipped(name string, err error) {
	c.println(fmt.Sprintf("%s %s %s", warnStyle.Render("skipped"), name, dimStyle.Render(err.Error())))
}

func (c *console) Watching(root string) {
	c.println(fmt.Sprintf("%s %s", titleStyle.Render("watching"), root))
}

// FormatHeader renders the run configuration
func FormatHeader(w io.Writer, cfg config.Config) {
	content := fmt.Sprintf("%s %s  %s %s\n%s %s  %s %d",
		dimStyle.Render("Input:"), titleStyle.Render(cfg.InputRoot),
		dimStyle.Render("Output:"), cfg.OutputDir,
		dimStyle.Render("Embedder:"), cfg.EmbedProvider,
		dimStyle.Render("Top:"), cfg.TopK,
	)
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatSummary renders the totals of a run
func FormatSummary(w io.Writer, sum pipeline.Summary) {
	status := successStyle.Render("OK")
	if sum.Failed > 0 || sum.CollectionsSkipped > 0 {
		status = warnStyle.Render("PARTIAL")
	}
	if sum.Documents > 0 && sum.Failed == sum.Documents {
		status = errorStyle.Render("FAILED")
	}

	content := fmt.Sprintf("%s %d  %s %d\n%s %d  %s %d  %s",
		dimStyle.Render("Collections:"), sum.Collections,
		dimStyle.Render("skipped:"), sum.CollectionsSkipped,
		dimStyle.Render("Documents:"), sum.Documents,
		dimStyle.Render("failed:"), sum.Failed,
		status,
	)
	fmt.Fprintln(w, boxStyle.Render(content))
}
