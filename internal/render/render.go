// Package render prints analysis views as terminal tables.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/noot-app/carcinogenscan/internal/analysis"
	"github.com/noot-app/carcinogenscan/internal/history"
	"github.com/noot-app/carcinogenscan/internal/orchestrator"
)

var headers = []string{"Ingredient", "Risk", "Score", "NOVA", "Source", "Explanation"}

const novaColumn = 3

var toneColors = map[analysis.Tone]lipgloss.Color{
	analysis.ToneGreen:  lipgloss.Color("#4ade80"),
	analysis.ToneYellow: lipgloss.Color("#fde68a"),
	analysis.ToneOrange: lipgloss.Color("#fb923c"),
	analysis.ToneRed:    lipgloss.Color("#f87171"),
}

// Printer writes views to w using a renderer bound to w, so colors are only
// emitted when w is a terminal
type Printer struct {
	w io.Writer
	r *lipgloss.Renderer

	title   lipgloss.Style
	notice  lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	border  lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	dim     lipgloss.Style
}

// NewPrinter creates a printer for w
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		r:       r,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#d4d4d8")),
		notice:  r.NewStyle().Foreground(lipgloss.Color("#fde68a")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#fb923c")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#f87171")),
		border:  r.NewStyle().Foreground(lipgloss.Color("#52525b")),
		header:  r.NewStyle().Bold(true).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#71717a")),
	}
}

// View prints the result of the active mode followed by any notice, warning
// or failure
func (p *Printer) View(v orchestrator.View) error {
	var b strings.Builder

	if v.Failure != nil {
		b.WriteString(p.failure.Render("Error: "+v.Failure.Message) + "\n")
	}
	if v.AIInputNotice != "" {
		b.WriteString(p.notice.Render(v.AIInputNotice) + "\n")
	}
	if v.Warning != "" {
		b.WriteString(p.warning.Render("Warning: "+v.Warning) + "\n")
	}

	switch {
	case v.Mode == orchestrator.ModeSingle && v.SingleResult != nil:
		b.WriteString(p.rows(v.SingleResult.Ingredients) + "\n")
	case v.Mode == orchestrator.ModeBatch && v.BatchResult != nil:
		for _, entry := range v.BatchResult.Entries() {
			b.WriteString(p.product(entry))
		}
	}

	_, err := io.WriteString(p.w, b.String())
	return err
}

// History prints one line per history item, most recent first
func (p *Printer) History(items []history.Item, selectedID string) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(p.w, p.dim.Render("No analyses yet."))
		return err
	}

	var b strings.Builder
	for _, item := range items {
		marker := " "
		if item.ID == selectedID {
			marker = "*"
		}
		kind := "single"
		if item.IsBatch {
			kind = "batch"
		}
		fmt.Fprintf(&b, "%s %s  %s  %-6s  %s\n",
			marker,
			item.ID,
			p.dim.Render(item.Timestamp.Local().Format("2006-01-02 15:04:05")),
			kind,
			item.Input)
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Printer) product(entry analysis.BatchEntry) string {
	var b strings.Builder
	b.WriteString(p.title.Render(entry.Product) + "\n")
	if entry.Result.Error != "" {
		b.WriteString(p.failure.Render("Error: "+entry.Result.Error) + "\n")
	}
	if entry.Result.Warning != "" {
		b.WriteString(p.warning.Render("Warning: "+entry.Result.Warning) + "\n")
	}
	if len(entry.Result.Ingredients) > 0 {
		b.WriteString(p.rows(entry.Result.Ingredients) + "\n")
	}
	return b.String()
}

func (p *Printer) rows(rows []analysis.Row) string {
	if len(rows) == 0 {
		return p.dim.Render("No ingredients returned.")
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			if col == novaColumn && row >= 0 && row < len(rows) {
				if color, ok := toneColors[rows[row].NovaTone()]; ok {
					return p.cell.Foreground(color)
				}
			}
			return p.cell
		})

	for _, r := range rows {
		t.Row(r.Name, r.RiskBadge(), r.ScoreText(), r.NovaLabel(), r.Source, r.Explanation)
	}
	return t.String()
}
