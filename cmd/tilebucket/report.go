package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gogpu/tilebucket"
	"github.com/gogpu/tilebucket/tile"
)

var (
	accentFg = lipgloss.Color("#7C3AED")
	subtleFg = lipgloss.Color("#8A94A6")
	errorFg  = lipgloss.Color("#E5484D")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentFg)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(subtleFg)
	errorStyle  = lipgloss.NewStyle().Foreground(errorFg)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(subtleFg).Padding(0, 1)
)

// columns of the per-layer table.
var columns = []struct {
	title string
	width int
}{
	{"layer", 16},
	{"features", 9},
	{"fill groups", 16},
	{"line groups", 16},
	{"dropped", 8},
}

// tileStats is what the report shows for one tile.
type tileStats struct {
	result *tile.Result
	draws  int
	bytes  uint64
}

func cell(s string, i int) string {
	return lipgloss.NewStyle().Width(columns[i].width).Render(s)
}

func row(cells ...string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = cell(c, i)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func groupSummary(gs []tilebucket.Group) string {
	v, e := 0, 0
	for _, g := range gs {
		v += g.VertexCount
		e += g.ElementCount
	}
	return fmt.Sprintf("%d: %dv/%dt", len(gs), v, e)
}

// renderReport renders one box per tile.
func renderReport(stats []tileStats) string {
	boxes := make([]string, 0, len(stats))
	for _, s := range stats {
		r := s.result
		lines := []string{
			titleStyle.Render(fmt.Sprintf("tile %d/%d/%d", r.ID.Z, r.ID.X, r.ID.Y)) +
				headerStyle.Render(fmt.Sprintf("  %d draws, %d bytes", s.draws, s.bytes)),
		}
		titles := make([]string, len(columns))
		for i, c := range columns {
			titles[i] = headerStyle.Render(c.title)
		}
		lines = append(lines, row(titles...))

		for _, b := range r.Buckets {
			lines = append(lines, row(
				b.Layer.ID,
				fmt.Sprint(b.Features),
				groupSummary(b.TriangleGroups()),
				groupSummary(b.LineGroups()),
				fmt.Sprint(b.Dropped()),
			))
		}
		if len(r.Buckets) == 0 {
			lines = append(lines, headerStyle.Render("no buckets"))
		}
		if r.Err != nil {
			for _, e := range strings.Split(r.Err.Error(), "\n") {
				lines = append(lines, errorStyle.Render(e))
			}
		}
		boxes = append(boxes, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}
