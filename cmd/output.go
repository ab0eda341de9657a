package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#00ff9f")
	dimColor     = lipgloss.Color("#6e7681")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	dimStyle    = lipgloss.NewStyle().Foreground(dimColor)
	borderStyle = lipgloss.NewStyle().Foreground(dimColor)
)

// table renders rows under a title with aligned columns
type table struct {
	title   string
	headers []string
	rows    [][]string
	footer  string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	line := func(cells []string, style func(i int) lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = style(i).Width(widths[i]).Render(cell)
		}
		return strings.Join(parts, "  ")
	}

	total := 2 * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(titleStyle.Render(t.title))
		sb.WriteString("\n")
	}
	sb.WriteString(line(t.headers, func(int) lipgloss.Style { return headerStyle }))
	sb.WriteString("\n")
	sb.WriteString(borderStyle.Render(strings.Repeat("─", max(total, 0))))
	sb.WriteString("\n")
	for _, row := range t.rows {
		sb.WriteString(line(row, func(i int) lipgloss.Style {
			if i == 0 {
				return dimStyle
			}
			return lipgloss.NewStyle()
		}))
		sb.WriteString("\n")
	}
	if t.footer != "" {
		sb.WriteString(dimStyle.Render(t.footer))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *table) print() {
	fmt.Println(t.render())
}
