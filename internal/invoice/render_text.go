package invoice

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = cellStyle.Bold(true)
)

// RenderText lays the document out for a terminal.
func RenderText(w io.Writer, doc Document) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render(doc.Title))
	b.WriteString("\n")
	writeFields(&b, doc.Header)
	b.WriteString("\n")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(doc.Columns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, row := range doc.Rows {
		cells := make([]string, len(doc.Columns))
		copy(cells, row.Cells)
		t.Row(cells...)
	}

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	writeFields(&b, doc.Footer)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFields(b *strings.Builder, fields []Field) {
	for _, f := range fields {
		b.WriteString(labelStyle.Render(f.Label + ":"))
		b.WriteString(" ")
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
}
