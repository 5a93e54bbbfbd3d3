package ui

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// RenderTable writes rows as space-padded columns. Column widths track the
// widest cell; the last column is left unpadded so lines never carry
// trailing spaces. A nil headers slice suppresses the header row.
func RenderTable(out io.Writer, headers []string, rows [][]string) {
	cols := len(headers)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return
	}
	widths := make([]int, cols)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	writeRow := func(cells []string) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			io.WriteString(out, cell)
			if i == cols-1 {
				io.WriteString(out, "\n")
				continue
			}
			padding := widths[i] - runewidth.StringWidth(cell)
			if padding < 0 {
				padding = 0
			}
			io.WriteString(out, strings.Repeat(" ", padding+2))
		}
	}
	if len(headers) > 0 {
		writeRow(headers)
	}
	for _, row := range rows {
		writeRow(row)
	}
}

// TrimToWidth trims s to the given display width, appending an ellipsis when
// anything was cut.
func TrimToWidth(s string, width int) string {
	s = strings.TrimSpace(s)
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 1 {
		out := []rune(s)
		if len(out) == 0 {
			return ""
		}
		return string(out[:1])
	}
	limit := width - 1
	var out []rune
	w := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			rw = 1
		}
		if w+rw > limit {
			break
		}
		out = append(out, r)
		w += rw
	}
	return string(out) + "…"
}
