package cli

import (
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/wordwrap"
	"github.com/nathoo/questtrigger/engine/display"
)

// renderBox word-wraps text to width and frames it, aligning each line.
func renderBox(text string, width int, align display.Align) string {
	if width < 4 {
		width = 4
	}
	inner := width - 2

	var b strings.Builder
	rule := "+" + strings.Repeat("-", inner) + "+\n"
	b.WriteString(rule)
	for _, line := range strings.Split(wordwrap.String(text, inner-2), "\n") {
		line = strings.TrimRight(line, " ")
		pad := inner - 2 - ansi.PrintableRuneWidth(line)
		if pad < 0 {
			pad = 0
		}
		switch align {
		case display.AlignCenter:
			line = strings.Repeat(" ", pad/2) + line
		case display.AlignRight:
			line = strings.Repeat(" ", pad) + line
		}
		b.WriteString("| ")
		b.WriteString(padding.String(line, uint(inner-2)))
		b.WriteString(" |\n")
	}
	b.WriteString(rule)
	return b.String()
}
