package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/nathoo/questtrigger/engine/display"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// boxHeight is the fixed height of the message box: one text line plus
// the border.
const boxHeight = 3

var titleCaser = cases.Title(language.English)

// questDisplayName derives a human-readable name from a quest name.
// "froggy-quest" -> "Froggy Quest", "frog_king" -> "Frog King".
func questDisplayName(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(name)
}

// renderMessageBox draws the teletype text as the display last presented
// it. Text wider than the box keeps its tail, the part still revealing.
func (m Model) renderMessageBox() string {
	width := m.screen.width
	if width <= 0 || width > m.width-2 {
		width = m.width - 2
	}
	if width < 4 {
		width = 4
	}
	inner := width - 2 // padding

	text := m.box
	if runes := []rune(text); len(runes) > inner {
		text = string(runes[len(runes)-inner:])
	}
	text = truncate.String(text, uint(inner))

	pos := lipgloss.Center
	switch m.screen.align {
	case display.AlignLeft:
		pos = lipgloss.Left
	case display.AlignRight:
		pos = lipgloss.Right
	}

	return styleMessageBox.Width(width).Align(pos).Render(text)
}

// renderStatusBar produces a full-width inverted status line showing the
// quest that fired last, pending bus messages, and the frame count.
func (m Model) renderStatusBar() string {
	active := "-"
	if m.lastFire != "" {
		active = questDisplayName(m.lastFire)
	}

	left := fmt.Sprintf(" %s | Quests: %d", active, len(m.registry.Quests()))
	right := fmt.Sprintf("Bus: %d | F:%d ", m.bus.Pending(), m.frames)
	if m.trace {
		right = "TRACE | " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
