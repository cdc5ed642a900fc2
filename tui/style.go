package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

var (
	styleStatusBar = fg("252").Background(lipgloss.Color("236")).Bold(true)

	// The message box mirrors the teletype: a single bordered line.
	styleMessageBox = fg("228").
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("228")).
			Padding(0, 1)

	styleInputPrompt = fg("34")
	styleCommandEcho = fg("34")
	stylePlain       = fg("255")
	styleSystem      = fg("243")
	styleError       = fg("196")
	styleTrace       = fg("240")
)

// lineKind picks the style of a transcript line.
type lineKind int

const (
	kindPlain lineKind = iota
	kindSystem
	kindError
	kindTrace
)

func classifyLine(line string) lineKind {
	if !strings.HasPrefix(line, "[") {
		return kindPlain
	}
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[Error:"):
		return kindError
	case strings.HasSuffix(line, "]"):
		return kindSystem
	}
	return kindPlain
}

var kindStyles = map[lineKind]lipgloss.Style{
	kindPlain:  stylePlain,
	kindSystem: styleSystem,
	kindError:  styleError,
	kindTrace:  styleTrace,
}

func renderLineKind(line string, kind lineKind) string {
	s, ok := kindStyles[kind]
	if !ok {
		s = stylePlain
	}
	return s.Render(line)
}
