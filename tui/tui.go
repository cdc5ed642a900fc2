// Package tui provides a Bubble Tea terminal UI for the quest trigger engine.
// The Bubble Tea update loop is the frame loop: every tick runs one bus
// dispatch pass and one display update.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/nathoo/questtrigger/engine"
	"github.com/nathoo/questtrigger/engine/bus"
	"github.com/nathoo/questtrigger/engine/display"
	"github.com/nathoo/questtrigger/engine/state"
	"github.com/nathoo/questtrigger/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text    string
	kind    lineKind
	isInput bool // true for echoed player input
}

// screen is the registry's presenter. It lives behind a pointer because
// Bubble Tea copies the Model on every update.
type screen struct {
	text  string
	width int
	align display.Align
	fired []types.Result
}

func (s *screen) TextBox(text string, width int, align display.Align) {
	s.text = text
	s.width = width
	s.align = align
}

// Model is the Bubble Tea model for the quest trigger TUI.
type Model struct {
	registry *engine.Registry
	bus      *bus.Bus
	screen   *screen
	interval time.Duration

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated output lines (unstyled, for re-wrapping)
	box      string    // last text presented by the display
	frames   int
	lastFire string // quest of the most recent firing, for the status bar

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	err      error
}

// frameMsg is delivered once per frame by tea.Tick.
type frameMsg time.Time

// outputMsg carries output lines into the Update loop.
type outputMsg struct {
	input string // echoed player input (empty for banners)
	lines []string
}

// New creates a TUI model with its own registry on b. frameRate is in
// frames per second.
func New(b *bus.Bus, opts engine.Options, frameRate int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	if frameRate <= 0 {
		frameRate = 30
	}

	scr := &screen{}
	opts.Presenter = scr
	observe := opts.OnFire
	opts.OnFire = func(r types.Result) {
		if observe != nil {
			observe(r)
		}
		scr.fired = append(scr.fired, r)
	}

	return Model{
		registry: engine.New(b, opts),
		bus:      b,
		screen:   scr,
		interval: time.Second / time.Duration(frameRate),
		input:    ti,
		history:  NewHistory(100),
	}
}

// WithTrace returns a copy of m with trigger trace output switched on or off.
func (m Model) WithTrace(on bool) Model {
	m.trace = on
	return m
}

// Registry exposes the model's registry so the host can load content.
func (m Model) Registry() *engine.Registry {
	return m.registry
}

// Err returns the content error that stopped the program, if any.
func (m Model) Err() error {
	return m.err
}

// Run starts the Bubble Tea program. A content error raised by a frame is
// returned after the program exits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

// Init starts the frame ticker and prints the banner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tick(), m.banner())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) banner() tea.Cmd {
	n := len(m.registry.Quests())
	return func() tea.Msg {
		return outputMsg{lines: []string{
			fmt.Sprintf("[%d quest(s) loaded. Type /help for commands.]", n),
		}}
	}
}

// Update handles messages (frames, key presses, window resize, output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(m.width, m.viewportHeight())
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = m.viewportHeight()
		}

		m.refreshViewport()

	case frameMsg:
		if m.quitting {
			return m, nil
		}
		m = m.runFrame()
		if m.err != nil {
			return m.haltOnError()
		}
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case outputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// runFrame advances the registry one frame and collects what it produced.
func (m Model) runFrame() Model {
	m.screen.text = ""
	err := m.registry.Frame()
	m.frames++

	// The box shows what the presenter drew this frame and blanks once
	// the teletype has nothing left to show.
	if m.screen.text != "" {
		m.box = m.screen.text
	} else if !m.registry.Display().Active() {
		m.box = ""
	}
	m = m.collectFired()
	if err != nil {
		m.err = err
	}
	return m
}

// collectFired drains firings observed since the last frame into trace
// output and the status bar.
func (m Model) collectFired() Model {
	fired := m.screen.fired
	m.screen.fired = nil
	if len(fired) == 0 {
		return m
	}
	m.lastFire = fired[len(fired)-1].Quest
	if !m.trace {
		return m
	}
	var lines []string
	for _, r := range fired {
		lines = append(lines, formatTrace(r)...)
	}
	return m.appendOutput(outputMsg{lines: lines})
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	// Handle "again" / "g".
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		last, ok := m.history.Last()
		if !ok {
			m = m.appendOutput(outputMsg{input: input, lines: []string{"[Nothing to repeat.]"}})
			return m, nil
		}
		input = last
	} else {
		m.history.Push(input)
	}
	m.history.ResetCursor()

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(outputMsg{input: input, lines: output})
		if m.err != nil {
			return m.haltOnError()
		}
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m, output := m.exec(input)
	m = m.appendOutput(outputMsg{input: input, lines: output})
	m = m.collectFired()
	if m.err != nil {
		return m.haltOnError()
	}
	return m, nil
}

// haltOnError reports the content error in m.err and stops the program.
func (m Model) haltOnError() (tea.Model, tea.Cmd) {
	m = m.appendOutput(outputMsg{lines: []string{"[Error: " + m.err.Error() + "]"}})
	m.quitting = true
	return m, tea.Quit
}

// exec runs one engine command. Deliveries and reveals happen on later
// frames; tick runs frames immediately.
func (m Model) exec(input string) (Model, []string) {
	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case "fire", "f":
		if len(parts) != 3 {
			return m, []string{"[Usage: fire <quest> <trigger>]"}
		}
		q, ok := m.registry.Lookup(parts[1])
		if !ok {
			return m, []string{fmt.Sprintf("[No quest named %q.]", parts[1])}
		}
		if _, err := q.FireTrigger(parts[2]); err != nil {
			m.err = err
		}
		return m, nil

	case "send", "s":
		if len(parts) != 3 {
			return m, []string{"[Usage: send <entity> <trigger>]"}
		}
		id, ok := m.bus.Find(parts[1])
		if !ok {
			return m, []string{fmt.Sprintf("[No entity named %q.]", parts[1])}
		}
		m.bus.Send(types.Message{Type: types.MessageActivate, Receiver: id, Payload: types.StringValue(parts[2])})
		return m, nil

	case "tick", "t":
		n := 1
		if len(parts) > 1 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v < 1 {
				return m, []string{"[Usage: tick [frames]]"}
			}
			n = v
		}
		for i := 0; i < n && m.err == nil; i++ {
			m = m.runFrame()
		}
		return m, nil

	default:
		return m, []string{fmt.Sprintf("[Unknown command: %s. Type /help for available commands.]", parts[0])}
	}
}

// appendOutput adds lines to the log and refreshes the viewport.
func (m Model) appendOutput(msg outputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}
	for _, line := range msg.lines {
		m.rawLines = append(m.rawLines, rawLine{text: line, kind: classifyLine(line)})
	}

	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordwrap.String(rl.text, width)
		if rl.isInput {
			styled = append(styled, styleCommandEcho.Render(wrapped))
			continue
		}
		styled = append(styled, renderLineKind(wrapped, rl.kind))
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// viewportHeight leaves room for the message box, the status bar and the
// input line.
func (m Model) viewportHeight() int {
	h := m.height - 2 - boxHeight
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the full TUI layout: log viewport, message box, status bar
// and input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" +
		m.renderMessageBox() + "\n" +
		m.renderStatusBar() + "\n" +
		m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"[Goodbye.]"}, true

	case "/help":
		return cmdHelp(), false

	case "/quests":
		return m.cmdQuests(), false

	case "/vars":
		return m.cmdVars(arg), false

	case "/check":
		if len(parts) != 3 {
			return []string{"[Usage: /check <quest> <trigger>]"}, false
		}
		return m.cmdCheck(parts[1], parts[2]), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"[Trace output enabled.]"}, false
		}
		return []string{"[Trace output disabled.]"}, false

	default:
		return []string{fmt.Sprintf("[Unknown command: %s. Type /help for available commands.]", cmd)}, false
	}
}

func cmdHelp() []string {
	return []string{
		"System:",
		"  /quests                  List loaded quests",
		"  /vars <quest>            Show a quest's variables",
		"  /check <quest> <trigger> Preview a trigger's guards",
		"  /trace                   Toggle trigger trace output",
		"  /help                    Show this help",
		"  /quit                    Exit",
		"",
		"Commands:",
		"  fire <quest> <trigger> (f)  Fire a trigger directly",
		"  send <entity> <trigger> (s) Send an activate message over the bus",
		"  tick [frames] (t)           Run frames immediately",
		"  again (g)                   Repeat the last command",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

func (m *Model) cmdQuests() []string {
	quests := m.registry.Quests()
	if len(quests) == 0 {
		return []string{"[No quests loaded.]"}
	}
	lines := make([]string, 0, len(quests))
	for _, q := range quests {
		lines = append(lines, fmt.Sprintf("  %s (%s): %d variable(s), %d trigger(s)",
			questDisplayName(q.Name), q.Name, len(q.Variables()), len(q.Triggers())))
	}
	return lines
}

func (m *Model) cmdVars(name string) []string {
	if name == "" {
		return []string{"[Usage: /vars <quest>]"}
	}
	q, ok := m.registry.Lookup(name)
	if !ok {
		return []string{fmt.Sprintf("[No quest named %q.]", name)}
	}
	vars := q.Variables()
	if len(vars) == 0 {
		return []string{fmt.Sprintf("[%s has no variables.]", name)}
	}
	lines := make([]string, 0, len(vars))
	for _, v := range vars {
		lines = append(lines, fmt.Sprintf("  %s = %s", v.Name, v.Value))
	}
	return lines
}

func (m *Model) cmdCheck(quest, trigger string) []string {
	q, ok := m.registry.Lookup(quest)
	if !ok {
		return []string{fmt.Sprintf("[No quest named %q.]", quest)}
	}
	outcomes, err := q.Check(trigger)
	if err != nil {
		if state.IsContentError(err) {
			m.err = err
			return nil
		}
		return []string{fmt.Sprintf("[Check failed: %v]", err)}
	}
	if len(outcomes) == 0 {
		return []string{fmt.Sprintf("[%s has no trigger %q.]", quest, trigger)}
	}
	lines := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		line := fmt.Sprintf("  #%d %s: %s", o.Index, o.Trigger, o.State)
		if o.State == types.TriggerBlocked {
			line += fmt.Sprintf(" (condition %d)", o.FailedCondition)
		}
		lines = append(lines, line)
	}
	return lines
}

func formatTrace(result types.Result) []string {
	lines := []string{fmt.Sprintf("[trace] %s/%s: %d match(es)", result.Quest, result.Trigger, len(result.Outcomes))}
	for _, o := range result.Outcomes {
		lines = append(lines, fmt.Sprintf("[trace]   #%d %s", o.Index, o.State))
	}
	for _, e := range result.Events {
		lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
