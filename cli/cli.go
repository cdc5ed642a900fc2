// Package cli provides the line-oriented host for the quest trigger engine:
// terminal I/O, the frame loop, and meta-command dispatch.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nathoo/questtrigger/engine"
	"github.com/nathoo/questtrigger/engine/bus"
	"github.com/nathoo/questtrigger/engine/display"
	"github.com/nathoo/questtrigger/engine/state"
	"github.com/nathoo/questtrigger/types"
)

// MaxSettleFrames bounds how many frames one command may run before the
// host gives up waiting for the bus to drain and the display to go idle.
const MaxSettleFrames = 10000

// ErrNoSettle is returned when quests keep messaging each other past
// MaxSettleFrames.
var ErrNoSettle = errors.New("bus did not settle")

// CLI drives a registry from typed commands.
type CLI struct {
	Registry  *engine.Registry
	Bus       *bus.Bus
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)

	frameText string // text presented by the latest frame
	boxWidth  int
	boxAlign  display.Align
	pending   string // last frame of the message still on screen
	seen      int    // display Shown() count already accounted for
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI with its own registry on b. The CLI is the registry's
// presenter and observes every trigger firing for trace output.
func New(b *bus.Bus, opts engine.Options) *CLI {
	c := &CLI{
		Bus: b,
		In:  os.Stdin,
		Out: os.Stdout,
	}
	opts.Presenter = c
	observe := opts.OnFire
	opts.OnFire = func(r types.Result) {
		if observe != nil {
			observe(r)
		}
		c.printTrace(r)
	}
	c.Registry = engine.New(b, opts)
	return c
}

// TextBox records the frame; boxes are printed once a message finishes or
// is replaced.
func (c *CLI) TextBox(text string, width int, align display.Align) {
	c.frameText = text
	c.boxWidth = width
	c.boxAlign = align
}

// Run reads commands until EOF or /quit. A content error stops the loop and
// is returned.
func (c *CLI) Run() error {
	c.printSystem(fmt.Sprintf("%d quest(s) loaded. Type /help for commands.", len(c.Registry.Quests())))

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			quit, err := c.handleMeta(input)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			continue
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		if err := c.Exec(input); err != nil {
			c.printSystem(fmt.Sprintf("Error: %v", err))
			return err
		}
	}
	return scanner.Err()
}

// Exec runs one command. Usage mistakes are reported and return nil; only
// content errors and a bus that never settles are returned.
func (c *CLI) Exec(input string) error {
	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case "fire", "f":
		if len(parts) != 3 {
			c.printSystem("Usage: fire <quest> <trigger>")
			return nil
		}
		q, ok := c.Registry.Lookup(parts[1])
		if !ok {
			c.printSystem(fmt.Sprintf("No quest named %q.", parts[1]))
			return nil
		}
		if _, err := q.FireTrigger(parts[2]); err != nil {
			return err
		}
		return c.settle()

	case "send", "s":
		if len(parts) != 3 {
			c.printSystem("Usage: send <entity> <trigger>")
			return nil
		}
		id, ok := c.Bus.Find(parts[1])
		if !ok {
			c.printSystem(fmt.Sprintf("No entity named %q.", parts[1]))
			return nil
		}
		c.Bus.Send(types.Message{Type: types.MessageActivate, Receiver: id, Payload: types.StringValue(parts[2])})
		return c.settle()

	case "tick", "t":
		n := 1
		if len(parts) > 1 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v < 1 {
				c.printSystem("Usage: tick [frames]")
				return nil
			}
			n = v
		}
		for i := 0; i < n; i++ {
			if err := c.frame(); err != nil {
				return err
			}
		}
		if c.pending != "" {
			c.printLine(c.pending + "_")
		}
		return nil

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", parts[0]))
		return nil
	}
}

// frame runs one host frame and prints any message that finished or was
// replaced during it.
func (c *CLI) frame() error {
	c.frameText = ""
	err := c.Registry.Frame()

	d := c.Registry.Display()
	if d.Shown() != c.seen {
		c.seen = d.Shown()
		c.flush()
	}
	if c.frameText != "" {
		c.pending = c.frameText
	}
	if !d.Active() {
		c.flush()
	}
	return err
}

// settle runs frames until the bus is empty and the display is idle.
func (c *CLI) settle() error {
	d := c.Registry.Display()
	for i := 0; c.Bus.Pending() > 0 || d.Active(); i++ {
		if i >= MaxSettleFrames {
			return fmt.Errorf("%w after %d frames", ErrNoSettle, MaxSettleFrames)
		}
		if err := c.frame(); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) flush() {
	if c.pending == "" {
		return
	}
	c.print(renderBox(c.pending, c.boxWidth, c.boxAlign))
	c.pending = ""
}

// handleMeta dispatches meta-commands. Returns true if the host should exit.
func (c *CLI) handleMeta(input string) (bool, error) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true, nil

	case "/help":
		c.cmdHelp()

	case "/quests":
		c.cmdQuests()

	case "/vars":
		c.cmdVars(arg)

	case "/check":
		if len(parts) != 3 {
			c.printSystem("Usage: /check <quest> <trigger>")
			return false, nil
		}
		return false, c.cmdCheck(parts[1], parts[2])

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false, nil
}

func (c *CLI) cmdHelp() {
	help := []string{
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
		"  tick [frames] (t)           Advance the frame loop",
		"  again (g)                   Repeat the last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdQuests() {
	quests := c.Registry.Quests()
	if len(quests) == 0 {
		c.printSystem("No quests loaded.")
		return
	}
	for _, q := range quests {
		c.printLine(fmt.Sprintf("  %-24s entity %-3d %d variable(s), %d trigger(s)",
			q.Name, q.Entity(), len(q.Variables()), len(q.Triggers())))
	}
}

func (c *CLI) cmdVars(name string) {
	if name == "" {
		c.printSystem("Usage: /vars <quest>")
		return
	}
	q, ok := c.Registry.Lookup(name)
	if !ok {
		c.printSystem(fmt.Sprintf("No quest named %q.", name))
		return
	}
	vars := q.Variables()
	if len(vars) == 0 {
		c.printSystem(fmt.Sprintf("%s has no variables.", name))
		return
	}
	for _, v := range vars {
		c.printLine(fmt.Sprintf("  %s = %s", v.Name, v.Value))
	}
}

func (c *CLI) cmdCheck(quest, trigger string) error {
	q, ok := c.Registry.Lookup(quest)
	if !ok {
		c.printSystem(fmt.Sprintf("No quest named %q.", quest))
		return nil
	}
	outcomes, err := q.Check(trigger)
	if err != nil {
		if state.IsContentError(err) {
			return err
		}
		c.printSystem(fmt.Sprintf("Check failed: %v", err))
		return nil
	}
	if len(outcomes) == 0 {
		c.printSystem(fmt.Sprintf("%s has no trigger %q.", quest, trigger))
		return nil
	}
	for _, o := range outcomes {
		line := fmt.Sprintf("  #%d %s: %s", o.Index, o.Trigger, o.State)
		if o.State == types.TriggerBlocked {
			line += fmt.Sprintf(" (condition %d)", o.FailedCondition)
		}
		c.printLine(line)
	}
	return nil
}

func (c *CLI) printTrace(result types.Result) {
	if !c.Trace {
		return
	}
	c.printSystem(fmt.Sprintf("[trace] %s/%s: %d match(es)", result.Quest, result.Trigger, len(result.Outcomes)))
	for _, o := range result.Outcomes {
		c.printSystem(fmt.Sprintf("[trace]   #%d %s", o.Index, o.State))
	}
	for _, e := range result.Events {
		c.printSystem(fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
