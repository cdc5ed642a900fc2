// Questtrigger runs Lua-authored quests on the trigger engine, either as a
// Bubble Tea frame loop or as a plain line-oriented host.
// Usage: questtrigger [--version] [--plain] [--script <file>] [--trace] <quest_directory>
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nathoo/questtrigger/cli"
	"github.com/nathoo/questtrigger/config"
	"github.com/nathoo/questtrigger/engine"
	"github.com/nathoo/questtrigger/engine/bus"
	"github.com/nathoo/questtrigger/loader"
	"github.com/nathoo/questtrigger/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	trace := false
	var questDir string
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("questtrigger %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		default:
			if questDir == "" {
				questDir = args[i]
			}
		}
	}

	if questDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: questtrigger [--version] [--plain] [--script <file>] [--trace] <quest_directory>\n")
		os.Exit(1)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg, os.Stderr)
	slog.SetDefault(log)

	// Load and compile Lua quest content.
	content, err := loader.Load(questDir)
	if err != nil {
		log.Error("loading quests failed", "dir", questDir, "error", err)
		os.Exit(1)
	}
	for _, w := range content.Warnings {
		log.Warn("quest content", "warning", w)
	}

	b := bus.New(log)
	opts := engine.Options{
		Capacity:  cfg.RegistryCapacity,
		MaxReveal: cfg.MaxReveal,
		Width:     cfg.BoxWidth,
		Logger:    log,
	}

	if scriptFile != "" || plain || !isTerminal() {
		if err := runPlain(b, opts, content, scriptFile, trace); err != nil {
			log.Error("run stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	m := tui.New(b, opts, cfg.FrameRate).WithTrace(trace)
	if err := m.Registry().Load(content.Quests); err != nil {
		log.Error("building quests failed", "error", err)
		os.Exit(1)
	}
	if err := tui.Run(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runPlain drives the line-oriented host. Script mode reads commands from
// a file and echoes them.
func runPlain(b *bus.Bus, opts engine.Options, content *loader.Content, scriptFile string, trace bool) error {
	c := cli.New(b, opts)
	c.Trace = trace
	if err := c.Registry.Load(content.Quests); err != nil {
		return fmt.Errorf("building quests: %w", err)
	}

	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	}
	return c.Run()
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
