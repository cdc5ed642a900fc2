package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/questtrigger/engine"
	"github.com/nathoo/questtrigger/engine/bus"
	"github.com/nathoo/questtrigger/engine/state"
	"github.com/nathoo/questtrigger/types"
)

func TestQuestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"froggy-quest", "Froggy Quest"},
		{"frog_king", "Frog King"},
		{"cake", "Cake"},
		{"the-big-pond_run", "The Big Pond Run"},
	}
	for _, tt := range tests {
		got := questDisplayName(tt.name)
		if got != tt.want {
			t.Errorf("questDisplayName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"[2 quest(s) loaded. Type /help for commands.]", kindSystem},
		{"[trace] froggy-quest/pick-up-cake: 1 match(es)", kindTrace},
		{"[Error: quest \"q\": unknown quest]", kindError},
		{"  has-cake = true", kindPlain},
		{"", kindPlain},
	}
	for _, tt := range tests {
		got := classifyLine(tt.line)
		if got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestHistory_PushAndPrev(t *testing.T) {
	h := NewHistory(5)
	h.Push("fire froggy-quest pick-up-cake")
	h.Push("tick 3")
	h.Push("/vars froggy-quest")

	want := []string{"/vars froggy-quest", "tick 3", "fire froggy-quest pick-up-cake"}
	for _, w := range want {
		prev, ok := h.Prev()
		if !ok || prev != w {
			t.Errorf("expected %q, got %q (ok=%v)", w, prev, ok)
		}
	}

	// At oldest, stays there.
	prev, ok := h.Prev()
	if !ok || prev != "fire froggy-quest pick-up-cake" {
		t.Errorf("expected oldest entry at boundary, got %q (ok=%v)", prev, ok)
	}
}

func TestHistory_Next(t *testing.T) {
	h := NewHistory(5)
	h.Push("a")
	h.Push("b")

	h.Prev() // "b"
	h.Prev() // "a"

	next, ok := h.Next()
	if !ok || next != "b" {
		t.Errorf("expected 'b', got %q (ok=%v)", next, ok)
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false when past newest entry")
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	if _, ok := h.Prev(); ok {
		t.Error("expected false on empty history")
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false on empty history")
	}
	if _, ok := h.Last(); ok {
		t.Error("expected no last entry on empty history")
	}
}

func TestHistory_RingEviction(t *testing.T) {
	h := NewHistory(3)
	for _, cmd := range []string{"a", "b", "c", "d", "e"} {
		h.Push(cmd)
	}
	if h.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.Len())
	}
	var got []string
	for i := 0; i < 3; i++ {
		prev, _ := h.Prev()
		got = append(got, prev)
	}
	if strings.Join(got, ",") != "e,d,c" {
		t.Errorf("expected e,d,c, got %v", got)
	}
	if last, _ := h.Last(); last != "e" {
		t.Errorf("Last = %q, want e", last)
	}
}

func TestHistory_NoDuplicates(t *testing.T) {
	h := NewHistory(5)
	h.Push("tick")
	h.Push("tick")
	h.Push("tick")
	if h.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", h.Len())
	}
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("a")
	h.Push("b")

	h.Prev() // "b"
	h.Prev() // "a"
	h.ResetCursor()

	prev, ok := h.Prev()
	if !ok || prev != "b" {
		t.Errorf("expected 'b' after reset, got %q", prev)
	}
}

// testDefs returns a small quest set for TUI testing.
func testDefs() []types.QuestDef {
	return []types.QuestDef{{
		Name:      "froggy-quest",
		Variables: []types.Variable{{Name: "has-cake", Value: types.BoolValue(false)}},
		Triggers: []types.TriggerDef{
			{
				Name: "pick-up-cake",
				Conditions: []types.Condition{
					{Kind: types.ConditionVariableEquals, Quest: "froggy-quest", Variable: "has-cake", Expected: types.BoolValue(false)},
				},
				Actions: []types.Action{
					{Kind: types.ActionSetVariable, Quest: "froggy-quest", Variable: "has-cake", Value: types.BoolValue(true)},
					{Kind: types.ActionShowMessage, Text: "Got cake!"},
				},
			},
			{
				Name: "peek",
				Conditions: []types.Condition{
					{Kind: types.ConditionVariableEquals, Quest: "froggy-quest", Variable: "missing", Expected: types.BoolValue(true)},
				},
			},
		},
	}}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	m := New(bus.New(nil), engine.Options{}, 30)
	if err := m.Registry().Load(testDefs()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func frame(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(frameMsg(time.Now()))
	return next.(Model), cmd
}

func submit(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.handleEnter()
	return next.(Model), cmd
}

func TestFrameLoop_RevealsMessage(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "fire froggy-quest pick-up-cake")

	m, cmd := frame(t, m)
	if m.box != "G" {
		t.Errorf("expected first character revealed, got %q", m.box)
	}
	if cmd == nil {
		t.Error("expected the next frame to be scheduled")
	}
	for i := 0; i < 20 && m.box != "Got cake!"; i++ {
		m, _ = frame(t, m)
	}
	if m.box != "Got cake!" {
		t.Errorf("expected full message, got %q", m.box)
	}
	if m.registry.Display().Active() {
		t.Error("expected display to go idle")
	}
	m, _ = frame(t, m)
	if m.box != "" {
		t.Errorf("expected message box to blank once idle, got %q", m.box)
	}
	if strings.Contains(m.renderMessageBox(), "Got cake!") {
		t.Error("expected rendered box to drop the finished message")
	}
	if !strings.Contains(m.renderStatusBar(), "Froggy Quest") {
		t.Errorf("expected last fired quest in status bar, got %q", m.renderStatusBar())
	}
}

func TestFrameLoop_SendDeliversNextFrame(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "send froggy-quest pick-up-cake")
	if m.bus.Pending() != 1 {
		t.Fatalf("expected 1 pending message, got %d", m.bus.Pending())
	}
	m, _ = frame(t, m)
	if m.bus.Pending() != 0 {
		t.Errorf("expected bus drained, got %d", m.bus.Pending())
	}
	if m.box != "G" {
		t.Errorf("expected reveal to start on the delivery frame, got %q", m.box)
	}
}

func TestFrameLoop_ContentErrorQuits(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "send froggy-quest peek")
	m, cmd := frame(t, m)
	if m.Err() == nil {
		t.Fatal("expected content error from the frame")
	}
	if !m.quitting {
		t.Error("expected model to quit")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
	if m.View() != "" {
		t.Error("expected empty view after quitting")
	}
}

func TestHandleEnter_ContentErrorQuits(t *testing.T) {
	m := newTestModel(t)
	m, cmd := submit(t, m, "fire froggy-quest peek")
	if m.Err() == nil {
		t.Fatal("expected content error")
	}
	if cmd == nil || !m.quitting {
		t.Error("expected quit after content error")
	}
}

func TestHandleEnter_TickAndAgain(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "fire froggy-quest pick-up-cake")
	m, _ = submit(t, m, "tick 2")
	if m.box != "Go" {
		t.Errorf("expected two characters after tick 2, got %q", m.box)
	}
	m, _ = submit(t, m, "again")
	if m.box != "Got " {
		t.Errorf("expected again to repeat tick 2, got %q", m.box)
	}
	if m.frames != 4 {
		t.Errorf("expected 4 frames, got %d", m.frames)
	}
}

func TestHandleEnter_TraceLines(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "/trace")
	m, _ = submit(t, m, "fire froggy-quest pick-up-cake")

	var found bool
	for _, rl := range m.rawLines {
		if strings.HasPrefix(rl.text, "[trace] froggy-quest/pick-up-cake") {
			found = true
		}
	}
	if !found {
		t.Error("expected trace output after firing")
	}
}

func TestHandleMeta_Quit(t *testing.T) {
	m := newTestModel(t)
	if _, quit := m.handleMeta("/quit"); !quit {
		t.Error("expected quit=true for /quit")
	}
	if _, quit := m.handleMeta("/exit"); !quit {
		t.Error("expected quit=true for /exit")
	}
}

func TestHandleMeta_Help(t *testing.T) {
	m := newTestModel(t)
	output, quit := m.handleMeta("/help")
	if quit {
		t.Error("expected quit=false for /help")
	}
	joined := strings.Join(output, "\n")
	for _, want := range []string{"/quests", "/check", "fire <quest> <trigger>", "PgUp/PgDn"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected help to mention %q", want)
		}
	}
}

func TestHandleMeta_Trace(t *testing.T) {
	m := newTestModel(t)
	output, _ := m.handleMeta("/trace")
	if !m.trace || !strings.Contains(output[0], "enabled") {
		t.Errorf("expected trace enabled, got %v", output)
	}
	output, _ = m.handleMeta("/trace")
	if m.trace || !strings.Contains(output[0], "disabled") {
		t.Errorf("expected trace disabled, got %v", output)
	}
}

func TestHandleMeta_QuestsAndVars(t *testing.T) {
	m := newTestModel(t)
	output, _ := m.handleMeta("/quests")
	if !strings.Contains(strings.Join(output, "\n"), "Froggy Quest (froggy-quest)") {
		t.Errorf("expected quest listing, got %v", output)
	}
	output, _ = m.handleMeta("/vars froggy-quest")
	if !strings.Contains(strings.Join(output, "\n"), "has-cake = false") {
		t.Errorf("expected variable listing, got %v", output)
	}
	output, _ = m.handleMeta("/vars nobody")
	if !strings.Contains(output[0], "No quest named") {
		t.Errorf("expected unknown quest notice, got %v", output)
	}
}

func TestHandleMeta_Check(t *testing.T) {
	m := newTestModel(t)
	output, _ := m.handleMeta("/check froggy-quest pick-up-cake")
	if !strings.Contains(strings.Join(output, "\n"), "guard_checked") {
		t.Errorf("expected guard preview, got %v", output)
	}
	output, _ = m.handleMeta("/check froggy-quest nope")
	if !strings.Contains(strings.Join(output, "\n"), "no trigger") {
		t.Errorf("expected missing trigger notice, got %v", output)
	}
}

func TestHandleEnter_CheckContentErrorQuits(t *testing.T) {
	m := newTestModel(t)
	m, cmd := submit(t, m, "/check froggy-quest peek")
	if !state.IsContentError(m.Err()) {
		t.Fatalf("expected content error, got %v", m.Err())
	}
	if cmd == nil || !m.quitting {
		t.Error("expected quit after content error")
	}
}

func TestWithTrace(t *testing.T) {
	m := newTestModel(t).WithTrace(true)
	if !strings.Contains(m.renderStatusBar(), "TRACE") {
		t.Errorf("expected trace in status bar, got %q", m.renderStatusBar())
	}
	m, _ = submit(t, m, "fire froggy-quest pick-up-cake")
	var found bool
	for _, rl := range m.rawLines {
		if strings.HasPrefix(rl.text, "[trace] froggy-quest/pick-up-cake") {
			found = true
		}
	}
	if !found {
		t.Error("expected trace output without toggling /trace")
	}
}

func TestHandleMeta_Unknown(t *testing.T) {
	m := newTestModel(t)
	output, quit := m.handleMeta("/dance")
	if quit {
		t.Error("expected quit=false for unknown command")
	}
	if !strings.Contains(output[0], "Unknown command") {
		t.Errorf("expected unknown command message, got %v", output)
	}
}

func TestRenderMessageBox_FixedHeight(t *testing.T) {
	m := newTestModel(t)
	m.box = strings.Repeat("ribbit ", 30) + "croak"
	box := m.renderMessageBox()
	if h := lipgloss.Height(box); h != boxHeight {
		t.Errorf("expected box height %d, got %d", boxHeight, h)
	}
	if w := lipgloss.Width(box); w > m.width {
		t.Errorf("box width %d exceeds terminal width %d", w, m.width)
	}
}
