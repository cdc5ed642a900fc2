// Package display implements the teletype-style message surface: one message
// at a time, revealed one character per frame.
//
// A Teletype is not safe for concurrent use; drive it from the frame loop.
package display

// Align is the horizontal alignment requested from the presenter.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

const (
	// DefaultMaxReveal caps how many characters of a message are revealed.
	DefaultMaxReveal = 120
	// DefaultWidth is the text box width passed to the presenter.
	DefaultWidth = 60
)

// Presenter draws a frame-scoped text box. It is called once per frame while
// a message is active.
type Presenter interface {
	TextBox(text string, width int, align Align)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(text string, width int, align Align)

func (f PresenterFunc) TextBox(text string, width int, align Align) { f(text, width, align) }

// Teletype holds the currently showing message and its reveal progress.
type Teletype struct {
	text      []rune
	active    bool
	progress  int
	maxReveal int
	width     int
	align     Align
	shown     int
}

// New creates an idle teletype. maxReveal <= 0 disables the cap; width <= 0
// uses DefaultWidth.
func New(maxReveal, width int) *Teletype {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Teletype{maxReveal: maxReveal, width: width, align: AlignCenter}
}

// Show replaces whatever is displaying and restarts the reveal.
func (t *Teletype) Show(text string) {
	t.text = []rune(text)
	t.progress = 0
	t.active = true
	t.shown++
}

// Update advances the reveal by one character and presents the revealed
// prefix. The message clears on the frame it becomes fully revealed (or hits
// the cap). Returns false when nothing was showing.
func (t *Teletype) Update(p Presenter) bool {
	if !t.active {
		return false
	}

	limit := len(t.text)
	if t.maxReveal > 0 && limit > t.maxReveal {
		limit = t.maxReveal
	}

	t.progress++
	if t.progress > limit {
		t.progress = limit
	}
	if p != nil {
		p.TextBox(string(t.text[:t.progress]), t.width, t.align)
	}

	if t.progress >= limit {
		t.active = false
	}
	return true
}

// Current returns the full text of the active message.
func (t *Teletype) Current() (string, bool) {
	if !t.active {
		return "", false
	}
	return string(t.text), true
}

// Revealed returns the portion of the active message revealed so far.
func (t *Teletype) Revealed() string {
	if !t.active {
		return ""
	}
	return string(t.text[:t.progress])
}

// Progress returns the number of revealed characters.
func (t *Teletype) Progress() int {
	return t.progress
}

// Active reports whether a message is showing.
func (t *Teletype) Active() bool {
	return t.active
}

// Shown counts Show calls. Hosts compare it across frames to tell when a
// message was replaced.
func (t *Teletype) Shown() int {
	return t.shown
}
