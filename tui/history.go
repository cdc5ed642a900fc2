package tui

// History is a fixed-size ring of submitted commands with cursor-based
// navigation for the Up/Down keys.
type History struct {
	ring   []string
	start  int // index of the oldest entry
	size   int
	cursor int // -1 = not navigating, otherwise 0 (oldest)..size-1
}

// NewHistory creates a history holding at most max commands.
func NewHistory(max int) *History {
	if max < 1 {
		max = 1
	}
	return &History{ring: make([]string, max), cursor: -1}
}

func (h *History) at(i int) string {
	return h.ring[(h.start+i)%len(h.ring)]
}

// Push records a command, evicting the oldest when full. Consecutive
// duplicates are skipped.
func (h *History) Push(cmd string) {
	if last, ok := h.Last(); ok && last == cmd {
		return
	}
	if h.size < len(h.ring) {
		h.ring[(h.start+h.size)%len(h.ring)] = cmd
		h.size++
		return
	}
	h.ring[h.start] = cmd
	h.start = (h.start + 1) % len(h.ring)
}

// Last returns the most recent command, used by "again".
func (h *History) Last() (string, bool) {
	if h.size == 0 {
		return "", false
	}
	return h.at(h.size - 1), true
}

// Len returns the number of stored commands.
func (h *History) Len() int {
	return h.size
}

// Prev steps toward older entries, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	if h.size == 0 {
		return "", false
	}
	switch {
	case h.cursor == -1:
		h.cursor = h.size - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.at(h.cursor), true
}

// Next steps toward newer entries. Stepping past the newest returns
// ("", false) and ends navigation.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= h.size {
		h.cursor = -1
		return "", false
	}
	return h.at(h.cursor), true
}

// ResetCursor ends navigation.
func (h *History) ResetCursor() {
	h.cursor = -1
}
