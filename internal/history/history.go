// Package history is a bounded undo/redo log of text snapshots.
package history

import "github.com/cespare/xxhash/v2"

// DefaultSize is the number of snapshots kept when no size is configured.
const DefaultSize = 50

type snapshot struct {
	text string
	// digest is compared before text so differing snapshots skip the string
	// comparison. Equality is always decided by text.
	digest uint64
}

// History is an ordered log of snapshots with a cursor. Pushing discards any
// snapshots after the cursor, and the oldest snapshot is dropped once the log
// is full. It is not safe for concurrent use.
type History struct {
	entries []snapshot
	cursor  int
	size    int
}

// New creates a History holding at most size snapshots. A size below one
// uses DefaultSize.
func New(size int) *History {
	if size < 1 {
		size = DefaultSize
	}
	return &History{cursor: -1, size: size}
}

// Push records text as the newest snapshot. It returns false when text equals
// the current snapshot and nothing was recorded.
func (h *History) Push(text string) bool {
	digest := xxhash.Sum64String(text)
	if cur, ok := h.current(); ok && cur.digest == digest && cur.text == text {
		return false
	}

	h.entries = append(h.entries[:h.cursor+1], snapshot{text: text, digest: digest})
	if len(h.entries) > h.size {
		h.entries = h.entries[len(h.entries)-h.size:]
	}
	h.cursor = len(h.entries) - 1
	return true
}

// Undo moves back one snapshot and returns it.
func (h *History) Undo() (string, bool) {
	if !h.CanUndo() {
		return "", false
	}
	h.cursor--
	return h.entries[h.cursor].text, true
}

// Redo moves forward one snapshot and returns it.
func (h *History) Redo() (string, bool) {
	if !h.CanRedo() {
		return "", false
	}
	h.cursor++
	return h.entries[h.cursor].text, true
}

// CanUndo reports whether an older snapshot exists.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether a newer snapshot exists.
func (h *History) CanRedo() bool { return h.cursor >= 0 && h.cursor < len(h.entries)-1 }

// Current returns the snapshot at the cursor.
func (h *History) Current() (string, bool) {
	s, ok := h.current()
	return s.text, ok
}

func (h *History) current() (snapshot, bool) {
	if h.cursor < 0 {
		return snapshot{}, false
	}
	return h.entries[h.cursor], true
}

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.entries) }
