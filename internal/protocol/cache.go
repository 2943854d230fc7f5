package protocol

import (
	"crypto/sha256"
	"regexp"
	"strings"

	"github.com/timvw/kitty-mux/internal/ansi"
)

// promptBoundary matches kitty's SGR reset together with any preceding line
// breaks. get-text emits the reset where a line ends, so it is used as the
// line separator.
var promptBoundary = regexp.MustCompile(`[\r\n]*\x1b\[m`)

// PreviewCache holds the parsed screen text of each window, keyed by window
// id. Entries are overwritten by newer captures and never evicted.
//
// The cache is owned by the engine and touched only from the event loop, so
// it carries no lock.
type PreviewCache struct {
	entries map[int64]*previewEntry
}

type previewEntry struct {
	contentHash [sha256.Size]byte
	lines       []ansi.Text
	hitCount    int
}

// NewPreviewCache creates an empty cache.
func NewPreviewCache() *PreviewCache {
	return &PreviewCache{entries: make(map[int64]*previewEntry)}
}

// Store parses raw and stores it for windowID. It reports whether raw was
// identical to the stored capture, in which case parsing is skipped.
func (c *PreviewCache) Store(windowID int64, raw string) (deduped bool) {
	hash := sha256.Sum256([]byte(raw))
	if e, ok := c.entries[windowID]; ok && e.contentHash == hash {
		e.hitCount++
		return true
	}
	c.entries[windowID] = &previewEntry{
		contentHash: hash,
		lines:       NormalizePreview(raw),
	}
	return false
}

// Lookup returns the lines for windowID.
func (c *PreviewCache) Lookup(windowID int64) ([]ansi.Text, bool) {
	e, ok := c.entries[windowID]
	if !ok {
		return nil, false
	}
	return e.lines, true
}

// Hits returns how many captures of windowID were identical to the stored one.
func (c *PreviewCache) Hits(windowID int64) int {
	if e, ok := c.entries[windowID]; ok {
		return e.hitCount
	}
	return 0
}

// Len returns the number of cached windows.
func (c *PreviewCache) Len() int {
	return len(c.entries)
}

// All returns the cached lines of every window. The map is a fresh copy; the
// line slices are shared and must not be modified.
func (c *PreviewCache) All() map[int64][]ansi.Text {
	out := make(map[int64][]ansi.Text, len(c.entries))
	for id, e := range c.entries {
		out[id] = e.lines
	}
	return out
}

// NormalizePreview splits a get-text capture into display lines. Reset
// sequences become line breaks and tabs become two spaces so every cell has
// a known width.
func NormalizePreview(raw string) []ansi.Text {
	s := promptBoundary.ReplaceAllString(raw, "\n")
	s = strings.ReplaceAll(s, "\t", "  ")
	parts := strings.Split(s, "\n")
	lines := make([]ansi.Text, len(parts))
	for i, p := range parts {
		lines[i] = ansi.Parse(p)
	}
	return lines
}
