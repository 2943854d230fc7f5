// Package ansi models captured terminal output as a sequence of printable
// text runs and opaque escape sequences.
//
// Layout code needs to cut previews to an exact column count. Cutting the raw
// string would split escape sequences in half or misalign borders when wide
// characters are present, so every width computation here skips escape
// tokens and measures code points with go-runewidth.
package ansi

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const esc = '\x1b'

// Token is either a run of printable text or a single escape sequence.
type Token struct {
	// Value is the raw bytes of the token.
	Value string
	// Escape is true when Value is a CSI or OSC sequence.
	Escape bool
}

// Text is an immutable, parsed line of terminal output.
type Text struct {
	tokens []Token
}

// Parse splits raw into text runs and escape tokens.
//
// Recognized escapes are CSI sequences (ESC [ params letter, where params are
// digits, ';', '|' or ':') and OSC sequences (ESC ] ... ESC \). Anything else
// starting with ESC, including unterminated sequences, is kept as literal text.
func Parse(raw string) Text {
	var tokens []Token
	var run strings.Builder

	flush := func() {
		if run.Len() > 0 {
			tokens = append(tokens, Token{Value: run.String()})
			run.Reset()
		}
	}

	for i := 0; i < len(raw); {
		if raw[i] == esc {
			if n := escapeLen(raw[i:]); n > 0 {
				flush()
				tokens = append(tokens, Token{Value: raw[i : i+n], Escape: true})
				i += n
				continue
			}
		}
		run.WriteByte(raw[i])
		i++
	}
	flush()
	return newText(tokens)
}

// escapeLen returns the byte length of the escape sequence at the start of s,
// or 0 when s does not start with a complete recognized sequence.
func escapeLen(s string) int {
	if len(s) < 2 || s[0] != esc {
		return 0
	}
	switch s[1] {
	case '[':
		for j := 2; j < len(s); j++ {
			c := s[j]
			switch {
			case c >= '0' && c <= '9', c == ';', c == '|', c == ':':
				continue
			case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
				return j + 1
			default:
				return 0
			}
		}
		return 0
	case ']':
		if end := strings.Index(s[2:], "\x1b\\"); end >= 0 {
			return 2 + end + 2
		}
		return 0
	}
	return 0
}

// newText guarantees a Text always holds at least one token.
func newText(tokens []Token) Text {
	if len(tokens) == 0 {
		tokens = []Token{{Value: ""}}
	}
	return Text{tokens: tokens}
}

// Tokens returns a copy of the token sequence.
func (t Text) Tokens() []Token {
	out := make([]Token, len(t.tokens))
	copy(out, t.tokens)
	return out
}

// Escapes returns the escape tokens in order.
func (t Text) Escapes() []string {
	var out []string
	for _, tok := range t.tokens {
		if tok.Escape {
			out = append(out, tok.Value)
		}
	}
	return out
}

// String re-encodes the text, escapes included.
func (t Text) String() string {
	var b strings.Builder
	for _, tok := range t.tokens {
		b.WriteString(tok.Value)
	}
	return b.String()
}

// Width returns the printable column width, ignoring escape tokens.
func (t Text) Width() int {
	w := 0
	for _, tok := range t.tokens {
		if !tok.Escape {
			w += RunWidth(tok.Value)
		}
	}
	return w
}

// RunWidth returns the column width of a plain text run. Wide code points
// count two columns, combining and zero-width code points count zero.
func RunWidth(s string) int {
	w := 0
	for _, r := range s {
		w += runewidth.RuneWidth(r)
	}
	return w
}

// Slice returns a copy truncated to at most n columns. Every escape token is
// kept in its original position; text runs are cut on code point boundaries.
// A wide code point that would straddle the limit is dropped.
func (t Text) Slice(n int) Text {
	if n < 0 {
		n = 0
	}
	var tokens []Token
	used := 0
	full := false
	for _, tok := range t.tokens {
		if tok.Escape {
			tokens = append(tokens, tok)
			continue
		}
		if full {
			continue
		}
		end := len(tok.Value)
		for i, r := range tok.Value {
			w := runewidth.RuneWidth(r)
			if used+w > n {
				end = i
				full = true
				break
			}
			used += w
		}
		if end > 0 {
			tokens = append(tokens, Token{Value: tok.Value[:end]})
		}
	}
	return newText(tokens)
}

// Pad appends spaces until the width is n. It never truncates.
func (t Text) Pad(n int) Text {
	missing := n - t.Width()
	if missing <= 0 {
		return t
	}
	tokens := t.Tokens()
	last := len(tokens) - 1
	if !tokens[last].Escape {
		tokens[last].Value += strings.Repeat(" ", missing)
	} else {
		tokens = append(tokens, Token{Value: strings.Repeat(" ", missing)})
	}
	return newText(tokens)
}

// Fit slices then pads so the result is exactly n columns wide.
func (t Text) Fit(n int) Text {
	return t.Slice(n).Pad(n)
}
