// Package chunker splits document text into overlapping windows sized in
// characters (runes), preferring to cut at natural boundaries: paragraph
// break first, then sentence-ending punctuation, then whitespace, then a
// hard cut. Output is deterministic for a given input and configuration.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
)

type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// Validate rejects configurations that would loop forever or make no
// progress. It must be called before any text is processed.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be greater than 0, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap must be non-negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be less than chunk size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Piece is one chunk candidate. Start and End are rune offsets of the span
// within the original text; Text is that span with surrounding whitespace
// trimmed. Consecutive pieces overlap by at most ChunkOverlap runes and the
// union of all spans covers the input with no gaps.
type Piece struct {
	Index int
	Text  string
	Start int
	End   int
}

type Splitter struct {
	cfg Config
}

// New returns a Splitter for an already validated Config. Callers validate
// first so a bad configuration fails before any file is opened.
func New(cfg Config) (*Splitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{cfg: cfg}, nil
}

// Split chunks text into pieces. Empty or whitespace-only input yields no
// pieces. Input shorter than ChunkSize yields exactly one piece.
func (s *Splitter) Split(text string) []Piece {
	runes := []rune(text)
	n := len(runes)
	out := make([]Piece, 0, n/s.cfg.ChunkSize+1)

	start := 0
	for start < n {
		end := start + s.cfg.ChunkSize
		if end >= n {
			end = n
		} else {
			end = cutPoint(runes, start, end)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			out = append(out, Piece{Index: len(out), Text: piece, Start: start, End: end})
		}
		if end >= n {
			break
		}

		next := end - s.cfg.ChunkOverlap
		if next <= start {
			// Overlap would revisit the same window; step past it instead.
			next = end
		}
		start = next
	}
	return out
}

// cutPoint picks where to end the window [start, limit). It searches
// backwards for, in priority order: a paragraph break, a sentence end, any
// whitespace. Without a usable boundary the window is cut hard at limit.
func cutPoint(runes []rune, start, limit int) int {
	if p := lastParagraphBreak(runes, start, limit); p > start {
		return p
	}
	if p := lastSentenceEnd(runes, start, limit); p > start {
		return p
	}
	if p := lastWhitespace(runes, start, limit); p > start {
		return p
	}
	return limit
}

// lastParagraphBreak returns the offset just past the last blank line within
// (start, limit], or start if there is none.
func lastParagraphBreak(runes []rune, start, limit int) int {
	for i := limit - 1; i > start; i-- {
		if runes[i] != '\n' {
			continue
		}
		j := i - 1
		for j > start && (runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\r') {
			j--
		}
		if j > start && runes[j] == '\n' {
			return i + 1
		}
	}
	return start
}

// lastSentenceEnd returns the offset just past the last '.', '!' or '?' that
// is followed by whitespace or the window edge, or start if there is none.
func lastSentenceEnd(runes []rune, start, limit int) int {
	for i := limit - 1; i > start; i-- {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	return start
}

func lastWhitespace(runes []rune, start, limit int) int {
	for i := limit - 1; i > start; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return start
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
