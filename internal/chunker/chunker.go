// Package chunker splits document text into bounded-size chunks for use
// as model context. The splitter prefers paragraph boundaries, falls back
// to sentence boundaries inside oversized paragraphs, and finally to
// single words, so a chunk edge lands on the most meaningful boundary
// available. Content is never dropped to satisfy the size limit.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize is used when a caller passes a non-positive limit.
const DefaultMaxChunkSize = 4000

var (
	paragraphSep = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd  = regexp.MustCompile(`[.?!]\s+`)
)

// Split breaks text into chunks of at most maxChunkSize runes each.
// Empty input yields no chunks; text already within the limit is
// returned as a single chunk, unchanged. A single word longer than the
// limit is emitted alone as an oversized chunk rather than truncated.
func Split(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxChunkSize {
		return []string{text}
	}

	buf := &buffer{max: maxChunkSize}
	for _, para := range paragraphSep.Split(text, -1) {
		if strings.TrimSpace(para) == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= maxChunkSize {
			buf.add(para, "\n\n")
			continue
		}
		splitParagraph(buf, para, maxChunkSize)
	}
	return buf.finish()
}

// splitParagraph feeds an oversized paragraph into buf one sentence at a
// time, dropping to word granularity for sentences that still exceed max.
func splitParagraph(buf *buffer, para string, max int) {
	for _, sentence := range splitSentences(para) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if utf8.RuneCountInString(sentence) <= max {
			buf.add(sentence, " ")
			continue
		}
		for _, word := range strings.Fields(sentence) {
			buf.add(word, " ")
		}
	}
}

// splitSentences cuts at sentence-ending punctuation followed by
// whitespace, keeping the punctuation with the preceding sentence. Text
// without such a boundary comes back whole.
func splitSentences(p string) []string {
	locs := sentenceEnd.FindAllStringIndex(p, -1)
	if len(locs) == 0 {
		return []string{p}
	}
	sentences := make([]string, 0, len(locs)+1)
	prev := 0
	for _, loc := range locs {
		sentences = append(sentences, p[prev:loc[0]+1])
		prev = loc[1]
	}
	if prev < len(p) {
		sentences = append(sentences, p[prev:])
	}
	return sentences
}

// buffer accumulates units (paragraphs, sentences, or words) into chunks.
// Separator runes count toward the limit so a flushed chunk never exceeds
// it; trimming happens at flush time only, preserving separators between
// units that share a chunk.
type buffer struct {
	max    int
	size   int // rune count of b
	b      strings.Builder
	chunks []string
}

func (buf *buffer) add(unit, sep string) {
	n := utf8.RuneCountInString(unit)
	if buf.size > 0 && buf.size+utf8.RuneCountInString(sep)+n > buf.max {
		buf.flush()
	}
	if buf.size > 0 {
		buf.b.WriteString(sep)
		buf.size += utf8.RuneCountInString(sep)
	}
	buf.b.WriteString(unit)
	buf.size += n
}

func (buf *buffer) flush() {
	chunk := strings.TrimSpace(buf.b.String())
	buf.b.Reset()
	buf.size = 0
	if chunk != "" {
		buf.chunks = append(buf.chunks, chunk)
	}
}

func (buf *buffer) finish() []string {
	buf.flush()
	return buf.chunks
}
