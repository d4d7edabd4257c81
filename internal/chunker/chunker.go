// Package chunker splits contract text into bounded sections suitable for
// per-section analysis.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/dontsign/internal/model"
)

// Options controls chunk sizing
type Options struct {
	MaxChunkSize int // Upper bound per chunk, in estimated tokens (chars / 4)
	Overlap      int // Characters carried into the next chunk when a section is split mid-way
}

// DefaultOptions returns the standard chunking configuration
func DefaultOptions() Options {
	return Options{
		MaxChunkSize: 4000,
		Overlap:      200,
	}
}

// OptionsFromConfig builds chunking options from analysis settings
func OptionsFromConfig(cfg model.AnalysisConfig) Options {
	return Options{
		MaxChunkSize: cfg.MaxChunkSize,
		Overlap:      cfg.Overlap,
	}
}

var (
	// Legal section markers at line start: ARTICLE IV, Section 3, 1., 1.1 Title, (a), A.
	sectionPattern = regexp.MustCompile(`(?m)^[ \t]*(?:(?i:article|section|clause|schedule|exhibit|appendix)[ \t]+[0-9IVXLCivxlc]+|\d{1,3}(?:\.\d{1,3})*\.?[ \t]+[A-Z]|\((?:[a-z]{1,4}|\d{1,3})\)[ \t]+\S|[A-Z]\.[ \t]+[A-Z])`)

	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

// Split divides text into ordered, trimmed, non-empty chunks whose token
// estimate stays within opts.MaxChunkSize. A single sentence larger than the
// bound is emitted unchanged as its own chunk.
func Split(text string, opts Options) ([]model.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.NewError(model.KindTextProcessing, "text is empty")
	}

	defaults := DefaultOptions()
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = defaults.MaxChunkSize
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}

	s := &splitter{opts: opts}
	for _, piece := range splitSections(text) {
		s.addSection(piece)
	}
	s.flush()

	if len(s.chunks) == 0 {
		return nil, model.NewError(model.KindTextProcessing, "text produced no chunks")
	}

	chunks := make([]model.Chunk, 0, len(s.chunks))
	for i, c := range s.chunks {
		chunks = append(chunks, model.Chunk{
			Index:           i + 1,
			Text:            c,
			EstimatedTokens: model.EstimateTokens(c),
		})
	}
	return chunks, nil
}

type splitter struct {
	opts    Options
	current string
	chunks  []string
}

func (s *splitter) fits(text string) bool {
	return model.EstimateTokens(text) <= s.opts.MaxChunkSize
}

func (s *splitter) addSection(piece string) {
	piece = strings.TrimSpace(piece)
	if piece == "" {
		return
	}

	if !s.fits(piece) {
		s.flush()
		s.addSentences(piece)
		return
	}

	if s.current == "" {
		s.current = piece
		return
	}
	if candidate := s.current + "\n\n" + piece; s.fits(candidate) {
		s.current = candidate
		return
	}
	s.flush()
	s.current = piece
}

// addSentences handles a section too large for one chunk
func (s *splitter) addSentences(piece string) {
	for _, sentence := range splitSentences(piece) {
		if !s.fits(sentence) {
			s.flush()
			s.emit(sentence)
			continue
		}
		if s.current == "" {
			s.current = sentence
			continue
		}
		if candidate := s.current + " " + sentence; s.fits(candidate) {
			s.current = candidate
			continue
		}
		previous := s.current
		s.flush()
		s.current = s.withOverlap(previous, sentence)
	}
	s.flush()
}

// withOverlap prefixes next with the tail of previous, shrinking the tail so
// the result stays within the bound.
func (s *splitter) withOverlap(previous, next string) string {
	if s.opts.Overlap == 0 {
		return next
	}
	room := s.opts.MaxChunkSize*4 - utf8.RuneCountInString(next) - 1
	size := min(s.opts.Overlap, room)
	if size <= 0 {
		return next
	}
	tail := strings.TrimSpace(lastRunes(previous, size))
	if tail == "" {
		return next
	}
	return tail + " " + next
}

func (s *splitter) flush() {
	if s.current != "" {
		s.emit(s.current)
	}
	s.current = ""
}

func (s *splitter) emit(text string) {
	if text = strings.TrimSpace(text); text != "" {
		s.chunks = append(s.chunks, text)
	}
}

// splitSections cuts text at every line that starts with a section marker
func splitSections(text string) []string {
	matches := sectionPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	pieces := make([]string, 0, len(matches)+1)
	start := 0
	for _, m := range matches {
		if m[0] > start {
			pieces = append(pieces, text[start:m[0]])
		}
		start = m[0]
	}
	return append(pieces, text[start:])
}

// splitSentences returns trimmed sentences plus any unterminated tail.
// Text between matches, such as leading punctuation, is kept with the
// sentence that follows it.
func splitSentences(text string) []string {
	var sentences []string
	end := 0
	for _, m := range sentencePattern.FindAllStringIndex(text, -1) {
		sentence := strings.TrimSpace(text[m[0]:m[1]])
		if gap := strings.TrimSpace(text[end:m[0]]); gap != "" {
			sentence = strings.TrimSpace(gap + " " + sentence)
		}
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		end = m[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func lastRunes(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[len(runes)-n:])
}
