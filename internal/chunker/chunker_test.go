package chunker

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dontsign/internal/model"
)

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// isSubsequence reports whether every rune of needle appears in haystack in order
func isSubsequence(needle, haystack string) bool {
	h := []rune(haystack)
	j := 0
	for _, r := range needle {
		for j < len(h) && h[j] != r {
			j++
		}
		if j == len(h) {
			return false
		}
		j++
	}
	return true
}

func assertCoverage(t *testing.T, text string, chunks []model.Chunk) {
	t.Helper()
	var joined strings.Builder
	for _, c := range chunks {
		joined.WriteString(c.Text)
	}
	assert.True(t, isSubsequence(stripSpace(text), stripSpace(joined.String())),
		"chunks do not cover the input text")
}

func assertBounds(t *testing.T, chunks []model.Chunk, opts Options) {
	t.Helper()
	for i, c := range chunks {
		assert.Equal(t, i+1, c.Index)
		assert.NotEmpty(t, c.Text)
		assert.Equal(t, strings.TrimSpace(c.Text), c.Text)
		assert.Equal(t, model.EstimateTokens(c.Text), c.EstimatedTokens)
		assert.LessOrEqual(t, c.EstimatedTokens, opts.MaxChunkSize, "chunk %d exceeds bound", c.Index)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t\n"} {
		_, err := Split(text, DefaultOptions())
		require.Error(t, err)
		assert.Equal(t, model.KindTextProcessing, model.KindOf(err))
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	text := strings.Repeat("The tenant shall pay rent monthly. ", 15)[:500]

	chunks, err := Split(text, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, strings.TrimSpace(text), chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Index)
}

func TestSplit_SectionMarkers(t *testing.T) {
	text := `ARTICLE I
Definitions apply throughout.

ARTICLE II
The term is twelve months.

1.1 Payment is due on the first day.
(a) Late fees accrue daily.
A. Notices must be written.`

	// Bound small enough that every section becomes its own chunk
	opts := Options{MaxChunkSize: 10, Overlap: 0}
	chunks, err := Split(text, opts)
	require.NoError(t, err)

	assertBounds(t, chunks, opts)
	assertCoverage(t, text, chunks)
	require.GreaterOrEqual(t, len(chunks), 5)
	assert.True(t, strings.HasPrefix(chunks[0].Text, "ARTICLE I"))
	assert.True(t, strings.HasPrefix(chunks[1].Text, "ARTICLE II"))
}

func TestSplit_SectionsAccumulateWithinBound(t *testing.T) {
	text := "Section 1 Parties.\nSection 2 Term.\nSection 3 Rent."

	chunks, err := Split(text, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Section 1 Parties.\n\nSection 2 Term.\n\nSection 3 Rent.", chunks[0].Text)
}

func TestSplit_LongSectionUsesSentencesAndOverlap(t *testing.T) {
	var b strings.Builder
	b.WriteString("SECTION 1\n")
	for i := 0; i < 60; i++ {
		b.WriteString("The supplier will indemnify the customer against third party claims. ")
	}
	text := b.String()

	opts := Options{MaxChunkSize: 100, Overlap: 40}
	chunks, err := Split(text, opts)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	assertBounds(t, chunks, opts)
	assertCoverage(t, text, chunks)

	// Second chunk starts with the tail of the first
	tail := strings.TrimSpace(lastRunes(chunks[0].Text, opts.Overlap))
	assert.True(t, strings.HasPrefix(chunks[1].Text, tail), "expected overlap prefix %q", tail)
}

func TestSplit_OversizedSentenceEmittedVerbatim(t *testing.T) {
	long := strings.Repeat("x", 200) + "."
	text := "Short intro. " + long + " Closing line."

	opts := Options{MaxChunkSize: 20, Overlap: 10}
	chunks, err := Split(text, opts)
	require.NoError(t, err)
	assertCoverage(t, text, chunks)

	var found bool
	for _, c := range chunks {
		if c.Text == long {
			found = true
		} else {
			assert.LessOrEqual(t, c.EstimatedTokens, opts.MaxChunkSize)
		}
	}
	assert.True(t, found, "oversized sentence should be its own chunk")
}

func TestSplit_UnterminatedTail(t *testing.T) {
	text := strings.Repeat("Clause text continues here. ", 10) + "no terminal punctuation"

	opts := Options{MaxChunkSize: 20, Overlap: 0}
	chunks, err := Split(text, opts)
	require.NoError(t, err)
	assertBounds(t, chunks, opts)
	assertCoverage(t, text, chunks)
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1].Text, "no terminal punctuation"))
}

func TestSplit_DefaultsApplied(t *testing.T) {
	chunks, err := Split("Just one line.", Options{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two?! Three")
	assert.Equal(t, []string{"One.", "Two?!", "Three"}, got)

	got = splitSentences("?? Party A pays. ...")
	assert.Equal(t, []string{"?? Party A pays.", "..."}, got)
}

func TestSplit_LeadingPunctuationKept(t *testing.T) {
	text := "?? " + strings.Repeat("The party shall pay. ", 20)

	opts := Options{MaxChunkSize: 20, Overlap: 0}
	chunks, err := Split(text, opts)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	assertBounds(t, chunks, opts)
	assertCoverage(t, text, chunks)
	assert.True(t, strings.HasPrefix(chunks[0].Text, "?? The party shall pay."))
}
