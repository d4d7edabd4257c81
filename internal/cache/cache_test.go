package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dontsign/internal/model"
)

func TestDocumentKey(t *testing.T) {
	a := DocumentKey("contract text", "gpt-4o-mini")
	assert.Equal(t, a, DocumentKey("contract text", "gpt-4o-mini"))
	assert.NotEqual(t, a, DocumentKey("contract text", "gpt-4o"))
	assert.NotEqual(t, a, DocumentKey("other text", "gpt-4o-mini"))
	assert.Contains(t, a, "dontsign:v2:")
}

func TestTemplateKey_OrderIndependent(t *testing.T) {
	a := TemplateKey("section_user", map[string]string{"text": "x", "chunkIndex": "1"})
	b := TemplateKey("section_user", map[string]string{"chunkIndex": "1", "text": "x"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, TemplateKey("summary", map[string]string{"chunkIndex": "1", "text": "x"}))
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := DocumentKey("text", "m")
	require.NoError(t, c.Set(key, []byte("value"), 0))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	// No temp files left behind
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	now = now.Add(2 * time.Hour)
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	require.NoError(t, os.WriteFile(c.path("bad"), []byte("{not json"), 0o644))

	_, ok := c.Get("bad")
	assert.False(t, ok)
	assert.NoError(t, c.Delete("bad"))
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	// Write directly to disk, bypassing memory
	require.NoError(t, c.disk.Set("k", []byte("v"), 0))
	_, inMemory := c.memory.Get("k")
	require.False(t, inMemory)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, inMemory = c.memory.Get("k")
	assert.True(t, inMemory)

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestLayeredCache_MemoryTTLCapped(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), 24*time.Hour)

	assert.Equal(t, time.Minute, c.memoryTTLFor(24*time.Hour))
	assert.Equal(t, 30*time.Second, c.memoryTTLFor(30*time.Second))
	assert.Equal(t, time.Duration(0), c.memoryTTLFor(0))

	require.NoError(t, c.Set("k", []byte("v"), 24*time.Hour))
	_, onDisk := c.disk.Get("k")
	assert.True(t, onDisk)
}

func TestResultCache(t *testing.T) {
	rc := NewResultCache(NewMemoryCache(time.Minute, time.Minute), 0)

	_, ok := rc.Get("text", "gpt-4o-mini")
	assert.False(t, ok)

	result := &model.AnalysisResult{
		Summary:          "A lease.",
		PotentialRisks:   []string{"Missing termination clause"},
		ImportantClauses: []string{},
		Recommendations:  []string{},
		Metadata:         model.AnalysisMetadata{DocumentName: "lease.txt", TotalChunks: 1, ModelVersion: "gpt-4o-mini"},
	}
	require.NoError(t, rc.Put("text", "gpt-4o-mini", result))

	got, ok := rc.Get("text", "gpt-4o-mini")
	require.True(t, ok)
	assert.Equal(t, result.Summary, got.Summary)
	assert.Equal(t, result.PotentialRisks, got.PotentialRisks)
	assert.Equal(t, result.Metadata.DocumentName, got.Metadata.DocumentName)
}
