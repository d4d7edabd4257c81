package cache

import (
	"encoding/json"
	"time"

	"github.com/ppiankov/dontsign/internal/model"
)

// ResultCache stores JSON-encoded analysis results in a byte Cache, keyed by
// document content and the variant it was analyzed under
type ResultCache struct {
	backend Cache
	ttl     time.Duration
}

// NewResultCache wraps a byte cache
func NewResultCache(backend Cache, ttl time.Duration) *ResultCache {
	return &ResultCache{backend: backend, ttl: ttl}
}

// Get returns a cached result for the document text, if any
func (c *ResultCache) Get(text, variant string) (*model.AnalysisResult, bool) {
	data, ok := c.backend.Get(DocumentKey(text, variant))
	if !ok {
		return nil, false
	}
	var result model.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// Put stores result for the document text
func (c *ResultCache) Put(text, variant string, result *model.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.backend.Set(DocumentKey(text, variant), data, c.ttl)
}
