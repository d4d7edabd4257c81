package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/dontsign/internal/model"
)

// SourceAnalyzer analyzes one document source (path or URL)
type SourceAnalyzer interface {
	AnalyzeSource(ctx context.Context, source string) (*model.AnalysisResult, error)
}

// SourceAnalyzerFunc adapts a function to SourceAnalyzer
type SourceAnalyzerFunc func(ctx context.Context, source string) (*model.AnalysisResult, error)

// AnalyzeSource calls f
func (f SourceAnalyzerFunc) AnalyzeSource(ctx context.Context, source string) (*model.AnalysisResult, error) {
	return f(ctx, source)
}

type analyzeJob struct {
	source   string
	analyzer SourceAnalyzer
}

func (j *analyzeJob) Execute(ctx context.Context) Result {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return &SourceResult{Source: j.source, Error: err}
	}
	result, err := j.analyzer.AnalyzeSource(ctx, j.source)
	return &SourceResult{
		Source:   j.source,
		Result:   result,
		Error:    err,
		Duration: time.Since(start),
	}
}

// SourceResult is the outcome of analyzing one source in a batch
type SourceResult struct {
	Source   string
	Result   *model.AnalysisResult
	Error    error
	Duration time.Duration
}

// GetError returns the analysis error
func (r *SourceResult) GetError() error {
	return r.Error
}

// BatchAnalyzer analyzes many sources concurrently
type BatchAnalyzer struct {
	analyzer    SourceAnalyzer
	concurrency int
}

// NewBatchAnalyzer creates a BatchAnalyzer running at most concurrency analyses at once
func NewBatchAnalyzer(analyzer SourceAnalyzer, concurrency int) *BatchAnalyzer {
	return &BatchAnalyzer{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// AnalyzeAll returns one result per source, in input order
func (b *BatchAnalyzer) AnalyzeAll(ctx context.Context, sources []string) []*SourceResult {
	if len(sources) == 0 {
		return []*SourceResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	out := make([]*SourceResult, 0, len(sources))
	var rejected []*SourceResult
	var submitErr error
	for _, source := range sources {
		if submitErr == nil {
			submitErr = pool.Submit(&analyzeJob{source: source, analyzer: b.analyzer})
			if submitErr == nil {
				continue
			}
		}
		rejected = append(rejected, &SourceResult{Source: source, Error: submitErr})
	}

	for _, r := range pool.Wait() {
		out = append(out, r.(*SourceResult))
	}
	return append(out, rejected...)
}

// AnalyzeFile reads sources from a file and analyzes them
func (b *BatchAnalyzer) AnalyzeFile(ctx context.Context, filePath string) ([]*SourceResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	return b.AnalyzeAll(ctx, sources), nil
}

// ReadSourcesFromFile reads one path or URL per line, skipping blanks,
// comments and duplicates
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return sources, nil
}
