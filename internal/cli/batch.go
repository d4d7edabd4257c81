package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dontsign/internal/model"
	"github.com/ppiankov/dontsign/internal/pipeline"
	"github.com/ppiankov/dontsign/internal/progress"
	"github.com/ppiankov/dontsign/internal/telemetry"
	"github.com/ppiankov/dontsign/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	sourcesFile  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [source...]",
	Short: "Analyze several documents in parallel",
	Long: `Batch analyzes many documents concurrently and writes a JSON and a
Markdown report for each one into the output directory.

Sources are given as arguments, or one per line in --file (blank lines and
lines starting with # are skipped).

Example:
  dontsign batch lease.txt nda.md https://example.com/terms
  dontsign batch --file contracts.txt --concurrency 5 --output-dir ./reports`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&sourcesFile, "file", "f", "", "file listing one source per line")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent analyses (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for reports (default from config, then ./dontsign-reports)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	addAnalysisFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	sources := append([]string(nil), args...)
	if sourcesFile != "" {
		fromFile, err := worker.ReadSourcesFromFile(sourcesFile)
		if err != nil {
			return err
		}
		sources = append(sources, fromFile...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources: pass paths or URLs as arguments, or use --file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg)

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Batch.Concurrency
	}
	dir := outputDir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	if dir == "" {
		dir = "./dontsign-reports"
	}
	dir = expandHome(dir)

	logger, err := newCLILogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	flush, _ := telemetry.Init(telemetry.Config{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		TracesSampleRate: cfg.Sentry.SampleRate,
		Release:          "dontsign@" + Version,
	}, logger)
	defer flush()

	rt, err := newRuntime(cfg, logger, runtimeOptions{noCache: noCache})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Analyzing %d document(s) with %d workers into %s\n\n", len(sources), workers, dir)

	analyzer := worker.SourceAnalyzerFunc(func(ctx context.Context, source string) (*model.AnalysisResult, error) {
		return rt.analyzeSource(ctx, source, progress.Discard)
	})
	results := worker.NewBatchAnalyzer(analyzer, workers).AnalyzeAll(ctx, sources)

	failures := 0
	names := make(map[string]int)
	for _, r := range results {
		if r.Error != nil {
			failures++
			fmt.Fprintf(stderr, "✗ %s: [%s] %v\n", r.Source, model.KindOf(r.Error), r.Error)
			continue
		}

		base := uniqueName(names, reportName(r.Source))
		if err := writeReports(dir, base, r.Result); err != nil {
			failures++
			fmt.Fprintf(stderr, "✗ %s: %v\n", r.Source, err)
			continue
		}
		fmt.Fprintf(stderr, "✓ %s → %s (%d risks, %s)\n",
			r.Source, base, len(r.Result.PotentialRisks), r.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(stderr, "\nTotal: %d  Success: %d  Failures: %d\n", len(results), len(results)-failures, failures)
	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, len(results))
	}
	return nil
}

func writeReports(dir, base string, result *model.AnalysisResult) error {
	for _, format := range []string{pipeline.FormatJSON, pipeline.FormatMarkdown} {
		path := filepath.Join(dir, base+"."+format)
		if err := writeResult(nil, path, result, format); err != nil {
			return err
		}
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// reportName derives a file-safe base name from a path or URL
func reportName(source string) string {
	name := source
	if u, err := url.Parse(source); err == nil && u.Host != "" {
		name = u.Host + u.Path
	} else {
		name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}

	name = unsafeFilenameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		name = "document"
	}
	return name
}

// uniqueName suffixes repeated names with a counter
func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	if n := seen[name]; n > 1 {
		return fmt.Sprintf("%s-%d", name, n)
	}
	return name
}
