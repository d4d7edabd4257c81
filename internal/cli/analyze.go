package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dontsign/internal/model"
	"github.com/ppiankov/dontsign/internal/pipeline"
	"github.com/ppiankov/dontsign/internal/progress"
	"github.com/ppiankov/dontsign/internal/server"
	"github.com/ppiankov/dontsign/internal/telemetry"
)

var (
	outPath        string
	outFormat      string
	analyzeTimeout time.Duration
	serverURL      string
	noCache        bool
	quiet          bool
	llmProvider    string
	llmModel       string
	httpProxy      string
	httpsProxy     string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url|->",
	Short: "Analyze a contract and report risks, key clauses and recommendations",
	Long: `Analyze reads a document (.txt, .md, .html, an http(s) URL, or "-" for
stdin), splits it into sections and analyzes each one. Progress is written to
stderr; the merged result is written to stdout or --out.

Example:
  dontsign analyze lease.txt
  dontsign analyze https://example.com/terms --format md
  dontsign analyze nda.md --out nda.json --provider anthropic
  dontsign analyze nda.md --server http://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the result to a file instead of stdout")
	analyzeCmd.Flags().StringVar(&outFormat, "format", "", "output format: json or md (default from config)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 10*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	analyzeCmd.Flags().StringVar(&serverURL, "server", "", "analyze through a running dontsign API (e.g. http://localhost:8080)")
	addAnalysisFlags(analyzeCmd)
}

// addAnalysisFlags registers the flags shared by analyze and batch
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached results")
	cmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// applyFlags layers command flags over the loaded configuration. Switching
// provider drops credentials that belong to the configured one.
func applyFlags(cfg *model.Config) {
	if llmProvider != "" && !strings.EqualFold(cfg.LLM.Provider, llmProvider) {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.APIKey = ""
		cfg.LLM.BaseURL = ""
		providerCredentials(&cfg.LLM)
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
		cfg.LLM.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
		cfg.LLM.HTTPSProxy = httpsProxy
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg)

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

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	var sink progress.Sink = progress.Discard
	if !quiet {
		sink = newProgressPrinter(cmd.ErrOrStderr())
	}

	var result *model.AnalysisResult
	if serverURL != "" {
		result, err = analyzeRemote(ctx, server.NewClient(serverURL, nil), source, sink)
	} else {
		var rt *appRuntime
		rt, err = newRuntime(cfg, logger, runtimeOptions{noCache: noCache})
		if err != nil {
			return err
		}
		result, err = rt.analyzeSource(ctx, source, sink)
	}
	if err != nil {
		return fmt.Errorf("analysis failed [%s]: %w", model.KindOf(err), err)
	}

	format := outFormat
	if format == "" {
		format = cfg.Output.Format
	}
	return writeResult(cmd.OutOrStdout(), outPath, result, format)
}

// analyzeRemote sends source to a dontsign API. Local files are read here
// and sent as text; URLs are fetched by the server.
func analyzeRemote(ctx context.Context, client *server.Client, source string, sink progress.Sink) (*model.AnalysisResult, error) {
	req := server.AnalyzeRequest{URL: source}
	if !pipeline.IsURL(source) {
		doc, err := pipeline.LoadDocument(ctx, source, nil)
		if err != nil {
			return nil, err
		}
		req = server.AnalyzeRequest{Name: doc.Name, Text: doc.Text}
	}
	return client.Analyze(ctx, req, sink)
}

func writeResult(stdout io.Writer, path string, result *model.AnalysisResult, format string) (err error) {
	if path == "" {
		return pipeline.Render(stdout, result, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return pipeline.Render(f, result, format)
}

// newProgressPrinter renders progress events as one line each
func newProgressPrinter(w io.Writer) progress.Sink {
	return progress.SinkFunc(func(ctx context.Context, ev model.ProgressEvent) error {
		switch ev.Type {
		case model.EventProgress:
			_, err := fmt.Fprintf(w, "[%3d%%] %s\n", ev.Progress, ev.Description)
			return err
		case model.EventError:
			_, err := fmt.Fprintf(w, "✗ %s (%s)\n", ev.Error, ev.Kind)
			return err
		case model.EventComplete:
			_, err := fmt.Fprintf(w, "✓ Found %d potential risks in %d section(s)\n",
				len(ev.Result.PotentialRisks), ev.Result.Metadata.TotalChunks)
			return err
		}
		return nil
	})
}
