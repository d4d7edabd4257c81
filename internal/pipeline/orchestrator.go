package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/dontsign/internal/chunker"
	"github.com/ppiankov/dontsign/internal/model"
	"github.com/ppiankov/dontsign/internal/progress"
	"github.com/ppiankov/dontsign/internal/telemetry"
)

// SectionAnalyzer analyzes one chunk of a document
type SectionAnalyzer interface {
	AnalyzeSection(ctx context.Context, chunk string, index, total int) (*model.SectionResult, error)
}

// Summarizer summarizes a whole document
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// TypeDetector labels a document; failures are not fatal to a run
type TypeDetector interface {
	DetectType(ctx context.Context, text string) (string, error)
}

// ChunkGate is consulted before each section is analyzed
type ChunkGate interface {
	Acquire(ctx context.Context, key string) error
}

// ResultStore caches finished analyses. variant identifies everything
// besides the text that shapes a result.
type ResultStore interface {
	Get(text, variant string) (*model.AnalysisResult, bool)
	Put(text, variant string, result *model.AnalysisResult) error
}

// Options configures an Orchestrator. Chunker, ModelVersion, Fingerprint and
// Detector shape results; the rest are optional.
type Options struct {
	Chunker      chunker.Options
	ModelVersion string
	Fingerprint  string // Prompt templates and model parameters in effect
	Gate         ChunkGate
	Detector     TypeDetector
	Cache        ResultStore
	Logger       *zap.Logger
	Now          func() time.Time
}

// Orchestrator drives analysis runs
type Orchestrator struct {
	summarizer Summarizer
	analyzer   SectionAnalyzer
	opts       Options
	logger     *zap.Logger
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(summarizer Summarizer, analyzer SectionAnalyzer, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Chunker.MaxChunkSize <= 0 {
		opts.Chunker = chunker.DefaultOptions()
	}
	return &Orchestrator{
		summarizer: summarizer,
		analyzer:   analyzer,
		opts:       opts,
		logger:     opts.Logger,
	}
}

// ProcessDocument runs a full analysis of doc, streaming progress to sink.
// On failure exactly one error event is emitted and the error is returned.
func (o *Orchestrator) ProcessDocument(ctx context.Context, doc model.Document, sink progress.Sink, opts ...RunOption) (*model.AnalysisResult, error) {
	return o.NewRun(doc, sink, opts...).Execute(ctx)
}

// Phase is the internal position of a Run
type Phase int

const (
	PhaseChunking Phase = iota
	PhaseSummarizing
	PhaseAnalyzing
	PhaseFinalizing
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseChunking:
		return "chunking"
	case PhaseSummarizing:
		return "summarizing"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunOption customizes a Run
type RunOption func(*Run)

// WithCallerKey sets the identity used by the chunk gate
func WithCallerKey(key string) RunOption {
	return func(r *Run) { r.callerKey = key }
}

// WithRunID overrides the generated run id
func WithRunID(id string) RunOption {
	return func(r *Run) { r.id = id }
}

// Run is the state of one analysis. Each Step performs exactly one
// transition; Execute steps until the run is done or failed.
type Run struct {
	o         *Orchestrator
	id        string
	callerKey string
	doc       model.Document
	sink      progress.Sink
	logger    *zap.Logger

	phase      Phase
	chunks     []model.Chunk
	cursor     int
	summary    string
	docType    string
	sections   []*model.SectionResult
	result     *model.AnalysisResult
	err        error
	sinkBroken bool
}

// NewRun prepares a run without starting it
func (o *Orchestrator) NewRun(doc model.Document, sink progress.Sink, opts ...RunOption) *Run {
	if sink == nil {
		sink = progress.Discard
	}
	r := &Run{
		o:         o,
		id:        uuid.NewString(),
		callerKey: "default",
		doc:       doc,
		sink:      sink,
		phase:     PhaseChunking,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = o.logger.With(zap.String("run_id", r.id), zap.String("document", doc.Name))
	return r
}

// ID returns the run id
func (r *Run) ID() string { return r.id }

// Phase returns the current phase
func (r *Run) Phase() Phase { return r.phase }

// Stage maps the phase to the stage reported to callers
func (r *Run) Stage() model.Stage {
	switch r.phase {
	case PhaseChunking:
		return model.StagePreprocessing
	case PhaseSummarizing, PhaseAnalyzing, PhaseFinalizing:
		return model.StageAnalyzing
	default:
		return model.StageComplete
	}
}

// Done reports whether the run reached a terminal phase
func (r *Run) Done() bool {
	return r.phase == PhaseDone || r.phase == PhaseFailed
}

// Result returns the final result, nil until the run is done
func (r *Run) Result() *model.AnalysisResult { return r.result }

// Err returns the error that failed the run
func (r *Run) Err() error { return r.err }

// Execute steps the run to completion. Cancellation of ctx is observed
// between steps; a step already in progress finishes first.
func (r *Run) Execute(ctx context.Context) (*model.AnalysisResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "analysis.run", "analyze "+r.doc.Name)
	span.SetTag("run_id", r.id)
	defer span.End()

	start := r.o.opts.Now()
	r.logger.Info("analysis started", zap.Int("chars", len(r.doc.Text)))

	for !r.Done() {
		if err := ctx.Err(); err != nil {
			r.fail(ctx, model.WrapError(model.KindUnknown, "analysis canceled", err))
			break
		}
		if err := r.Step(ctx); err != nil {
			break
		}
	}

	if r.err != nil {
		span.SetError(r.err)
		r.logger.Warn("analysis failed",
			zap.String("kind", string(model.KindOf(r.err))),
			zap.Error(r.err),
		)
		return nil, r.err
	}

	span.SetOK()
	r.logger.Info("analysis complete",
		zap.Int("chunks", len(r.chunks)),
		zap.Duration("duration", r.o.opts.Now().Sub(start)),
	)
	return r.result, nil
}

// Step performs one transition. Completion calls are not canceled by ctx;
// only the chunk gate wait is.
func (r *Run) Step(ctx context.Context) error {
	if r.Done() {
		return r.err
	}

	callCtx := context.WithoutCancel(ctx)
	var err error
	switch r.phase {
	case PhaseChunking:
		err = r.stepChunk(ctx)
	case PhaseSummarizing:
		err = r.stepSummarize(ctx, callCtx)
	case PhaseAnalyzing:
		err = r.stepAnalyze(ctx, callCtx)
	case PhaseFinalizing:
		err = r.stepFinalize(ctx)
	}
	if err != nil {
		r.fail(ctx, err)
		return err
	}
	return nil
}

func (r *Run) stepChunk(ctx context.Context) error {
	r.emit(ctx, model.NewProgressEvent(model.StagePreprocessing, 10, "Preparing document..."))

	if strings.TrimSpace(r.doc.Text) == "" {
		return model.NewError(model.KindInvalidInput, "document too short")
	}

	if c := r.o.opts.Cache; c != nil {
		if cached, ok := c.Get(r.doc.Text, r.o.cacheVariant()); ok {
			r.logger.Info("analysis served from cache")
			cached.Metadata.DocumentName = r.doc.Name
			r.result = cached
			r.phase = PhaseFinalizing
			return nil
		}
	}

	chunks, err := chunker.Split(r.doc.Text, r.o.opts.Chunker)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return model.NewError(model.KindInvalidInput, "document too short")
	}

	r.chunks = chunks
	r.sections = make([]*model.SectionResult, 0, len(chunks))
	r.logger.Debug("document chunked", zap.Int("chunks", len(chunks)))
	telemetry.AddBreadcrumb(ctx, "analysis", fmt.Sprintf("chunked into %d sections", len(chunks)))
	r.phase = PhaseSummarizing
	return nil
}

func (r *Run) stepSummarize(ctx, callCtx context.Context) error {
	r.emit(ctx, model.NewProgressEvent(model.StageAnalyzing, 30, "Generating document summary..."))

	summary, err := r.o.summarizer.Summarize(callCtx, r.doc.Text)
	if err != nil {
		return err
	}
	r.summary = summary

	if d := r.o.opts.Detector; d != nil {
		docType, err := d.DetectType(callCtx, r.doc.Text)
		if err != nil {
			r.logger.Warn("document type detection failed", zap.Error(err))
		} else {
			r.docType = docType
		}
	}

	r.phase = PhaseAnalyzing
	return nil
}

func (r *Run) stepAnalyze(ctx, callCtx context.Context) error {
	total := len(r.chunks)
	chunk := r.chunks[r.cursor]

	r.emit(ctx, model.NewChunkProgressEvent(
		chunkPercent(chunk.Index, total), chunk.Index, total,
		fmt.Sprintf("Analyzing section %d of %d...", chunk.Index, total),
	))

	if g := r.o.opts.Gate; g != nil {
		if err := g.Acquire(ctx, r.callerKey); err != nil {
			if ctx.Err() != nil {
				return model.WrapError(model.KindUnknown, "analysis canceled", err)
			}
			return err
		}
	}

	section, err := r.o.analyzer.AnalyzeSection(callCtx, chunk.Text, chunk.Index, total)
	if err != nil {
		return err
	}
	r.sections = append(r.sections, section)
	r.cursor++

	if r.cursor == total {
		r.emit(ctx, model.NewChunkProgressEvent(80, total, total,
			fmt.Sprintf("Analyzed %d of %d sections", total, total)))
		r.phase = PhaseFinalizing
	}
	return nil
}

func (r *Run) stepFinalize(ctx context.Context) error {
	r.emit(ctx, model.NewProgressEvent(model.StageAnalyzing, 90, "Finalizing analysis..."))

	if r.result == nil {
		merged := MergeSections(r.sections)
		r.result = &model.AnalysisResult{
			Summary:          r.summary,
			PotentialRisks:   merged.PotentialRisks,
			ImportantClauses: merged.ImportantClauses,
			Recommendations:  merged.Recommendations,
			Metadata: model.AnalysisMetadata{
				AnalyzedAt:   r.o.opts.Now().UTC(),
				DocumentName: r.doc.Name,
				DocumentType: r.docType,
				ModelVersion: r.o.opts.ModelVersion,
				TotalChunks:  len(r.chunks),
			},
		}
		if c := r.o.opts.Cache; c != nil {
			if err := c.Put(r.doc.Text, r.o.cacheVariant(), r.result); err != nil {
				r.logger.Warn("failed to cache analysis result", zap.Error(err))
			}
		}
	}

	r.phase = PhaseDone
	r.emit(ctx, model.NewProgressEvent(model.StageComplete, 100, "Analysis complete"))
	r.emit(ctx, model.NewCompleteEvent(r.result))
	return nil
}

// fail records err and emits the single error event
func (r *Run) fail(ctx context.Context, err error) {
	if r.Done() {
		return
	}
	r.phase = PhaseFailed
	r.err = err
	r.result = nil
	r.emit(context.WithoutCancel(ctx), model.NewErrorEvent(err))
}

// emit writes to the sink; after the first sink failure further events are
// dropped and the run continues
func (r *Run) emit(ctx context.Context, ev model.ProgressEvent) {
	if r.sinkBroken {
		return
	}
	if err := r.sink.Emit(ctx, ev); err != nil {
		r.sinkBroken = true
		r.logger.Warn("progress sink failed, dropping further events", zap.Error(err))
	}
}

// cacheVariant combines the settings that change a result for the same text
func (o *Orchestrator) cacheVariant() string {
	return fmt.Sprintf("%s|chunk=%d/%d|prompts=%s|detect=%t",
		o.opts.ModelVersion,
		o.opts.Chunker.MaxChunkSize, o.opts.Chunker.Overlap,
		o.opts.Fingerprint,
		o.opts.Detector != nil,
	)
}

// chunkPercent is the progress reported before section i of n is analyzed
func chunkPercent(i, n int) int {
	return 40 + int(math.Round(40*float64(i-1)/float64(n)))
}
