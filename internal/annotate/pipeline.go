package annotate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/contextdeck/contextdeck/internal/llm"
	"github.com/contextdeck/contextdeck/internal/media"
)

// ProgressFunc is called as the pipeline advances through a context's chunks.
// done counts finished chunks (successful or not), total is the chunk count.
type ProgressFunc func(contextID string, done, total int, stage string)

// Indexer receives finished annotations for semantic search. Indexing
// failures never fail the pipeline.
type Indexer interface {
	IndexContext(ctx context.Context, mc *media.Context) error
	IndexChunk(ctx context.Context, mc *media.Context, ch *media.Chunk) error
}

// Recorder logs pipeline milestones to the activity feed.
type Recorder interface {
	Record(ctx context.Context, action, contextID, contextName, detail string) error
}

// Options controls chunking and pacing. Zero values fall back to defaults.
type Options struct {
	Model         string
	MaxChunkSize  int
	ChunkDelay    time.Duration
	PreviewLength int
}

// DefaultChunkDelay spaces out provider calls between chunks.
const DefaultChunkDelay = 1000 * time.Millisecond

// DefaultPreviewLength bounds the stored chunk preview.
const DefaultPreviewLength = 1000

// ChunkFailure records a chunk whose annotation call or insert failed.
type ChunkFailure struct {
	Index int
	Err   error
}

// Report summarizes a pipeline run. Failed chunks leave gaps in the
// stored chunk indices; Succeeded and Failed together cover every chunk.
type Report struct {
	ContextID    string
	Chunked      bool
	ChunksTotal  int
	Succeeded    []int
	Failed       []ChunkFailure
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// Pipeline annotates uploaded text content: it persists the media context,
// splits oversized text into chunks, and calls the LLM provider for each
// chunk strictly in sequence.
type Pipeline struct {
	provider   llm.Provider
	store      *media.Store
	opts       Options
	onProgress ProgressFunc
	indexer    Indexer
	recorder   Recorder
}

// NewPipeline creates a Pipeline.
func NewPipeline(provider llm.Provider, store *media.Store, opts Options) *Pipeline {
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = DefaultMaxChunkSize
	}
	if opts.ChunkDelay < 0 {
		opts.ChunkDelay = DefaultChunkDelay
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	return &Pipeline{provider: provider, store: store, opts: opts}
}

// SetProgressFunc sets the progress callback.
func (p *Pipeline) SetProgressFunc(fn ProgressFunc) {
	p.onProgress = fn
}

// SetIndexer sets the semantic search indexer.
func (p *Pipeline) SetIndexer(ix Indexer) {
	p.indexer = ix
}

// SetRecorder sets the activity recorder.
func (p *Pipeline) SetRecorder(rec Recorder) {
	p.recorder = rec
}

// Run persists mc and annotates text. The context insert is fatal; after
// that, per-chunk failures are logged, recorded in the report, and skipped
// so the remaining chunks still run.
func (p *Pipeline) Run(ctx context.Context, mc *media.Context, text string) (*Report, error) {
	start := time.Now()

	if err := p.store.CreateContext(ctx, mc); err != nil {
		return nil, fmt.Errorf("create media context: %w", err)
	}

	report := &Report{ContextID: mc.ID}

	if len(text) <= p.opts.MaxChunkSize {
		p.progress(mc.ID, 0, 1, "annotating")
		err := p.annotateWhole(ctx, mc, text, report)
		if err != nil {
			log.Printf("annotate %s: %v", mc.ID, err)
			report.Failed = append(report.Failed, ChunkFailure{Index: 0, Err: err})
		} else {
			report.Succeeded = append(report.Succeeded, 0)
		}
		p.progress(mc.ID, 1, 1, "done")
		p.finish(ctx, mc, report, start)
		return report, nil
	}

	slices := Split(text, p.opts.MaxChunkSize)
	report.Chunked = true
	report.ChunksTotal = len(slices)

	for i, slice := range slices {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		p.progress(mc.ID, i, len(slices), "annotating")

		if err := p.annotateChunk(ctx, mc, i, len(slices), slice, report); err != nil {
			log.Printf("annotate %s chunk %d: %v", mc.ID, i, err)
			report.Failed = append(report.Failed, ChunkFailure{Index: i, Err: err})
		} else {
			report.Succeeded = append(report.Succeeded, i)
		}

		if i < len(slices)-1 && p.opts.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				report.Duration = time.Since(start)
				return report, ctx.Err()
			case <-time.After(p.opts.ChunkDelay):
			}
		}
	}

	p.progress(mc.ID, len(slices), len(slices), "done")
	p.finish(ctx, mc, report, start)
	return report, nil
}

// Annotate implements media.Runner for the upload handler.
func (p *Pipeline) Annotate(ctx context.Context, mc *media.Context, text string) (*media.RunSummary, error) {
	report, err := p.Run(ctx, mc, text)
	if report == nil {
		return nil, err
	}
	return &media.RunSummary{
		ContextID:       report.ContextID,
		Chunked:         report.Chunked,
		ChunksSucceeded: len(report.Succeeded),
		ChunksFailed:    len(report.Failed),
	}, err
}

func (p *Pipeline) annotateWhole(ctx context.Context, mc *media.Context, text string, report *Report) error {
	resp, err := p.complete(ctx, singlePrompt(mc.Name, text))
	if err != nil {
		return err
	}
	report.InputTokens += resp.InputTokens
	report.OutputTokens += resp.OutputTokens

	ann := ParseAnnotation(resp.Content)
	if err := p.store.SetContextAnnotation(ctx, mc.ID, ann); err != nil {
		return fmt.Errorf("store annotation: %w", err)
	}
	mc.Annotation = ann
	if p.indexer != nil {
		if err := p.indexer.IndexContext(ctx, mc); err != nil {
			log.Printf("index %s: %v", mc.ID, err)
		}
	}
	return nil
}

func (p *Pipeline) annotateChunk(ctx context.Context, mc *media.Context, index, total int, slice string, report *Report) error {
	resp, err := p.complete(ctx, chunkPrompt(mc.Name, index, total, slice))
	if err != nil {
		return err
	}
	report.InputTokens += resp.InputTokens
	report.OutputTokens += resp.OutputTokens

	ch := &media.Chunk{
		ContextID:  mc.ID,
		Index:      index,
		Preview:    preview(slice, p.opts.PreviewLength),
		Annotation: ParseAnnotation(resp.Content),
	}
	if err := p.store.CreateChunk(ctx, ch); err != nil {
		return fmt.Errorf("store chunk: %w", err)
	}
	if p.indexer != nil {
		if err := p.indexer.IndexChunk(ctx, mc, ch); err != nil {
			log.Printf("index %s chunk %d: %v", mc.ID, index, err)
		}
	}
	return nil
}

func (p *Pipeline) complete(ctx context.Context, prompt string) (*llm.CompletionResponse, error) {
	return p.provider.Complete(ctx, llm.CompletionRequest{
		Model: p.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		},
	})
}

func (p *Pipeline) finish(ctx context.Context, mc *media.Context, report *Report, start time.Time) {
	report.Duration = time.Since(start)
	if p.recorder != nil {
		detail := fmt.Sprintf("%d succeeded, %d failed", len(report.Succeeded), len(report.Failed))
		if err := p.recorder.Record(ctx, "annotated", mc.ID, mc.Name, detail); err != nil {
			log.Printf("record activity for %s: %v", mc.ID, err)
		}
	}
}

func (p *Pipeline) progress(contextID string, done, total int, stage string) {
	if p.onProgress != nil {
		p.onProgress(contextID, done, total, stage)
	}
}

func preview(slice string, limit int) string {
	if len(slice) <= limit {
		return slice
	}
	return slice[:limit] + "..."
}
