package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/contextdeck/contextdeck/internal/annotate"
	"github.com/contextdeck/contextdeck/internal/media"
)

// ProgressFunc is called once per file as ingestion advances.
type ProgressFunc func(done, total int, relPath string)

// Result summarizes an ingestion run.
type Result struct {
	FilesIngested  int
	FilesAnnotated int
	FilesFailed    int
	ChunksFailed   int
	TotalBytes     int64
	InputTokens    int
	OutputTokens   int
	Errors         []error
	Duration       time.Duration
}

// Ingester loads files from disk into the media library. Text files go
// through the annotation pipeline; other kinds are registered as-is with
// a file URL pointing at their on-disk location.
type Ingester struct {
	pipeline   *annotate.Pipeline
	store      *media.Store
	onProgress ProgressFunc
}

// NewIngester creates an Ingester. pipeline may be nil, in which case text
// files are registered without annotations.
func NewIngester(pipeline *annotate.Pipeline, store *media.Store) *Ingester {
	return &Ingester{pipeline: pipeline, store: store}
}

// SetProgressFunc sets the progress callback.
func (in *Ingester) SetProgressFunc(fn ProgressFunc) {
	in.onProgress = fn
}

// Run ingests the given files. Per-file failures are collected in the
// result; only context cancellation aborts the run.
func (in *Ingester) Run(ctx context.Context, files []File) (*Result, error) {
	start := time.Now()
	result := &Result{}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		if in.onProgress != nil {
			in.onProgress(i, len(files), f.RelPath)
		}

		if err := in.ingestFile(ctx, f, result); err != nil {
			log.Printf("ingest %s: %v", f.RelPath, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", f.RelPath, err))
			continue
		}
		result.FilesIngested++
		result.TotalBytes += f.Size
	}

	if in.onProgress != nil {
		in.onProgress(len(files), len(files), "")
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (in *Ingester) ingestFile(ctx context.Context, f File, result *Result) error {
	mc := &media.Context{
		Name:    f.Name,
		Kind:    f.Kind,
		Size:    f.Size,
		FileURL: f.Path,
	}

	if f.Kind != media.KindText || in.pipeline == nil {
		return in.store.CreateContext(ctx, mc)
	}

	content, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	report, err := in.pipeline.Run(ctx, mc, string(content))
	if report != nil {
		result.InputTokens += report.InputTokens
		result.OutputTokens += report.OutputTokens
		result.ChunksFailed += len(report.Failed)
	}
	if err != nil {
		return err
	}
	result.FilesAnnotated++
	return nil
}
