package scrape

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/contextdeck/contextdeck/internal/media"
)

// Scraper fetches page content. Implemented by Client.
type Scraper interface {
	Scrape(ctx context.Context, url string, opts ScrapeOptions) (*ScrapeResult, error)
}

// Extractor runs asynchronous structured extractions. Implemented by Client.
type Extractor interface {
	Extract(ctx context.Context, urls []string, prompt string, enableWebSearch bool) (string, error)
	GetExtractStatus(ctx context.Context, jobID string) (*ExtractStatus, error)
}

// Recorder logs completed scrapes to the activity feed.
type Recorder interface {
	Record(ctx context.Context, action, subjectID, subjectName, detail string) error
}

// Service drives scrape jobs: fetch the page, land the content in the
// media library, and annotate it.
type Service struct {
	client    Scraper
	extractor Extractor
	store     *Store
	media     *media.Store
	runner    media.Runner
	recorder  Recorder
}

// NewService creates a Service. runner may be nil, in which case scraped
// content is stored without annotations. Extraction endpoints are enabled
// when the client also implements Extractor, as the Firecrawl Client does.
func NewService(client Scraper, store *Store, mediaStore *media.Store, runner media.Runner) *Service {
	s := &Service{client: client, store: store, media: mediaStore, runner: runner}
	if ex, ok := client.(Extractor); ok {
		s.extractor = ex
	}
	return s
}

// SetRecorder sets the activity recorder.
func (s *Service) SetRecorder(rec Recorder) {
	s.recorder = rec
}

// Submit creates a pending job for the URL and returns it. The caller is
// expected to invoke Process, typically in the background.
func (s *Service) Submit(ctx context.Context, url string) (*Job, error) {
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	job := &Job{URL: url}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// SubmitExtract starts a structured extraction over one or more URLs and
// records it as a running job keyed by the remote ID. The result is
// retrieved later through ExtractResult.
func (s *Service) SubmitExtract(ctx context.Context, urls []string, prompt string) (*Job, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("scrape client does not support extraction")
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one url is required")
	}
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	remoteID, err := s.extractor.Extract(ctx, urls, prompt, false)
	if err != nil {
		return nil, err
	}
	job := &Job{URL: urls[0], RemoteID: remoteID, Status: StatusRunning}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ExtractResult polls the remote side of an extract job and settles the
// local job row once the remote job reaches a terminal state.
func (s *Service) ExtractResult(ctx context.Context, jobID string) (*Job, *ExtractStatus, error) {
	if s.extractor == nil {
		return nil, nil, fmt.Errorf("scrape client does not support extraction")
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job.RemoteID == "" {
		return nil, nil, fmt.Errorf("job %s is not an extract job", job.ID)
	}

	status, err := s.extractor.GetExtractStatus(ctx, job.RemoteID)
	if err != nil {
		return nil, nil, err
	}

	switch status.Status {
	case "completed":
		if job.Status != StatusCompleted {
			job.Status = StatusCompleted
			if err := s.store.UpdateJob(ctx, job); err != nil {
				return nil, nil, err
			}
		}
	case "failed", "cancelled":
		if job.Status != StatusFailed {
			job.Status = StatusFailed
			job.Error = "remote extract " + status.Status
			if err := s.store.UpdateJob(ctx, job); err != nil {
				return nil, nil, err
			}
		}
	}
	return job, status, nil
}

// Process runs a job to completion. Failures are written to the job row
// rather than returned, so callers in goroutines need no error plumbing.
func (s *Service) Process(ctx context.Context, job *Job) {
	job.Status = StatusRunning
	if err := s.store.UpdateJob(ctx, job); err != nil {
		log.Printf("scrape: mark job %s running: %v", job.ID, err)
		return
	}

	mc, err := s.process(ctx, job)
	if err != nil {
		log.Printf("scrape: job %s failed: %v", job.ID, err)
		job.Status = StatusFailed
		job.Error = err.Error()
		if err := s.store.UpdateJob(ctx, job); err != nil {
			log.Printf("scrape: mark job %s failed: %v", job.ID, err)
		}
		return
	}

	job.Status = StatusCompleted
	if err := s.store.UpdateJob(ctx, job); err != nil {
		log.Printf("scrape: mark job %s completed: %v", job.ID, err)
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, "scraped", job.MediaContextID, mc.Name, job.URL); err != nil {
			log.Printf("scrape: record activity for %s: %v", job.ID, err)
		}
	}
}

func (s *Service) process(ctx context.Context, job *Job) (*media.Context, error) {
	result, err := s.client.Scrape(ctx, job.URL, ScrapeOptions{OnlyMainContent: true})
	if err != nil {
		return nil, err
	}
	if result.Markdown == "" {
		return nil, fmt.Errorf("page yielded no content")
	}

	name := result.Title
	if name == "" {
		name = job.URL
	}

	mc := &media.Context{
		ID:      uuid.New().String(),
		Name:    name,
		Kind:    media.KindText,
		Size:    int64(len(result.Markdown)),
		FileURL: job.URL,
	}
	job.MediaContextID = mc.ID

	if s.runner == nil {
		if err := s.media.CreateContext(ctx, mc); err != nil {
			return nil, err
		}
		return mc, nil
	}
	if _, err := s.runner.Annotate(ctx, mc, result.Markdown); err != nil {
		return nil, err
	}
	return mc, nil
}
