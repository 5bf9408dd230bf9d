package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultBaseURL is the hosted Firecrawl API endpoint.
const DefaultBaseURL = "https://api.firecrawl.dev/v1"

// Client talks to a Firecrawl-compatible scraping API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client. The API key is read from FIRECRAWL_API_KEY.
func NewClient(baseURL string) (*Client, error) {
	apiKey := os.Getenv("FIRECRAWL_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("FIRECRAWL_API_KEY environment variable not set")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// ScrapeOptions tunes a single-page scrape.
type ScrapeOptions struct {
	Formats         []string
	IncludeTags     []string
	ExcludeTags     []string
	OnlyMainContent bool
}

// ScrapeResult is the content of a scraped page.
type ScrapeResult struct {
	Markdown  string
	HTML      string
	Title     string
	SourceURL string
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	IncludeTags     []string `json:"includeTags,omitempty"`
	ExcludeTags     []string `json:"excludeTags,omitempty"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
		Metadata struct {
			Title     string `json:"title"`
			SourceURL string `json:"sourceURL"`
		} `json:"metadata"`
	} `json:"data"`
}

// Scrape fetches a single page and returns its content.
func (c *Client) Scrape(ctx context.Context, url string, opts ScrapeOptions) (*ScrapeResult, error) {
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}

	formats := opts.Formats
	if len(formats) == 0 {
		formats = []string{"markdown"}
	}

	var resp scrapeResponse
	err := c.post(ctx, "/scrape", scrapeRequest{
		URL:             url,
		Formats:         formats,
		IncludeTags:     opts.IncludeTags,
		ExcludeTags:     opts.ExcludeTags,
		OnlyMainContent: opts.OnlyMainContent,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("scrape failed: %s", resp.Error)
	}

	return &ScrapeResult{
		Markdown:  resp.Data.Markdown,
		HTML:      resp.Data.HTML,
		Title:     resp.Data.Metadata.Title,
		SourceURL: resp.Data.Metadata.SourceURL,
	}, nil
}

type extractRequest struct {
	URLs            []string `json:"urls"`
	Prompt          string   `json:"prompt"`
	EnableWebSearch bool     `json:"enableWebSearch"`
}

type extractResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// ExtractStatus reports the state of an asynchronous extract job.
type ExtractStatus struct {
	ID     string
	Status string
	Data   json.RawMessage
}

// Extract submits a structured extraction over one or more URLs and
// returns the remote job ID.
func (c *Client) Extract(ctx context.Context, urls []string, prompt string, enableWebSearch bool) (string, error) {
	if len(urls) == 0 {
		return "", fmt.Errorf("at least one url is required")
	}
	if prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}

	var resp extractResponse
	err := c.post(ctx, "/extract", extractRequest{
		URLs:            urls,
		Prompt:          prompt,
		EnableWebSearch: enableWebSearch,
	}, &resp)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("extract failed: %s", resp.Error)
	}
	return resp.ID, nil
}

// GetExtractStatus polls an extract job by its remote ID.
func (c *Client) GetExtractStatus(ctx context.Context, jobID string) (*ExtractStatus, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/extract/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var resp extractResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("extract status failed: %s", resp.Error)
	}
	return &ExtractStatus{ID: jobID, Status: resp.Status, Data: resp.Data}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("firecrawl API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
