package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"callpulse/internal/config"
)

const (
	defaultPageLimit = 100

	// pageDelay is a courtesy pause between page fetches so a full
	// drain does not hammer the provider. Cooperative only; the
	// provider enforces its own limits.
	pageDelay = 100 * time.Millisecond
)

// Client talks to the provider's REST API.
// No provider HTTP calls should happen outside this package.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageLimit  int
}

func NewClient(cfg config.ProviderConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		pageLimit:  defaultPageLimit,
	}
}

type listCallsRequest struct {
	FilterCriteria struct {
		StartTimestamp TimeWindow `json:"start_timestamp"`
	} `json:"filter_criteria"`
	Limit         int    `json:"limit"`
	PaginationKey string `json:"pagination_key,omitempty"`
}

type listCallsResponse struct {
	Calls         []CallRecord `json:"calls"`
	PaginationKey string       `json:"pagination_key"`
}

// FetchPage retrieves one page of calls. cursor is the pagination key
// from the previous page, empty for the first. The returned cursor is
// empty when this was the final page; a page shorter than limit is
// also treated as final.
func (c *Client) FetchPage(ctx context.Context, cursor string, window TimeWindow, limit int) ([]CallRecord, string, error) {
	if limit <= 0 {
		limit = c.pageLimit
	}

	reqBody := listCallsRequest{Limit: limit, PaginationKey: cursor}
	reqBody.FilterCriteria.StartTimestamp = window

	var resp listCallsResponse
	if err := c.post(ctx, "/v2/list-calls", reqBody, &resp); err != nil {
		return nil, "", fmt.Errorf("provider: list-calls page (cursor %q): %w", cursor, err)
	}

	next := resp.PaginationKey
	if len(resp.Calls) < limit {
		next = ""
	}
	return resp.Calls, next, nil
}

// FetchAll drains every page in the window, threading each page's
// cursor into the next request. Any page failure aborts the whole
// drain; no partial results are returned.
func (c *Client) FetchAll(ctx context.Context, window TimeWindow) ([]CallRecord, error) {
	var out []CallRecord
	cursor := ""

	for pageNum := 1; ; pageNum++ {
		if pageNum > 1 {
			select {
			case <-time.After(pageDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		records, next, err := c.FetchPage(ctx, cursor, window, c.pageLimit)
		if err != nil {
			return nil, fmt.Errorf("provider: drain aborted on page %d: %w", pageNum, err)
		}
		out = append(out, records...)

		if next == "" {
			return out, nil
		}
		cursor = next
	}
}

// ListAgents fetches the full current agent roster.
func (c *Client) ListAgents(ctx context.Context) ([]AgentRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/list-agents", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider: list-agents: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("provider: list-agents: unexpected status %d", res.StatusCode)
	}

	var agents []AgentRecord
	if err := json.NewDecoder(res.Body).Decode(&agents); err != nil {
		return nil, fmt.Errorf("provider: list-agents: decode: %w", err)
	}
	return agents, nil
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Bounded read: error bodies are small, but don't trust that.
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", res.StatusCode, snippet)
	}

	return json.NewDecoder(res.Body).Decode(dest)
}
