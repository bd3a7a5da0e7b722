package tvmaze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL  = "https://api.tvmaze.com"
	defaultTimeout  = 10 * time.Second
	requestInterval = 100 * time.Millisecond // TVMaze allows ~20 calls per 10s per IP
)

// Client handles all interactions with the TVMaze API
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// Image holds the image variants TVMaze returns for a show
type Image struct {
	Medium   string `json:"medium"`
	Original string `json:"original"`
}

// Show represents the nested show record inside a search match
type Show struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Summary   string   `json:"summary"`
	Image     *Image   `json:"image"`
	Language  string   `json:"language"`
	Genres    []string `json:"genres"`
	Status    string   `json:"status"`
	Premiered string   `json:"premiered"`
	URL       string   `json:"url"`
}

// SearchMatch is one entry of the /search/shows response
type SearchMatch struct {
	Score float64 `json:"score"`
	Show  Show    `json:"show"`
}

// Episode represents an episode from the /shows/{id}/episodes response.
// Season and Number are nil when the provider sends null (specials).
type Episode struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Season  *int   `json:"season"`
	Number  *int   `json:"number"`
	Airdate string `json:"airdate"`
	Runtime *int   `json:"runtime"`
	Summary string `json:"summary"`
}

// APIError represents a non-success response from the TVMaze API
type APIError struct {
	StatusCode int    `json:"status"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TVMaze API error (code %d): %s", e.StatusCode, e.Message)
}

// NewClient creates a new TVMaze API client
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewClientWithHTTP creates a new TVMaze API client with a custom HTTP client
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
}

// SetBaseURL allows overriding the base URL (useful for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SearchShows searches for shows matching query.
// Calls TVMaze /search/shows; the query is sent as given.
func (c *Client) SearchShows(ctx context.Context, query string) ([]SearchMatch, error) {
	endpoint := fmt.Sprintf("%s/search/shows?q=%s", c.baseURL, url.QueryEscape(query))

	var matches []SearchMatch
	if err := c.getJSON(ctx, endpoint, &matches); err != nil {
		return nil, fmt.Errorf("failed to search shows: %w", err)
	}
	if matches == nil {
		matches = []SearchMatch{}
	}
	return matches, nil
}

// GetEpisodes fetches the full episode list of a show
// Calls TVMaze /shows/{id}/episodes
func (c *Client) GetEpisodes(ctx context.Context, showID int) ([]Episode, error) {
	if showID <= 0 {
		return nil, fmt.Errorf("invalid TVMaze show ID: %d", showID)
	}

	endpoint := fmt.Sprintf("%s/shows/%d/episodes", c.baseURL, showID)

	var episodes []Episode
	if err := c.getJSON(ctx, endpoint, &episodes); err != nil {
		return nil, fmt.Errorf("failed to get episodes for show %d: %w", showID, err)
	}
	if episodes == nil {
		episodes = []Episode{}
	}
	return episodes, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	if err := c.rateLimit(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkResponse checks the HTTP response for errors
func (c *Client) checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: failed to read error response", resp.StatusCode),
		}
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	// TVMaze echoes the status in the body, but trust the transport
	apiErr.StatusCode = resp.StatusCode
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d error", resp.StatusCode)
	}

	return &apiErr
}

// rateLimit spaces out requests to stay under the provider's limit
func (c *Client) rateLimit(ctx context.Context) error {
	c.mu.Lock()
	wait := requestInterval - time.Since(c.lastRequest)
	if wait < 0 {
		wait = 0
	}
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
