package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Standard errors
var (
	// ErrMissingCredentials means the API token or group id is not configured.
	// Pipelines treat this as fatal at run start.
	ErrMissingCredentials = errors.New("remote: api token and group id are required")
)

// APIError represents a non-success response from the remote API
type APIError struct {
	StatusCode int
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote: %s returned status %d", e.Path, e.StatusCode)
}

// Config holds remote API client configuration
type Config struct {
	BaseURL           string        `toml:"base_url"`
	APIToken          string        `toml:"api_token"`
	GroupID           string        `toml:"group_id"`
	PageSize          int           `toml:"page_size"`
	OpportunityStatus string        `toml:"opportunity_status"`
	PageDelay         time.Duration `toml:"page_delay"`
	BranchDelay       time.Duration `toml:"branch_delay"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		PageSize:    100,
		PageDelay:   250 * time.Millisecond,
		BranchDelay: 500 * time.Millisecond,
	}
}

// Client is an authenticated HTTP client for the remote CRM API.
//
// Calls carry no timeout beyond the transport default: a hung remote call
// holds the calling job's execution lock until the transport gives up. That
// is a known limitation of the sync model, not something to paper over with
// a guessed per-call deadline.
type Client struct {
	config Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a remote API client
func NewClient(config Config, logger *slog.Logger) *Client {
	if config.PageSize <= 0 {
		config.PageSize = 100
	}

	return &Client{
		config: config,
		http:   &http.Client{},
		logger: logger,
	}
}

// PageSize returns the configured page size for paginated resources
func (c *Client) PageSize() int {
	return c.config.PageSize
}

// PageDelay returns the configured delay between page requests
func (c *Client) PageDelay() time.Duration {
	return c.config.PageDelay
}

// BranchDelay returns the configured delay between columns and funnels
func (c *Client) BranchDelay() time.Duration {
	return c.config.BranchDelay
}

// CheckCredentials verifies that the required credentials are configured
func (c *Client) CheckCredentials() error {
	if c.config.APIToken == "" || c.config.GroupID == "" {
		return ErrMissingCredentials
	}
	return nil
}

// ListResource fetches a flat resource list and normalizes its envelope.
// namedField is the resource-specific wrapper field tried during
// normalization (e.g. "funis" for funnels).
func (c *Client) ListResource(ctx context.Context, path, namedField string) ([]Record, error) {
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	records, strategy := NormalizeList(body, namedField)
	c.logger.Debug("normalized resource list",
		"path", path,
		"strategy", strategy.String(),
		"count", len(records))

	return records, nil
}

// OpportunityPage fetches one page of opportunities for a column. Pages are
// 1-based. The page size and status filter come from configuration.
func (c *Client) OpportunityPage(ctx context.Context, columnID int64, page int) (Page, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(c.config.PageSize))
	query.Set("column_id", strconv.FormatInt(columnID, 10))
	if c.config.OpportunityStatus != "" {
		query.Set("status", c.config.OpportunityStatus)
	}

	body, err := c.get(ctx, "/opportunities", query)
	if err != nil {
		return Page{}, err
	}

	return NormalizePage(body), nil
}

// get performs an authenticated GET against the remote API
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.CheckCredentials(); err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to build request for %s: %w", path, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Token", c.config.APIToken)
	req.Header.Set("X-Group-Id", c.config.GroupID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Path: path}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to read response from %s: %w", path, err)
	}

	return body, nil
}
