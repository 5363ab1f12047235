// Package nomad fetches entry metadata from the NOMAD repository v1 API.
package nomad

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/EBB2675/curator/internal/domain/model"
	"github.com/EBB2675/curator/pkg/logger"
	"github.com/EBB2675/curator/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultBaseURL     = "https://nomad-lab.eu/prod/v1/api/v1"
	defaultOwner       = "visible"
	defaultPageSize    = 1000
	defaultHTTPTimeout = 60 * time.Second
	maxErrorBodyBytes  = 2048
)

// Quantities requested per hit; everything else is excluded server-side.
var includeQuantities = []string{
	"entry_id",
	"upload_id",
	"mainfile",
	"main_author",
	"results.material.structural_type",
}

// Client pages through /entries/query and maps raw hits into records.
type Client struct {
	baseURL     string
	owner       string
	programName string
	pageSize    int

	httpClient   *http.Client
	buildBackoff func() backoff.BackOff

	logger logger.Logger
}

// NewClient creates a catalog client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		owner:    defaultOwner,
		pageSize: defaultPageSize,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		buildBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
		logger: logger.Get().Named("nomad"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// queryRequest is the POST body of /entries/query.
type queryRequest struct {
	Owner      string         `json:"owner"`
	Query      map[string]any `json:"query"`
	Pagination pageRequest    `json:"pagination"`
	Required   required       `json:"required"`
}

type pageRequest struct {
	PageSize       int    `json:"page_size"`
	OrderBy        string `json:"order_by"`
	Order          string `json:"order"`
	PageAfterValue string `json:"page_after_value,omitempty"`
}

type required struct {
	Include []string `json:"include"`
}

type queryResponse struct {
	Data       []hit `json:"data"`
	Pagination struct {
		NextPageAfterValue string `json:"next_page_after_value"`
	} `json:"pagination"`
}

// hit is one raw result; main_author may be a string or a user object.
type hit struct {
	EntryID    string          `json:"entry_id"`
	UploadID   string          `json:"upload_id"`
	Mainfile   string          `json:"mainfile"`
	MainAuthor json.RawMessage `json:"main_author"`
	Results    struct {
		Material struct {
			StructuralType string `json:"structural_type"`
		} `json:"material"`
	} `json:"results"`
}

// FetchAll retrieves the full matching population, following value-based
// pagination until the API reports no further pages. Hits without an
// entry_id are dropped with a diagnostic; a run that ends with zero records
// fails with ErrEmptyPopulation.
func (c *Client) FetchAll(ctx context.Context) ([]model.Record, error) {
	started := time.Now()

	query := map[string]any{}
	if c.programName != "" {
		query["results.method.simulation.program_name"] = c.programName
	}

	body := queryRequest{
		Owner: c.owner,
		Query: query,
		Pagination: pageRequest{
			PageSize: c.pageSize,
			OrderBy:  "entry_id",
			Order:    "asc",
		},
		Required: required{Include: includeQuantities},
	}

	var records []model.Record
	page := 0
	for {
		resp, err := c.fetchPage(ctx, body)
		if err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 {
			break
		}

		for _, h := range resp.Data {
			r, err := model.New(h.EntryID, h.UploadID, h.Mainfile, h.MainAuthor, h.Results.Material.StructuralType)
			if err != nil {
				metrics.RecordMalformedHit()
				c.logger.Warn(ctx, "dropping malformed hit", logger.Error(err))
				continue
			}
			records = append(records, r)
		}

		page++
		metrics.RecordPageFetched(len(resp.Data))
		c.logger.Debug(ctx, "fetched page",
			logger.Int("page", page),
			logger.Int("hits", len(resp.Data)),
			logger.Int("total", len(records)))

		next := resp.Pagination.NextPageAfterValue
		if next == "" {
			break
		}
		body.Pagination.PageAfterValue = next
	}

	metrics.ObserveFetchDuration(time.Since(started).Seconds())

	if len(records) == 0 {
		return nil, ErrEmptyPopulation
	}
	return records, nil
}

// fetchPage posts one query page, retrying transient failures with
// exponential backoff. 5xx and 429 responses and transport errors are
// retried; any other non-2xx status is permanent.
func (c *Client) fetchPage(ctx context.Context, body queryRequest) (*queryResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	var out *queryResponse
	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			metrics.RecordFetchRetry()
		}
		resp, err := c.postPage(ctx, payload)
		if err != nil {
			return err
		}
		out = resp
		return nil
	}

	b := backoff.WithContext(c.buildBackoff(), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return out, nil
}

func (c *Client) postPage(ctx context.Context, payload []byte) (*queryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/entries/query", bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		statusErr := fmt.Errorf("%w: status %d: %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(snippet))
		if retryableStatus(resp.StatusCode) {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return &out, nil
}

func retryableStatus(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}
