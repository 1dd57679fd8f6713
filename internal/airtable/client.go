// Package airtable is a small REST client for the Airtable tables holding bookings and
// advertisements.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
	"github.com/bpollino/angelina-jail-activity-automation/pkg/utils"
)

// Errors returned by the client.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrUnauthorized         = errors.New("records store rejected the token")
	ErrNotFound             = errors.New("record or table not found")
	ErrInvalidRequest       = errors.New("records store rejected the request")
	ErrMissingCredentials   = errors.New("records store api key and base id are required")
)

// ScopeHint is appended to authorization failures.
const ScopeHint = "check that the token has data.records:read, data.records:write and schema.bases:read scopes on this base"

const maxResponseBytes = 10 * 1024 * 1024

// Client is the records-store surface the rest of the module depends on.
type Client interface {
	List(ctx context.Context, table string, params ListParams) ([]Record, error)
	Get(ctx context.Context, table, id string) (*Record, error)
	Create(ctx context.Context, table string, fields Fields) (*Record, error)
	Update(ctx context.Context, table, id string, fields Fields) (*Record, error)
	Tables(ctx context.Context) ([]Table, error)
}

// Ensure RESTClient implements Client.
var _ Client = (*RESTClient)(nil)

// Options configure a RESTClient.
type Options struct {
	APIURL            string
	APIKey            string
	BaseID            string
	RequestsPerSecond float64
	Retry             config.RetryPolicy
	HTTPClient        *http.Client
	Logger            *logger.Logger
}

// RESTClient talks to the Airtable REST API for one base.
type RESTClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      config.RetryPolicy
	apiURL     string
	apiKey     string
	baseID     string
	headers    *utils.HTTPHelper
	logger     *logger.Logger
}

// NewRESTClient creates a client from explicit options.
func NewRESTClient(opts Options) (*RESTClient, error) {
	if opts.APIKey == "" || opts.BaseID == "" {
		return nil, ErrMissingCredentials
	}

	if opts.APIURL == "" {
		opts.APIURL = "https://api.airtable.com/v0"
	}

	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}

	if opts.Retry.MaxAttempts < 1 {
		opts.Retry.MaxAttempts = 1
	}

	if opts.HTTPClient == nil {
		timeout := opts.Retry.GetTimeout()
		if timeout <= 0 {
			timeout = 30 * time.Second
		}

		opts.HTTPClient = &http.Client{Timeout: timeout}
	}

	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	return &RESTClient{
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		retry:      opts.Retry,
		apiURL:     strings.TrimRight(opts.APIURL, "/"),
		apiKey:     opts.APIKey,
		baseID:     opts.BaseID,
		headers:    utils.NewHTTPHelper(),
		logger:     opts.Logger.With("component", "airtable"),
	}, nil
}

// NewFromConfig creates the bookings client described by cfg.
func NewFromConfig(cfg *config.Config, log *logger.Logger) (*RESTClient, error) {
	return NewRESTClient(Options{
		APIURL:            cfg.Airtable.APIURL,
		APIKey:            cfg.Airtable.APIKey,
		BaseID:            cfg.Airtable.BaseID,
		RequestsPerSecond: cfg.Airtable.RequestsPerSecond,
		Retry:             cfg.Retry,
		Logger:            log,
	})
}

// NewAdsFromConfig creates the advertisements client described by cfg.
func NewAdsFromConfig(cfg *config.Config, log *logger.Logger) (*RESTClient, error) {
	key, base := cfg.AdsCredentials()

	return NewRESTClient(Options{
		APIURL:            cfg.Airtable.APIURL,
		APIKey:            key,
		BaseID:            base,
		RequestsPerSecond: cfg.Airtable.RequestsPerSecond,
		Retry:             cfg.Retry,
		Logger:            log,
	})
}

// List returns every record matching params, following pagination offsets.
func (c *RESTClient) List(ctx context.Context, table string, params ListParams) ([]Record, error) {
	var records []Record

	offset := ""

	for {
		query := params.values()
		if offset != "" {
			query.Set("offset", offset)
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL(table, ""), query, nil, &page); err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}

		records = append(records, page.Records...)

		if params.MaxRecords > 0 && len(records) >= params.MaxRecords {
			return records[:params.MaxRecords], nil
		}

		if page.Offset == "" {
			return records, nil
		}

		offset = page.Offset
	}
}

// Get fetches one record by ID.
func (c *RESTClient) Get(ctx context.Context, table, id string) (*Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodGet, c.tableURL(table, id), nil, nil, &rec); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, err)
	}

	return &rec, nil
}

// Create inserts a record. Select options are typecast so new choices are accepted.
func (c *RESTClient) Create(ctx context.Context, table string, fields Fields) (*Record, error) {
	var rec Record

	body := writeRequest{Fields: fields, Typecast: true}
	if err := c.do(ctx, http.MethodPost, c.tableURL(table, ""), nil, body, &rec); err != nil {
		return nil, fmt.Errorf("create in %s: %w", table, err)
	}

	return &rec, nil
}

// Update patches the given fields of one record, leaving the others untouched.
func (c *RESTClient) Update(ctx context.Context, table, id string, fields Fields) (*Record, error) {
	var rec Record

	body := writeRequest{Fields: fields, Typecast: true}
	if err := c.do(ctx, http.MethodPatch, c.tableURL(table, id), nil, body, &rec); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", table, id, err)
	}

	return &rec, nil
}

// Tables returns the schema of every table in the base.
func (c *RESTClient) Tables(ctx context.Context) ([]Table, error) {
	var resp tablesResponse

	endpoint := c.apiURL + "/meta/bases/" + url.PathEscape(c.baseID) + "/tables"
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("read base schema: %w", err)
	}

	return resp.Tables, nil
}

func (c *RESTClient) tableURL(table, id string) string {
	u := c.apiURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}

	return u
}

// do performs one API call. Reads are retried on transient statuses with the
// configured backoff; writes are attempted once.
func (c *RESTClient) do(ctx context.Context, method, endpoint string, query url.Values, in, out any) error {
	var payload []byte

	if in != nil {
		var err error

		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = c.retry.MaxAttempts
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := c.retry.GetRetryDelay(attempt - 1)
			c.logger.Warn("retrying records store request", "attempt", attempt, "delay", delay, "error", lastErr)

			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}

		status, body, err := c.roundTrip(ctx, method, endpoint, payload)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return lastErr
			}

			continue
		}

		if status >= 200 && status < 300 {
			if out == nil {
				return nil
			}

			dec := json.NewDecoder(bytes.NewReader(body))
			dec.UseNumber()

			if err := dec.Decode(out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			return nil
		}

		lastErr = statusError(status, body)
		if !isRetryableStatus(status) {
			return lastErr
		}
	}

	return lastErr
}

func (c *RESTClient) roundTrip(ctx context.Context, method, endpoint string, payload []byte) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = c.headers.BuildHeaders(map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	})

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("records store call", "method", method, "status", resp.StatusCode, "duration", time.Since(start))

	return resp.StatusCode, data, nil
}

func statusError(status int, body []byte) error {
	msg := errorMessage(body)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w (%d): %s; %s", ErrUnauthorized, status, msg, ScopeHint)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
	default:
		return fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, status, msg)
	}
}

// errorMessage extracts the message from either error shape the API returns:
// {"error":"NOT_FOUND"} or {"error":{"type":"...","message":"..."}}.
func errorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return strings.TrimSpace(string(body))
	}

	var code string
	if err := json.Unmarshal(envelope.Error, &code); err == nil {
		return code
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		if detail.Message == "" {
			return detail.Type
		}

		return detail.Type + ": " + detail.Message
	}

	return string(envelope.Error)
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout,
		http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	}

	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ListParams narrow and order a List call.
type ListParams struct {
	FilterByFormula string
	Sort            []SortField
	View            string
	Fields          []string
	MaxRecords      int
	PageSize        int
}

// SortField orders results by one field.
type SortField struct {
	Field     string
	Direction string
}

func (p ListParams) values() url.Values {
	v := url.Values{}

	if p.FilterByFormula != "" {
		v.Set("filterByFormula", p.FilterByFormula)
	}

	if p.View != "" {
		v.Set("view", p.View)
	}

	if p.MaxRecords > 0 {
		v.Set("maxRecords", strconv.Itoa(p.MaxRecords))
	}

	if p.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}

	for _, f := range p.Fields {
		v.Add("fields[]", f)
	}

	for i, s := range p.Sort {
		v.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)

		if s.Direction != "" {
			v.Set(fmt.Sprintf("sort[%d][direction]", i), s.Direction)
		}
	}

	return v
}
