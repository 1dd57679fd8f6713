package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/fixtures"
)

// ErrNotHealthy is returned by WaitHealthy when the server never answered.
var ErrNotHealthy = errors.New("preview server not healthy")

// smokeConcurrency bounds parallel preview requests.
const smokeConcurrency = 4

// SmokeResult is the outcome of rendering one scenario through a running server.
type SmokeResult struct {
	Scenario   string
	Format     string
	Records    int
	Valid      bool
	Validation string
	Err        error
}

// OK reports whether the preview rendered and validated.
func (r SmokeResult) OK() bool {
	return r.Err == nil && r.Valid
}

// WaitHealthy polls baseURL/healthz every interval until it answers 200 or ctx ends.
func WaitHealthy(ctx context.Context, client *http.Client, baseURL string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error

	for {
		err := probe(ctx, client, strings.TrimRight(baseURL, "/")+"/healthz")
		if err == nil {
			return nil
		}

		// A probe cut short by ctx says nothing about the server.
		if lastErr == nil || !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w at %s: %w", ErrNotHealthy, baseURL, lastErr)
		case <-ticker.C:
		}
	}
}

func probe(ctx context.Context, client *http.Client, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthz returned %d", resp.StatusCode)
	}

	return nil
}

// Smoke renders every fixture scenario in both formats through a running server.
// Results keep scenario order, html before lexical.
func Smoke(ctx context.Context, client *http.Client, baseURL string) []SmokeResult {
	base := strings.TrimRight(baseURL, "/")
	formats := []string{config.FormatHTML, config.FormatLexical}
	scenarios := fixtures.Names()

	results := make([]SmokeResult, len(scenarios)*len(formats))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(smokeConcurrency)

	for i, scenario := range scenarios {
		for j, format := range formats {
			g.Go(func() error {
				results[i*len(formats)+j] = smokeOne(gctx, client, base, scenario, format)

				return nil
			})
		}
	}

	_ = g.Wait()

	return results
}

func smokeOne(ctx context.Context, client *http.Client, base, scenario, format string) SmokeResult {
	res := SmokeResult{Scenario: scenario, Format: format}

	q := url.Values{"scenario": {scenario}, "format": {format}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/generate-preview?"+q.Encode(), nil)
	if err != nil {
		res.Err = err
		return res
	}

	resp, err := client.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool      `json:"success"`
		Data    rendered  `json:"data"`
		Error   errorBody `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		res.Err = fmt.Errorf("decode preview response: %w", err)
		return res
	}

	if !envelope.Success {
		res.Err = fmt.Errorf("preview failed with %d: %s", resp.StatusCode, envelope.Error.Message)
		return res
	}

	res.Records = envelope.Data.Records
	res.Valid = envelope.Data.Valid
	res.Validation = envelope.Data.Validation

	return res
}
