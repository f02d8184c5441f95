// Package sheets reads form responses from the Google Sheets values API.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/cat-sightings-service/internal/config"
	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/observability"
)

const source = "google sheets"

var errNoHeader = errors.New("sheet has no header row")

// Client fetches the sighting sheet. It implements pipeline.Fetcher.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
	apiKey        string
	sheetName     string
	cellRange     string
	maxRetries    uint64
	maxElapsed    time.Duration
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewClient creates a Sheets client from the SHEETS_* and FETCH_* settings.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: cfg.SheetsTimeout},
		baseURL:       cfg.SheetsBaseURL,
		spreadsheetID: cfg.SheetsSpreadsheetID,
		apiKey:        cfg.SheetsAPIKey,
		sheetName:     cfg.SheetsSheetName,
		cellRange:     cfg.SheetsRange,
		maxRetries:    cfg.FetchMaxRetries,
		maxElapsed:    cfg.FetchMaxElapsed,
		metrics:       metrics,
		logger:        logger,
	}
}

// valueRange is the subset of the Sheets API ValueRange we use.
type valueRange struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

// Fetch downloads the header and data rows. Network errors, 429 and 5xx are
// retried with exponential backoff; any other failure is returned at once.
// Every error is a *domain.DataUnavailableError.
func (c *Client) Fetch(ctx context.Context) (domain.RawRow, []domain.RawRow, error) {
	start := time.Now()
	defer func() {
		c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}()

	var values [][]string
	operation := func() error {
		c.metrics.FetchAttempts.Inc()
		v, err := c.fetchOnce(ctx)
		if err != nil {
			return err
		}
		values = v
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("sheet fetch failed, retrying", "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		c.metrics.FetchFailures.Inc()
		return nil, nil, &domain.DataUnavailableError{Source: source, Err: err}
	}

	if len(values) == 0 {
		c.metrics.FetchFailures.Inc()
		return nil, nil, &domain.DataUnavailableError{Source: source, Err: errNoHeader}
	}

	rows := make([]domain.RawRow, 0, len(values)-1)
	for _, v := range values[1:] {
		rows = append(rows, domain.RawRow(v))
	}
	c.logger.Debug("sheet fetched", "rows", len(rows), "elapsed", time.Since(start))
	return domain.RawRow(values[0]), rows, nil
}

func (c *Client) valuesURL() string {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(c.sheetName+"!"+c.cellRange))
	return u + "?" + url.Values{"key": {c.apiKey}}.Encode()
}

func (c *Client) fetchOnce(ctx context.Context) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.valuesURL(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("fetch values: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		statusErr := fmt.Errorf("fetch values: status %d: %s", resp.StatusCode, string(b))
		if retryable(resp.StatusCode) {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	var vr valueRange
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode values: %w", err))
	}
	return vr.Values, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
