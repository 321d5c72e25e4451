// Package datagov reads the subdivision rainfall dataset published on
// api.data.gov.in.
package datagov

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/manthysbr/samarth/internal/core/domain"
	"github.com/manthysbr/samarth/internal/core/ports"
)

const (
	DefaultTimeout = 20 * time.Second
	DefaultLimit   = 5000

	maxBodyBytes = 32 << 20
)

var monthKeys = [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// RainfallClient fetches rainfall records. Every Records call is one request.
type RainfallClient struct {
	logger  *slog.Logger
	baseURL string
	apiKey  string
	limit   int
	client  *http.Client
}

// Ensure RainfallClient implements RainfallSource
var _ ports.RainfallSource = (*RainfallClient)(nil)

// NewRainfallClient creates a client for the resource at baseURL
func NewRainfallClient(logger *slog.Logger, baseURL, apiKey string, limit int, timeout time.Duration) *RainfallClient {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RainfallClient{
		logger:  logger,
		baseURL: baseURL,
		apiKey:  apiKey,
		limit:   limit,
		client:  &http.Client{Timeout: timeout},
	}
}

// URL returns the resource address used as provenance
func (c *RainfallClient) URL() string {
	return c.baseURL
}

type recordsResponse struct {
	Records []map[string]any `json:"records"`
}

// Records fetches and decodes all rainfall rows.
func (c *RainfallClient) Records(ctx context.Context) ([]domain.RainfallRecord, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid rainfall url: %w", err)
	}
	q := u.Query()
	q.Set("api-key", c.apiKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("rainfall API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var payload recordsResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	records := make([]domain.RainfallRecord, 0, len(payload.Records))
	for _, raw := range payload.Records {
		records = append(records, toRecord(raw))
	}
	c.logger.Debug("rainfall records fetched", "count", len(records), "duration", time.Since(start))
	return records, nil
}

func toRecord(raw map[string]any) domain.RainfallRecord {
	rec := domain.RainfallRecord{}
	rec.Subdivision, _ = raw["subdivision"].(string)
	if year, ok := number(raw["year"]); ok && year == math.Trunc(year) {
		rec.Year = int(year)
		rec.HasYear = true
	}
	for i, key := range monthKeys {
		if v, ok := number(raw[key]); ok {
			rec.Months[i] = v
		}
	}
	return rec
}

// number accepts JSON numbers and numeric strings. "NA" and the like are absent.
func number(v any) (float64, bool) {
	var f float64
	var err error
	switch n := v.(type) {
	case json.Number:
		f, err = n.Float64()
	case float64:
		return n, !math.IsNaN(n)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
