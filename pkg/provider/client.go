// Package provider is an HTTP client for an ExchangeRate-API style rate
// provider: GET <base-url>/<base currency> returning a JSON document whose
// conversion_rates field maps currency codes to rates.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName = "github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/pkg/provider"

	// upstream bodies larger than this are treated as malformed
	maxBodySize = 1 << 20
)

var (
	ErrUnexpectedStatus  = errors.New("unexpected status from rate provider")
	ErrMalformedResponse = errors.New("malformed rate provider response")
)

// RateTable maps currency codes to the number of units of that currency
// one unit of the base currency buys. A nil table means the provider
// response carried no rates at all.
type RateTable map[string]float64

// Rate returns the rate for code and whether it is present.
func (t RateTable) Rate(code string) (float64, bool) {
	r, ok := t[code]
	return r, ok
}

type ratesResponse struct {
	Result          string    `json:"result"`
	BaseCode        string    `json:"base_code"`
	ConversionRates RateTable `json:"conversion_rates"`
}

// Observer is notified after every upstream round trip. status is the HTTP
// status code, or 0 when no response was received.
type Observer func(status int, elapsed time.Duration)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
	observe    Observer
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// NewClient creates a client for baseURL. timeout bounds each request,
// including reading the body.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
		observe:    func(int, time.Duration) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRates performs exactly one GET for the rate table anchored at base.
// It never retries. A successful response without conversion_rates yields
// a nil table and no error.
func (c *Client) FetchRates(ctx context.Context, base string) (RateTable, error) {
	ctx, span := c.tracer.Start(ctx, "provider.FetchRates",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("currency.base", base)),
	)
	defer span.End()

	rates, err := c.fetch(ctx, span, base)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch rates failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("currency.rates_count", len(rates)))
	span.SetStatus(codes.Ok, "")
	return rates, nil
}

func (c *Client) fetch(ctx context.Context, span trace.Span, base string) (RateTable, error) {
	requestURL := c.baseURL + "/" + url.PathEscape(base)

	c.logger.Debug("Fetching rates from provider",
		zap.String("base", base),
		zap.String("url", requestURL),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(0, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("rate provider request timed out: %w", err)
		}
		return nil, fmt.Errorf("rate provider request failed: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	c.observe(resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read rate provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedResponse, maxBodySize)
	}

	var payload ratesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	c.logger.Debug("Rates fetched from provider",
		zap.String("base", base),
		zap.String("result", payload.Result),
		zap.String("base_code", payload.BaseCode),
		zap.Int("rates_count", len(payload.ConversionRates)),
	)

	return payload.ConversionRates, nil
}
