// Package client provides the HTTP gateway to the Rick and Morty character
// API. It fetches single pages of the character catalog and classifies every
// failure into a NetworkError.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/rickmorty-client/pkg/character"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Prometheus metrics for API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rickmorty_requests_total",
		Help: "Total character API requests by status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rickmorty_request_duration_seconds",
		Help:    "Character API request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rickmorty_errors_total",
		Help: "Total character API errors by kind",
	}, []string{"kind"})
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://rickandmortyapi.com/api/"

	defaultTimeout = 30 * time.Second
	characterPath  = "character/"

	// maxErrorBody bounds how much of an error response is drained.
	maxErrorBody = 4 << 10

	tracerName = "github.com/Sternrassler/rickmorty-client/pkg/client"
)

// Client fetches character pages over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://rickandmortyapi.com/api/".
	BaseURL string

	// UserAgent header sent with every request (required).
	UserAgent string

	// Timeout bounds a whole request. Zero uses the default of 30s.
	Timeout time.Duration
}

// DefaultConfig returns a configuration for the public API.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   defaultTimeout,
	}
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.UserAgent) == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		config:  cfg,
		logger:  log.With().Str("component", "rickmorty-client").Logger(),
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// FetchPage fetches one page of the character catalog. The returned Page
// carries pageNum as its Number. Errors are always *NetworkError.
func (c *Client) FetchPage(ctx context.Context, pageNum int) (*character.Page, error) {
	ctx, span := c.tracer.Start(ctx, "character.FetchPage",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("rickmorty.page", pageNum)),
	)
	defer span.End()

	if pageNum < 1 {
		return nil, c.fail(ctx, &NetworkError{
			Kind:    KindInvalidRequest,
			Message: fmt.Sprintf("page must be >= 1 (got %d)", pageNum),
		})
	}

	reqURL := c.PageURL(pageNum)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, c.fail(ctx, &NetworkError{
			Kind:    KindInvalidRequest,
			Message: "create request",
			Err:     err,
		})
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.logger.Debug().
		Str("url", reqURL).
		Int("page", pageNum).
		Msg("Fetching characters")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	requestDuration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues("network_error").Inc()
		return nil, c.fail(ctx, &NetworkError{
			Kind:    KindTransport,
			Message: "GET " + reqURL,
			Err:     err,
		})
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, c.fail(ctx, &NetworkError{
			Kind:       KindBadStatus,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		})
	}

	var payload character.Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, c.fail(ctx, &NetworkError{
			Kind:    KindDecode,
			Message: "decode response",
			Err:     err,
		})
	}

	page, err := payload.ToPage(pageNum)
	if err != nil {
		return nil, c.fail(ctx, &NetworkError{
			Kind:    KindDecode,
			Message: "unexpected response shape",
			Err:     err,
		})
	}

	span.SetAttributes(
		attribute.Int("rickmorty.total_pages", page.TotalPages),
		attribute.Int("rickmorty.characters", len(page.Characters)),
	)

	c.logger.Debug().
		Int("page", pageNum).
		Int("total_pages", page.TotalPages).
		Int("characters", len(page.Characters)).
		Dur("duration", time.Since(startTime)).
		Msg("Fetched characters")

	return page, nil
}

// PageURL returns the listing URL for the given page.
func (c *Client) PageURL(pageNum int) string {
	rel := &url.URL{
		Path:     characterPath,
		RawQuery: url.Values{"page": []string{strconv.Itoa(pageNum)}}.Encode(),
	}
	return c.baseURL.ResolveReference(rel).String()
}

// fail records metrics, marks the span and logs the classified error before
// returning it.
func (c *Client) fail(ctx context.Context, err *NetworkError) *NetworkError {
	errorsTotal.WithLabelValues(string(err.Kind)).Inc()

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Kind))

	event := c.logger.Warn()
	if err.Kind == KindInvalidRequest {
		event = c.logger.Error()
	}
	event.
		Err(err).
		Str("error_kind", string(err.Kind)).
		Int("status_code", err.StatusCode).
		Msg("Character request failed")

	return err
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetTracerProvider sets the provider spans are created with (for testing).
// By default the global provider is used.
func (c *Client) SetTracerProvider(tp trace.TracerProvider) {
	c.tracer = tp.Tracer(tracerName)
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
