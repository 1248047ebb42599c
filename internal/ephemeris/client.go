// Package ephemeris is the client side of the position service contract.
package ephemeris

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"solarview/internal/logging"
)

const (
	tracerName       = "solarview/internal/ephemeris"
	positionsPath    = "/api/positions"
	maxResponseBytes = 1 << 20
	defaultTimeout   = 10 * time.Second
)

// ErrMalformedResponse marks a 2xx response that does not satisfy the contract.
var ErrMalformedResponse = errors.New("malformed position response")

// Coordinate is a heliocentric position in astronomical units.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// APIError is a non-2xx answer from the position service.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("position service returned %d", e.Status)
	}
	return fmt.Sprintf("position service returned %d: %s", e.Status, e.Detail)
}

// Client queries the position service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	bodies     *BodyTable
	cacheBust  bool
	now        func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBodyTable sets the id/wire-name table.
func WithBodyTable(t *BodyTable) ClientOption {
	return func(c *Client) { c.bodies = t }
}

// WithCacheBusting appends a unique query parameter to every request.
func WithCacheBusting(enabled bool) ClientOption {
	return func(c *Client) { c.cacheBust = enabled }
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		bodies:     DefaultBodyTable(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string { return c.baseURL }

// Positions fetches all body positions at t, keyed by internal body id.
// Bodies missing from the table are ignored.
func (c *Client) Positions(ctx context.Context, t time.Time) (map[string]Coordinate, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "positions.query", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	u, err := c.requestURL(t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("http.method", http.MethodGet),
		attribute.String("http.url", u),
		attribute.String("sim.time", formatWire(t)),
	)

	positions, err := c.do(ctx, u)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("positions.count", len(positions)))
	return positions, nil
}

func (c *Client) requestURL(t time.Time) (string, error) {
	u, err := url.Parse(c.baseURL + positionsPath)
	if err != nil {
		return "", fmt.Errorf("parse position service url: %w", err)
	}
	q := url.Values{}
	q.Set("t", formatWire(t))
	if c.cacheBust {
		q.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, u string) (map[string]Coordinate, error) {
	log := logging.FromContext(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying positions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Detail: errorDetail(body)}
	}

	positions, unknown, err := c.decode(body)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		log.Debug("ignoring bodies outside the name table", "bodies", unknown)
	}
	return positions, nil
}

type wireCoordinate struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

type wireResponse struct {
	Positions map[string]*wireCoordinate `json:"positions"`
}

func (c *Client) decode(body []byte) (map[string]Coordinate, []string, error) {
	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if wr.Positions == nil {
		return nil, nil, fmt.Errorf("%w: missing positions", ErrMalformedResponse)
	}
	out := make(map[string]Coordinate, len(wr.Positions))
	var unknown []string
	for name, wc := range wr.Positions {
		if wc == nil || wc.X == nil || wc.Y == nil || wc.Z == nil {
			return nil, nil, fmt.Errorf("%w: incomplete coordinate for %s", ErrMalformedResponse, name)
		}
		coord := Coordinate{X: *wc.X, Y: *wc.Y, Z: *wc.Z}
		if !finite(coord) {
			return nil, nil, fmt.Errorf("%w: non-finite coordinate for %s", ErrMalformedResponse, name)
		}
		id, ok := c.bodies.ID(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out[id] = coord
	}
	return out, unknown, nil
}

func errorDetail(body []byte) string {
	var e struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Detail == nil {
		return ""
	}
	if s, ok := e.Detail.(string); ok {
		return s
	}
	b, _ := json.Marshal(e.Detail)
	return string(b)
}

func finite(c Coordinate) bool {
	for _, v := range []float64{c.X, c.Y, c.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func formatWire(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
