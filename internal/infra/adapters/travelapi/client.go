// File: internal/infra/adapters/travelapi/client.go
package travelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"travel-planner-client/internal/config"
	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/adapter"
	"travel-planner-client/internal/infra/logging"
)

// Compile-time assurance this client satisfies both ports.
var (
	_ adapter.TravelAssistant = (*Client)(nil)
	_ adapter.BookingsAPI     = (*Client)(nil)
)

// APIError is a non-2xx answer from the travel backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("travelapi: %s %s: http %d: %s", e.Method, e.Path, e.Status, body)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to the travel backend over HTTP. One Client is shared by all
// sessions; it holds no per-session state.
type Client struct {
	base     string
	chatPath string
	token    string
	http     *http.Client
	log      *zerolog.Logger
}

func New(cfg config.APIConfig, logger *zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("travelapi: empty base url")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("travelapi: bad base url: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	chatPath := cfg.ChatPath
	if chatPath == "" {
		chatPath = "/travel-system/chat"
	}
	l := logger.With().Str("component", "travelapi.Client").Logger()
	return &Client{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		chatPath: chatPath,
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
		log:      &l,
	}, nil
}

func (c *Client) SendMessage(ctx context.Context, req adapter.SendRequest) (adapter.SendResponse, error) {
	var out adapter.SendResponse
	if err := c.do(ctx, http.MethodPost, c.chatPath, nil, req, &out); err != nil {
		return adapter.SendResponse{}, err
	}
	return out, nil
}

func (c *Client) AllBookings(ctx context.Context) (*model.AllBookings, error) {
	var out model.AllBookings
	if err := c.do(ctx, http.MethodGet, "/bookings/all", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FlightBookings(ctx context.Context) ([]model.FlightBooking, error) {
	var out []model.FlightBooking
	if err := c.do(ctx, http.MethodGet, "/bookings/flights", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) HotelBookings(ctx context.Context) ([]model.HotelBooking, error) {
	var out []model.HotelBooking
	if err := c.do(ctx, http.MethodGet, "/bookings/hotels", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UserBookings(ctx context.Context, email string) (*model.UserBookings, error) {
	var out model.UserBookings
	q := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodGet, "/bookings/user", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BuildQuery encodes params as a query string with a leading "?". Empty
// values are skipped; an empty result yields "".
func BuildQuery(params map[string]string) string {
	v := url.Values{}
	for k, val := range params {
		if val == "" {
			continue
		}
		v.Set(k, val)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, in, out any) error {
	defer logging.TraceDuration(c.log, "travelapi."+method+" "+path)()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("travelapi: encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path+BuildQuery(query), body)
	if err != nil {
		return fmt.Errorf("travelapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if tid := logging.TraceID(ctx); tid != "" {
		req.Header.Set("X-Trace-ID", tid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("travelapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("travelapi: decode %s: %w", path, err)
	}
	return nil
}
