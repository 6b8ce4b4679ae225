// internal/infrastructure/remote/client.go
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-sync/internal/config"
	"github.com/your-org/cart-sync/internal/domain/cart"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	SessionHeader   = "X-Session-ID"
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 64 << 10
)

// Client talks to the remote cart service over HTTP/JSON
type Client struct {
	baseURL    string
	sessionID  string
	authToken  string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// Options configures a Client
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	SessionID string
	AuthToken string
	// Transport defaults to http.DefaultTransport
	Transport http.RoundTripper
}

// OptionsFromConfig maps the remote section of the configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   cfg.Remote.RequestTimeout,
		SessionID: cfg.Remote.SessionID,
		AuthToken: cfg.Remote.AuthToken,
	}
}

// NewClient creates a new remote cart client. A session id is generated when
// none is configured.
func NewClient(opts Options, logger logrus.FieldLogger) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		sessionID: sessionID,
		authToken: opts.AuthToken,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		logger: logger,
	}
}

// SessionID returns the session the client's cart is scoped to
func (c *Client) SessionID() string {
	return c.sessionID
}

// Fetch handles GET /api/cart
func (c *Client) Fetch(ctx context.Context) ([]cart.RawItem, error) {
	var items []cart.RawItem
	if err := c.do(ctx, "fetch", http.MethodGet, "/api/cart", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Add handles POST /api/cart/add
func (c *Client) Add(ctx context.Context, productID string) ([]cart.RawItem, error) {
	var items []cart.RawItem
	body := map[string]string{"productId": productID}
	if err := c.do(ctx, "add", http.MethodPost, "/api/cart/add", body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Remove handles DELETE /api/cart/remove/:id
func (c *Client) Remove(ctx context.Context, itemID string) error {
	return c.do(ctx, "remove", http.MethodDelete, "/api/cart/remove/"+url.PathEscape(itemID), nil, nil)
}

// UpdateQuantity handles PUT /api/cart/update/:id
func (c *Client) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.do(ctx, "update", http.MethodPut, "/api/cart/update/"+url.PathEscape(itemID), body, nil)
}

// ConfirmPickup handles PUT /api/cart/confirm/:id
func (c *Client) ConfirmPickup(ctx context.Context, itemID string) error {
	return c.do(ctx, "confirm", http.MethodPut, "/api/cart/confirm/"+url.PathEscape(itemID), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in any, out *[]cart.RawItem) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(SessionHeader, c.sessionID)
	req.Header.Set(RequestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"op":         op,
		"request_id": requestID,
		"status":     resp.StatusCode,
		"latency":    time.Since(start),
	}).Debug("remote cart request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	items, err := decodeItems(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to decode cart: %w", op, err)
	}
	*out = items
	return nil
}

// decodeItems accepts a bare JSON array or an envelope with the array under "data"
func decodeItems(r io.Reader) ([]cart.RawItem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '{' {
		var envelope struct {
			Data []cart.RawItem `json:"data"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, err
		}
		return envelope.Data, nil
	}

	var items []cart.RawItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}
