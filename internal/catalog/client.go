// Package catalog is a client for the remote product catalog REST API (dummyjson-compatible).
package catalog

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidID       = errors.New("product id is required")
)

// StatusError is returned when the remote service answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog %s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrProductNotFound
	}
	return nil
}

// Client talks to the remote catalog. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger.Named("catalog") }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListProducts fetches the default first page of GET /products.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var page ProductPage
	if err := c.do(ctx, http.MethodGet, "/products", nil, &page); err != nil {
		return nil, err
	}
	return page.Products, nil
}

// GetProduct fetches GET /products/:id.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	path, err := productPath(id)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddProduct posts body to POST /products/add and returns the created record.
func (c *Client) AddProduct(ctx context.Context, body any) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodPost, "/products/add", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct replaces the record with PUT /products/:id.
func (c *Client) UpdateProduct(ctx context.Context, id string, body any) (*Product, error) {
	path, err := productPath(id)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := c.do(ctx, http.MethodPut, path, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct issues DELETE /products/:id.
func (c *Client) DeleteProduct(ctx context.Context, id string) (*Product, error) {
	path, err := productPath(id)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := c.do(ctx, http.MethodDelete, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func productPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidID
	}
	return "/products/" + url.PathEscape(id), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("catalog %s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
