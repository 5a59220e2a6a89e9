package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPClient lets tests substitute the outbound transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a thin JSON client pinned to one upstream base URL.
type Client struct {
	base string
	http HTTPClient
}

func NewClient(base string, httpClient HTTPClient) *Client {
	return &Client{base: base, http: httpClient}
}

func (c *Client) BaseURL() string { return c.base }

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	return payload, resp.StatusCode, nil
}

// GetJSON issues a GET and returns the raw body with the upstream status.
func (c *Client) GetJSON(ctx context.Context, path string) ([]byte, int, error) {
	return c.do(ctx, http.MethodGet, path, nil, "application/json")
}

// PostJSON issues a POST with a JSON-encoded body.
func (c *Client) PostJSON(ctx context.Context, path string, body interface{}) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}
	return c.do(ctx, http.MethodPost, path, reader, "application/json")
}

// Post issues a bodyless POST (status-change style endpoints).
func (c *Client) Post(ctx context.Context, path string) ([]byte, int, error) {
	return c.do(ctx, http.MethodPost, path, nil, "")
}

// DecodeInto unmarshals a payload, tolerating an optional {data: ...}
// envelope around the expected shape.
func DecodeInto(payload []byte, v interface{}) error {
	if err := json.Unmarshal(payload, v); err == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return err
	}
	return json.Unmarshal(envelope.Data, v)
}

// IsOK reports whether an upstream status code is a success.
func IsOK(status int) bool { return status >= 200 && status < 300 }
