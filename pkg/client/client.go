package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/heysubinoy/pyazkv/pkg/kv"
)

// Client is an HTTP client for a pyazkv server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the server at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Get fetches key. Returns kv.ErrNotFound on 404.
func (c *Client) Get(ctx context.Context, key string) (kv.KeyValue, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get/"+url.PathEscape(key), nil)
	if err != nil {
		return kv.KeyValue{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return kv.KeyValue{}, fmt.Errorf("get %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return kv.KeyValue{}, statusError(resp)
	}

	var pair kv.KeyValue
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return kv.KeyValue{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return pair, nil
}

// Set stores key=value on the server.
func (c *Client) Set(ctx context.Context, key, value string) error {
	body, err := json.Marshal(kv.KeyValue{Key: key, Value: value})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/post", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(msg))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return kv.ErrNotFound
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", kv.ErrMalformedInput, detail)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", kv.ErrStoreUnavailable, detail)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail)
	}
}
