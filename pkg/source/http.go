package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zyntel-ai/labops/pkg/analytics/records"
	"github.com/zyntel-ai/labops/pkg/gateway/httpclient"
)

const maxUpstreamBody = 64 << 20

// HTTPSource pulls a JSON array of flat objects from the backend API.
type HTTPSource struct {
	url        string
	client     *http.Client
	attempts   int
	retryDelay time.Duration
	token      string
}

type HTTPOption func(*HTTPSource)

func WithRetries(attempts int, delay time.Duration) HTTPOption {
	return func(h *HTTPSource) {
		if attempts > 0 {
			h.attempts = attempts
		}
		if delay > 0 {
			h.retryDelay = delay
		}
	}
}

func WithBearerToken(token string) HTTPOption {
	return func(h *HTTPSource) {
		h.token = token
	}
}

func NewHTTPSource(url string, client *http.Client, opts ...HTTPOption) *HTTPSource {
	if client == nil {
		client = httpclient.New(10 * time.Second)
	}
	h := &HTTPSource{url: url, client: client, attempts: 1, retryDelay: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTPSource) Describe() string {
	return h.url
}

func (h *HTTPSource) Load(ctx context.Context) ([]records.Record, error) {
	var rows []records.Record
	err := httpclient.Retry(ctx, h.attempts, h.retryDelay, func() error {
		got, err := h.fetch(ctx)
		if err != nil {
			if !httpclient.IsRetriable(err) {
				return &httpclient.Permanent{Err: err}
			}
			return err
		}
		rows = got
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", h.url, err)
	}
	return rows, nil
}

func (h *HTTPSource) fetch(ctx context.Context) ([]records.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &httpclient.StatusError{URL: h.url, Status: resp.StatusCode}
	}
	return decodeRows(io.LimitReader(resp.Body, maxUpstreamBody))
}

// decodeRows accepts a bare array or an object wrapping it under "data".
func decodeRows(r io.Reader) ([]records.Record, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	var rows []records.Record
	if err := json.Unmarshal(raw, &rows); err == nil {
		if rows == nil {
			rows = []records.Record{}
		}
		return rows, nil
	}
	var wrapped struct {
		Data []records.Record `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if wrapped.Data == nil {
		wrapped.Data = []records.Record{}
	}
	return wrapped.Data, nil
}
