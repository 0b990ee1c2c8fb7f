// Package remote implements postcrud.Host as a client of the HTTP API served
// by package api.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/postcrud/pkg/postcrud"
	"github.com/tendant/postcrud/pkg/postcrud/api"
)

const apiPrefix = "/api/v1"

// Host talks to a postcrud server
type Host struct {
	baseURL string
	token   string
	client  *http.Client
}

// Option configures a Host
type Option func(*Host)

// WithToken sends token as a bearer credential on every request
func WithToken(token string) Option {
	return func(h *Host) {
		h.token = token
	}
}

// WithHTTPClient replaces the default client (30s timeout)
func WithHTTPClient(client *http.Client) Option {
	return func(h *Host) {
		if client != nil {
			h.client = client
		}
	}
}

// New creates a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Host, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}

	h := &Host{
		baseURL: strings.TrimRight(u.String(), "/") + apiPrefix,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

var _ postcrud.Host = (*Host)(nil)

func (h *Host) InsertItem(ctx context.Context, payload postcrud.Payload) (int64, error) {
	var resp api.CreateItemResponse
	if err := h.do(ctx, http.MethodPost, "/items", payload, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (h *Host) FetchItem(ctx context.Context, id int64) (postcrud.Fields, error) {
	var fields postcrud.Fields
	if err := h.do(ctx, http.MethodGet, itemPath(id), nil, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (h *Host) UpdateItem(ctx context.Context, payload postcrud.Payload) error {
	id := payload.UpdateID()
	if id == 0 {
		return postcrud.Rejected("update payload has no ID")
	}
	return h.do(ctx, http.MethodPut, itemPath(id), payload, nil)
}

func (h *Host) DeleteItem(ctx context.Context, id int64, force bool) error {
	return h.do(ctx, http.MethodDelete, itemPath(id)+"?force="+strconv.FormatBool(force), nil, nil)
}

func (h *Host) GetMeta(ctx context.Context, id int64, key string) (postcrud.Value, error) {
	var resp api.MetaValue
	if err := h.do(ctx, http.MethodGet, metaPath(id, key), nil, &resp); err != nil {
		return postcrud.Value{}, err
	}
	return resp.Value, nil
}

func (h *Host) SetMeta(ctx context.Context, id int64, key string, value postcrud.Value) error {
	if key == "" {
		return postcrud.Rejected("meta key is required")
	}
	return h.do(ctx, http.MethodPut, metaPath(id, key), api.MetaValue{Value: value}, nil)
}

func itemPath(id int64) string {
	return "/items/" + strconv.FormatInt(id, 10)
}

func metaPath(id int64, key string) string {
	return itemPath(id) + "/meta/" + url.PathEscape(key)
}

// do sends body as JSON and decodes a successful response into out. Error
// responses are mapped back onto the postcrud sentinels.
func (h *Host) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		// Non-JSON bodies (e.g. from auth middleware) leave errResp empty.
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return api.ErrorFor(resp.StatusCode, errResp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
