package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/logging"
)

var ErrRemote = errors.New("serve: remote request failed")

// Client downloads runs from a remote server.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(base string, opts ...ClientOption) *Client {
	c := &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Runs(ctx context.Context) ([]checkpoint.Manifest, error) {
	var runs []checkpoint.Manifest
	if err := c.getJSON(ctx, "/runs", &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (c *Client) Manifest(ctx context.Context, id string) (*checkpoint.Manifest, error) {
	m := &checkpoint.Manifest{}
	if err := c.getJSON(ctx, "/runs/"+url.PathEscape(id), m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) File(ctx context.Context, id, name string) ([]byte, error) {
	body, err := c.get(ctx, "/runs/"+url.PathEscape(id)+"/files/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// Fetch copies every checkpoint of run id into dst. The manifest is
// written last, so a partially fetched run is not listed.
func (c *Client) Fetch(ctx context.Context, id string, dst checkpoint.Store) (*checkpoint.Manifest, error) {
	m, err := c.Manifest(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, name := range m.Files() {
		data, err := c.File(ctx, id, name)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
		if err := dst.Put(ctx, name, data); err != nil {
			return nil, err
		}
		c.logger.Info("fetched", "run", id, "file", name, "bytes", len(data))
	}
	// the local copy always lives in files
	m.Store = "file"
	if err := checkpoint.SaveManifest(ctx, dst, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: %s: %s", ErrRemote, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return resp.Body, nil
}
