package csv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Source is where period files live: a local directory or a static HTTP
// endpoint serving the same files.
type Source interface {
	// Exists reports whether name can be loaded.
	Exists(ctx context.Context, name string) (bool, error)
	// Open returns the content of name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource reads files from a directory.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource { return &DirSource{Dir: dir} }

func (d *DirSource) path(name string) string {
	return filepath.Join(d.Dir, filepath.Base(name))
}

func (d *DirSource) Exists(_ context.Context, name string) (bool, error) {
	fi, err := os.Stat(d.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

func (d *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(d.path(name))
}

// HTTPSource fetches files as <base>/<escaped name>.
type HTTPSource struct {
	base string
	c    *http.Client
}

// NewHTTPSource builds a source for baseURL, e.g. http://host:8080/data.
// A nil client gets a 30s timeout.
func NewHTTPSource(baseURL string, c *http.Client) *HTTPSource {
	if c == nil {
		c = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{base: strings.TrimRight(baseURL, "/"), c: c}
}

func (h *HTTPSource) url(name string) string {
	return h.base + "/" + url.PathEscape(name)
}

// Exists issues a HEAD request. HTML responses are treated as missing since
// SPA hosts answer unknown paths with their index page.
func (h *HTTPSource) Exists(ctx context.Context, name string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.url(name), nil)
	if err != nil {
		return false, err
	}
	resp, err := h.c.Do(req)
	if err != nil {
		return false, err
	}
	_ = resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("HEAD %s: %d", name, resp.StatusCode)
	}
	return !isHTML(resp.Header.Get("Content-Type")), nil
}

func (h *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url(name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %d %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/html"
}
