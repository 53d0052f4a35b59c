package remoteregistry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var _ Fetcher = (*HTTPFetcher)(nil)

const (
	// maxBodySize caps a manifest response at 1 MiB.
	maxBodySize      = 1 << 20
	defaultUserAgent = "macrodex-remote-registry/1.0"
	defaultTimeout   = 30 * time.Second
)

// errCandidateMissing makes Fetch move on to the next candidate path.
var errCandidateMissing = errors.New("candidate missing")

// HTTPFetcher reads manifests from {baseURL}/{name}.yaml, falling back to
// {baseURL}/{name}.yml when the first answers 404.
type HTTPFetcher struct {
	base      *url.URL
	client    *http.Client
	authToken string
	header    http.Header
}

// HTTPOption configures HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client (30s timeout). Nil is ignored.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPFetcher) {
		if c != nil {
			h.client = c
		}
	}
}

// WithAuthToken sends "Authorization: Bearer <token>" on every request.
func WithAuthToken(token string) HTTPOption {
	return func(h *HTTPFetcher) {
		h.authToken = token
	}
}

// WithHeader adds a request header, e.g. a CDN key. Repeated keys accumulate.
func WithHeader(key, value string) HTTPOption {
	return func(h *HTTPFetcher) {
		h.header.Add(key, value)
	}
}

// NewHTTPFetcher creates an HTTPFetcher rooted at baseURL
// (e.g. https://cdn.example.com/macros). Only http and https are accepted.
func NewHTTPFetcher(baseURL string, opts ...HTTPOption) (*HTTPFetcher, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("remoteregistry: base URL must not be empty")
	}
	base, err := url.Parse(trimmed)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("remoteregistry: invalid base URL %q", baseURL)
	}
	h := &HTTPFetcher{
		base:   base,
		client: &http.Client{Timeout: defaultTimeout},
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Fetch returns the first candidate manifest that exists. A 404 on every
// candidate yields ErrNotFound; any other non-2xx stops with a *StatusError.
func (h *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	for _, rel := range CandidatePaths(name) {
		data, err := h.get(ctx, h.resolve(rel))
		if errors.Is(err, errCandidateMissing) {
			continue
		}
		return data, err
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// resolve joins the base URL with rel, escaping each path segment.
func (h *HTTPFetcher) resolve(rel string) string {
	segs := strings.Split(rel, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return h.base.String() + "/" + strings.Join(segs, "/")
}

func (h *HTTPFetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	for k, vs := range h.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/yaml, text/yaml;q=0.9, */*;q=0.1")
	if h.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.authToken)
	}

	resp, err := h.client.Do(req) // #nosec G704 -- host comes from config, path is an escaped validated name
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errCandidateMissing
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed,
			&StatusError{URL: target, StatusCode: resp.StatusCode, Status: resp.Status})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetchFailed, err)
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("%w: %s: body exceeds %d bytes", ErrFetchFailed, target, maxBodySize)
	}
	return data, nil
}
