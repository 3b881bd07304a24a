package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPFetcher downloads sources over HTTP.
type HTTPFetcher struct {
	Client  *http.Client
	BaseURL string // joined with relative locations
	APIKey  string // sent as a bearer token when set
}

// NewHTTPFetcher creates a fetcher with an optional proxy.
func NewHTTPFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

func (f *HTTPFetcher) resolve(location string) string {
	if strings.Contains(location, "://") || f.BaseURL == "" {
		return location
	}
	return f.BaseURL + "/" + strings.TrimLeft(strings.TrimPrefix(location, "./"), "/")
}

func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	u := f.resolve(location)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", u, resp.StatusCode)
	}
	return body, nil
}
