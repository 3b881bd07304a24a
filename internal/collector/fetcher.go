package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher retrieves the raw bytes of one CSV source.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
	Name() string
}

// FileFetcher reads sources from the local filesystem.
type FileFetcher struct {
	BaseDir string
}

func (f *FileFetcher) Name() string { return "file" }

func (f *FileFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := location
	if !filepath.IsAbs(path) && f.BaseDir != "" {
		path = filepath.Join(f.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// RoutingFetcher sends http(s) locations to HTTP and everything else to File.
type RoutingFetcher struct {
	HTTP Fetcher
	File Fetcher
}

func (f *RoutingFetcher) Name() string { return "routing" }

func (f *RoutingFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return f.HTTP.Fetch(ctx, location)
	}
	return f.File.Fetch(ctx, location)
}
