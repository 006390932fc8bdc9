package caching

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Cache provides a simple file-based page cache with a TTL.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates a new Cache instance.
// The cache path will be created if it doesn't exist. A zero ttl never expires entries.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		path: path,
		ttl:  ttl,
	}, nil
}

// key generates a SHA256 hash of the URL to use as a filename.
func (c *Cache) key(url string) string {
	return fmt.Sprintf("%x.html", sha256.Sum256([]byte(url)))
}

// Get returns the cached page and true if it is present and not expired.
func (c *Cache) Get(url string) ([]byte, bool) {
	filePath := filepath.Join(c.path, c.key(url))

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false // expired
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a page.
func (c *Cache) Set(url string, data []byte) error {
	filePath := filepath.Join(c.path, c.key(url))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Source fetches raw page bytes.
type Source interface {
	GetHtmlBytes(ctx context.Context, url string) ([]byte, error)
}

// Fetcher serves pages from the cache and falls back to Source on a miss.
// Hits never touch the network, so they are not paced.
type Fetcher struct {
	Source Source
	Cache  *Cache
}

func (f *Fetcher) GetHtml(ctx context.Context, url string) (*goquery.Document, error) {
	data, ok := f.Cache.Get(url)
	if !ok {
		var err error
		data, err = f.Source.GetHtmlBytes(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := f.Cache.Set(url, data); err != nil {
			return nil, err
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
