package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Options configures a Fetcher.
type Options struct {
	// Delay is the minimum spacing between consecutive requests. Zero disables pacing.
	Delay     time.Duration
	Timeout   time.Duration
	UserAgent string
}

// Fetcher issues paced, sequential GET requests. Requests are never retried.
type Fetcher struct {
	client *resty.Client
}

func NewFetcher(opts Options) *Fetcher {
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	// one request per Delay, no bursts: every fetch waits for the previous slot
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &Fetcher{client: client}
}

func (f *Fetcher) GetHtml(ctx context.Context, url string) (*goquery.Document, error) {
	bodyBytes, err := f.GetHtmlBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func (f *Fetcher) GetHtmlBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to fetch HTML, status code: %d", resp.StatusCode())
	}
	return resp.Body(), nil
}
