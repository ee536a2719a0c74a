// Package pcs scrapes the handful of ProCyclingStats pages the pipeline needs:
// race startlists, the individual ranking and a rider's points per season.
package pcs

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout   = 20 * time.Second

	// rankingPageSize is the number of rows PCS renders per ranking page.
	rankingPageSize = 100
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	MinInterval  time.Duration // minimum spacing between requests, 0 = unlimited
	RankingPages int
}

// Client fetches and parses PCS pages.
type Client struct {
	http         *resty.Client
	rankingPages int

	// Now decides which season counts as current.
	Now func() time.Time
}

// NewClient creates a new PCS client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = rider.DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RankingPages <= 0 {
		opts.RankingPages = 1
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")

	httpClient := resty.New()
	httpClient.SetBaseURL(baseURL)
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetHeader("accept", "text/html,application/xhtml+xml")
	httpClient.SetTimeout(opts.Timeout)

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	rateLimiter := rate.NewLimiter(limit, 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	return &Client{
		http:         httpClient,
		rankingPages: opts.RankingPages,
		Now:          time.Now,
	}
}

func (c *Client) document(ctx context.Context, path string, query map[string]string) (*goquery.Document, error) {
	path = strings.TrimLeft(path, "/")

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	res, err := req.Get("/" + path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch %s: status %d", path, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
