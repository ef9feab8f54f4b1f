// Package ingest holds the pieces every scraper shares: the HTTP fetcher,
// the subject a scrape is pointed at, and the output handed to the sinks.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/config"
	"github.com/fortuna/diamond/internal/metrics"
)

// PageCache stores fetched bodies keyed by URL. A Get error is a miss.
type PageCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Options configures a Fetcher for one source.
type Options struct {
	Source    string
	UserAgent string
	Policy    config.SourcePolicy
	// Cache is optional. Bodies are kept for CacheTTL.
	Cache    PageCache
	CacheTTL time.Duration
	Log      logrus.FieldLogger
}

// Fetcher performs GETs with a browser-like user agent, a per-request
// timeout and bounded exponential-backoff retries.
type Fetcher struct {
	client *resty.Client
	source string
	cache  PageCache
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewFetcher builds a Fetcher. Retries cover network errors, 429 and 5xx.
func NewFetcher(opts Options) *Fetcher {
	client := resty.New()
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	if opts.Policy.Timeout > 0 {
		client.SetTimeout(opts.Policy.Timeout)
	}
	client.
		SetRetryCount(opts.Policy.Retries).
		SetRetryWaitTime(opts.Policy.RetryWait).
		SetRetryMaxWaitTime(opts.Policy.RetryMaxWait).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := res.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &Fetcher{
		client: client,
		source: opts.Source,
		cache:  opts.Cache,
		ttl:    ttl,
		log:    log.WithField("source", opts.Source),
	}
}

// Source names the site this fetcher talks to.
func (f *Fetcher) Source() string {
	return f.source
}

// Get returns the body of url. Any non-2xx status after retries is a
// *FetchError carrying the status code.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		if body, err := f.cache.Get(ctx, cacheKey(url)); err == nil && body != "" {
			f.log.WithField("url", url).Debug("[fetch] cache hit")
			return []byte(body), nil
		}
	}

	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		metrics.Fetches.WithLabelValues(f.source, "error").Inc()
		return nil, &FetchError{URL: url, Err: err}
	}
	if !res.IsSuccess() {
		metrics.Fetches.WithLabelValues(f.source, "error").Inc()
		return nil, &FetchError{URL: url, StatusCode: res.StatusCode()}
	}
	metrics.Fetches.WithLabelValues(f.source, "ok").Inc()

	body := res.Body()
	if f.cache != nil {
		if err := f.cache.Set(ctx, cacheKey(url), string(body), f.ttl); err != nil {
			f.log.WithError(err).Debug("[fetch] ⚠️ cache write failed")
		}
	}
	return body, nil
}

// GetHTML fetches url and parses it.
func (f *Fetcher) GetHTML(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return doc, nil
}

// GetJSON fetches url and decodes the body into out.
func (f *Fetcher) GetJSON(ctx context.Context, url string, out interface{}) error {
	body, err := f.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

func cacheKey(url string) string {
	return "page:" + url
}
