// Package browser runs headless Chrome for pages that only render their
// tables client-side (roster, injuries, schedule).
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// Config selects the Chrome binary and the per-page budget.
type Config struct {
	UserAgent string
	// ExecPath overrides chromedp's binary lookup.
	ExecPath string
	Timeout  time.Duration
	// Settle is how long to wait after the ready selector appears.
	Settle time.Duration
}

// Browser owns one Chrome process. Close must be called exactly once.
type Browser struct {
	cfg         Config
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// Open starts Chrome.
func Open(ctx context.Context, cfg Config) (*Browser, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Settle == 0 {
		cfg.Settle = time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// Run with no actions starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}
	return &Browser{cfg: cfg, allocCancel: allocCancel, ctx: browserCtx, cancel: cancel}, nil
}

// Close stops Chrome.
func (b *Browser) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}

// Launch starts Chrome with cfg. It makes Config a Launcher.
func (cfg Config) Launch(ctx context.Context) (Session, error) {
	b, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// With launches a browser, hands it to fn and always closes it, including
// when fn fails or panics.
func With(ctx context.Context, l Launcher, fn func(Renderer) error) error {
	b, err := l.Launch(ctx)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

// RenderHTML navigates to url in a new tab, waits for ready to be visible
// and returns the rendered document.
func (b *Browser) RenderHTML(ctx context.Context, url, ready string) (*goquery.Document, error) {
	if ready == "" {
		ready = "body"
	}
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	defer cancel()
	tabCtx, cancel = context.WithTimeout(tabCtx, b.cfg.Timeout)
	defer cancel()

	// Follow the caller's cancellation as well as the tab timeout.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(ready, chromedp.ByQuery),
		chromedp.Sleep(b.cfg.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", url, err)
	}
	if html == "" {
		return nil, fmt.Errorf("rendering %s: empty document", url)
	}
	return ParseHTML(html)
}

// ParseHTML converts raw HTML to a goquery Document.
func ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Renderer is the part of Browser the scrapers depend on.
type Renderer interface {
	RenderHTML(ctx context.Context, url, ready string) (*goquery.Document, error)
}

// Session is one running browser.
type Session interface {
	Renderer
	Close()
}

// Launcher starts a browser for one scrape.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}
