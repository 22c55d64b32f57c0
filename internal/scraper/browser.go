package scraper

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JustJay7/court-case-engine/internal/config"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// browserDiscoverer renders candidate endpoints in a headless browser so that
// script-set cookies end up in the session jar. Each discovery runs in its
// own incognito context.
type browserDiscoverer struct {
	browser *rod.Browser
	logger  *logger.Logger
}

func newBrowserDiscoverer(cfg *config.Config, logger *logger.Logger) (*browserDiscoverer, error) {
	l := launcher.New().
		Headless(cfg.HeadlessMode).
		Set("user-agent", cfg.UserAgent).
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation")

	if cfg.BrowserPath != "" {
		l = l.Bin(cfg.BrowserPath)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	logger.Info("Browser discovery enabled", "headless", cfg.HeadlessMode)
	return &browserDiscoverer{browser: browser, logger: logger}, nil
}

func (d *browserDiscoverer) Close() error {
	return d.browser.Close()
}

// Discover loads endpoint and returns the rendered page plus its cookies.
func (d *browserDiscoverer) Discover(ctx context.Context, endpoint string) (RawDocument, []*http.Cookie, error) {
	incognito, err := d.browser.Incognito()
	if err != nil {
		return RawDocument{}, nil, fmt.Errorf("failed to open browser context: %w", err)
	}
	defer incognito.Close()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return RawDocument{}, nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return RawDocument{}, nil, fmt.Errorf("failed to enable network events: %w", err)
	}
	statusCh := make(chan int, 1)
	waitStatus := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		status, ok := documentStatus(e, page.FrameID)
		if ok {
			statusCh <- status
		}
		return ok
	})
	go waitStatus()

	if err := page.Navigate(endpoint); err != nil {
		return RawDocument{}, nil, fmt.Errorf("failed to navigate: %w", err)
	}

	var status int
	select {
	case status = <-statusCh:
	case <-ctx.Done():
		return RawDocument{}, nil, fmt.Errorf("no document response from %s: %w", endpoint, ctx.Err())
	}
	if err := checkStatus(endpoint, status); err != nil {
		return RawDocument{}, nil, err
	}

	if err := page.WaitLoad(); err != nil {
		// the page might be partially loaded
		d.logger.Warn("Page load incomplete", "url", endpoint, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return RawDocument{}, nil, fmt.Errorf("failed to read page: %w", err)
	}

	finalURL := endpoint
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	netCookies, err := page.Cookies([]string{finalURL})
	if err != nil {
		d.logger.Warn("Failed to read browser cookies", "url", finalURL, "error", err)
	}
	cookies := make([]*http.Cookie, 0, len(netCookies))
	for _, c := range netCookies {
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}

	return RawDocument{URL: finalURL, StatusCode: status, Body: []byte(html)}, cookies, nil
}

// documentStatus picks the HTTP status of the top-level document out of the
// network responses a page receives. Subresources and iframes are ignored.
func documentStatus(e *proto.NetworkResponseReceived, frame proto.PageFrameID) (int, bool) {
	if e.Type != proto.NetworkResourceTypeDocument || e.Response == nil {
		return 0, false
	}
	if frame != "" && e.FrameID != "" && e.FrameID != frame {
		return 0, false
	}
	return e.Response.Status, true
}

func checkStatus(endpoint string, status int) error {
	if status < 200 || status > 299 {
		return fmt.Errorf("%s returned status %d", endpoint, status)
	}
	return nil
}
