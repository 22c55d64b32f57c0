package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JustJay7/court-case-engine/internal/config"
	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/pkg/logger"
)

const maxDocumentBytes = 20 << 20

var (
	ErrSyntheticDocument = errors.New("synthetic document reference has no downloadable file")
	ErrNotADocument      = errors.New("response is not a PDF document")
	ErrInvalidReference  = errors.New("invalid document reference")
)

// Document is a downloaded order file.
type Document struct {
	ContentType string
	Body        []byte
}

// DocumentFetcher downloads order documents referenced by live records.
// Only hosts of the configured court endpoints are contacted.
type DocumentFetcher struct {
	logger    *logger.Logger
	client    *http.Client
	userAgent string
	hosts     map[string]bool
}

func NewDocumentFetcher(cfg *config.Config, logger *logger.Logger) *DocumentFetcher {
	timeout := cfg.DocumentTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	hosts := make(map[string]bool)
	for _, raw := range append([]string{cfg.CourtBaseURL}, cfg.CourtEndpoints...) {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			hosts[hostKey(u)] = true
		}
	}

	d := &DocumentFetcher{
		logger:    logger.With("component", "documents"),
		userAgent: cfg.UserAgent,
		hosts:     hosts,
	}
	d.client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("stopped after 5 redirects")
			}
			if !d.hosts[hostKey(req.URL)] {
				return fmt.Errorf("%w: redirect to %s", ErrInvalidReference, req.URL.Host)
			}
			return nil
		},
	}
	return d
}

// hostKey is the lowercased host with the scheme's default port made explicit.
func hostKey(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "80"
		if strings.EqualFold(u.Scheme, "https") {
			port = "443"
		}
	}
	return strings.ToLower(u.Hostname()) + ":" + port
}

// Fetch downloads ref. Only absolute http(s) references on a court host that
// return PDF content are served.
func (d *DocumentFetcher) Fetch(ctx context.Context, ref string) (*Document, error) {
	if model.IsSyntheticRef(ref) {
		return nil, ErrSyntheticDocument
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w %q", ErrInvalidReference, ref)
	}
	if !d.hosts[hostKey(u)] {
		d.logger.Warn("Refusing document outside court hosts", "host", u.Host)
		return nil, fmt.Errorf("%w: host %s is not a court endpoint", ErrInvalidReference, u.Host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrInvalidReference) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "pdf") {
		return nil, ErrNotADocument
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	d.logger.Info("Order document downloaded", "url", u.String(), "size", len(body))
	return &Document{ContentType: contentType, Body: body}, nil
}
