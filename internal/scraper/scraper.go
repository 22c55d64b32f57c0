package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/JustJay7/court-case-engine/internal/config"
	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/pkg/logger"
)

const maxBodyBytes = 5 << 20

// Options configure the source client.
type Options struct {
	Endpoints        []string
	UserAgent        string
	DiscoveryTimeout time.Duration
	SearchTimeout    time.Duration
}

// Scraper searches the court website. Every Search runs in its own Session,
// so cookie state never leaks between concurrent acquisitions.
type Scraper struct {
	opts    Options
	logger  *logger.Logger
	parser  *Parser
	browser *browserDiscoverer
}

// NewScraper creates a new scraper instance. With BrowserDiscovery enabled a
// headless browser is launched for endpoint discovery.
func NewScraper(cfg *config.Config, logger *logger.Logger) (*Scraper, error) {
	log := logger.With("component", "scraper")
	s := &Scraper{
		opts: Options{
			Endpoints:        cfg.CourtEndpoints,
			UserAgent:        cfg.UserAgent,
			DiscoveryTimeout: cfg.DiscoveryTimeout,
			SearchTimeout:    cfg.SearchTimeout,
		},
		logger: log,
		parser: NewParser(log),
	}
	if len(s.opts.Endpoints) == 0 {
		return nil, fmt.Errorf("no court endpoints configured")
	}
	if s.opts.DiscoveryTimeout <= 0 {
		s.opts.DiscoveryTimeout = 10 * time.Second
	}
	if s.opts.SearchTimeout <= 0 {
		s.opts.SearchTimeout = 15 * time.Second
	}

	if cfg.BrowserDiscovery {
		b, err := newBrowserDiscoverer(cfg, log)
		if err != nil {
			return nil, err
		}
		s.browser = b
	}
	return s, nil
}

// Close releases the browser when one was launched.
func (s *Scraper) Close() error {
	if s.browser == nil {
		return nil
	}
	return s.browser.Close()
}

// Search runs one live acquisition attempt for key.
func (s *Scraper) Search(ctx context.Context, key model.QueryKey) (*model.CaseRecord, error) {
	sess, err := s.NewSession()
	if err != nil {
		return nil, networkError("failed to create session", err)
	}
	defer sess.Close()

	return sess.Search(ctx, key)
}

// Parser exposes the extractor used by sessions.
func (s *Scraper) Parser() *Parser {
	return s.parser
}
