package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// Session is the per-acquisition client state: one cookie jar, one search
// page. It must not be shared between acquisitions.
type Session struct {
	scraper *Scraper
	client  *http.Client
	logger  *logger.Logger
}

// searchPage is a discovered endpoint that serves the case search form.
type searchPage struct {
	doc    RawDocument
	hidden map[string]string
}

// NewSession creates an isolated session with an empty cookie jar.
func (s *Scraper) NewSession() (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Session{
		scraper: s,
		client: &http.Client{
			Jar:       jar,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		logger: s.logger,
	}, nil
}

// Close drops idle connections held by the session. Other sessions keep
// theirs.
func (sess *Session) Close() {
	sess.client.CloseIdleConnections()
}

// Search discovers a working endpoint, tries a parameterised GET and falls
// back to a form POST when the GET response yields no record.
func (sess *Session) Search(ctx context.Context, key model.QueryKey) (*model.CaseRecord, error) {
	page, err := sess.discover(ctx)
	if err != nil {
		return nil, err
	}
	params := searchParams(key)

	// getErr is a classification of a page the endpoint did serve. It outranks
	// a transport failure of the POST that follows.
	var getErr error
	getCtx, cancel := context.WithTimeout(ctx, sess.scraper.opts.SearchTimeout)
	doc, err := sess.get(getCtx, page.doc.URL, params)
	cancel()
	if err == nil {
		record, perr := sess.scraper.parser.Parse(doc, key)
		if perr == nil {
			sess.logger.Info("Case found via GET search", "url", doc.URL, "case", key.String())
			return record, nil
		}
		getErr = perr
		err = perr
	}
	sess.logger.Debug("GET search yielded no record, trying form POST", "url", page.doc.URL, "error", err)

	form := url.Values{}
	for name, value := range page.hidden {
		form.Set(name, value)
	}
	for name, values := range params {
		form[name] = values
	}

	postCtx, cancel := context.WithTimeout(ctx, sess.scraper.opts.SearchTimeout)
	defer cancel()
	doc, err = sess.post(postCtx, page.doc.URL, form)
	if err != nil {
		if getErr != nil {
			sess.logger.Debug("Form POST failed, keeping GET result", "url", page.doc.URL, "error", err)
			return nil, getErr
		}
		return nil, err
	}
	record, err := sess.scraper.parser.Parse(doc, key)
	if err != nil {
		return nil, err
	}
	sess.logger.Info("Case found via form POST", "url", doc.URL, "case", key.String())
	return record, nil
}

// discover walks the candidate endpoints in order and returns the first one
// that answers 2xx with something that looks like a case search page.
func (sess *Session) discover(ctx context.Context) (*searchPage, error) {
	var lastErr error
	for _, endpoint := range sess.scraper.opts.Endpoints {
		dctx, cancel := context.WithTimeout(ctx, sess.scraper.opts.DiscoveryTimeout)
		doc, err := sess.fetchCandidate(dctx, endpoint)
		cancel()
		if err != nil {
			sess.logger.Debug("Candidate endpoint failed", "url", endpoint, "error", err)
			lastErr = err
			continue
		}
		if !looksLikeSearchPage(doc.Body) {
			sess.logger.Debug("Candidate endpoint is not a search page", "url", endpoint)
			lastErr = fmt.Errorf("%s is not a case search page", endpoint)
			continue
		}

		sess.logger.Debug("Using search endpoint", "url", doc.URL)
		return &searchPage{doc: doc, hidden: hiddenFields(doc.Body)}, nil
	}
	return nil, networkError("court website not accessible, all endpoints failed", lastErr)
}

func (sess *Session) fetchCandidate(ctx context.Context, endpoint string) (RawDocument, error) {
	if sess.scraper.browser == nil {
		return sess.get(ctx, endpoint, nil)
	}

	doc, cookies, err := sess.scraper.browser.Discover(ctx, endpoint)
	if err != nil {
		return RawDocument{}, err
	}
	if u, perr := url.Parse(doc.URL); perr == nil {
		sess.client.Jar.SetCookies(u, cookies)
	}
	return doc, nil
}

func (sess *Session) get(ctx context.Context, rawURL string, params url.Values) (RawDocument, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return RawDocument{}, networkError("invalid endpoint "+rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for name, values := range params {
			q[name] = values
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return RawDocument{}, networkError("failed to build request", err)
	}
	return sess.do(req)
}

func (sess *Session) post(ctx context.Context, rawURL string, form url.Values) (RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return RawDocument{}, networkError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return sess.do(req)
}

func (sess *Session) do(req *http.Request) (RawDocument, error) {
	req.Header.Set("User-Agent", sess.scraper.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := sess.client.Do(req)
	if err != nil {
		return RawDocument{}, networkError(req.Method+" "+req.URL.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RawDocument{}, networkError(fmt.Sprintf("%s %s returned %s", req.Method, req.URL, resp.Status), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return RawDocument{}, networkError("failed to read response body", err)
	}
	return RawDocument{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode, Body: body}, nil
}

func searchParams(key model.QueryKey) url.Values {
	return url.Values{
		"case_type": {key.CaseType},
		"case_no":   {key.CaseNumber},
		"case_year": {key.FilingYear},
		"submit":    {"Submit"},
	}
}

func looksLikeSearchPage(body []byte) bool {
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "case") || strings.Contains(lower, "search")
}

func hiddenFields(body []byte) map[string]string {
	fields := make(map[string]string)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return fields
	}
	doc.Find("input[type='hidden']").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		value, _ := s.Attr("value")
		fields[name] = value
	})
	return fields
}
