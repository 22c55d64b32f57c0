package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JustJay7/court-case-engine/internal/config"
	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFormHTML = `<html><body>
<h2>Case Status Search</h2>
<form method="post">
	<input type="hidden" name="__VIEWSTATE" value="abc">
	<input type="hidden" name="case_type" value="">
	<input type="text" name="case_no">
</form>
</body></html>`

func newTestScraper(t *testing.T, endpoints ...string) *Scraper {
	t.Helper()
	cfg := &config.Config{
		CourtEndpoints:   endpoints,
		UserAgent:        "court-case-engine-test",
		DiscoveryTimeout: 2 * time.Second,
		SearchTimeout:    2 * time.Second,
	}
	s, err := NewScraper(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewScraperRequiresEndpoints(t *testing.T) {
	_, err := NewScraper(&config.Config{}, logger.NewNop())
	assert.Error(t, err)
}

func TestSearchAllEndpointsUnreachable(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "case search unavailable", http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	s := newTestScraper(t, closedURL, broken.URL)
	record, err := s.Search(context.Background(), testKey)
	assert.Nil(t, record)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestSearchSkipsNonSearchPages(t *testing.T) {
	var searched atomic.Int32

	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	landing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Welcome</body></html>"))
	}))
	defer landing.Close()

	court := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("case_no") == "" {
			_, _ = w.Write([]byte(searchFormHTML))
			return
		}
		searched.Add(1)
		assert.Equal(t, "W.P.(C)", r.URL.Query().Get("case_type"))
		assert.Equal(t, "2023", r.URL.Query().Get("case_year"))
		assert.Equal(t, "court-case-engine-test", r.UserAgent())
		_, _ = w.Write([]byte(caseDetailsHTML))
	}))
	defer court.Close()

	s := newTestScraper(t, notFound.URL, landing.URL, court.URL+"/dhcqrydisp_o.asp")
	record, err := s.Search(context.Background(), testKey)
	require.NoError(t, err)

	assert.Equal(t, int32(1), searched.Load())
	assert.Equal(t, model.ProvenanceLive, record.Provenance)
	assert.Equal(t, "15/03/2023", record.FilingDate)
	require.Len(t, record.Orders, 1)
	assert.Equal(t, court.URL+"/dhcorders/order_1234.pdf", record.Orders[0].DocumentRef)
}

func TestSearchFallsBackToFormPost(t *testing.T) {
	court := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Query().Get("case_no") == "":
			http.SetCookie(w, &http.Cookie{Name: "ASPSESSIONID", Value: "s1", Path: "/"})
			_, _ = w.Write([]byte(searchFormHTML))
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte("<p>Search results will appear here</p>"))
		case r.Method == http.MethodPost:
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "abc", r.PostForm.Get("__VIEWSTATE"))
			assert.Equal(t, "W.P.(C)", r.PostForm.Get("case_type"))
			assert.Equal(t, "1234", r.PostForm.Get("case_no"))
			assert.Equal(t, "Submit", r.PostForm.Get("submit"))

			cookie, err := r.Cookie("ASPSESSIONID")
			if assert.NoError(t, err) {
				assert.Equal(t, "s1", cookie.Value)
			}
			_, _ = w.Write([]byte(caseDetailsHTML))
		}
	}))
	defer court.Close()

	s := newTestScraper(t, court.URL)
	record, err := s.Search(context.Background(), testKey)
	require.NoError(t, err)
	assert.Len(t, record.Parties, 2)
}

func TestSearchPostFailures(t *testing.T) {
	tests := []struct {
		name       string
		getStatus  int
		getBody    string
		postStatus int
		postBody   string
		want       FailureKind
	}{
		{"both rejected", http.StatusInternalServerError, "error", http.StatusInternalServerError, "error", KindNetwork},
		{"get empty, post rejected", http.StatusOK, "<p>Search results will appear here</p>", http.StatusInternalServerError, "error", KindNoData},
		{"get says no case, post not allowed", http.StatusOK, "<p>No case found</p>", http.StatusMethodNotAllowed, "", KindNoRecord},
		{"get rejected, post says no record", http.StatusBadGateway, "", http.StatusOK, "<b>No Record Found</b>", KindNoRecord},
		{"post says no record", http.StatusOK, "<p>Search results will appear here</p>", http.StatusOK, "<b>No Record Found</b>", KindNoRecord},
		{"post blocked by captcha", http.StatusOK, "<p>Search results will appear here</p>", http.StatusOK, "<p>Please enter captcha</p>", KindCaptcha},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			court := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.Method == http.MethodGet && r.URL.Query().Get("case_no") == "":
					_, _ = w.Write([]byte(searchFormHTML))
				case r.Method == http.MethodGet:
					w.WriteHeader(tt.getStatus)
					_, _ = w.Write([]byte(tt.getBody))
				default:
					w.WriteHeader(tt.postStatus)
					_, _ = w.Write([]byte(tt.postBody))
				}
			}))
			defer court.Close()

			s := newTestScraper(t, court.URL)
			_, err := s.Search(context.Background(), testKey)
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestSearchDiscoveryTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(searchFormHTML))
	}))
	defer slow.Close()

	s := newTestScraper(t, slow.URL)
	s.opts.DiscoveryTimeout = 50 * time.Millisecond

	_, err := s.Search(context.Background(), testKey)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestScraper(t, "http://court.test")

	a, err := s.NewSession()
	require.NoError(t, err)
	defer a.Close()
	b, err := s.NewSession()
	require.NoError(t, err)
	defer b.Close()

	assert.NotSame(t, a.client, b.client)
	assert.NotSame(t, a.client.Jar, b.client.Jar)
	require.NotNil(t, a.client.Transport)
	assert.NotSame(t, http.DefaultTransport, a.client.Transport)
	assert.NotSame(t, a.client.Transport, b.client.Transport)
}

func TestHiddenFields(t *testing.T) {
	fields := hiddenFields([]byte(searchFormHTML))
	assert.Equal(t, map[string]string{"__VIEWSTATE": "abc", "case_type": ""}, fields)
}
