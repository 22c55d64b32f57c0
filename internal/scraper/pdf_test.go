package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JustJay7/court-case-engine/internal/config"
	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentFetcher(t *testing.T) {
	var foreignHits atomic.Int32
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foreignHits.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("internal"))
	}))
	defer foreign.Close()
	foreignURL := foreign.URL

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/order.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4"))
		case "/moved.pdf":
			http.Redirect(w, r, foreignURL+"/order.pdf", http.StatusFound)
		case "/page.pdf":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>login</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := NewDocumentFetcher(&config.Config{
		DocumentTimeout: time.Second,
		UserAgent:       "ua",
		CourtBaseURL:    "https://delhihighcourt.nic.in",
		CourtEndpoints:  []string{srv.URL + "/dhcqrydisp_o.asp"},
	}, logger.NewNop())
	ctx := context.Background()

	doc, err := d.Fetch(ctx, srv.URL+"/order.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), doc.Body)

	_, err = d.Fetch(ctx, srv.URL+"/page.pdf")
	assert.ErrorIs(t, err, ErrNotADocument)

	_, err = d.Fetch(ctx, srv.URL+"/missing.pdf")
	assert.Error(t, err)

	_, err = d.Fetch(ctx, model.SyntheticRef(testKey, "registration"))
	assert.ErrorIs(t, err, ErrSyntheticDocument)

	_, err = d.Fetch(ctx, "/relative/order.pdf")
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = d.Fetch(ctx, foreign.URL+"/admin/order.pdf")
	assert.ErrorIs(t, err, ErrInvalidReference)
	_, err = d.Fetch(ctx, srv.URL+"/moved.pdf")
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Zero(t, foreignHits.Load())
}

func TestHostKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://DelhiHighCourt.nic.in/orders/1.pdf", "delhihighcourt.nic.in:443"},
		{"https://delhihighcourt.nic.in:443/x", "delhihighcourt.nic.in:443"},
		{"http://delhihighcourt.nic.in/x", "delhihighcourt.nic.in:80"},
		{"http://127.0.0.1:8081/x", "127.0.0.1:8081"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, hostKey(u), tt.raw)
	}
}
