// internal/figma/client_test.go
package figma

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitewizard/internal/common/config"
	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/common/logger"
)

const sampleFile = `{
  "name": "Guild Brand",
  "document": {
    "name": "Document",
    "type": "DOCUMENT",
    "children": [
      {
        "name": "Home",
        "type": "CANVAS",
        "children": [
          {"name": "color/primary", "type": "RECTANGLE",
           "fills": [{"type": "SOLID", "color": {"r": 1, "g": 0, "b": 0}}]},
          {"name": "color/primary", "type": "RECTANGLE",
           "fills": [{"type": "SOLID", "color": {"r": 0, "g": 1, "b": 0}}]},
          {"name": "font/body", "type": "TEXT", "style": {"fontFamily": "Inter"}},
          {"name": "spacing/card", "type": "FRAME", "itemSpacing": 16},
          {"name": "radius/button", "type": "RECTANGLE", "cornerRadius": 8}
        ]
      },
      {"name": "Shop", "type": "CANVAS"}
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.FigmaConfig{
		AccessToken: "figd_test",
		BaseURL:     srv.URL,
		Timeout:     2 * time.Second,
	}, logger.NewNoOpLogger())
}

func TestAnalyzeFileExtractsTokens(t *testing.T) {
	var gotToken string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Figma-Token")
		assert.Equal(t, "/v1/files/abc123", r.URL.Path)
		w.Write([]byte(sampleFile))
	})

	analysis, err := c.AnalyzeFile(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "figd_test", gotToken)
	assert.Equal(t, "Guild Brand", analysis.FileName)
	assert.Equal(t, []string{"Home", "Shop"}, analysis.Pages)
	// First layer with the name wins.
	assert.Equal(t, "#ff0000", analysis.DesignTokens.Colors["primary"])
	assert.Equal(t, "Inter", analysis.DesignTokens.Typography["body"])
	assert.Equal(t, "16px", analysis.DesignTokens.Spacing["card"])
	assert.Equal(t, "8px", analysis.DesignTokens.BorderRadius["button"])
}

func TestAnalyzeFileRateLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"retryAfter": 45, "planTier": "starter", "upgradeLink": "https://figma.com/upgrade"}`))
	})

	_, err := c.AnalyzeFile(context.Background(), "abc123")
	require.Error(t, err)

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	// Body value wins over the header.
	assert.Equal(t, 45, rle.RetryAfter)
	assert.Equal(t, "starter", rle.PlanTier)
	assert.Equal(t, "https://figma.com/upgrade", rle.UpgradeLink)
}

func TestAnalyzeFileRateLimitHeaderOnly(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.AnalyzeFile(context.Background(), "abc123")
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 30, rle.RetryAfter)
}

func TestAnalyzeFileAuthFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.AnalyzeFile(context.Background(), "abc123")
	require.Error(t, err)
	var werr *wizerrors.WizardError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, wizerrors.CategoryAuth, werr.Category)
}

func TestAnalyzeFileNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.AnalyzeFile(context.Background(), "missing")
	var werr *wizerrors.WizardError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, wizerrors.CategoryValidation, werr.Category)
}

func TestAnalyzeFileValidation(t *testing.T) {
	c := NewClient(config.FigmaConfig{}, logger.NewNoOpLogger())

	_, err := c.AnalyzeFile(context.Background(), "")
	var werr *wizerrors.WizardError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, wizerrors.CategoryValidation, werr.Category)
}
