package scanner_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unique3900/devtul/internal/database/models"
	"github.com/unique3900/devtul/internal/scanner"
)

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSEOChecker(t *testing.T) {
	checker := scanner.NewSEOChecker(testLogger(), 5*time.Second, "test-agent")
	assert.Equal(t, models.ScanTypeSEO, checker.Type())

	t.Run("flags missing title description and h1", func(t *testing.T) {
		server := serveHTML(t, `<html><head></head><body><p>hello</p></body></html>`)

		findings, err := checker.Check(context.Background(), server.URL)
		require.NoError(t, err)

		messages := map[string]models.Severity{}
		for _, f := range findings {
			messages[f.Message] = f.Severity
		}
		assert.Equal(t, models.SeverityHigh, messages["Page has no title element"])
		assert.Equal(t, models.SeverityMedium, messages["Page has no meta description"])
		assert.Equal(t, models.SeverityMedium, messages["Page has no h1 heading"])
		assert.Equal(t, models.SeverityLow, messages["Page has no canonical link"])
	})

	t.Run("clean page", func(t *testing.T) {
		server := serveHTML(t, `<html><head>
			<title>Devtul</title>
			<meta name="description" content="Website testing">
			<link rel="canonical" href="https://example.com/">
		</head><body><h1>Devtul</h1></body></html>`)

		findings, err := checker.Check(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Empty(t, findings)
	})

	t.Run("flags noindex and duplicate h1", func(t *testing.T) {
		server := serveHTML(t, `<html><head>
			<title>Devtul</title>
			<meta name="robots" content="noindex, nofollow">
			<meta name="description" content="x">
			<link rel="canonical" href="https://example.com/">
		</head><body><h1>One</h1><h1>Two</h1></body></html>`)

		findings, err := checker.Check(context.Background(), server.URL)
		require.NoError(t, err)

		messages := map[string]bool{}
		for _, f := range findings {
			messages[f.Message] = true
		}
		assert.True(t, messages["Page is marked noindex"])
		assert.True(t, messages["Page has multiple h1 headings"])
	})
}

func TestAccessibilityChecker(t *testing.T) {
	checker := scanner.NewAccessibilityChecker(testLogger(), 5*time.Second, "test-agent")
	assert.Equal(t, models.ScanTypeAccessibility, checker.Type())

	t.Run("flags missing alt and lang", func(t *testing.T) {
		server := serveHTML(t, `<html><body>
			<img src="logo.png">
			<img src="decorated.png" alt="">
			<a href="/about"></a>
			<iframe src="https://example.com/widget"></iframe>
		</body></html>`)

		findings, err := checker.Check(context.Background(), server.URL)
		require.NoError(t, err)

		byMessage := map[string]scanner.Finding{}
		counts := map[string]int{}
		for _, f := range findings {
			byMessage[f.Message] = f
			counts[f.Message]++
		}

		// Only the first image lacks alt
		assert.Equal(t, 1, counts["Image has no alt attribute"])
		assert.Equal(t, models.SeverityHigh, byMessage["Image has no alt attribute"].Severity)
		assert.Contains(t, byMessage["Image has no alt attribute"].Tags, "wcag111")

		assert.Equal(t, 1, counts["Document has no lang attribute"])
		assert.Contains(t, byMessage["Document has no lang attribute"].Tags, "wcag311")

		assert.Equal(t, 1, counts["Link has no accessible text"])
		assert.Equal(t, 1, counts["Frame has no title attribute"])
	})

	t.Run("clean page", func(t *testing.T) {
		server := serveHTML(t, `<html lang="en"><body>
			<img src="logo.png" alt="Logo">
			<a href="/about">About us</a>
			<iframe src="https://example.com/widget" title="Widget"></iframe>
		</body></html>`)

		findings, err := checker.Check(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Empty(t, findings)
	})

	t.Run("flags autoplaying media", func(t *testing.T) {
		server := serveHTML(t, `<html lang="en"><body>
			<video src="promo.mp4" autoplay></video>
		</body></html>`)

		findings, err := checker.Check(context.Background(), server.URL)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		assert.Equal(t, "Media element autoplays", findings[0].Message)
		assert.Contains(t, findings[0].Tags, "wcag142")
	})
}

func TestUptimeChecker(t *testing.T) {
	checker := scanner.NewUptimeChecker(testLogger(), 5*time.Second, "test-agent")
	assert.Equal(t, models.ScanTypeUptime, checker.Type())

	t.Run("healthy site yields no findings", func(t *testing.T) {
		server := serveHTML(t, "<html></html>")

		findings, err := checker.Check(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Empty(t, findings)
	})

	t.Run("server error is critical", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		findings, err := checker.Check(context.Background(), server.URL)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		assert.Equal(t, models.SeverityCritical, findings[0].Severity)
		assert.Equal(t, "Site returned HTTP 500", findings[0].Message)
	})

	t.Run("client error is high", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		findings, err := checker.Check(context.Background(), server.URL)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		assert.Equal(t, models.SeverityHigh, findings[0].Severity)
	})

	t.Run("unreachable site reports a finding, not an error", func(t *testing.T) {
		findings, err := checker.Check(context.Background(), "http://127.0.0.1:1")
		require.NoError(t, err)
		require.Len(t, findings, 1)
		assert.Equal(t, models.SeverityCritical, findings[0].Severity)
		assert.Equal(t, "Site is unreachable", findings[0].Message)
	})
}
