package scanner_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unique3900/devtul/internal/database/models"
	"github.com/unique3900/devtul/internal/scanner"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSecurityChecker_MissingHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	checker := scanner.NewSecurityChecker(testLogger(), 5*time.Second, "test-agent")
	assert.Equal(t, models.ScanTypeSecurity, checker.Type())

	findings, err := checker.Check(context.Background(), server.URL)
	require.NoError(t, err)

	// All five header rules fire on a bare response
	categories := map[string]int{}
	messages := map[string]bool{}
	for _, f := range findings {
		categories[f.Category]++
		messages[f.Message] = true
	}
	assert.True(t, messages["Missing Content-Security-Policy header"])
	assert.True(t, messages["Missing Strict-Transport-Security header"])
	assert.True(t, messages["Missing X-Frame-Options header"])
	assert.True(t, messages["Missing X-Content-Type-Options header"])
	assert.True(t, messages["Missing Referrer-Policy header"])
	assert.Equal(t, 1, categories["csp"])
}

func TestSecurityChecker_AllHeadersPresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'self'")
		h.Set("Strict-Transport-Security", "max-age=31536000")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	checker := scanner.NewSecurityChecker(testLogger(), 5*time.Second, "test-agent")
	findings, err := checker.Check(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestSecurityChecker_InsecureCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	checker := scanner.NewSecurityChecker(testLogger(), 5*time.Second, "test-agent")
	findings, err := checker.Check(context.Background(), server.URL)
	require.NoError(t, err)

	var cookieFindings []scanner.Finding
	for _, f := range findings {
		if f.Category == "cookies" {
			cookieFindings = append(cookieFindings, f)
		}
	}
	require.Len(t, cookieFindings, 1)
	assert.Equal(t, models.SeverityHigh, cookieFindings[0].Severity)
	assert.Contains(t, cookieFindings[0].Message, "session")
}

func TestSecurityChecker_ServerVersionLeak(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "nginx/1.24.0")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	checker := scanner.NewSecurityChecker(testLogger(), 5*time.Second, "test-agent")
	findings, err := checker.Check(context.Background(), server.URL)
	require.NoError(t, err)

	found := false
	for _, f := range findings {
		if f.Message == "Server header exposes software version" {
			found = true
			assert.Equal(t, models.SeverityInfo, f.Severity)
		}
	}
	assert.True(t, found)
}

func TestSecurityChecker_UnreachableTarget(t *testing.T) {
	checker := scanner.NewSecurityChecker(testLogger(), time.Second, "test-agent")
	_, err := checker.Check(context.Background(), "http://127.0.0.1:1")
	assert.Error(t, err)
}
