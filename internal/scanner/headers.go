package scanner

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/unique3900/devtul/internal/database/models"
)

// SecurityChecker inspects response headers and cookies for common
// misconfigurations.
type SecurityChecker struct {
	logger    *slog.Logger
	client    *http.Client
	userAgent string
}

func NewSecurityChecker(logger *slog.Logger, timeout time.Duration, userAgent string) *SecurityChecker {
	return &SecurityChecker{
		logger:    logger,
		client:    httpClient(timeout),
		userAgent: userAgent,
	}
}

func (c *SecurityChecker) Type() models.ScanType {
	return models.ScanTypeSecurity
}

type headerRule struct {
	header   string
	severity models.Severity
	category string
	message  string
	help     string
}

var headerRules = []headerRule{
	{
		header:   "Content-Security-Policy",
		severity: models.SeverityHigh,
		category: "csp",
		message:  "Missing Content-Security-Policy header",
		help:     "Define a Content-Security-Policy to restrict where scripts, styles and frames may load from.",
	},
	{
		header:   "Strict-Transport-Security",
		severity: models.SeverityHigh,
		category: "headers",
		message:  "Missing Strict-Transport-Security header",
		help:     "Send Strict-Transport-Security so browsers refuse to downgrade to plain HTTP.",
	},
	{
		header:   "X-Frame-Options",
		severity: models.SeverityMedium,
		category: "headers",
		message:  "Missing X-Frame-Options header",
		help:     "Set X-Frame-Options (or frame-ancestors in CSP) to prevent clickjacking.",
	},
	{
		header:   "X-Content-Type-Options",
		severity: models.SeverityMedium,
		category: "headers",
		message:  "Missing X-Content-Type-Options header",
		help:     "Set X-Content-Type-Options: nosniff to stop MIME-type sniffing.",
	},
	{
		header:   "Referrer-Policy",
		severity: models.SeverityLow,
		category: "headers",
		message:  "Missing Referrer-Policy header",
		help:     "Set a Referrer-Policy to limit what URL data leaks to third parties.",
	},
}

func (c *SecurityChecker) Check(ctx context.Context, target string) ([]Finding, error) {
	resp, _, err := fetch(ctx, c.client, c.userAgent, target)
	if err != nil {
		return nil, err
	}

	var findings []Finding

	for _, rule := range headerRules {
		if resp.Header.Get(rule.header) != "" {
			continue
		}
		findings = append(findings, Finding{
			URL:      target,
			Message:  rule.message,
			Help:     rule.help,
			Severity: rule.severity,
			Impact:   "Response header missing",
			Tags:     []string{"owasp-secure-headers"},
			Category: rule.category,
			Details:  map[string]interface{}{"header": rule.header},
		})
	}

	if server := resp.Header.Get("Server"); server != "" && strings.ContainsAny(server, "0123456789") {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Server header exposes software version",
			Help:     "Strip version details from the Server header to reduce fingerprinting.",
			Severity: models.SeverityInfo,
			Tags:     []string{"owasp-secure-headers"},
			Category: "headers",
			Details:  map[string]interface{}{"server": server},
		})
	}

	for _, cookie := range resp.Cookies() {
		if !cookie.Secure || !cookie.HttpOnly {
			findings = append(findings, Finding{
				URL:      target,
				Message:  "Cookie " + cookie.Name + " set without Secure and HttpOnly flags",
				Help:     "Mark session cookies Secure and HttpOnly so they cannot leak over HTTP or to scripts.",
				Severity: models.SeverityHigh,
				Tags:     []string{"owasp-session"},
				Category: "cookies",
				Details:  map[string]interface{}{"cookie": cookie.Name},
			})
		}
	}

	c.logger.Debug("security check complete", "target", target, "findings", len(findings))
	return findings, nil
}
