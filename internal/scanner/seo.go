package scanner

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/unique3900/devtul/internal/database/models"
)

// SEOChecker runs structural checks on the page markup.
type SEOChecker struct {
	logger    *slog.Logger
	client    *http.Client
	userAgent string
}

func NewSEOChecker(logger *slog.Logger, timeout time.Duration, userAgent string) *SEOChecker {
	return &SEOChecker{
		logger:    logger,
		client:    httpClient(timeout),
		userAgent: userAgent,
	}
}

func (c *SEOChecker) Type() models.ScanType {
	return models.ScanTypeSEO
}

var (
	titleRegex     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaDescRegex  = regexp.MustCompile(`(?is)<meta[^>]+name=["']description["'][^>]*>`)
	h1Regex        = regexp.MustCompile(`(?is)<h1[\s>]`)
	canonicalRegex = regexp.MustCompile(`(?is)<link[^>]+rel=["']canonical["'][^>]*>`)
	noindexRegex   = regexp.MustCompile(`(?is)<meta[^>]+name=["']robots["'][^>]+noindex`)
)

func (c *SEOChecker) Check(ctx context.Context, target string) ([]Finding, error) {
	_, body, err := fetch(ctx, c.client, c.userAgent, target)
	if err != nil {
		return nil, err
	}
	html := string(body)

	var findings []Finding

	title := titleRegex.FindStringSubmatch(html)
	switch {
	case title == nil || strings.TrimSpace(title[1]) == "":
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Page has no title element",
			Help:     "Every page needs a unique, descriptive <title>; it is the primary ranking and click-through signal.",
			Severity: models.SeverityHigh,
			Tags:     []string{"seo-basics"},
			Category: "meta",
		})
	case len(strings.TrimSpace(title[1])) > 60:
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Page title is longer than 60 characters",
			Help:     "Long titles are truncated in search results; keep them under 60 characters.",
			Severity: models.SeverityLow,
			Element:  "<title>",
			Tags:     []string{"seo-basics"},
			Category: "meta",
		})
	}

	if !metaDescRegex.MatchString(html) {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Page has no meta description",
			Help:     "Add a meta description; search engines use it for the result snippet.",
			Severity: models.SeverityMedium,
			Tags:     []string{"seo-basics"},
			Category: "meta",
		})
	}

	h1Count := len(h1Regex.FindAllString(html, -1))
	if h1Count == 0 {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Page has no h1 heading",
			Help:     "Add a single h1 describing the page's main topic.",
			Severity: models.SeverityMedium,
			Tags:     []string{"seo-basics"},
			Category: "structure",
		})
	} else if h1Count > 1 {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Page has multiple h1 headings",
			Help:     "Use a single h1 per page; demote the rest to h2.",
			Severity: models.SeverityLow,
			Tags:     []string{"seo-basics"},
			Category: "structure",
		})
	}

	if !canonicalRegex.MatchString(html) {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Page has no canonical link",
			Help:     "Declare a canonical URL to avoid duplicate-content dilution.",
			Severity: models.SeverityLow,
			Tags:     []string{"seo-basics"},
			Category: "meta",
		})
	}

	if noindexRegex.MatchString(html) {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Page is marked noindex",
			Help:     "A robots noindex directive removes this page from search results; confirm it is intentional.",
			Severity: models.SeverityHigh,
			Tags:     []string{"seo-basics"},
			Category: "meta",
		})
	}

	c.logger.Debug("seo check complete", "target", target, "findings", len(findings))
	return findings, nil
}
