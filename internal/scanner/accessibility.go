package scanner

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/unique3900/devtul/internal/database/models"
)

// AccessibilityChecker runs markup-level WCAG checks. It is intentionally
// conservative: only patterns that are reliably detectable without a DOM are
// flagged.
type AccessibilityChecker struct {
	logger    *slog.Logger
	client    *http.Client
	userAgent string
}

func NewAccessibilityChecker(logger *slog.Logger, timeout time.Duration, userAgent string) *AccessibilityChecker {
	return &AccessibilityChecker{
		logger:    logger,
		client:    httpClient(timeout),
		userAgent: userAgent,
	}
}

func (c *AccessibilityChecker) Type() models.ScanType {
	return models.ScanTypeAccessibility
}

var (
	imgTagRegex     = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	altAttrRegex    = regexp.MustCompile(`(?is)\balt\s*=`)
	htmlLangRegex   = regexp.MustCompile(`(?is)<html\b[^>]*\blang\s*=`)
	emptyLinkRegex  = regexp.MustCompile(`(?is)<a\b[^>]*>\s*</a>`)
	iframeTagRegex  = regexp.MustCompile(`(?is)<iframe\b[^>]*>`)
	titleAttrRegex  = regexp.MustCompile(`(?is)\btitle\s*=`)
	autoplayRegex   = regexp.MustCompile(`(?is)<(video|audio)\b[^>]*\bautoplay\b[^>]*>`)
)

func (c *AccessibilityChecker) Check(ctx context.Context, target string) ([]Finding, error) {
	_, body, err := fetch(ctx, c.client, c.userAgent, target)
	if err != nil {
		return nil, err
	}
	html := string(body)

	var findings []Finding

	for _, img := range imgTagRegex.FindAllString(html, -1) {
		if !altAttrRegex.MatchString(img) {
			findings = append(findings, Finding{
				URL:      target,
				Message:  "Image has no alt attribute",
				Help:     "Give every informative image an alt text; decorative images need alt=\"\".",
				Element:  truncateElement(img),
				Severity: models.SeverityHigh,
				Impact:   "Screen readers announce nothing useful for this image",
				Tags:     []string{"wcag2a", "wcag111"},
				Category: "images",
			})
		}
	}

	if !htmlLangRegex.MatchString(html) {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Document has no lang attribute",
			Help:     "Declare the page language on the html element so assistive tech picks the right voice.",
			Element:  "<html>",
			Severity: models.SeverityHigh,
			Impact:   "Screen readers may read the page in the wrong language",
			Tags:     []string{"wcag2a", "wcag311"},
			Category: "document",
		})
	}

	for _, link := range emptyLinkRegex.FindAllString(html, -1) {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Link has no accessible text",
			Help:     "Links must contain text or an aria-label describing their destination.",
			Element:  truncateElement(link),
			Severity: models.SeverityMedium,
			Impact:   "Keyboard and screen-reader users cannot tell where this link goes",
			Tags:     []string{"wcag2a", "wcag244"},
			Category: "links",
		})
	}

	for _, frame := range iframeTagRegex.FindAllString(html, -1) {
		if !titleAttrRegex.MatchString(frame) {
			findings = append(findings, Finding{
				URL:      target,
				Message:  "Frame has no title attribute",
				Help:     "Give each iframe a title describing its content.",
				Element:  truncateElement(frame),
				Severity: models.SeverityMedium,
				Tags:     []string{"wcag2a", "wcag412"},
				Category: "frames",
			})
		}
	}

	if autoplayRegex.MatchString(html) {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "Media element autoplays",
			Help:     "Autoplaying audio interferes with screen readers; require a user gesture instead.",
			Severity: models.SeverityLow,
			Tags:     []string{"wcag2a", "wcag142"},
			Category: "media",
		})
	}

	c.logger.Debug("accessibility check complete", "target", target, "findings", len(findings))
	return findings, nil
}

func truncateElement(el string) string {
	if len(el) > 200 {
		return el[:200] + "..."
	}
	return el
}
