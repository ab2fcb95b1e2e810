package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/unique3900/devtul/internal/database/models"
)

// UptimeChecker verifies the site answers and how fast. PerformanceChecker
// shares the same probe but grades latency and payload instead.
type UptimeChecker struct {
	logger    *slog.Logger
	client    *http.Client
	userAgent string
}

func NewUptimeChecker(logger *slog.Logger, timeout time.Duration, userAgent string) *UptimeChecker {
	return &UptimeChecker{
		logger:    logger,
		client:    httpClient(timeout),
		userAgent: userAgent,
	}
}

func (c *UptimeChecker) Type() models.ScanType {
	return models.ScanTypeUptime
}

func (c *UptimeChecker) Check(ctx context.Context, target string) ([]Finding, error) {
	start := time.Now()
	resp, _, err := fetch(ctx, c.client, c.userAgent, target)
	elapsed := time.Since(start)

	if err != nil {
		return []Finding{{
			URL:      target,
			Message:  "Site is unreachable",
			Help:     "The site did not answer within the probe timeout.",
			Severity: models.SeverityCritical,
			Tags:     []string{"availability"},
			Category: "uptime",
			Details:  map[string]interface{}{"error": err.Error()},
		}}, nil
	}

	var findings []Finding

	if resp.StatusCode >= 500 {
		findings = append(findings, Finding{
			URL:      target,
			Message:  fmt.Sprintf("Site returned HTTP %d", resp.StatusCode),
			Help:     "The server answered with an error status.",
			Severity: models.SeverityCritical,
			Tags:     []string{"availability"},
			Category: "uptime",
			Details:  map[string]interface{}{"status": resp.StatusCode, "latency_ms": elapsed.Milliseconds()},
		})
	} else if resp.StatusCode >= 400 {
		findings = append(findings, Finding{
			URL:      target,
			Message:  fmt.Sprintf("Site returned HTTP %d", resp.StatusCode),
			Help:     "The monitored URL answers with a client error; check the path and any auth in front of it.",
			Severity: models.SeverityHigh,
			Tags:     []string{"availability"},
			Category: "uptime",
			Details:  map[string]interface{}{"status": resp.StatusCode},
		})
	}

	if elapsed > 3*time.Second {
		findings = append(findings, Finding{
			URL:      target,
			Message:  fmt.Sprintf("Site responded in %s", elapsed.Round(time.Millisecond)),
			Help:     "Responses slower than 3s read as downtime to most visitors.",
			Severity: models.SeverityMedium,
			Tags:     []string{"availability"},
			Category: "uptime",
			Details:  map[string]interface{}{"latency_ms": elapsed.Milliseconds()},
		})
	}

	c.logger.Debug("uptime check complete", "target", target, "status", resp.StatusCode, "latency", elapsed)
	return findings, nil
}

// PerformanceChecker grades response time, payload size and compression.
type PerformanceChecker struct {
	logger    *slog.Logger
	client    *http.Client
	userAgent string
}

func NewPerformanceChecker(logger *slog.Logger, timeout time.Duration, userAgent string) *PerformanceChecker {
	return &PerformanceChecker{
		logger:    logger,
		client:    httpClient(timeout),
		userAgent: userAgent,
	}
}

func (c *PerformanceChecker) Type() models.ScanType {
	return models.ScanTypePerformance
}

func (c *PerformanceChecker) Check(ctx context.Context, target string) ([]Finding, error) {
	start := time.Now()
	resp, body, err := fetch(ctx, c.client, c.userAgent, target)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	var findings []Finding

	if elapsed > 1500*time.Millisecond {
		findings = append(findings, Finding{
			URL:      target,
			Message:  fmt.Sprintf("Slow response: %s to first full body", elapsed.Round(time.Millisecond)),
			Help:     "Aim for a full document response under 1.5s; cache or trim server work.",
			Severity: models.SeverityMedium,
			Tags:     []string{"web-vitals"},
			Category: "latency",
			Details:  map[string]interface{}{"latency_ms": elapsed.Milliseconds()},
		})
	}

	if len(body) > 2<<20 {
		findings = append(findings, Finding{
			URL:      target,
			Message:  fmt.Sprintf("Document weighs %d KB", len(body)/1024),
			Help:     "Documents over 2MB are slow on mobile connections; split or compress the page.",
			Severity: models.SeverityLow,
			Tags:     []string{"web-vitals"},
			Category: "payload",
			Details:  map[string]interface{}{"bytes": len(body)},
		})
	}

	encoding := resp.Header.Get("Content-Encoding")
	if encoding == "" && strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") && len(body) > 16<<10 {
		findings = append(findings, Finding{
			URL:      target,
			Message:  "HTML served without compression",
			Help:     "Enable gzip or brotli for text responses.",
			Severity: models.SeverityLow,
			Tags:     []string{"web-vitals"},
			Category: "payload",
		})
	}

	c.logger.Debug("performance check complete", "target", target, "latency", elapsed, "findings", len(findings))
	return findings, nil
}
