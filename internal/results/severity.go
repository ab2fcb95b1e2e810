package results

import (
	"strings"

	"github.com/unique3900/devtul/internal/database/models"
)

// The API speaks the axe-style lowercase vocabulary (critical, serious,
// moderate, minor, info) while the database stores the internal enum
// (Critical, High, Medium, Low, Info). The two tables below are the single
// source of truth for that translation and must stay exact inverses of each
// other for the five canonical levels.

var displayToInternal = map[string]models.Severity{
	"critical": models.SeverityCritical,
	"serious":  models.SeverityHigh,
	"moderate": models.SeverityMedium,
	"minor":    models.SeverityLow,
	"info":     models.SeverityInfo,
}

var internalToDisplay = map[models.Severity]string{
	models.SeverityCritical: "critical",
	models.SeverityHigh:     "serious",
	models.SeverityMedium:   "moderate",
	models.SeverityLow:      "minor",
	models.SeverityInfo:     "info",
}

// InternalSeverity translates a display severity to its internal enum value.
// Unknown values fall back to capitalise-first-letter.
func InternalSeverity(display string) models.Severity {
	if s, ok := displayToInternal[strings.ToLower(display)]; ok {
		return s
	}
	if display == "" {
		return models.Severity("")
	}
	return models.Severity(strings.ToUpper(display[:1]) + strings.ToLower(display[1:]))
}

// DisplaySeverity translates an internal severity to its display name.
// Unknown values fall back to lowercase.
func DisplaySeverity(internal models.Severity) string {
	if d, ok := internalToDisplay[internal]; ok {
		return d
	}
	return strings.ToLower(string(internal))
}

// SeverityRank is the fixed sort order used for severity sorting. Lower rank
// means more urgent. This is a deliberate total order; neither Postgres nor
// SQLite sorts the enum text this way natively.
func SeverityRank(s models.Severity) int {
	switch s {
	case models.SeverityCritical:
		return 1
	case models.SeverityHigh:
		return 2
	case models.SeverityMedium:
		return 3
	case models.SeverityLow:
		return 4
	case models.SeverityInfo:
		return 5
	default:
		return 6
	}
}

// severityRankExpr is SeverityRank expressed as SQL, applied as an explicit
// ORDER BY so the store's native collation never leaks into severity sorting.
const severityRankExpr = "CASE scan_results.severity " +
	"WHEN 'Critical' THEN 1 " +
	"WHEN 'High' THEN 2 " +
	"WHEN 'Medium' THEN 3 " +
	"WHEN 'Low' THEN 4 " +
	"WHEN 'Info' THEN 5 " +
	"ELSE 6 END"

var scanTypeTokens = map[string]models.ScanType{
	"security":      models.ScanTypeSecurity,
	"accessibility": models.ScanTypeAccessibility,
	"wcag":          models.ScanTypeAccessibility,
	"seo":           models.ScanTypeSEO,
	"performance":   models.ScanTypePerformance,
	"uptime":        models.ScanTypeUptime,
	"ssl":           models.ScanTypeSSLTLS,
}

// InternalScanType maps a UI scan-type token to the canonical internal name.
// Unrecognised tokens are passed through unchanged so a filter on a bogus
// token matches nothing rather than everything.
func InternalScanType(token string) models.ScanType {
	if t, ok := scanTypeTokens[strings.ToLower(token)]; ok {
		return t
	}
	return models.ScanType(token)
}

// CategorySeverities is the historical category-to-severity expansion table.
// An earlier variant of the results query expanded categoryFilters through
// this table into an implicit severity filter that overwrote any explicit
// severityFilters. The current query matches the stored category column
// directly and never consults this table; it is kept as an explicit lookup so
// the old semantic can be reinstated deliberately rather than re-derived from
// control flow. See DESIGN.md.
var CategorySeverities = map[string][]models.Severity{
	"headers": {models.SeverityHigh, models.SeverityMedium},
	"xss":     {models.SeverityCritical, models.SeverityHigh},
	"csp":     {models.SeverityHigh, models.SeverityMedium},
	"tls":     {models.SeverityCritical, models.SeverityHigh},
}
