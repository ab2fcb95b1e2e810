package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unique3900/devtul/internal/database/models"
)

func TestInternalSeverity(t *testing.T) {
	tests := []struct {
		display  string
		expected models.Severity
	}{
		{"critical", models.SeverityCritical},
		{"serious", models.SeverityHigh},
		{"moderate", models.SeverityMedium},
		{"minor", models.SeverityLow},
		{"info", models.SeverityInfo},
		// Case-insensitive on the canonical names
		{"Critical", models.SeverityCritical},
		{"SERIOUS", models.SeverityHigh},
		// Unknown values capitalise the first letter
		{"blocker", models.Severity("Blocker")},
		{"WEIRD", models.Severity("Weird")},
		{"", models.Severity("")},
	}

	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			assert.Equal(t, tt.expected, InternalSeverity(tt.display))
		})
	}
}

func TestDisplaySeverity(t *testing.T) {
	tests := []struct {
		internal models.Severity
		expected string
	}{
		{models.SeverityCritical, "critical"},
		{models.SeverityHigh, "serious"},
		{models.SeverityMedium, "moderate"},
		{models.SeverityLow, "minor"},
		{models.SeverityInfo, "info"},
		// Unknown values fall back to lowercase
		{models.Severity("Blocker"), "blocker"},
		{models.Severity(""), ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.internal), func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplaySeverity(tt.internal))
		})
	}
}

func TestSeverityRoundTrip(t *testing.T) {
	for display, internal := range displayToInternal {
		assert.Equal(t, display, DisplaySeverity(internal))
		assert.Equal(t, internal, InternalSeverity(display))
	}
}

func TestSeverityRank(t *testing.T) {
	assert.Equal(t, 1, SeverityRank(models.SeverityCritical))
	assert.Equal(t, 2, SeverityRank(models.SeverityHigh))
	assert.Equal(t, 3, SeverityRank(models.SeverityMedium))
	assert.Equal(t, 4, SeverityRank(models.SeverityLow))
	assert.Equal(t, 5, SeverityRank(models.SeverityInfo))
	assert.Equal(t, 6, SeverityRank(models.Severity("Blocker")))
}

func TestInternalScanType(t *testing.T) {
	tests := []struct {
		token    string
		expected models.ScanType
	}{
		{"security", models.ScanTypeSecurity},
		{"accessibility", models.ScanTypeAccessibility},
		{"wcag", models.ScanTypeAccessibility},
		{"seo", models.ScanTypeSEO},
		{"performance", models.ScanTypePerformance},
		{"uptime", models.ScanTypeUptime},
		{"ssl", models.ScanTypeSSLTLS},
		{"SEO", models.ScanTypeSEO},
		// Unknown tokens pass through so they match nothing
		{"bogus", models.ScanType("bogus")},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.expected, InternalScanType(tt.token))
		})
	}
}

func TestCategorySeverities(t *testing.T) {
	// The expansion table is kept as a lookup but the query path must not
	// consult it; this pins its contents so a future reinstatement is explicit.
	assert.Equal(t, []models.Severity{models.SeverityHigh, models.SeverityMedium}, CategorySeverities["headers"])
	assert.Equal(t, []models.Severity{models.SeverityCritical, models.SeverityHigh}, CategorySeverities["xss"])
	assert.Equal(t, []models.Severity{models.SeverityHigh, models.SeverityMedium}, CategorySeverities["csp"])
	assert.Equal(t, []models.Severity{models.SeverityCritical, models.SeverityHigh}, CategorySeverities["tls"])
}
