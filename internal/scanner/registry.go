package scanner

import (
	"log/slog"

	"github.com/unique3900/devtul/internal/database/models"
	"github.com/unique3900/devtul/pkg/config"
)

// NewRegistry builds one checker per scan type from the shared scanner
// settings.
func NewRegistry(cfg *config.ScannerConfig, logger *slog.Logger) map[models.ScanType]Checker {
	timeout := cfg.Timeout()
	ua := cfg.UserAgent

	checkers := []Checker{
		NewSecurityChecker(logger, timeout, ua),
		NewTLSChecker(logger, timeout),
		NewSEOChecker(logger, timeout, ua),
		NewAccessibilityChecker(logger, timeout, ua),
		NewUptimeChecker(logger, timeout, ua),
		NewPerformanceChecker(logger, timeout, ua),
	}

	registry := make(map[models.ScanType]Checker, len(checkers))
	for _, c := range checkers {
		registry[c.Type()] = c
	}
	return registry
}
