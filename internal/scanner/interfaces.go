package scanner

import (
	"context"

	"github.com/unique3900/devtul/internal/database/models"
)

// Finding is one raw check outcome before persistence. The worker maps
// findings onto ScanResult rows.
type Finding struct {
	URL         string
	Message     string
	Help        string
	Element     string
	ElementPath string
	Severity    models.Severity
	Impact      string
	Tags        []string
	Category    string
	Details     map[string]interface{}
}

// Checker runs one scan type against a target URL.
type Checker interface {
	Type() models.ScanType
	Check(ctx context.Context, target string) ([]Finding, error)
}
