package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unique3900/devtul/internal/database/models"
	"gorm.io/gorm"
)

// ErrQueryFailed wraps any store failure. Callers report it as a generic
// fetch failure; driver error text never reaches the API.
var ErrQueryFailed = errors.New("failed to fetch results")

// Service answers filtered, sorted, paginated result queries with aggregate
// severity counts. It is stateless and read-only apart from Resolve.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// apply builds the filter predicate. Every caller-visible filter narrows the
// set; the org scope is non-negotiable and always joined through the owning
// scan.
func (s *Service) apply(ctx context.Context, orgID uuid.UUID, q Query) *gorm.DB {
	tx := s.db.WithContext(ctx).
		Model(&models.ScanResult{}).
		Joins("JOIN scans ON scans.id = scan_results.scan_id").
		Where("scans.organization_id = ?", orgID)

	// scanId takes precedence over projectId
	if q.ScanID != nil {
		tx = tx.Where("scan_results.scan_id = ?", *q.ScanID)
	} else if q.ProjectID != nil {
		tx = tx.Where("scans.project_id = ?", *q.ProjectID)
	}

	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where(
			"LOWER(scan_results.message) LIKE ? OR LOWER(scan_results.url) LIKE ? OR LOWER(scan_results.element) LIKE ? OR LOWER(scan_results.help) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	if len(q.SeverityFilters) > 0 {
		severities := make([]models.Severity, 0, len(q.SeverityFilters))
		for _, s := range q.SeverityFilters {
			severities = append(severities, InternalSeverity(s))
		}
		tx = tx.Where("scan_results.severity IN ?", severities)
	}

	if len(q.ComplianceFilters) > 0 {
		// Tags are stored as a JSON array string; a result matches when it
		// carries at least one of the requested tags.
		cond := s.db.Where("scan_results.tags LIKE ?", tagPattern(q.ComplianceFilters[0]))
		for _, tag := range q.ComplianceFilters[1:] {
			cond = cond.Or("scan_results.tags LIKE ?", tagPattern(tag))
		}
		tx = tx.Where(cond)
	}

	if len(q.ScanTypeFilters) > 0 {
		types := make([]models.ScanType, 0, len(q.ScanTypeFilters))
		for _, t := range q.ScanTypeFilters {
			types = append(types, InternalScanType(t))
		}
		tx = tx.Where("scan_results.scan_type IN ?", types)
	}

	if len(q.CategoryFilters) > 0 {
		// Direct match on the stored category column. The historical
		// severity expansion via CategorySeverities is intentionally not
		// applied here.
		tx = tx.Where("scan_results.category IN ?", q.CategoryFilters)
	}

	if !q.IncludeResolved {
		tx = tx.Where("scan_results.is_resolved = ?", false)
	}

	return tx
}

func tagPattern(tag string) string {
	return `%"` + tag + `"%`
}

func orderExpr(sortBy string) string {
	switch sortBy {
	case "url":
		return "scan_results.url ASC"
	case "date":
		return "scan_results.created_at DESC"
	case "severity":
		return severityRankExpr
	default:
		return "scan_results.created_at DESC"
	}
}

// Query executes the request: count, summary over the full filtered set, then
// the sorted page. The summary is never derived from the returned page.
func (s *Service) Query(ctx context.Context, orgID uuid.UUID, q Query) (*Response, error) {
	q.Normalize()

	var total int64
	if err := s.apply(ctx, orgID, q).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%w: counting: %v", ErrQueryFailed, err)
	}

	summary, err := s.summarize(ctx, orgID, q, total)
	if err != nil {
		return nil, err
	}

	var rows []models.ScanResult
	if err := s.apply(ctx, orgID, q).
		Preload("Scan").
		Order(orderExpr(q.SortBy)).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: listing: %v", ErrQueryFailed, err)
	}

	views := make([]ResultView, len(rows))
	for i := range rows {
		views[i] = toView(&rows[i])
	}

	totalPages := int(total) / q.PageSize
	if int(total)%q.PageSize > 0 {
		totalPages++
	}

	return &Response{
		Results:      views,
		Summary:      summary,
		TotalPages:   totalPages,
		TotalResults: total,
	}, nil
}

func (s *Service) summarize(ctx context.Context, orgID uuid.UUID, q Query, total int64) (Summary, error) {
	var counts []struct {
		Severity models.Severity
		Count    int64
	}
	if err := s.apply(ctx, orgID, q).
		Select("scan_results.severity AS severity, COUNT(*) AS count").
		Group("scan_results.severity").
		Scan(&counts).Error; err != nil {
		return Summary{}, fmt.Errorf("%w: summarizing: %v", ErrQueryFailed, err)
	}

	summary := Summary{Total: total}
	for _, c := range counts {
		switch c.Severity {
		case models.SeverityCritical:
			summary.Critical = c.Count
		case models.SeverityHigh:
			summary.Serious = c.Count
		case models.SeverityMedium:
			summary.Moderate = c.Count
		case models.SeverityLow:
			summary.Minor = c.Count
		case models.SeverityInfo:
			summary.Info = c.Count
		}
	}
	return summary, nil
}

func toView(r *models.ScanResult) ResultView {
	view := ResultView{
		ID:            r.ID.String(),
		ScanID:        r.ScanID.String(),
		URL:           r.URL,
		Message:       r.Message,
		Help:          r.Help,
		Element:       r.Element,
		ElementPath:   r.ElementPath,
		Severity:      DisplaySeverity(r.Severity),
		Impact:        r.Impact,
		Tags:          r.Tags,
		ScanType:      "wcag",
		Category:      DisplaySeverity(r.Severity),
		IssueCategory: r.Category,
		IsResolved:    r.IsResolved,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.Scan != nil {
		view.ScanType = displayScanType(r.Scan.Type)
	}
	if r.Details != "" && json.Valid([]byte(r.Details)) {
		view.Details = json.RawMessage(r.Details)
	}
	return view
}

// Resolve toggles the is_resolved flag on a single result, scoped to the
// caller's organization.
func (s *Service) Resolve(ctx context.Context, orgID, resultID uuid.UUID, resolved bool) (*models.ScanResult, error) {
	var result models.ScanResult
	if err := s.db.WithContext(ctx).
		Joins("JOIN scans ON scans.id = scan_results.scan_id").
		Where("scan_results.id = ? AND scans.organization_id = ?", resultID, orgID).
		First(&result).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&result).Update("is_resolved", resolved).Error; err != nil {
		return nil, fmt.Errorf("%w: resolving: %v", ErrQueryFailed, err)
	}
	result.IsResolved = resolved
	return &result, nil
}
