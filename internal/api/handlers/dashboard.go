package handlers

import (
	"net/http"

	"github.com/unique3900/devtul/internal/api/dto"
	"github.com/unique3900/devtul/internal/api/middleware"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

type DashboardStats struct {
	TotalProjects int64 `json:"total_projects"`
	TotalResults  int64 `json:"total_results"`
	CriticalCount int64 `json:"critical_count"`
	SeriousCount  int64 `json:"serious_count"`
	ActiveScans   int64 `json:"active_scans"`
	ActiveMonitor int64 `json:"active_monitors"`
}

// Stats handles GET /api/v1/dashboard — headline counts for the org.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var stats DashboardStats

	q := func(table, where string, args ...interface{}) *gorm.DB {
		return h.db.Table(table).Where("organization_id = ? AND deleted_at IS NULL", orgID).Where(where, args...)
	}

	if err := q("projects", "is_active = ?", true).Count(&stats.TotalProjects).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load stats"})
		return
	}
	h.db.Table("scan_results").
		Joins("JOIN scans ON scans.id = scan_results.scan_id").
		Where("scans.organization_id = ? AND scan_results.is_resolved = ? AND scan_results.deleted_at IS NULL", orgID, false).
		Count(&stats.TotalResults)
	h.db.Table("scan_results").
		Joins("JOIN scans ON scans.id = scan_results.scan_id").
		Where("scans.organization_id = ? AND scan_results.is_resolved = ? AND scan_results.severity = ? AND scan_results.deleted_at IS NULL", orgID, false, "Critical").
		Count(&stats.CriticalCount)
	h.db.Table("scan_results").
		Joins("JOIN scans ON scans.id = scan_results.scan_id").
		Where("scans.organization_id = ? AND scan_results.is_resolved = ? AND scan_results.severity = ? AND scan_results.deleted_at IS NULL", orgID, false, "High").
		Count(&stats.SeriousCount)
	q("scans", "status IN ?", []string{"pending", "running"}).Count(&stats.ActiveScans)
	q("monitors", "is_enabled = ?", true).Count(&stats.ActiveMonitor)

	writeJSON(w, http.StatusOK, stats)
}
