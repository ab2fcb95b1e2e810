package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/unique3900/devtul/internal/api/dto"
	"github.com/unique3900/devtul/internal/api/middleware"
	"github.com/unique3900/devtul/internal/database/models"
	"github.com/unique3900/devtul/internal/results"
	"github.com/unique3900/devtul/internal/tasks"
	"gorm.io/gorm"
)

type ScanHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
}

func NewScanHandler(db *gorm.DB, asynqClient *asynq.Client) *ScanHandler {
	return &ScanHandler{db: db, asynqClient: asynqClient}
}

// CreateScanRequest starts a scan of one type against a project.
type CreateScanRequest struct {
	ProjectID string `json:"project_id"`
	Type      string `json:"type"` // seo, accessibility, security, ssl, performance, uptime
}

var validScanTokens = map[string]bool{
	"seo": true, "accessibility": true, "wcag": true,
	"security": true, "ssl": true, "performance": true, "uptime": true,
}

func (r CreateScanRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if !validScanTokens[r.Type] {
		errors["type"] = "Invalid scan type. Must be one of: seo, accessibility, security, ssl, performance, uptime"
	}
	if _, err := uuid.Parse(r.ProjectID); err != nil {
		errors["project_id"] = "Invalid project ID"
	}
	return errors
}

// List handles GET /api/v1/scans
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.Scan{}).Where("organization_id = ?", orgID)

	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		if id, err := uuid.Parse(projectID); err == nil {
			query = query.Where("project_id = ?", id)
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count scans"})
		return
	}

	var scans []models.Scan
	if err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&scans).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list scans"})
		return
	}

	totalPages := int(total) / pagination.PerPage
	if int(total)%pagination.PerPage > 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       scans,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

// Create handles POST /api/v1/scans
func (h *ScanHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var req CreateScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	projectID, _ := uuid.Parse(req.ProjectID)
	var project models.Project
	if err := h.db.Where("id = ? AND organization_id = ?", projectID, orgID).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get project"})
		return
	}

	scan := models.Scan{
		OrganizationID: orgID,
		ProjectID:      project.ID,
		Type:           results.InternalScanType(req.Type),
		Status:         models.ScanStatusPending,
	}
	if err := h.db.Create(&scan).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create scan"})
		return
	}

	if h.asynqClient != nil {
		task, err := tasks.NewRunScanTask(tasks.RunScanPayload{
			ScanID:         scan.ID,
			OrganizationID: orgID,
			ProjectID:      project.ID,
		})
		if err == nil {
			if info, err := h.asynqClient.Enqueue(task); err == nil {
				h.db.Model(&scan).Update("task_id", info.ID)
			}
		}
	}

	writeJSON(w, http.StatusCreated, scan)
}

// Get handles GET /api/v1/scans/{id}
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	scanID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid scan ID"})
		return
	}

	var scan models.Scan
	if err := h.db.Where("id = ? AND organization_id = ?", scanID, orgID).First(&scan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Scan not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get scan"})
		return
	}

	writeJSON(w, http.StatusOK, scan)
}

// Cancel handles POST /api/v1/scans/{id}/cancel
func (h *ScanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	scanID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid scan ID"})
		return
	}

	var scan models.Scan
	if err := h.db.Where("id = ? AND organization_id = ?", scanID, orgID).First(&scan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Scan not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get scan"})
		return
	}

	if scan.Status != models.ScanStatusPending && scan.Status != models.ScanStatusRunning {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Scan is not cancellable"})
		return
	}

	updates := map[string]interface{}{
		"status":       models.ScanStatusCancelled,
		"completed_at": time.Now().Unix(),
	}
	if err := h.db.Model(&scan).Updates(updates).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to cancel scan"})
		return
	}

	writeJSON(w, http.StatusOK, scan)
}
