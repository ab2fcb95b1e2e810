package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/unique3900/devtul/internal/api/dto"
	"github.com/unique3900/devtul/internal/api/middleware"
	"github.com/unique3900/devtul/internal/database/models"
	"github.com/unique3900/devtul/internal/results"
	"github.com/unique3900/devtul/internal/tasks"
	"github.com/unique3900/devtul/pkg/util"
	"gorm.io/gorm"
)

type MonitorHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
}

func NewMonitorHandler(db *gorm.DB, asynqClient *asynq.Client) *MonitorHandler {
	return &MonitorHandler{db: db, asynqClient: asynqClient}
}

type MonitorRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	CronExpr  string `json:"cron_expr"`
	ScanType  string `json:"scan_type"`
	IsEnabled *bool  `json:"is_enabled,omitempty"`
}

func (r MonitorRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if _, err := uuid.Parse(r.ProjectID); err != nil {
		errors["project_id"] = "Invalid project ID"
	}
	if err := util.ValidateCronExpr(r.CronExpr); err != nil {
		errors["cron_expr"] = "Invalid cron expression"
	}
	if !validScanTokens[r.ScanType] {
		errors["scan_type"] = "Invalid scan type"
	}
	return errors
}

// List handles GET /api/v1/monitors
func (h *MonitorHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var monitors []models.Monitor
	if err := h.db.
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&monitors).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list monitors"})
		return
	}

	writeJSON(w, http.StatusOK, monitors)
}

// Create handles POST /api/v1/monitors
func (h *MonitorHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var req MonitorRequest
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
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
		return
	}

	nextRun, err := util.NextCronTime(req.CronExpr, time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid cron expression"})
		return
	}

	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}

	monitor := models.Monitor{
		OrganizationID: orgID,
		ProjectID:      projectID,
		Name:           req.Name,
		CronExpr:       req.CronExpr,
		ScanType:       results.InternalScanType(req.ScanType),
		IsEnabled:      enabled,
		NextRunAt:      nextRun.Unix(),
	}
	if err := h.db.Create(&monitor).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create monitor"})
		return
	}

	writeJSON(w, http.StatusCreated, monitor)
}

// Get handles GET /api/v1/monitors/{id}
func (h *MonitorHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	monitorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid monitor ID"})
		return
	}

	var monitor models.Monitor
	if err := h.db.Where("id = ? AND organization_id = ?", monitorID, orgID).First(&monitor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Monitor not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get monitor"})
		return
	}

	writeJSON(w, http.StatusOK, monitor)
}

// Update handles PUT /api/v1/monitors/{id}
func (h *MonitorHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	monitorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid monitor ID"})
		return
	}

	var req MonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var monitor models.Monitor
	if err := h.db.Where("id = ? AND organization_id = ?", monitorID, orgID).First(&monitor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Monitor not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get monitor"})
		return
	}

	nextRun, err := util.NextCronTime(req.CronExpr, time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid cron expression"})
		return
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"cron_expr":   req.CronExpr,
		"scan_type":   results.InternalScanType(req.ScanType),
		"next_run_at": nextRun.Unix(),
	}
	if req.IsEnabled != nil {
		updates["is_enabled"] = *req.IsEnabled
	}
	if err := h.db.Model(&monitor).Updates(updates).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update monitor"})
		return
	}

	writeJSON(w, http.StatusOK, monitor)
}

// Delete handles DELETE /api/v1/monitors/{id}
func (h *MonitorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	monitorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid monitor ID"})
		return
	}

	result := h.db.Where("id = ? AND organization_id = ?", monitorID, orgID).Delete(&models.Monitor{})
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete monitor"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Monitor not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Monitor deleted"})
}

// Trigger handles POST /api/v1/monitors/{id}/trigger
func (h *MonitorHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	monitorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid monitor ID"})
		return
	}

	var monitor models.Monitor
	if err := h.db.Where("id = ? AND organization_id = ?", monitorID, orgID).First(&monitor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Monitor not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get monitor"})
		return
	}

	scan := models.Scan{
		OrganizationID: orgID,
		ProjectID:      monitor.ProjectID,
		Type:           monitor.ScanType,
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
			ProjectID:      monitor.ProjectID,
		})
		if err == nil {
			if info, err := h.asynqClient.Enqueue(task); err == nil {
				h.db.Model(&scan).Update("task_id", info.ID)
			}
		}
	}

	writeJSON(w, http.StatusCreated, scan)
}
