package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/unique3900/devtul/internal/api/dto"
	"github.com/unique3900/devtul/internal/api/middleware"
	"github.com/unique3900/devtul/internal/results"
	"gorm.io/gorm"
)

type ResultHandler struct {
	service *results.Service
}

func NewResultHandler(service *results.Service) *ResultHandler {
	return &ResultHandler{service: service}
}

// List handles GET /api/v1/results
func (h *ResultHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	query, errs := results.ParseQuery(r.URL.Query())
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	resp, err := h.service.Query(r.Context(), orgID, query)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.FailureResponse{
			Error:   "Failed to fetch results",
			Success: false,
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResolveRequest toggles a result's resolved flag.
type ResolveRequest struct {
	Resolved *bool `json:"resolved"`
}

// Resolve handles PUT /api/v1/results/{id}/resolve
func (h *ResultHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	resultID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid result ID"})
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	resolved := true
	if req.Resolved != nil {
		resolved = *req.Resolved
	}

	result, err := h.service.Resolve(r.Context(), orgID, resultID, resolved)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Result not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update result"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
