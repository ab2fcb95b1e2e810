package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unique3900/devtul/internal/api/handlers"
	"github.com/unique3900/devtul/internal/api/middleware"
	"github.com/unique3900/devtul/internal/database/models"
	"github.com/unique3900/devtul/internal/testutil"
)

func setupMonitorTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))

	handler := handlers.NewMonitorHandler(tc.DB, nil)
	r.Route("/api/v1/monitors", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Get("/{id}", handler.Get)
		r.Put("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
		r.Post("/{id}/trigger", handler.Trigger)
	})

	return r, tc
}

func TestMonitorHandler_Create(t *testing.T) {
	router, tc := setupMonitorTestRouter(t)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)

	t.Run("valid monitor", func(t *testing.T) {
		body := map[string]interface{}{
			"project_id": project.ID.String(),
			"name":       "Nightly uptime",
			"cron_expr":  "0 3 * * *",
			"scan_type":  "uptime",
		}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/monitors", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var monitor models.Monitor
		err := json.Unmarshal(rr.Body.Bytes(), &monitor)
		require.NoError(t, err)
		assert.Equal(t, models.ScanTypeUptime, monitor.ScanType)
		assert.True(t, monitor.IsEnabled)
		assert.NotZero(t, monitor.NextRunAt)
	})

	t.Run("rejects invalid cron expression", func(t *testing.T) {
		body := map[string]interface{}{
			"project_id": project.ID.String(),
			"name":       "Broken",
			"cron_expr":  "every tuesday",
			"scan_type":  "uptime",
		}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/monitors", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp struct {
			Details map[string]string `json:"details"`
		}
		err := json.Unmarshal(rr.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Contains(t, resp.Details, "cron_expr")
	})

	t.Run("rejects invalid scan type", func(t *testing.T) {
		body := map[string]interface{}{
			"project_id": project.ID.String(),
			"name":       "Bad type",
			"cron_expr":  "0 3 * * *",
			"scan_type":  "quantum",
		}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/monitors", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects other org project", func(t *testing.T) {
		otherOrg := testutil.CreateTestOrg(t, tc.DB)
		otherProject := testutil.CreateTestProject(t, tc.DB, otherOrg.ID)

		body := map[string]interface{}{
			"project_id": otherProject.ID.String(),
			"name":       "Sneaky",
			"cron_expr":  "0 3 * * *",
			"scan_type":  "uptime",
		}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/monitors", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestMonitorHandler_Trigger(t *testing.T) {
	router, tc := setupMonitorTestRouter(t)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)
	monitor := testutil.CreateTestMonitor(t, tc.DB, tc.Org.ID, project.ID, "0 3 * * *")

	req := testutil.AuthenticatedRequest(t, "POST",
		"/api/v1/monitors/"+monitor.ID.String()+"/trigger", nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var scan models.Scan
	err := json.Unmarshal(rr.Body.Bytes(), &scan)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusPending, scan.Status)
	assert.Equal(t, monitor.ScanType, scan.Type)

	var count int64
	tc.DB.Model(&models.Scan{}).Where("project_id = ?", project.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}
