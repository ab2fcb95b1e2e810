package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unique3900/devtul/internal/database/models"
	"github.com/unique3900/devtul/internal/scanner"
	"github.com/unique3900/devtul/internal/testutil"
)

// fakeChecker returns canned findings, or an error.
type fakeChecker struct {
	scanType models.ScanType
	findings []scanner.Finding
	err      error
}

func (f *fakeChecker) Type() models.ScanType { return f.scanType }

func (f *fakeChecker) Check(ctx context.Context, target string) ([]scanner.Finding, error) {
	return f.findings, f.err
}

func testHandler(t *testing.T, checkers map[models.ScanType]scanner.Checker) (*Handler, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(tc.DB, logger, checkers, nil, nil), tc
}

func runScanTask(t *testing.T, scan *models.Scan) *asynq.Task {
	t.Helper()
	task, err := NewRunScanTask(RunScanPayload{
		ScanID:         scan.ID,
		OrganizationID: scan.OrganizationID,
		ProjectID:      scan.ProjectID,
	})
	require.NoError(t, err)
	return task
}

func TestHandleRunScan(t *testing.T) {
	checker := &fakeChecker{
		scanType: models.ScanTypeSecurity,
		findings: []scanner.Finding{
			{
				URL:      "https://example.com",
				Message:  "Missing Content-Security-Policy header",
				Severity: models.SeverityHigh,
				Tags:     []string{"owasp-secure-headers"},
				Category: "csp",
				Details:  map[string]interface{}{"header": "Content-Security-Policy"},
			},
			{
				URL:      "https://example.com",
				Message:  "Missing Referrer-Policy header",
				Severity: models.SeverityLow,
				Category: "headers",
			},
		},
	}
	handler, tc := testHandler(t, map[models.ScanType]scanner.Checker{
		models.ScanTypeSecurity: checker,
	})
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)
	scan := testutil.CreateTestScan(t, tc.DB, tc.Org.ID, project.ID, models.ScanTypeSecurity)
	require.NoError(t, tc.DB.Model(scan).Update("status", models.ScanStatusPending).Error)

	err := handler.HandleRunScan(context.Background(), runScanTask(t, scan))
	require.NoError(t, err)

	var updated models.Scan
	require.NoError(t, tc.DB.First(&updated, scan.ID).Error)
	assert.Equal(t, models.ScanStatusCompleted, updated.Status)
	assert.Equal(t, 2, updated.ResultsCount)
	assert.NotZero(t, updated.CompletedAt)

	var rows []models.ScanResult
	require.NoError(t, tc.DB.Where("scan_id = ?", scan.ID).Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, models.ScanTypeSecurity, row.ScanType)
		assert.False(t, row.IsResolved)
	}
}

func TestHandleRunScanSkipsCancelled(t *testing.T) {
	handler, tc := testHandler(t, nil)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)
	scan := testutil.CreateTestScan(t, tc.DB, tc.Org.ID, project.ID, models.ScanTypeSecurity)
	require.NoError(t, tc.DB.Model(scan).Update("status", models.ScanStatusCancelled).Error)

	err := handler.HandleRunScan(context.Background(), runScanTask(t, scan))
	require.NoError(t, err)

	var updated models.Scan
	require.NoError(t, tc.DB.First(&updated, scan.ID).Error)
	assert.Equal(t, models.ScanStatusCancelled, updated.Status)
}

func TestHandleRunScanCheckerFailure(t *testing.T) {
	checker := &fakeChecker{
		scanType: models.ScanTypeSecurity,
		err:      errors.New("target unreachable"),
	}
	handler, tc := testHandler(t, map[models.ScanType]scanner.Checker{
		models.ScanTypeSecurity: checker,
	})
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)
	scan := testutil.CreateTestScan(t, tc.DB, tc.Org.ID, project.ID, models.ScanTypeSecurity)
	require.NoError(t, tc.DB.Model(scan).Update("status", models.ScanStatusPending).Error)

	// A failed check marks the scan failed instead of retrying forever
	err := handler.HandleRunScan(context.Background(), runScanTask(t, scan))
	require.NoError(t, err)

	var updated models.Scan
	require.NoError(t, tc.DB.First(&updated, scan.ID).Error)
	assert.Equal(t, models.ScanStatusFailed, updated.Status)
	assert.Equal(t, "target unreachable", updated.Error)
}

func TestHandleRunScanUnknownType(t *testing.T) {
	handler, tc := testHandler(t, nil)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)
	scan := testutil.CreateTestScan(t, tc.DB, tc.Org.ID, project.ID, models.ScanTypeSecurity)
	require.NoError(t, tc.DB.Model(scan).Update("status", models.ScanStatusPending).Error)

	err := handler.HandleRunScan(context.Background(), runScanTask(t, scan))
	require.NoError(t, err)

	var updated models.Scan
	require.NoError(t, tc.DB.First(&updated, scan.ID).Error)
	assert.Equal(t, models.ScanStatusFailed, updated.Status)
}

func TestHandleRunScanBadPayload(t *testing.T) {
	handler, tc := testHandler(t, nil)
	defer tc.Cleanup()

	task := asynq.NewTask(TypeRunScan, []byte("not json"))
	err := handler.HandleRunScan(context.Background(), task)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal payload")
}

func TestHandleMonitorTick(t *testing.T) {
	handler, tc := testHandler(t, nil)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)

	due := testutil.CreateTestMonitor(t, tc.DB, tc.Org.ID, project.ID, "*/5 * * * *")
	require.NoError(t, tc.DB.Model(due).Update("next_run_at", time.Now().Add(-time.Minute).Unix()).Error)

	notDue := testutil.CreateTestMonitor(t, tc.DB, tc.Org.ID, project.ID, "*/5 * * * *")

	err := handler.HandleMonitorTick(context.Background(), NewMonitorTickTask())
	require.NoError(t, err)

	// The due monitor spawned a pending scan and rolled forward
	var scans []models.Scan
	require.NoError(t, tc.DB.Where("project_id = ?", project.ID).Find(&scans).Error)
	require.Len(t, scans, 1)
	assert.Equal(t, models.ScanStatusPending, scans[0].Status)
	assert.Equal(t, models.ScanTypeUptime, scans[0].Type)

	var updated models.Monitor
	require.NoError(t, tc.DB.First(&updated, due.ID).Error)
	assert.Greater(t, updated.NextRunAt, time.Now().Unix())
	assert.Equal(t, 1, updated.RunCount)
	assert.NotZero(t, updated.LastRunAt)

	// The other monitor was untouched
	var other models.Monitor
	require.NoError(t, tc.DB.First(&other, notDue.ID).Error)
	assert.Equal(t, 0, other.RunCount)
}

func TestHandleMonitorTickDisablesInvalidCron(t *testing.T) {
	handler, tc := testHandler(t, nil)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Org.ID)

	monitor := testutil.CreateTestMonitor(t, tc.DB, tc.Org.ID, project.ID, "not a cron")
	require.NoError(t, tc.DB.Model(monitor).Update("next_run_at", time.Now().Add(-time.Minute).Unix()).Error)

	err := handler.HandleMonitorTick(context.Background(), NewMonitorTickTask())
	require.NoError(t, err)

	var updated models.Monitor
	require.NoError(t, tc.DB.First(&updated, monitor.ID).Error)
	assert.False(t, updated.IsEnabled)
}

func TestHandleMonitorTickNoDueMonitors(t *testing.T) {
	handler, tc := testHandler(t, nil)
	defer tc.Cleanup()

	err := handler.HandleMonitorTick(context.Background(), NewMonitorTickTask())
	assert.NoError(t, err)
}
