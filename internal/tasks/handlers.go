package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/unique3900/devtul/internal/database/models"
	"github.com/unique3900/devtul/internal/events"
	"github.com/unique3900/devtul/internal/scanner"
	"github.com/unique3900/devtul/pkg/util"
	"gorm.io/gorm"
)

type Handler struct {
	db        *gorm.DB
	logger    *slog.Logger
	checkers  map[models.ScanType]scanner.Checker
	publisher *events.Publisher
	enqueuer  *asynq.Client
}

func NewHandler(db *gorm.DB, logger *slog.Logger, checkers map[models.ScanType]scanner.Checker, publisher *events.Publisher, enqueuer *asynq.Client) *Handler {
	return &Handler{
		db:        db,
		logger:    logger,
		checkers:  checkers,
		publisher: publisher,
		enqueuer:  enqueuer,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeRunScan, h.HandleRunScan)
	mux.HandleFunc(TypeMonitorTick, h.HandleMonitorTick)
}

func (h *Handler) HandleRunScan(ctx context.Context, t *asynq.Task) error {
	var payload RunScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var scan models.Scan
	if err := h.db.Preload("Project").First(&scan, payload.ScanID).Error; err != nil {
		return fmt.Errorf("loading scan: %w", err)
	}

	// Cancelled before we got to it
	if scan.Status == models.ScanStatusCancelled {
		h.logger.Info("skipping cancelled scan", "scan_id", scan.ID)
		return nil
	}
	if scan.Project == nil {
		return h.failScan(&scan, "project no longer exists")
	}

	h.logger.Info("starting scan",
		"scan_id", scan.ID,
		"type", scan.Type,
		"target", scan.Project.URL,
	)

	if err := h.db.Model(&scan).Updates(map[string]interface{}{
		"status":     models.ScanStatusRunning,
		"started_at": time.Now().Unix(),
	}).Error; err != nil {
		return fmt.Errorf("marking scan running: %w", err)
	}
	h.publisher.Publish(ctx, events.ScanEvent{ScanID: scan.ID, Status: string(models.ScanStatusRunning)})

	checker, ok := h.checkers[scan.Type]
	if !ok {
		return h.failScan(&scan, fmt.Sprintf("no checker for scan type %s", scan.Type))
	}

	findings, err := checker.Check(ctx, scan.Project.URL)
	if err != nil {
		h.logger.Error("scan failed", "scan_id", scan.ID, "error", err)
		return h.failScan(&scan, err.Error())
	}

	rows := make([]models.ScanResult, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, toScanResult(&scan, f))
	}
	if len(rows) > 0 {
		if err := h.db.CreateInBatches(rows, 100).Error; err != nil {
			return h.failScan(&scan, "storing results failed")
		}
	}

	if err := h.db.Model(&scan).Updates(map[string]interface{}{
		"status":        models.ScanStatusCompleted,
		"completed_at":  time.Now().Unix(),
		"results_count": len(rows),
		"pages_checked": 1,
	}).Error; err != nil {
		return fmt.Errorf("marking scan completed: %w", err)
	}
	h.publisher.Publish(ctx, events.ScanEvent{
		ScanID:       scan.ID,
		Status:       string(models.ScanStatusCompleted),
		ResultsCount: len(rows),
	})

	h.logger.Info("scan completed", "scan_id", scan.ID, "results", len(rows))
	return nil
}

// HandleMonitorTick enqueues a scan for every enabled monitor that is due and
// rolls its schedule forward.
func (h *Handler) HandleMonitorTick(ctx context.Context, t *asynq.Task) error {
	now := time.Now()

	var due []models.Monitor
	if err := h.db.
		Where("is_enabled = ? AND next_run_at <= ?", true, now.Unix()).
		Find(&due).Error; err != nil {
		return fmt.Errorf("loading due monitors: %w", err)
	}

	for i := range due {
		monitor := &due[i]

		scan := models.Scan{
			OrganizationID: monitor.OrganizationID,
			ProjectID:      monitor.ProjectID,
			Type:           monitor.ScanType,
			Status:         models.ScanStatusPending,
		}
		if err := h.db.Create(&scan).Error; err != nil {
			h.logger.Error("creating monitor scan failed", "monitor_id", monitor.ID, "error", err)
			continue
		}

		if h.enqueuer != nil {
			task, err := NewRunScanTask(RunScanPayload{
				ScanID:         scan.ID,
				OrganizationID: monitor.OrganizationID,
				ProjectID:      monitor.ProjectID,
			})
			if err == nil {
				if info, err := h.enqueuer.Enqueue(task); err == nil {
					h.db.Model(&scan).Update("task_id", info.ID)
				} else {
					h.logger.Error("enqueue monitor scan failed", "monitor_id", monitor.ID, "error", err)
				}
			}
		}

		nextRun, err := util.NextCronTime(monitor.CronExpr, now)
		if err != nil {
			// Bad expression slipped past validation; disable instead of
			// firing every tick.
			h.logger.Error("disabling monitor with invalid cron", "monitor_id", monitor.ID, "error", err)
			h.db.Model(monitor).Update("is_enabled", false)
			continue
		}

		h.db.Model(monitor).Updates(map[string]interface{}{
			"last_run_at": now.Unix(),
			"next_run_at": nextRun.Unix(),
			"run_count":   gorm.Expr("run_count + 1"),
		})
	}

	if len(due) > 0 {
		h.logger.Info("monitor tick", "triggered", len(due))
	}
	return nil
}

func (h *Handler) failScan(scan *models.Scan, message string) error {
	if err := h.db.Model(scan).Updates(map[string]interface{}{
		"status":       models.ScanStatusFailed,
		"completed_at": time.Now().Unix(),
		"error":        message,
	}).Error; err != nil {
		return fmt.Errorf("marking scan failed: %w", err)
	}
	h.publisher.Publish(context.Background(), events.ScanEvent{
		ScanID:  scan.ID,
		Status:  string(models.ScanStatusFailed),
		Message: message,
	})
	return nil
}

func toScanResult(scan *models.Scan, f scanner.Finding) models.ScanResult {
	details := "{}"
	if len(f.Details) > 0 {
		if data, err := json.Marshal(f.Details); err == nil {
			details = string(data)
		}
	}
	return models.ScanResult{
		ScanID:      scan.ID,
		URL:         f.URL,
		Message:     f.Message,
		Help:        f.Help,
		Element:     f.Element,
		ElementPath: f.ElementPath,
		Severity:    f.Severity,
		Impact:      f.Impact,
		Tags:        f.Tags,
		ScanType:    scan.Type,
		Category:    f.Category,
		Details:     details,
	}
}
