package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeRunScan     = "scan:run"
	TypeMonitorTick = "monitor:tick"
)

// RunScanPayload carries everything the worker needs to execute one scan.
type RunScanPayload struct {
	ScanID         uuid.UUID `json:"scan_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	ProjectID      uuid.UUID `json:"project_id"`
}

func NewRunScanTask(payload RunScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRunScan, data), nil
}

// NewMonitorTickTask triggers one pass over due monitors.
func NewMonitorTickTask() *asynq.Task {
	return asynq.NewTask(TypeMonitorTick, nil, asynq.Queue("low"))
}
