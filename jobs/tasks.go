package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup precomputes a company's financial statements into the
	// report cache.
	TaskReportWarmup = "reports:warmup"
)

// ReportWarmupPayload scopes a warmup run. A zero CompanyID warms every
// company; empty From/To default to the current year to date.
type ReportWarmupPayload struct {
	CompanyID int64  `json:"companyId"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// NewReportWarmupTask constructs an Asynq task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
