package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReferenceWarmup pre-fills the shared reference cache for recent orders.
	TaskReferenceWarmup = "salesrecon:reference_warmup"
)

// ReferenceWarmupPayload scopes a warm-up run. Zero values fall back to the
// job defaults.
type ReferenceWarmupPayload struct {
	Days       int    `json:"days"`
	BranchCode string `json:"branch_code,omitempty"`
	MaxOrders  int    `json:"max_orders"`
}

// NewReferenceWarmupTask constructs an Asynq task.
func NewReferenceWarmupTask(payload ReferenceWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReferenceWarmup, data), nil
}
