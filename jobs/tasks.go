package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/crediview/crediview/internal/dataset"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDatasetRefresh is the task type for a full dataset reload.
	TaskDatasetRefresh = "dataset:refresh"
)

// DatasetRefreshPayload describes a reload request.
type DatasetRefreshPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewDatasetRefreshTask constructs an Asynq task.
func NewDatasetRefreshTask(payload DatasetRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDatasetRefresh, data), nil
}

// RefreshHandler processes TaskDatasetRefresh tasks against the in-process
// dataset refresher.
func RefreshHandler(refresher *dataset.Refresher, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload DatasetRefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if logger != nil {
			logger.Info("dataset refresh task", slog.String("reason", payload.Reason))
		}
		return refresher.Refresh(ctx)
	}
}
