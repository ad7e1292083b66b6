// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/storeops/backoffice-be/internal/adapters/redis_adapter"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// Task type names routed by the worker mux
const (
	TypeLowStockAlert    = "stock:low_alert"
	TypeCatalogImport    = "catalog:import"
	TypePriceListImport  = "pricelist:import"
	TypeCleanupTempFiles = "cleanup:temp_files"
	TypeCleanupOldAlerts = "cleanup:old_alerts"
)

// Queue names
const (
	QueueDefault  = "default"
	QueueImports  = "imports"
	QueueCritical = "critical"
)

// Import job lifecycle states
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// ImportJobStatus is the progress record kept in Redis for the
// duration of an import job.
type ImportJobStatus struct {
	JobID       string    `json:"job_id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Filename    string    `json:"filename,omitempty"`
	RowsTotal   int       `json:"rows_total,omitempty"`
	RowsOK      int       `json:"rows_ok,omitempty"`
	RowsFailed  int       `json:"rows_failed,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// ImportJobTTL bounds how long finished job records stay readable
const ImportJobTTL = 24 * time.Hour

// updateJobStatus applies mutate to the stored job record and writes
// it back. Best effort; a lost status update never fails the job.
func updateJobStatus(ctx context.Context, cache ports.CacheRepository, logger *slog.Logger, jobID string, mutate func(*ImportJobStatus)) {
	if cache == nil || jobID == "" {
		return
	}

	key := redis_a.BuildKey(redis_a.PrefixImportJob, jobID)

	var status ImportJobStatus
	if err := cache.Get(ctx, key, &status); err != nil {
		status = ImportJobStatus{JobID: jobID, CreatedAt: time.Now().UTC()}
	}
	mutate(&status)

	if err := cache.SetWithTTL(ctx, key, status, ImportJobTTL); err != nil {
		logger.WarnContext(ctx, "failed to update job status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
	}
}

// CatalogImportPayload is the payload for a catalog spreadsheet import
type CatalogImportPayload struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
}

// PriceListImportPayload is the payload for a supplier price list import
type PriceListImportPayload struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
}

// TaskClient enqueues background tasks over asynq. It implements
// ports.AlertEnqueuer for the services.
type TaskClient struct {
	client *asynq.Client
	logger *slog.Logger
}

var _ ports.AlertEnqueuer = (*TaskClient)(nil)

// NewTaskClient creates a task client backed by the given asynq client
func NewTaskClient(client *asynq.Client, logger *slog.Logger) *TaskClient {
	return &TaskClient{
		client: client,
		logger: logger.With(slog.String("component", "task_client")),
	}
}

// EnqueueLowStockAlert enqueues a low-stock alert task
func (c *TaskClient) EnqueueLowStockAlert(ctx context.Context, alert ports.LowStockAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	task := asynq.NewTask(TypeLowStockAlert, payload)
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue low stock alert: %w", err)
	}

	c.logger.DebugContext(ctx, "low stock alert enqueued",
		slog.String("task_id", info.ID),
		slog.String("sku", alert.SKU))

	return nil
}

// EnqueueCatalogImport enqueues a catalog spreadsheet import
func (c *TaskClient) EnqueueCatalogImport(ctx context.Context, payload CatalogImportPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal import payload: %w", err)
	}

	task := asynq.NewTask(TypeCatalogImport, data)
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueImports),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue catalog import: %w", err)
	}

	c.logger.InfoContext(ctx, "catalog import enqueued",
		slog.String("task_id", info.ID),
		slog.String("job_id", payload.JobID))

	return nil
}

// EnqueuePriceListImport enqueues a supplier price list import
func (c *TaskClient) EnqueuePriceListImport(ctx context.Context, payload PriceListImportPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal import payload: %w", err)
	}

	task := asynq.NewTask(TypePriceListImport, data)
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueImports),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue price list import: %w", err)
	}

	c.logger.InfoContext(ctx, "price list import enqueued",
		slog.String("task_id", info.ID),
		slog.String("job_id", payload.JobID))

	return nil
}
