// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/storeops/backoffice-be/internal/adapters/db"
	"github.com/storeops/backoffice-be/internal/pkg/config"
)

// CleanupProcessor handles periodic housekeeping tasks
type CleanupProcessor struct {
	db     *db.Database
	config *config.Config
	logger *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(database *db.Database, cfg *config.Config, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		db:     database,
		config: cfg,
		logger: logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupOldAlerts removes acknowledged stock alerts older than 90
// days. The inventory ledger itself is append-only and never pruned.
func (p *CleanupProcessor) CleanupOldAlerts(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up old stock alerts")

	result, err := p.db.Exec(ctx, `
		DELETE FROM stock_alerts
		WHERE acknowledged = TRUE AND created_at < NOW() - INTERVAL '90 days'`)
	if err != nil {
		return fmt.Errorf("failed to cleanup stock alerts: %w", err)
	}

	p.logger.InfoContext(ctx, "old stock alerts cleaned up",
		slog.Int64("rows_deleted", result.RowsAffected()))

	return nil
}

// CleanupTempFiles removes stale uploaded import files
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up temp files")

	tempDir := p.config.FileProcessing.TempDir
	maxAge := 24 * time.Hour

	var deletedCount int
	err := filepath.Walk(tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err != nil {
				p.logger.WarnContext(ctx, "failed to delete temp file",
					slog.String("file", path), "err", err)
			} else {
				deletedCount++
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk temp directory: %w", err)
	}

	p.logger.InfoContext(ctx, "temp files cleaned up",
		slog.Int("files_deleted", deletedCount))

	return nil
}
