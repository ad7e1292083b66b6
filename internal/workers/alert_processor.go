// internal/workers/alert_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/storeops/backoffice-be/internal/adapters/db"
	"github.com/storeops/backoffice-be/internal/core/ports"
	"github.com/storeops/backoffice-be/internal/pkg/config"
)

// AlertProcessor records low-stock alerts and notifies purchasing
type AlertProcessor struct {
	db     *db.Database
	config *config.Config
	logger *slog.Logger
}

// NewAlertProcessor creates a new alert processor
func NewAlertProcessor(database *db.Database, cfg *config.Config, logger *slog.Logger) *AlertProcessor {
	return &AlertProcessor{
		db:     database,
		config: cfg,
		logger: logger.With(slog.String("processor", "alert")),
	}
}

// HandleLowStockAlert persists a stock alert row and sends the
// notification email. An open alert for the same product suppresses
// duplicates until it is acknowledged.
func (p *AlertProcessor) HandleLowStockAlert(ctx context.Context, t *asynq.Task) error {
	var alert ports.LowStockAlert
	if err := json.Unmarshal(t.Payload(), &alert); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing low stock alert",
		slog.String("sku", alert.SKU),
		slog.Int("stock", alert.StockQuantity),
		slog.Int("threshold", alert.MinStockLevel))

	var open bool
	err := p.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM stock_alerts
			WHERE product_id = $1 AND acknowledged = FALSE
		)`, alert.ProductID,
	).Scan(&open)
	if err != nil {
		return fmt.Errorf("failed to check open alerts: %w", err)
	}
	if open {
		p.logger.DebugContext(ctx, "open alert exists, skipping",
			slog.String("sku", alert.SKU))
		return nil
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO stock_alerts (id, product_id, sku, stock_level, threshold)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), alert.ProductID, alert.SKU, alert.StockQuantity, alert.MinStockLevel,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stock alert: %w", err)
	}

	return p.sendAlertEmail(ctx, alert)
}

func (p *AlertProcessor) sendAlertEmail(ctx context.Context, alert ports.LowStockAlert) error {
	subject := fmt.Sprintf("Low stock: %s (%s)", alert.Name, alert.SKU)
	body := fmt.Sprintf(
		"Product %s (%s) is down to %d units, at or below the reorder threshold of %d.",
		alert.Name, alert.SKU, alert.StockQuantity, alert.MinStockLevel,
	)

	// In development, just log the email
	if p.config.App.Environment == "development" || p.config.Alerts.SMTPHost == "" {
		p.logger.InfoContext(ctx, "alert email would be sent",
			slog.String("to", p.config.Alerts.Recipient),
			slog.String("subject", subject))
		return nil
	}

	from := p.config.Alerts.Sender
	to := p.config.Alerts.Recipient
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%d", p.config.Alerts.SMTPHost, p.config.Alerts.SMTPPort)
	auth := smtp.PlainAuth("", p.config.Alerts.SMTPUser, p.config.Alerts.SMTPPassword, p.config.Alerts.SMTPHost)
	if err := smtp.SendMail(addr, auth, from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	p.logger.InfoContext(ctx, "alert email sent", slog.String("sku", alert.SKU))
	return nil
}
