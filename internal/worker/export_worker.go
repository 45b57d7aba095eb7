// Package worker runs the archive export consumer: month-closed events come
// in over AMQP, the frozen archive is loaded from the ledger and pushed to
// the configured exporter.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cashrecon/internal/amqp"
	"cashrecon/internal/core"
	"cashrecon/internal/export"
	"cashrecon/internal/ledger"
)

type ExportWorker struct {
	store    ledger.ArchiveStore
	exporter export.ArchiveExporter
}

func NewExportWorker(store ledger.ArchiveStore, exporter export.ArchiveExporter) *ExportWorker {
	return &ExportWorker{store: store, exporter: exporter}
}

// Run consumes month-closed events until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeMessages(ctx, w.HandleMonthClosed)
}

// HandleMonthClosed loads the archive named by the event and exports it.
// A missing archive is not retried: the close was undone or the event is
// stale, and requeueing would loop forever.
func (w *ExportWorker) HandleMonthClosed(ctx context.Context, msg *amqp.MonthClosedMessage) error {
	archive, err := w.store.GetArchive(ctx, msg.Month)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Skipping export, archive not found", "month", msg.Month)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load archive %s: %w", msg.Month, err)
	}
	if !archive.IsClosed {
		slog.WarnContext(ctx, "Skipping export, archive not closed", "month", msg.Month)
		return nil
	}

	if err := w.exporter.ExportArchive(ctx, archive); err != nil {
		return fmt.Errorf("export archive %s: %w", msg.Month, err)
	}

	slog.InfoContext(ctx, "Exported monthly archive",
		"month", msg.Month,
		"entries", len(archive.Entries),
		"withdrawals", len(archive.Withdrawals))
	return nil
}
