// Package export defines the port for publishing closed monthly archives to
// an external bookkeeping destination.
package export

import (
	"context"

	"cashrecon/internal/core"
)

// ArchiveExporter writes a closed month's archive to the destination. Export
// is idempotent per month at the destination's discretion; callers may retry.
type ArchiveExporter interface {
	ExportArchive(ctx context.Context, a core.MonthlyArchive) error
}
