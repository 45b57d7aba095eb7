// Package memory provides an in-memory archive exporter for tests.
package memory

import (
	"context"
	"sync"

	"cashrecon/internal/core"
	"cashrecon/internal/export"
)

type Exporter struct {
	mu       sync.Mutex
	exported []core.MonthlyArchive
	// Err, when set, is returned by every ExportArchive call.
	Err error
}

var _ export.ArchiveExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportArchive(_ context.Context, a core.MonthlyArchive) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.exported = append(e.exported, a)
	return nil
}

// Exported returns a copy of the archives exported so far.
func (e *Exporter) Exported() []core.MonthlyArchive {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.MonthlyArchive, len(e.exported))
	copy(out, e.exported)
	return out
}
