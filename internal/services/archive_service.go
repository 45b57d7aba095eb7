package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cashrecon/internal/amqp"
	"cashrecon/internal/core"
	"cashrecon/internal/ledger"
)

// ArchiveService closes months and answers carry-forward questions. A month
// moves OPEN → CLOSED once; there is no reopen. Re-closing replaces the
// archive record wholesale.
type ArchiveService struct {
	store      ledger.Store
	amqpClient *amqp.Client
}

func NewArchiveService(store ledger.Store, amqpClient *amqp.Client) *ArchiveService {
	return &ArchiveService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// CloseMonth snapshots a month's entries and withdrawals into an immutable
// archive. Ending balances are derived from the month's own records:
// the front safe ends at the month's last counted leftInFront, the back safe
// at the carried starting balance plus the month's net transfer effect.
// Editing other months can therefore never change this archive.
func (s *ArchiveService) CloseMonth(ctx context.Context, month string) (core.MonthlyArchive, error) {
	if err := core.ValidateMonth(month); err != nil {
		return core.MonthlyArchive{}, err
	}

	entries, err := s.store.ListEntriesForMonth(ctx, month)
	if err != nil {
		return core.MonthlyArchive{}, fmt.Errorf("list entries for %s: %w", month, err)
	}
	if len(entries) == 0 {
		return core.MonthlyArchive{}, core.ErrEmptyMonth
	}
	withdrawals, err := s.store.ListWithdrawalsForMonth(ctx, month)
	if err != nil {
		return core.MonthlyArchive{}, fmt.Errorf("list withdrawals for %s: %w", month, err)
	}

	starting, err := s.MonthStartingBalances(ctx, month)
	if err != nil {
		return core.MonthlyArchive{}, err
	}

	now := time.Now()
	archive := core.MonthlyArchive{
		Month:             month,
		StartingFrontSafe: starting.FrontSafe,
		StartingBackSafe:  starting.BackSafe,
		EndingFrontSafe:   entries[0].LeftInFront, // newest-first
		EndingBackSafe:    core.Money{Cents: starting.BackSafe.Cents + core.NetBackSafeEffect(entries, withdrawals).Cents},
		Entries:           entries,
		Withdrawals:       withdrawals,
		IsClosed:          true,
		ClosedAt:          &now,
	}

	if err := s.store.PutArchive(ctx, archive); err != nil {
		return core.MonthlyArchive{}, fmt.Errorf("put archive: %w", err)
	}

	slog.InfoContext(ctx, "Month closed",
		"month", month,
		"entries", len(archive.Entries),
		"withdrawals", len(archive.Withdrawals),
		"ending_front_safe_cents", archive.EndingFrontSafe.Cents,
		"ending_back_safe_cents", archive.EndingBackSafe.Cents)

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishMonthClosed(ctx, month); err != nil {
			slog.ErrorContext(ctx, "Failed to publish month closed event",
				"month", month,
				"error", err)
		}
	}

	return archive, nil
}

// MonthStartingBalances returns the ending balances of the latest closed
// archive strictly before the given month, or zeros when no prior month was
// ever closed. Works for live months too; closing is not a prerequisite.
func (s *ArchiveService) MonthStartingBalances(ctx context.Context, month string) (core.MonthBalances, error) {
	if err := core.ValidateMonth(month); err != nil {
		return core.MonthBalances{}, err
	}

	archives, err := s.store.ListArchives(ctx)
	if err != nil {
		return core.MonthBalances{}, fmt.Errorf("list archives: %w", err)
	}

	// Archives are newest-first; the first closed one before the target is
	// the latest. Lexicographic comparison is chronological for YYYY-MM.
	for _, a := range archives {
		if a.Month < month && a.IsClosed {
			return core.MonthBalances{
				FrontSafe: a.EndingFrontSafe,
				BackSafe:  a.EndingBackSafe,
			}, nil
		}
	}
	return core.MonthBalances{}, nil
}

// AvailableMonths returns every month the system knows about: the current
// calendar month, each month appearing in an entry date and each archived
// month. Sorted descending, de-duplicated.
func (s *ArchiveService) AvailableMonths(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{
		core.CurrentMonth(time.Now()): {},
	}

	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	for _, e := range entries {
		seen[core.MonthOf(e.Date)] = struct{}{}
	}

	archives, err := s.store.ListArchives(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	for _, a := range archives {
		seen[a.Month] = struct{}{}
	}

	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months, nil
}

// Archives lists all archives, newest-first.
func (s *ArchiveService) Archives(ctx context.Context) ([]core.MonthlyArchive, error) {
	return s.store.ListArchives(ctx)
}

// Archive returns one archive by month key.
func (s *ArchiveService) Archive(ctx context.Context, month string) (core.MonthlyArchive, error) {
	if err := core.ValidateMonth(month); err != nil {
		return core.MonthlyArchive{}, err
	}
	return s.store.GetArchive(ctx, month)
}

// MonthView assembles a read-only view of any month: the archive when the
// month is closed, otherwise a live view built from the current ledger with
// carried starting balances.
func (s *ArchiveService) MonthView(ctx context.Context, month string) (core.MonthlyArchive, error) {
	archive, err := s.Archive(ctx, month)
	if err == nil {
		return archive, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.MonthlyArchive{}, err
	}

	entries, err := s.store.ListEntriesForMonth(ctx, month)
	if err != nil {
		return core.MonthlyArchive{}, fmt.Errorf("list entries for %s: %w", month, err)
	}
	withdrawals, err := s.store.ListWithdrawalsForMonth(ctx, month)
	if err != nil {
		return core.MonthlyArchive{}, fmt.Errorf("list withdrawals for %s: %w", month, err)
	}
	starting, err := s.MonthStartingBalances(ctx, month)
	if err != nil {
		return core.MonthlyArchive{}, err
	}

	view := core.MonthlyArchive{
		Month:             month,
		StartingFrontSafe: starting.FrontSafe,
		StartingBackSafe:  starting.BackSafe,
		EndingFrontSafe:   starting.FrontSafe,
		EndingBackSafe:    core.Money{Cents: starting.BackSafe.Cents + core.NetBackSafeEffect(entries, withdrawals).Cents},
		Entries:           entries,
		Withdrawals:       withdrawals,
	}
	if len(entries) > 0 {
		view.EndingFrontSafe = entries[0].LeftInFront
	}
	return view, nil
}
