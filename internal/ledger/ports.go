// Package ledger defines the ports for durable keyed storage of the four
// record collections: daily entries, back-safe withdrawals, the balance
// snapshot and monthly archives. Implementations carry no business logic.
package ledger

import (
	"context"

	"cashrecon/internal/core"
)

type (
	// EntryStore stores daily entries, listed newest-first.
	EntryStore interface {
		ListEntries(ctx context.Context) ([]core.DailyEntry, error)
		// ListEntriesForMonth returns the entries whose date falls in the
		// given YYYY-MM month, newest-first.
		ListEntriesForMonth(ctx context.Context, month string) ([]core.DailyEntry, error)
		GetEntry(ctx context.Context, id string) (core.DailyEntry, error)
		// PutEntry upserts by id; new entries go to the head of the list.
		PutEntry(ctx context.Context, e core.DailyEntry) error
		DeleteEntry(ctx context.Context, id string) error
	}

	// WithdrawalStore stores back-safe withdrawals, listed newest-first.
	WithdrawalStore interface {
		ListWithdrawals(ctx context.Context) ([]core.BackSafeWithdrawal, error)
		ListWithdrawalsForMonth(ctx context.Context, month string) ([]core.BackSafeWithdrawal, error)
		GetWithdrawal(ctx context.Context, id string) (core.BackSafeWithdrawal, error)
		PutWithdrawal(ctx context.Context, w core.BackSafeWithdrawal) error
		DeleteWithdrawal(ctx context.Context, id string) error
	}

	// BalanceStore stores the singleton balance snapshot. A missing snapshot
	// reads as the zero value, never as an error.
	BalanceStore interface {
		GetBalances(ctx context.Context) (core.SafeBalances, error)
		PutBalances(ctx context.Context, b core.SafeBalances) error
	}

	// ArchiveStore stores monthly archives keyed by YYYY-MM, listed
	// newest-first by month.
	ArchiveStore interface {
		ListArchives(ctx context.Context) ([]core.MonthlyArchive, error)
		GetArchive(ctx context.Context, month string) (core.MonthlyArchive, error)
		PutArchive(ctx context.Context, a core.MonthlyArchive) error
	}

	// Store is the full ledger storage contract. Lookups for missing ids
	// return core.ErrNotFound; no cross-collection transactionality is
	// assumed by callers.
	Store interface {
		EntryStore
		WithdrawalStore
		BalanceStore
		ArchiveStore
	}
)
