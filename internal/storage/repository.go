// Package storage provides the SQLite-backed ledger store. Monetary values
// are persisted as integer cents and archives embed their month snapshot as
// JSON, so an archive row is self-contained even if live rows change later.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"cashrecon/internal/core"
	"cashrecon/internal/ledger"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

const entryColumns = `id, date, cash_in_cents, deposited_cents, to_back_safe_cents,
	left_in_front_cents, expected_front_safe_cents, difference_cents, is_balanced,
	notes, manually_approved, approval_note, approved_at, created_at, updated_at`

func scanEntry(row interface{ Scan(...any) error }) (core.DailyEntry, error) {
	var (
		e          core.DailyEntry
		approvedAt sql.NullTime
	)
	err := row.Scan(
		&e.ID, &e.Date, &e.CashIn.Cents, &e.Deposited.Cents, &e.ToBackSafe.Cents,
		&e.LeftInFront.Cents, &e.ExpectedFrontSafe.Cents, &e.Difference.Cents, &e.IsBalanced,
		&e.Notes, &e.ManuallyApproved, &e.ApprovalNote, &approvedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return core.DailyEntry{}, err
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		e.ApprovedAt = &t
	}
	return e, nil
}

func (r *SQLiteRepository) listEntries(ctx context.Context, query string, args ...any) ([]core.DailyEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []core.DailyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.DailyEntry, error) {
	return r.listEntries(ctx,
		`SELECT `+entryColumns+` FROM entries ORDER BY created_at DESC, rowid DESC`)
}

func (r *SQLiteRepository) ListEntriesForMonth(ctx context.Context, month string) ([]core.DailyEntry, error) {
	return r.listEntries(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE date LIKE ? ORDER BY created_at DESC, rowid DESC`,
		month+"-%")
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id string) (core.DailyEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DailyEntry{}, core.ErrNotFound
	}
	if err != nil {
		return core.DailyEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) PutEntry(ctx context.Context, e core.DailyEntry) error {
	var approvedAt sql.NullTime
	if e.ApprovedAt != nil {
		approvedAt = sql.NullTime{Time: *e.ApprovedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			cash_in_cents = excluded.cash_in_cents,
			deposited_cents = excluded.deposited_cents,
			to_back_safe_cents = excluded.to_back_safe_cents,
			left_in_front_cents = excluded.left_in_front_cents,
			expected_front_safe_cents = excluded.expected_front_safe_cents,
			difference_cents = excluded.difference_cents,
			is_balanced = excluded.is_balanced,
			notes = excluded.notes,
			manually_approved = excluded.manually_approved,
			approval_note = excluded.approval_note,
			approved_at = excluded.approved_at,
			updated_at = excluded.updated_at`,
		e.ID, e.Date, e.CashIn.Cents, e.Deposited.Cents, e.ToBackSafe.Cents,
		e.LeftInFront.Cents, e.ExpectedFrontSafe.Cents, e.Difference.Cents, e.IsBalanced,
		e.Notes, e.ManuallyApproved, e.ApprovalNote, approvedAt, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

const withdrawalColumns = `id, date, amount_cents, reason, created_at`

func (r *SQLiteRepository) listWithdrawals(ctx context.Context, query string, args ...any) ([]core.BackSafeWithdrawal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []core.BackSafeWithdrawal
	for rows.Next() {
		var w core.BackSafeWithdrawal
		if err := rows.Scan(&w.ID, &w.Date, &w.Amount.Cents, &w.Reason, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (r *SQLiteRepository) ListWithdrawals(ctx context.Context) ([]core.BackSafeWithdrawal, error) {
	return r.listWithdrawals(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals ORDER BY created_at DESC, rowid DESC`)
}

func (r *SQLiteRepository) ListWithdrawalsForMonth(ctx context.Context, month string) ([]core.BackSafeWithdrawal, error) {
	return r.listWithdrawals(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE date LIKE ? ORDER BY created_at DESC, rowid DESC`,
		month+"-%")
}

func (r *SQLiteRepository) GetWithdrawal(ctx context.Context, id string) (core.BackSafeWithdrawal, error) {
	var w core.BackSafeWithdrawal
	err := r.db.QueryRowContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = ?`, id).
		Scan(&w.ID, &w.Date, &w.Amount.Cents, &w.Reason, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BackSafeWithdrawal{}, core.ErrNotFound
	}
	if err != nil {
		return core.BackSafeWithdrawal{}, fmt.Errorf("get withdrawal: %w", err)
	}
	return w, nil
}

func (r *SQLiteRepository) PutWithdrawal(ctx context.Context, w core.BackSafeWithdrawal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO withdrawals (`+withdrawalColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			amount_cents = excluded.amount_cents,
			reason = excluded.reason`,
		w.ID, w.Date, w.Amount.Cents, w.Reason, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("put withdrawal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteWithdrawal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM withdrawals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete withdrawal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete withdrawal: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetBalances(ctx context.Context) (core.SafeBalances, error) {
	var b core.SafeBalances
	err := r.db.QueryRowContext(ctx,
		`SELECT front_safe_cents, back_safe_cents, last_updated FROM balances WHERE id = 1`).
		Scan(&b.FrontSafe.Cents, &b.BackSafe.Cents, &b.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SafeBalances{}, nil
	}
	if err != nil {
		return core.SafeBalances{}, fmt.Errorf("get balances: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) PutBalances(ctx context.Context, b core.SafeBalances) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO balances (id, front_safe_cents, back_safe_cents, last_updated)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			front_safe_cents = excluded.front_safe_cents,
			back_safe_cents = excluded.back_safe_cents,
			last_updated = excluded.last_updated`,
		b.FrontSafe.Cents, b.BackSafe.Cents, b.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("put balances: %w", err)
	}
	return nil
}

const archiveColumns = `month, starting_front_safe_cents, starting_back_safe_cents,
	ending_front_safe_cents, ending_back_safe_cents, entries_json, withdrawals_json,
	is_closed, closed_at`

func scanArchive(row interface{ Scan(...any) error }) (core.MonthlyArchive, error) {
	var (
		a               core.MonthlyArchive
		entriesJSON     []byte
		withdrawalsJSON []byte
		closedAt        sql.NullTime
	)
	err := row.Scan(
		&a.Month, &a.StartingFrontSafe.Cents, &a.StartingBackSafe.Cents,
		&a.EndingFrontSafe.Cents, &a.EndingBackSafe.Cents, &entriesJSON, &withdrawalsJSON,
		&a.IsClosed, &closedAt,
	)
	if err != nil {
		return core.MonthlyArchive{}, err
	}
	if err := json.Unmarshal(entriesJSON, &a.Entries); err != nil {
		return core.MonthlyArchive{}, fmt.Errorf("decode archive entries: %w", err)
	}
	if err := json.Unmarshal(withdrawalsJSON, &a.Withdrawals); err != nil {
		return core.MonthlyArchive{}, fmt.Errorf("decode archive withdrawals: %w", err)
	}
	if closedAt.Valid {
		t := closedAt.Time
		a.ClosedAt = &t
	}
	return a, nil
}

func (r *SQLiteRepository) ListArchives(ctx context.Context) ([]core.MonthlyArchive, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+archiveColumns+` FROM archives ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("query archives: %w", err)
	}
	defer rows.Close()

	var archives []core.MonthlyArchive
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		archives = append(archives, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archives: %w", err)
	}
	return archives, nil
}

func (r *SQLiteRepository) GetArchive(ctx context.Context, month string) (core.MonthlyArchive, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+archiveColumns+` FROM archives WHERE month = ?`, month)
	a, err := scanArchive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyArchive{}, core.ErrNotFound
	}
	if err != nil {
		return core.MonthlyArchive{}, fmt.Errorf("get archive: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) PutArchive(ctx context.Context, a core.MonthlyArchive) error {
	entries := a.Entries
	if entries == nil {
		entries = []core.DailyEntry{}
	}
	withdrawals := a.Withdrawals
	if withdrawals == nil {
		withdrawals = []core.BackSafeWithdrawal{}
	}
	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode archive entries: %w", err)
	}
	withdrawalsJSON, err := json.Marshal(withdrawals)
	if err != nil {
		return fmt.Errorf("encode archive withdrawals: %w", err)
	}

	var closedAt sql.NullTime
	if a.ClosedAt != nil {
		closedAt = sql.NullTime{Time: *a.ClosedAt, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO archives (`+archiveColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(month) DO UPDATE SET
			starting_front_safe_cents = excluded.starting_front_safe_cents,
			starting_back_safe_cents = excluded.starting_back_safe_cents,
			ending_front_safe_cents = excluded.ending_front_safe_cents,
			ending_back_safe_cents = excluded.ending_back_safe_cents,
			entries_json = excluded.entries_json,
			withdrawals_json = excluded.withdrawals_json,
			is_closed = excluded.is_closed,
			closed_at = excluded.closed_at`,
		a.Month, a.StartingFrontSafe.Cents, a.StartingBackSafe.Cents,
		a.EndingFrontSafe.Cents, a.EndingBackSafe.Cents, entriesJSON, withdrawalsJSON,
		a.IsClosed, closedAt,
	)
	if err != nil {
		return fmt.Errorf("put archive: %w", err)
	}
	return nil
}
