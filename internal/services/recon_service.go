package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cashrecon/internal/amqp"
	"cashrecon/internal/core"
	"cashrecon/internal/ledger"
)

// ReconService is the reconciliation engine: it keeps daily entries, their
// derived balance fields and the safe-balance snapshot consistent. The
// ledger is the source of truth; the snapshot is adjusted with the explicit
// deltas each operation introduces and can always be rebuilt from scratch.
type ReconService struct {
	store      ledger.Store
	amqpClient *amqp.Client
}

func NewReconService(store ledger.Store, amqpClient *amqp.Client) *ReconService {
	return &ReconService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// SaveEntry validates, recomputes the derived fields and upserts a daily
// entry. For a new entry the previous balance is the head entry's counted
// leftInFront (or the snapshot when the ledger is empty); an edit recomputes
// against the same baseline the stored entry used. The back-safe snapshot
// moves by the change in toBackSafe so an edited transfer is corrected, not
// double-counted.
func (s *ReconService) SaveEntry(ctx context.Context, e core.DailyEntry, isEditing bool) (core.DailyEntry, error) {
	if err := e.Validate(); err != nil {
		return core.DailyEntry{}, err
	}

	now := time.Now()
	var previous core.Money
	var previousToBackSafe core.Money

	existing, err := s.existingEntry(ctx, e.ID, isEditing)
	switch {
	case err != nil:
		return core.DailyEntry{}, err
	case existing != nil:
		previous = core.PreviousBalanceOf(*existing)
		previousToBackSafe = existing.ToBackSafe
		e.CreatedAt = existing.CreatedAt
	default:
		entries, err := s.store.ListEntries(ctx)
		if err != nil {
			return core.DailyEntry{}, fmt.Errorf("list entries: %w", err)
		}
		balances, err := s.store.GetBalances(ctx)
		if err != nil {
			return core.DailyEntry{}, fmt.Errorf("get balances: %w", err)
		}
		previous = core.PreviousFrontBalance(entries, balances)
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.CreatedAt = now
	}

	e.UpdatedAt = now
	e.Recompute(previous)

	if err := s.store.PutEntry(ctx, e); err != nil {
		return core.DailyEntry{}, fmt.Errorf("put entry: %w", err)
	}

	delta := e.ToBackSafe.Cents - previousToBackSafe.Cents
	err = s.updateBalances(ctx, func(b *core.SafeBalances) {
		b.FrontSafe = e.LeftInFront
		b.BackSafe.Cents += delta
	})
	if err != nil {
		return core.DailyEntry{}, err
	}

	slog.InfoContext(ctx, "Entry saved",
		"entry_id", e.ID,
		"date", e.Date,
		"difference_cents", e.Difference.Cents,
		"is_balanced", e.IsBalanced,
		"editing", existing != nil)

	s.publishEvent(ctx, amqp.KindEntrySaved, e.ID, e.Date)
	return e, nil
}

// existingEntry resolves the entry an edit targets. A missing id with
// isEditing set falls through to insert, matching upsert semantics.
func (s *ReconService) existingEntry(ctx context.Context, id string, isEditing bool) (*core.DailyEntry, error) {
	if !isEditing || id == "" {
		return nil, nil
	}
	e, err := s.store.GetEntry(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}

// DeleteEntry removes an entry and reverses its monetary side effects: the
// back safe gives up the entry's transfer and the front safe re-derives from
// the remaining ledger head. Symmetric with DeleteWithdrawal.
func (s *ReconService) DeleteEntry(ctx context.Context, id string) error {
	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	remaining, err := s.store.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	err = s.updateBalances(ctx, func(b *core.SafeBalances) {
		b.BackSafe.Cents -= entry.ToBackSafe.Cents
		if len(remaining) > 0 {
			b.FrontSafe = remaining[0].LeftInFront
		}
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Entry deleted",
		"entry_id", id,
		"date", entry.Date,
		"reversed_to_back_safe_cents", entry.ToBackSafe.Cents)

	s.publishEvent(ctx, amqp.KindEntryDeleted, id, entry.Date)
	return nil
}

// CreateWithdrawal removes cash from the back safe. The balance guard runs
// before anything is written.
func (s *ReconService) CreateWithdrawal(ctx context.Context, amount core.Money, reason string) (core.BackSafeWithdrawal, error) {
	balances, err := s.store.GetBalances(ctx)
	if err != nil {
		return core.BackSafeWithdrawal{}, fmt.Errorf("get balances: %w", err)
	}
	if amount.Cents > balances.BackSafe.Cents {
		return core.BackSafeWithdrawal{}, core.ErrInsufficientBalance
	}

	now := time.Now()
	w := core.BackSafeWithdrawal{
		ID:        uuid.NewString(),
		Date:      now.Format(core.DateLayout),
		Amount:    amount,
		Reason:    reason,
		CreatedAt: now,
	}
	if err := s.store.PutWithdrawal(ctx, w); err != nil {
		return core.BackSafeWithdrawal{}, fmt.Errorf("put withdrawal: %w", err)
	}
	err = s.updateBalances(ctx, func(b *core.SafeBalances) {
		b.BackSafe.Cents -= amount.Cents
	})
	if err != nil {
		return core.BackSafeWithdrawal{}, err
	}

	slog.InfoContext(ctx, "Withdrawal created",
		"withdrawal_id", w.ID,
		"amount_cents", amount.Cents,
		"reason", reason)

	s.publishEvent(ctx, amqp.KindWithdrawalSaved, w.ID, w.Date)
	return w, nil
}

// UpdateWithdrawal changes a withdrawal's amount and reason. Only the delta
// is applied to the back safe, and only after the guard passes.
func (s *ReconService) UpdateWithdrawal(ctx context.Context, id string, newAmount core.Money, newReason string) (core.BackSafeWithdrawal, error) {
	w, err := s.store.GetWithdrawal(ctx, id)
	if err != nil {
		return core.BackSafeWithdrawal{}, err
	}
	balances, err := s.store.GetBalances(ctx)
	if err != nil {
		return core.BackSafeWithdrawal{}, fmt.Errorf("get balances: %w", err)
	}

	delta := newAmount.Cents - w.Amount.Cents
	if delta > balances.BackSafe.Cents {
		return core.BackSafeWithdrawal{}, core.ErrInsufficientBalance
	}

	w.Amount = newAmount
	w.Reason = newReason
	if err := s.store.PutWithdrawal(ctx, w); err != nil {
		return core.BackSafeWithdrawal{}, fmt.Errorf("put withdrawal: %w", err)
	}
	err = s.updateBalances(ctx, func(b *core.SafeBalances) {
		b.BackSafe.Cents -= delta
	})
	if err != nil {
		return core.BackSafeWithdrawal{}, err
	}

	slog.InfoContext(ctx, "Withdrawal updated",
		"withdrawal_id", id,
		"delta_cents", delta)

	s.publishEvent(ctx, amqp.KindWithdrawalSaved, w.ID, w.Date)
	return w, nil
}

// DeleteWithdrawal removes a withdrawal and restores its amount to the back
// safe. Exact inverse of CreateWithdrawal.
func (s *ReconService) DeleteWithdrawal(ctx context.Context, id string) error {
	w, err := s.store.GetWithdrawal(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteWithdrawal(ctx, id); err != nil {
		return fmt.Errorf("delete withdrawal: %w", err)
	}
	err = s.updateBalances(ctx, func(b *core.SafeBalances) {
		b.BackSafe.Cents += w.Amount.Cents
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Withdrawal deleted",
		"withdrawal_id", id,
		"restored_cents", w.Amount.Cents)

	s.publishEvent(ctx, amqp.KindWithdrawalDeleted, id, w.Date)
	return nil
}

// ApproveEntry documents an acknowledged discrepancy on an unbalanced entry.
// Pure metadata; the financial figures stay untouched.
func (s *ReconService) ApproveEntry(ctx context.Context, id, note string) (core.DailyEntry, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return core.DailyEntry{}, err
	}
	if e.IsBalanced {
		return core.DailyEntry{}, core.ErrEntryBalanced
	}

	now := time.Now()
	e.ManuallyApproved = true
	e.ApprovalNote = note
	e.ApprovedAt = &now
	e.UpdatedAt = now
	if err := s.store.PutEntry(ctx, e); err != nil {
		return core.DailyEntry{}, fmt.Errorf("put entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry discrepancy approved",
		"entry_id", id,
		"difference_cents", e.Difference.Cents)
	return e, nil
}

// RemoveApproval clears a manual discrepancy approval.
func (s *ReconService) RemoveApproval(ctx context.Context, id string) (core.DailyEntry, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return core.DailyEntry{}, err
	}

	e.ManuallyApproved = false
	e.ApprovalNote = ""
	e.ApprovedAt = nil
	e.UpdatedAt = time.Now()
	if err := s.store.PutEntry(ctx, e); err != nil {
		return core.DailyEntry{}, fmt.Errorf("put entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry approval removed", "entry_id", id)
	return e, nil
}

// Entries lists daily entries newest-first, optionally restricted to a
// YYYY-MM month.
func (s *ReconService) Entries(ctx context.Context, month string) ([]core.DailyEntry, error) {
	if month == "" {
		return s.store.ListEntries(ctx)
	}
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}
	return s.store.ListEntriesForMonth(ctx, month)
}

// Withdrawals lists back-safe withdrawals newest-first, optionally restricted
// to a YYYY-MM month.
func (s *ReconService) Withdrawals(ctx context.Context, month string) ([]core.BackSafeWithdrawal, error) {
	if month == "" {
		return s.store.ListWithdrawals(ctx)
	}
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}
	return s.store.ListWithdrawalsForMonth(ctx, month)
}

// Timeline projects the back-safe transaction timeline from the ledger.
func (s *ReconService) Timeline(ctx context.Context, filter core.TimelineFilter) ([]core.BackSafeTransaction, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	withdrawals, err := s.store.ListWithdrawals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return core.ProjectBackSafeTimeline(entries, withdrawals, filter), nil
}

// Balances returns the current snapshot.
func (s *ReconService) Balances(ctx context.Context) (core.SafeBalances, error) {
	return s.store.GetBalances(ctx)
}

// RebuildBalances recomputes the snapshot wholesale from the ledger: front
// safe from the head entry's count, back safe from the net of all transfers
// and withdrawals. Recovery path for a snapshot that drifted or was lost.
func (s *ReconService) RebuildBalances(ctx context.Context) (core.SafeBalances, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return core.SafeBalances{}, fmt.Errorf("list entries: %w", err)
	}
	withdrawals, err := s.store.ListWithdrawals(ctx)
	if err != nil {
		return core.SafeBalances{}, fmt.Errorf("list withdrawals: %w", err)
	}

	rebuilt := core.SafeBalances{
		BackSafe:    core.NetBackSafeEffect(entries, withdrawals),
		LastUpdated: time.Now(),
	}
	if len(entries) > 0 {
		rebuilt.FrontSafe = entries[0].LeftInFront
	}

	if err := s.store.PutBalances(ctx, rebuilt); err != nil {
		return core.SafeBalances{}, fmt.Errorf("put balances: %w", err)
	}

	slog.InfoContext(ctx, "Balances rebuilt from ledger",
		"front_safe_cents", rebuilt.FrontSafe.Cents,
		"back_safe_cents", rebuilt.BackSafe.Cents)
	return rebuilt, nil
}

func (s *ReconService) updateBalances(ctx context.Context, mutate func(*core.SafeBalances)) error {
	balances, err := s.store.GetBalances(ctx)
	if err != nil {
		return fmt.Errorf("get balances: %w", err)
	}
	mutate(&balances)
	balances.LastUpdated = time.Now()
	if err := s.store.PutBalances(ctx, balances); err != nil {
		return fmt.Errorf("put balances: %w", err)
	}
	return nil
}

// publishEvent is best-effort: the write already happened, so a broker
// failure is logged and swallowed.
func (s *ReconService) publishEvent(ctx context.Context, kind, id, date string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishLedgerEvent(ctx, kind, id, date); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind,
			"id", id,
			"error", err)
	}
}
