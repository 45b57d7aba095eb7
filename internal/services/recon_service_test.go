package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cashrecon/internal/core"
	"cashrecon/internal/ledger/memory"
)

func newRecon(t *testing.T) (*ReconService, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewReconService(store, nil), store
}

func seedBalances(t *testing.T, store *memory.Store, front, back int64) {
	t.Helper()
	err := store.PutBalances(context.Background(), core.SafeBalances{
		FrontSafe:   core.Money{Cents: front},
		BackSafe:    core.Money{Cents: back},
		LastUpdated: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed balances: %v", err)
	}
}

func TestSaveEntryComputesDerivedFields(t *testing.T) {
	ctx := context.Background()
	svc, store := newRecon(t)
	seedBalances(t, store, 10000, 0)

	// previousBalance=100.00, cashIn=50.00, deposited=20.00, toBackSafe=30.00
	saved, err := svc.SaveEntry(ctx, core.DailyEntry{
		Date:        "2024-03-05",
		CashIn:      core.Money{Cents: 5000},
		Deposited:   core.Money{Cents: 2000},
		ToBackSafe:  core.Money{Cents: 3000},
		LeftInFront: core.Money{Cents: 10000},
	}, false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("entry should get an id")
	}
	if saved.ExpectedFrontSafe.Cents != 10000 || saved.Difference.Cents != 0 || !saved.IsBalanced {
		t.Fatalf("derived fields wrong: %+v", saved)
	}

	balances, _ := store.GetBalances(ctx)
	if balances.FrontSafe.Cents != 10000 || balances.BackSafe.Cents != 3000 {
		t.Fatalf("snapshot wrong after save: %+v", balances)
	}

	// Second day reconciles against the first day's count; a short count is
	// flagged.
	saved2, err := svc.SaveEntry(ctx, core.DailyEntry{
		Date:        "2024-03-06",
		CashIn:      core.Money{Cents: 5000},
		Deposited:   core.Money{Cents: 2000},
		ToBackSafe:  core.Money{Cents: 3000},
		LeftInFront: core.Money{Cents: 9500},
	}, false)
	if err != nil {
		t.Fatalf("save second: %v", err)
	}
	if saved2.ExpectedFrontSafe.Cents != 10000 || saved2.Difference.Cents != -500 || saved2.IsBalanced {
		t.Fatalf("shortage not detected: %+v", saved2)
	}
}

func TestSaveEntryRequiresDate(t *testing.T) {
	svc, _ := newRecon(t)
	_, err := svc.SaveEntry(context.Background(), core.DailyEntry{}, false)
	if !errors.Is(err, core.ErrMissingDate) {
		t.Fatalf("expected ErrMissingDate, got %v", err)
	}
}

func TestEditEntryAdjustsBackSafeByDelta(t *testing.T) {
	ctx := context.Background()
	svc, store := newRecon(t)
	seedBalances(t, store, 10000, 0)

	saved, err := svc.SaveEntry(ctx, core.DailyEntry{
		Date:        "2024-03-05",
		CashIn:      core.Money{Cents: 5000},
		Deposited:   core.Money{Cents: 2000},
		ToBackSafe:  core.Money{Cents: 3000},
		LeftInFront: core.Money{Cents: 10000},
	}, false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// Lower the transfer from 30.00 to 10.00: the back safe must be
	// corrected by the delta, not double-counted.
	saved.ToBackSafe = core.Money{Cents: 1000}
	saved.LeftInFront = core.Money{Cents: 12000}
	edited, err := svc.SaveEntry(ctx, saved, true)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	balances, _ := store.GetBalances(ctx)
	if balances.BackSafe.Cents != 1000 {
		t.Fatalf("back safe after edit = %d, want 1000", balances.BackSafe.Cents)
	}
	if balances.FrontSafe.Cents != 12000 {
		t.Fatalf("front safe after edit = %d, want 12000", balances.FrontSafe.Cents)
	}
	// The edit recomputes against the same baseline the original used.
	if edited.ExpectedFrontSafe.Cents != 12000 || edited.Difference.Cents != 0 {
		t.Fatalf("edit baseline wrong: %+v", edited)
	}
	if !edited.CreatedAt.Equal(saved.CreatedAt) {
		t.Fatal("edit must preserve createdAt")
	}
}

func TestDeleteEntryReversesTransfer(t *testing.T) {
	ctx := context.Background()
	svc, store := newRecon(t)
	seedBalances(t, store, 10000, 0)

	first, _ := svc.SaveEntry(ctx, core.DailyEntry{
		Date:        "2024-03-05",
		CashIn:      core.Money{Cents: 5000},
		Deposited:   core.Money{Cents: 2000},
		ToBackSafe:  core.Money{Cents: 3000},
		LeftInFront: core.Money{Cents: 10000},
	}, false)
	second, _ := svc.SaveEntry(ctx, core.DailyEntry{
		Date:        "2024-03-06",
		CashIn:      core.Money{Cents: 1000},
		ToBackSafe:  core.Money{Cents: 500},
		LeftInFront: core.Money{Cents: 10500},
	}, false)

	if err := svc.DeleteEntry(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	balances, _ := store.GetBalances(ctx)
	if balances.BackSafe.Cents != 3000 {
		t.Fatalf("back safe after delete = %d, want 3000", balances.BackSafe.Cents)
	}
	if balances.FrontSafe.Cents != first.LeftInFront.Cents {
		t.Fatalf("front safe should re-derive from remaining head, got %d", balances.FrontSafe.Cents)
	}

	if err := svc.DeleteEntry(ctx, second.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("deleting a missing entry should be ErrNotFound, got %v", err)
	}
}

func TestWithdrawalLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store := newRecon(t)
	seedBalances(t, store, 0, 10000)

	// $40 against $100.
	w, err := svc.CreateWithdrawal(ctx, core.Money{Cents: 4000}, "bank deposit")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	balances, _ := store.GetBalances(ctx)
	if balances.BackSafe.Cents != 6000 {
		t.Fatalf("back safe = %d, want 6000", balances.BackSafe.Cents)
	}

	// Edit to $25: delta −15, balance back up to $75.
	if _, err := svc.UpdateWithdrawal(ctx, w.ID, core.Money{Cents: 2500}, "bank deposit"); err != nil {
		t.Fatalf("update: %v", err)
	}
	balances, _ = store.GetBalances(ctx)
	if balances.BackSafe.Cents != 7500 {
		t.Fatalf("back safe after edit = %d, want 7500", balances.BackSafe.Cents)
	}

	// Delete restores the amount: exact inverse of create.
	if err := svc.DeleteWithdrawal(ctx, w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	balances, _ = store.GetBalances(ctx)
	if balances.BackSafe.Cents != 10000 {
		t.Fatalf("back safe after delete = %d, want 10000", balances.BackSafe.Cents)
	}

	if _, err := svc.UpdateWithdrawal(ctx, w.ID, core.Money{Cents: 100}, "x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update of deleted withdrawal should be ErrNotFound, got %v", err)
	}
}

func TestWithdrawalBoundary(t *testing.T) {
	ctx := context.Background()
	svc, store := newRecon(t)
	seedBalances(t, store, 0, 10000)

	// One cent over the balance fails before anything is written.
	if _, err := svc.CreateWithdrawal(ctx, core.Money{Cents: 10001}, "too much"); !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	withdrawals, _ := store.ListWithdrawals(ctx)
	if len(withdrawals) != 0 {
		t.Fatal("failed withdrawal must not be persisted")
	}

	// Exactly the balance drives it to zero.
	if _, err := svc.CreateWithdrawal(ctx, core.Money{Cents: 10000}, "empty the safe"); err != nil {
		t.Fatalf("exact-balance withdrawal: %v", err)
	}
	balances, _ := store.GetBalances(ctx)
	if balances.BackSafe.Cents != 0 {
		t.Fatalf("back safe = %d, want 0", balances.BackSafe.Cents)
	}
}

func TestConservation(t *testing.T) {
	ctx := context.Background()
	svc, store := newRecon(t)
	const initialBack = 5000
	seedBalances(t, store, 0, initialBack)

	_, _ = svc.SaveEntry(ctx, core.DailyEntry{Date: "2024-03-01", ToBackSafe: core.Money{Cents: 3000}, LeftInFront: core.Money{Cents: 100}}, false)
	_, _ = svc.SaveEntry(ctx, core.DailyEntry{Date: "2024-03-02", ToBackSafe: core.Money{Cents: 2000}, LeftInFront: core.Money{Cents: 200}}, false)
	w, _ := svc.CreateWithdrawal(ctx, core.Money{Cents: 1500}, "change")
	_, _ = svc.UpdateWithdrawal(ctx, w.ID, core.Money{Cents: 2500}, "change")
	w2, _ := svc.CreateWithdrawal(ctx, core.Money{Cents: 1000}, "deposit")
	_ = svc.DeleteWithdrawal(ctx, w2.ID)

	entries, _ := store.ListEntries(ctx)
	withdrawals, _ := store.ListWithdrawals(ctx)
	want := int64(initialBack) + core.NetBackSafeEffect(entries, withdrawals).Cents

	balances, _ := store.GetBalances(ctx)
	if balances.BackSafe.Cents != want {
		t.Fatalf("conservation broken: snapshot %d, ledger %d", balances.BackSafe.Cents, want)
	}
}

func TestApproveEntry(t *testing.T) {
	ctx := context.Background()
	svc, store := newRecon(t)
	seedBalances(t, store, 10000, 0)

	balanced, _ := svc.SaveEntry(ctx, core.DailyEntry{
		Date:        "2024-03-05",
		LeftInFront: core.Money{Cents: 10000},
	}, false)
	if _, err := svc.ApproveEntry(ctx, balanced.ID, "why"); !errors.Is(err, core.ErrEntryBalanced) {
		t.Fatalf("approving a balanced entry should fail, got %v", err)
	}

	short, _ := svc.SaveEntry(ctx, core.DailyEntry{
		Date:        "2024-03-06",
		LeftInFront: core.Money{Cents: 9000},
	}, false)
	approved, err := svc.ApproveEntry(ctx, short.ID, "till counted twice, verified")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.ManuallyApproved || approved.ApprovalNote == "" || approved.ApprovedAt == nil {
		t.Fatalf("approval fields not set: %+v", approved)
	}
	// Figures untouched.
	if approved.Difference.Cents != short.Difference.Cents {
		t.Fatal("approval must not change the financial figures")
	}

	cleared, err := svc.RemoveApproval(ctx, short.ID)
	if err != nil {
		t.Fatalf("remove approval: %v", err)
	}
	if cleared.ManuallyApproved || cleared.ApprovalNote != "" || cleared.ApprovedAt != nil {
		t.Fatalf("approval fields not cleared: %+v", cleared)
	}

	if _, err := svc.ApproveEntry(ctx, "missing", "x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("approve missing should be ErrNotFound, got %v", err)
	}
}

func TestRebuildBalances(t *testing.T) {
	ctx := context.Background()
	svc, store := newRecon(t)

	_, _ = svc.SaveEntry(ctx, core.DailyEntry{Date: "2024-03-01", ToBackSafe: core.Money{Cents: 3000}, LeftInFront: core.Money{Cents: 8000}}, false)
	w, _ := svc.CreateWithdrawal(ctx, core.Money{Cents: 1000}, "change")
	_ = w

	// Corrupt the snapshot, then rebuild it from the ledger.
	seedBalances(t, store, 1, 1)
	rebuilt, err := svc.RebuildBalances(ctx)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if rebuilt.FrontSafe.Cents != 8000 || rebuilt.BackSafe.Cents != 2000 {
		t.Fatalf("rebuilt snapshot wrong: %+v", rebuilt)
	}
}
