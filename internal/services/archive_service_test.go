package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cashrecon/internal/core"
	"cashrecon/internal/ledger/memory"
)

func newArchive(t *testing.T) (*ArchiveService, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewArchiveService(store, nil), store
}

// seedMonth puts entries oldest-first so the store's head is the month's
// newest entry, matching live insertion order.
func seedMonth(t *testing.T, store *memory.Store, month string, leftInFront []int64, toBack []int64) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	for i := range leftInFront {
		e := core.DailyEntry{
			ID:          month + "-e" + string(rune('a'+i)),
			Date:        month + "-0" + string(rune('1'+i)),
			ToBackSafe:  core.Money{Cents: toBack[i]},
			LeftInFront: core.Money{Cents: leftInFront[i]},
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.PutEntry(ctx, e); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}
}

func TestCloseMonthRejectsEmptyAndInvalid(t *testing.T) {
	ctx := context.Background()
	svc, _ := newArchive(t)

	if _, err := svc.CloseMonth(ctx, "2024-02"); !errors.Is(err, core.ErrEmptyMonth) {
		t.Fatalf("empty month should fail with ErrEmptyMonth, got %v", err)
	}
	if _, err := svc.CloseMonth(ctx, "february"); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("bad key should fail with ErrInvalidMonth, got %v", err)
	}
}

func TestCloseMonthCarryForward(t *testing.T) {
	ctx := context.Background()
	svc, store := newArchive(t)

	// February: two entries, ends with 250.00 in front, 80.00 transferred,
	// 30.00 withdrawn.
	seedMonth(t, store, "2024-02", []int64{20000, 25000}, []int64{5000, 3000})
	_ = store.PutWithdrawal(ctx, core.BackSafeWithdrawal{
		ID: "w-feb", Date: "2024-02-15", Amount: core.Money{Cents: 3000}, CreatedAt: time.Now(),
	})

	feb, err := svc.CloseMonth(ctx, "2024-02")
	if err != nil {
		t.Fatalf("close february: %v", err)
	}
	if feb.StartingFrontSafe.Cents != 0 || feb.StartingBackSafe.Cents != 0 {
		t.Fatalf("first close should start from zero: %+v", feb)
	}
	if feb.EndingFrontSafe.Cents != 25000 {
		t.Fatalf("ending front = %d, want 25000", feb.EndingFrontSafe.Cents)
	}
	if feb.EndingBackSafe.Cents != 5000 { // 5000+3000-3000
		t.Fatalf("ending back = %d, want 5000", feb.EndingBackSafe.Cents)
	}
	if !feb.IsClosed || feb.ClosedAt == nil {
		t.Fatalf("archive not marked closed: %+v", feb)
	}
	if len(feb.Entries) != 2 || len(feb.Withdrawals) != 1 {
		t.Fatalf("archive snapshot incomplete: %+v", feb)
	}

	// March starts where February ended.
	starting, err := svc.MonthStartingBalances(ctx, "2024-03")
	if err != nil {
		t.Fatalf("starting balances: %v", err)
	}
	if starting.FrontSafe.Cents != 25000 || starting.BackSafe.Cents != 5000 {
		t.Fatalf("carry-forward wrong: %+v", starting)
	}

	// A month with no prior closed archive starts from zero.
	starting, err = svc.MonthStartingBalances(ctx, "2024-01")
	if err != nil {
		t.Fatalf("starting balances: %v", err)
	}
	if starting.FrontSafe.Cents != 0 || starting.BackSafe.Cents != 0 {
		t.Fatalf("no-archive starting balances should be zero: %+v", starting)
	}

	// March close chains on February's endings.
	seedMonth(t, store, "2024-03", []int64{26000}, []int64{1000})
	march, err := svc.CloseMonth(ctx, "2024-03")
	if err != nil {
		t.Fatalf("close march: %v", err)
	}
	if march.StartingBackSafe.Cents != 5000 || march.EndingBackSafe.Cents != 6000 {
		t.Fatalf("march back safe chain wrong: %+v", march)
	}
}

func TestCloseMonthIsolatedFromOtherMonths(t *testing.T) {
	ctx := context.Background()
	svc, store := newArchive(t)

	seedMonth(t, store, "2024-02", []int64{10000}, []int64{2000})
	seedMonth(t, store, "2024-03", []int64{99999}, []int64{77777})

	feb, err := svc.CloseMonth(ctx, "2024-02")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	// March activity must not leak into February's archive.
	if feb.EndingFrontSafe.Cents != 10000 || feb.EndingBackSafe.Cents != 2000 {
		t.Fatalf("other months leaked into archive: %+v", feb)
	}
}

func TestCloseMonthCalledOnceSafe(t *testing.T) {
	ctx := context.Background()
	svc, store := newArchive(t)
	seedMonth(t, store, "2024-02", []int64{15000}, []int64{4000})

	first, err := svc.CloseMonth(ctx, "2024-02")
	if err != nil {
		t.Fatalf("first close: %v", err)
	}
	second, err := svc.CloseMonth(ctx, "2024-02")
	if err != nil {
		t.Fatalf("second close: %v", err)
	}

	// Identical except possibly closedAt.
	first.ClosedAt = nil
	second.ClosedAt = nil
	if first.Month != second.Month ||
		first.StartingFrontSafe != second.StartingFrontSafe ||
		first.StartingBackSafe != second.StartingBackSafe ||
		first.EndingFrontSafe != second.EndingFrontSafe ||
		first.EndingBackSafe != second.EndingBackSafe ||
		len(first.Entries) != len(second.Entries) ||
		len(first.Withdrawals) != len(second.Withdrawals) {
		t.Fatalf("re-close drifted: %+v != %+v", first, second)
	}

	archives, _ := store.ListArchives(ctx)
	if len(archives) != 1 {
		t.Fatalf("re-close must upsert, found %d archives", len(archives))
	}
}

func TestAvailableMonths(t *testing.T) {
	ctx := context.Background()
	svc, store := newArchive(t)

	seedMonth(t, store, "2024-02", []int64{100}, []int64{0})
	seedMonth(t, store, "2024-04", []int64{200}, []int64{0})
	_ = store.PutArchive(ctx, core.MonthlyArchive{Month: "2023-12", IsClosed: true})

	months, err := svc.AvailableMonths(ctx)
	if err != nil {
		t.Fatalf("available months: %v", err)
	}

	seen := map[string]int{}
	for _, m := range months {
		seen[m]++
	}
	for _, want := range []string{"2024-02", "2024-04", "2023-12", core.CurrentMonth(time.Now())} {
		if seen[want] != 1 {
			t.Fatalf("month %s missing or duplicated: %v", want, months)
		}
	}
	for i := 1; i < len(months); i++ {
		if months[i-1] <= months[i] {
			t.Fatalf("months not descending: %v", months)
		}
	}
}

func TestMonthViewLive(t *testing.T) {
	ctx := context.Background()
	svc, store := newArchive(t)

	seedMonth(t, store, "2024-02", []int64{10000}, []int64{2000})
	if _, err := svc.CloseMonth(ctx, "2024-02"); err != nil {
		t.Fatalf("close: %v", err)
	}
	seedMonth(t, store, "2024-03", []int64{11000}, []int64{500})

	view, err := svc.MonthView(ctx, "2024-03")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.IsClosed {
		t.Fatal("live month view must not be closed")
	}
	if view.StartingFrontSafe.Cents != 10000 || view.StartingBackSafe.Cents != 2000 {
		t.Fatalf("live view starting balances wrong: %+v", view)
	}
	if view.EndingFrontSafe.Cents != 11000 || view.EndingBackSafe.Cents != 2500 {
		t.Fatalf("live view current balances wrong: %+v", view)
	}

	// A closed month's view is its archive.
	closed, err := svc.MonthView(ctx, "2024-02")
	if err != nil {
		t.Fatalf("closed view: %v", err)
	}
	if !closed.IsClosed {
		t.Fatal("closed month view should come from the archive")
	}
}
