package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"cashrecon/internal/core"
)

func TestEntryUpsertOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.PutEntry(ctx, core.DailyEntry{ID: id, Date: "2024-03-01"}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	entries, err := s.ListEntries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 || entries[0].ID != "c" || entries[2].ID != "a" {
		t.Fatalf("newest-first order wrong: %+v", entries)
	}

	// Update in place keeps position.
	if err := s.PutEntry(ctx, core.DailyEntry{ID: "a", Date: "2024-03-02", Notes: "edited"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	entries, _ = s.ListEntries(ctx)
	if len(entries) != 3 || entries[2].Notes != "edited" {
		t.Fatalf("in-place update wrong: %+v", entries)
	}
}

func TestEntryMonthFilterAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.PutEntry(ctx, core.DailyEntry{ID: "m1", Date: "2024-03-05"})
	_ = s.PutEntry(ctx, core.DailyEntry{ID: "m2", Date: "2024-04-01"})

	march, err := s.ListEntriesForMonth(ctx, "2024-03")
	if err != nil || len(march) != 1 || march[0].ID != "m1" {
		t.Fatalf("month filter wrong: %v %+v", err, march)
	}

	if err := s.DeleteEntry(ctx, "m1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteEntry(ctx, "m1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("double delete should be ErrNotFound, got %v", err)
	}
	if _, err := s.GetEntry(ctx, "m1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get after delete should be ErrNotFound, got %v", err)
	}
}

func TestWithdrawals(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.PutWithdrawal(ctx, core.BackSafeWithdrawal{ID: "w1", Date: "2024-03-02", Amount: core.Money{Cents: 4000}})
	_ = s.PutWithdrawal(ctx, core.BackSafeWithdrawal{ID: "w2", Date: "2024-04-02", Amount: core.Money{Cents: 1000}})

	w, err := s.GetWithdrawal(ctx, "w1")
	if err != nil || w.Amount.Cents != 4000 {
		t.Fatalf("get withdrawal: %v %+v", err, w)
	}

	april, _ := s.ListWithdrawalsForMonth(ctx, "2024-04")
	if len(april) != 1 || april[0].ID != "w2" {
		t.Fatalf("month filter wrong: %+v", april)
	}

	if err := s.DeleteWithdrawal(ctx, "w2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteWithdrawal(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing delete should be ErrNotFound, got %v", err)
	}
}

func TestBalancesSingleton(t *testing.T) {
	ctx := context.Background()
	s := New()

	b, err := s.GetBalances(ctx)
	if err != nil || b.FrontSafe.Cents != 0 || b.BackSafe.Cents != 0 {
		t.Fatalf("missing snapshot should read as zero: %v %+v", err, b)
	}

	want := core.SafeBalances{FrontSafe: core.Money{Cents: 100}, BackSafe: core.Money{Cents: 200}, LastUpdated: time.Now()}
	if err := s.PutBalances(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	b, _ = s.GetBalances(ctx)
	if b.FrontSafe != want.FrontSafe || b.BackSafe != want.BackSafe {
		t.Fatalf("snapshot round trip wrong: %+v", b)
	}
}

func TestArchivesSortedAndUpserted(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.PutArchive(ctx, core.MonthlyArchive{Month: "2024-02"})
	_ = s.PutArchive(ctx, core.MonthlyArchive{Month: "2024-04"})
	_ = s.PutArchive(ctx, core.MonthlyArchive{Month: "2024-03"})

	archives, err := s.ListArchives(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(archives) != 3 || archives[0].Month != "2024-04" || archives[2].Month != "2024-02" {
		t.Fatalf("descending month order wrong: %+v", archives)
	}

	_ = s.PutArchive(ctx, core.MonthlyArchive{Month: "2024-03", IsClosed: true})
	archives, _ = s.ListArchives(ctx)
	if len(archives) != 3 {
		t.Fatalf("upsert duplicated archive: %+v", archives)
	}
	a, err := s.GetArchive(ctx, "2024-03")
	if err != nil || !a.IsClosed {
		t.Fatalf("upsert did not replace: %v %+v", err, a)
	}
	if _, err := s.GetArchive(ctx, "2020-01"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing archive should be ErrNotFound, got %v", err)
	}
}
