package core

import (
	"testing"
	"time"
)

func TestComputeExpected(t *testing.T) {
	cases := []struct {
		name                                   string
		previous, cashIn, deposited, toBack    int64
		want                                   int64
	}{
		{"typical day", 10000, 5000, 2000, 3000, 10000},
		{"all zero", 0, 0, 0, 0, 0},
		{"drain below zero", 1000, 0, 2000, 0, -1000},
		{"negative input reflected", 500, -100, 0, 0, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeExpected(Money{tc.previous}, Money{tc.cashIn}, Money{tc.deposited}, Money{tc.toBack})
			if got.Cents != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got.Cents)
			}
		})
	}
}

func TestDifferenceAndBalanced(t *testing.T) {
	// previousBalance=100.00, cashIn=50.00, deposited=20.00, toBackSafe=30.00
	expected := ComputeExpected(Money{10000}, Money{5000}, Money{2000}, Money{3000})
	if expected.Cents != 10000 {
		t.Fatalf("expected front safe = %d, want 10000", expected.Cents)
	}

	diff := ComputeDifference(Money{10000}, expected)
	if diff.Cents != 0 || !IsBalanced(diff) {
		t.Fatalf("exact count should balance, diff=%d", diff.Cents)
	}

	diff = ComputeDifference(Money{9500}, expected)
	if diff.Cents != -500 {
		t.Fatalf("shortage diff = %d, want -500", diff.Cents)
	}
	if IsBalanced(diff) {
		t.Fatal("a $5.00 shortage must not balance")
	}

	// One cent off is outside the tolerance.
	if IsBalanced(Money{Cents: 1}) || IsBalanced(Money{Cents: -1}) {
		t.Fatal("one cent off must not balance")
	}
}

func TestPreviousFrontBalance(t *testing.T) {
	balances := SafeBalances{FrontSafe: Money{7500}}

	if got := PreviousFrontBalance(nil, balances); got.Cents != 7500 {
		t.Fatalf("empty ledger should fall back to snapshot, got %d", got.Cents)
	}

	entries := []DailyEntry{
		{ID: "b", Date: "2024-03-02", LeftInFront: Money{12000}},
		{ID: "a", Date: "2024-03-01", LeftInFront: Money{9000}},
	}
	if got := PreviousFrontBalance(entries, balances); got.Cents != 12000 {
		t.Fatalf("should take head entry's leftInFront, got %d", got.Cents)
	}
}

func TestRecomputeRoundTrip(t *testing.T) {
	e := DailyEntry{
		Date:        "2024-03-05",
		CashIn:      Money{5000},
		Deposited:   Money{2000},
		ToBackSafe:  Money{3000},
		LeftInFront: Money{9500},
		CreatedAt:   time.Now(),
	}
	e.Recompute(Money{10000})

	if e.ExpectedFrontSafe.Cents != 10000 || e.Difference.Cents != -500 || e.IsBalanced {
		t.Fatalf("derived fields wrong: %+v", e)
	}

	// Reconstructing the previous balance and recomputing must reproduce the
	// stored derived fields exactly.
	prev := PreviousBalanceOf(e)
	if prev.Cents != 10000 {
		t.Fatalf("PreviousBalanceOf = %d, want 10000", prev.Cents)
	}
	before := e
	e.Recompute(prev)
	if e != before {
		t.Fatalf("recompute drifted: %+v != %+v", e, before)
	}
}
