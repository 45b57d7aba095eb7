package core

// Balance calculator. Pure functions, no side effects and no error paths:
// inputs are already-validated cents and out-of-range values simply flow
// into the computed difference.

// balancedToleranceCents is the reconciliation tolerance. With integer cents
// "within one cent" means an exact match.
const balancedToleranceCents = 1

// ComputeExpected returns the front-safe balance the count should find:
// previous balance plus the day's cash in, minus the bank deposit and the
// transfer to the back safe.
func ComputeExpected(previous, cashIn, deposited, toBackSafe Money) Money {
	return Money{Cents: previous.Cents + cashIn.Cents - deposited.Cents - toBackSafe.Cents}
}

// ComputeDifference returns actual minus expected. Positive is an overage,
// negative a shortage.
func ComputeDifference(actual, expected Money) Money {
	return Money{Cents: actual.Cents - expected.Cents}
}

// IsBalanced reports whether a difference is within the monetary tolerance.
func IsBalanced(difference Money) bool {
	cents := difference.Cents
	if cents < 0 {
		cents = -cents
	}
	return cents < balancedToleranceCents
}

// PreviousFrontBalance returns the balance a new entry reconciles against:
// the counted leftInFront of the most recent entry, or the snapshot's front
// safe when the ledger is empty. Entries are ordered newest-first.
func PreviousFrontBalance(entries []DailyEntry, balances SafeBalances) Money {
	if len(entries) == 0 {
		return balances.FrontSafe
	}
	return entries[0].LeftInFront
}

// PreviousBalanceOf reconstructs the previous balance an existing entry was
// computed against, by inverting the expected-balance formula. Used when an
// entry is edited so its derived fields recompute against the same baseline.
func PreviousBalanceOf(e DailyEntry) Money {
	return Money{Cents: e.ExpectedFrontSafe.Cents - e.CashIn.Cents + e.Deposited.Cents + e.ToBackSafe.Cents}
}

// Recompute sets the three derived fields from the movements and the given
// previous balance. They are only ever written together; mutating one
// independently is a bug.
func (e *DailyEntry) Recompute(previous Money) {
	e.ExpectedFrontSafe = ComputeExpected(previous, e.CashIn, e.Deposited, e.ToBackSafe)
	e.Difference = ComputeDifference(e.LeftInFront, e.ExpectedFrontSafe)
	e.IsBalanced = IsBalanced(e.Difference)
}
