package core

import "sort"

// Transaction projector: derives the unified back-safe timeline from the
// entry and withdrawal collections. The projection holds no state of its
// own — ids are computed deterministically from the source records, so any
// ledger edit is reflected on the next call and deposits are never
// duplicated across recomputations.

// TimelineFilter narrows the projected timeline. Zero values mean no filter.
type TimelineFilter struct {
	Month string          // YYYY-MM prefix match on the transaction date
	Type  TransactionType // deposit or withdrawal
}

// ProjectBackSafeTimeline maps every entry with a positive toBackSafe into a
// synthetic deposit and every withdrawal into a withdrawal transaction, then
// returns the concatenation ordered newest-first by creation time.
func ProjectBackSafeTimeline(entries []DailyEntry, withdrawals []BackSafeWithdrawal, filter TimelineFilter) []BackSafeTransaction {
	txs := make([]BackSafeTransaction, 0, len(entries)+len(withdrawals))

	for _, e := range entries {
		if e.ToBackSafe.Cents <= 0 {
			continue
		}
		txs = append(txs, BackSafeTransaction{
			ID:        "deposit-" + e.ID,
			Type:      TransactionDeposit,
			Date:      e.Date,
			Amount:    e.ToBackSafe,
			Reason:    "Transfer from front safe",
			SourceID:  e.ID,
			CreatedAt: e.CreatedAt,
		})
	}

	for _, w := range withdrawals {
		txs = append(txs, BackSafeTransaction{
			ID:        "withdrawal-" + w.ID,
			Type:      TransactionWithdrawal,
			Date:      w.Date,
			Amount:    w.Amount,
			Reason:    w.Reason,
			SourceID:  w.ID,
			CreatedAt: w.CreatedAt,
		})
	}

	if filter.Month != "" || filter.Type != "" {
		filtered := txs[:0]
		for _, tx := range txs {
			if filter.Month != "" && MonthOf(tx.Date) != filter.Month {
				continue
			}
			if filter.Type != "" && tx.Type != filter.Type {
				continue
			}
			filtered = append(filtered, tx)
		}
		txs = filtered
	}

	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.After(txs[j].CreatedAt)
		}
		// Stable order for identical timestamps.
		return txs[i].ID < txs[j].ID
	})

	return txs
}

// NetBackSafeEffect sums the back-safe effect of a slice of entries and
// withdrawals: transfers in minus withdrawals out. The archival engine uses
// it to derive a month's ending back-safe balance from its own records.
func NetBackSafeEffect(entries []DailyEntry, withdrawals []BackSafeWithdrawal) Money {
	var net int64
	for _, e := range entries {
		net += e.ToBackSafe.Cents
	}
	for _, w := range withdrawals {
		net -= w.Amount.Cents
	}
	return Money{Cents: net}
}
