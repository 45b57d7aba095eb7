package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar date form used throughout the ledger.
	DateLayout = "2006-01-02"
	// MonthLayout is the archive key form. Lexicographic comparison of month
	// keys matches chronological order, which the archival engine relies on.
	MonthLayout = "2006-01"
)

// TransactionType tags a projected back-safe transaction.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

var (
	ErrMissingDate         = errors.New("missing date")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrNotFound            = errors.New("record not found")
	ErrInsufficientBalance = errors.New("insufficient back safe balance")
	ErrEntryBalanced       = errors.New("entry is balanced")
	ErrEmptyMonth          = errors.New("month has no entries")
)

type (
	// DailyEntry records one reconciliation event. ExpectedFrontSafe,
	// Difference and IsBalanced are derived from the movements and must only
	// ever be recomputed together via Recompute.
	DailyEntry struct {
		ID                string     `json:"id"`
		Date              string     `json:"date"`
		CashIn            Money      `json:"cashIn"`
		Deposited         Money      `json:"deposited"`
		ToBackSafe        Money      `json:"toBackSafe"`
		LeftInFront       Money      `json:"leftInFront"`
		ExpectedFrontSafe Money      `json:"expectedFrontSafe"`
		Difference        Money      `json:"difference"`
		IsBalanced        bool       `json:"isBalanced"`
		Notes             string     `json:"notes,omitempty"`
		ManuallyApproved  bool       `json:"manuallyApproved,omitempty"`
		ApprovalNote      string     `json:"approvalNote,omitempty"`
		ApprovedAt        *time.Time `json:"approvedAt,omitempty"`
		CreatedAt         time.Time  `json:"createdAt"`
		UpdatedAt         time.Time  `json:"updatedAt"`
	}

	// BackSafeWithdrawal records one manual removal from the back safe.
	BackSafeWithdrawal struct {
		ID        string    `json:"id"`
		Date      string    `json:"date"`
		Amount    Money     `json:"amount"`
		Reason    string    `json:"reason"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// BackSafeTransaction is a projected timeline item. It is never
	// persisted; the projector derives it from entries and withdrawals on
	// every read so the timeline can never drift from the ledger.
	BackSafeTransaction struct {
		ID        string          `json:"id"`
		Type      TransactionType `json:"type"`
		Date      string          `json:"date"`
		Amount    Money           `json:"amount"`
		Reason    string          `json:"reason,omitempty"`
		SourceID  string          `json:"sourceId"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// SafeBalances is the singleton balance snapshot. It is a memoized
	// projection of the ledger, adjusted with explicit deltas on every
	// mutation and fully reconstructible via the engine's RebuildBalances.
	SafeBalances struct {
		FrontSafe   Money     `json:"frontSafe"`
		BackSafe    Money     `json:"backSafe"`
		LastUpdated time.Time `json:"lastUpdated"`
	}

	// MonthBalances is a month's carry-forward starting point: the ending
	// balances of the latest closed archive strictly before it.
	MonthBalances struct {
		FrontSafe Money `json:"frontSafe"`
		BackSafe  Money `json:"backSafe"`
	}

	// MonthlyArchive freezes one month of the ledger. Once closed it is
	// immutable; re-closing a month replaces the whole record.
	MonthlyArchive struct {
		Month             string               `json:"month"`
		StartingFrontSafe Money                `json:"startingFrontSafe"`
		StartingBackSafe  Money                `json:"startingBackSafe"`
		EndingFrontSafe   Money                `json:"endingFrontSafe"`
		EndingBackSafe    Money                `json:"endingBackSafe"`
		Entries           []DailyEntry         `json:"entries"`
		Withdrawals       []BackSafeWithdrawal `json:"withdrawals"`
		IsClosed          bool                 `json:"isClosed"`
		ClosedAt          *time.Time           `json:"closedAt,omitempty"`
	}
)

// ValidateDate checks a calendar date string in YYYY-MM-DD form.
func ValidateDate(date string) error {
	if strings.TrimSpace(date) == "" {
		return ErrMissingDate
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// ValidateMonth checks a month key in YYYY-MM form.
func ValidateMonth(month string) error {
	if strings.TrimSpace(month) == "" {
		return ErrInvalidMonth
	}
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return ErrInvalidMonth
	}
	return nil
}

// MonthOf returns the YYYY-MM prefix of a ledger date.
func MonthOf(date string) string {
	if len(date) < len("2006-01") {
		return date
	}
	return date[:len("2006-01")]
}

// CurrentMonth returns the current calendar month key.
func CurrentMonth(now time.Time) string {
	return now.Format(MonthLayout)
}

// Validate checks the fields a caller must supply; derived fields and
// monetary values are not validated here. Negative or absurd amounts pass
// through and show up in the computed difference instead.
func (e DailyEntry) Validate() error {
	return ValidateDate(e.Date)
}

// InMonth reports whether the entry belongs to the given YYYY-MM month.
func (e DailyEntry) InMonth(month string) bool {
	return strings.HasPrefix(e.Date, month)
}

// Validate checks the withdrawal's caller-supplied fields.
func (w BackSafeWithdrawal) Validate() error {
	return ValidateDate(w.Date)
}

// InMonth reports whether the withdrawal belongs to the given month.
func (w BackSafeWithdrawal) InMonth(month string) bool {
	return strings.HasPrefix(w.Date, month)
}
