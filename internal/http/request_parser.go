package http

import (
	"strings"

	"cashrecon/internal/core"
)

// amountField accepts a monetary amount as either a JSON string or a bare
// number. Entry forms routinely send movement amounts as text with blanks
// for untouched fields, so values are kept raw and coerced on read.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*a = amountField(s)
	return nil
}

// Money coerces leniently: unparseable input counts as zero.
func (a amountField) Money() core.Money {
	return core.Money{Cents: core.CoerceCents(string(a))}
}

// StrictMoney parses the amount and rejects anything that is not a positive
// decimal. Used where a blank amount makes no sense, e.g. withdrawals.
func (a amountField) StrictMoney() (core.Money, error) {
	cents, err := core.ParseCents(string(a))
	if err != nil {
		return core.Money{}, err
	}
	if cents <= 0 {
		return core.Money{}, core.ErrInvalidAmount
	}
	return core.Money{Cents: cents}, nil
}

type entryRequest struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	CashIn      amountField `json:"cashIn"`
	Deposited   amountField `json:"deposited"`
	ToBackSafe  amountField `json:"toBackSafe"`
	LeftInFront amountField `json:"leftInFront"`
	Notes       string      `json:"notes"`
	IsEditing   bool        `json:"isEditing"`
}

func (req entryRequest) toEntry() core.DailyEntry {
	return core.DailyEntry{
		ID:          strings.TrimSpace(req.ID),
		Date:        strings.TrimSpace(req.Date),
		CashIn:      req.CashIn.Money(),
		Deposited:   req.Deposited.Money(),
		ToBackSafe:  req.ToBackSafe.Money(),
		LeftInFront: req.LeftInFront.Money(),
		Notes:       strings.TrimSpace(req.Notes),
	}
}

type withdrawalRequest struct {
	Amount amountField `json:"amount"`
	Reason string      `json:"reason"`
}

type approvalRequest struct {
	Note string `json:"note"`
}
