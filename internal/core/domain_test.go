package core

import (
	"testing"
	"time"
)

func TestValidateDate(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"2024-03-05", nil},
		{"", ErrMissingDate},
		{"   ", ErrMissingDate},
		{"2024-3-5", ErrInvalidDate},
		{"05/03/2024", ErrInvalidDate},
		{"2024-13-01", ErrInvalidDate},
	}
	for _, tc := range cases {
		if got := ValidateDate(tc.in); got != tc.want {
			t.Fatalf("ValidateDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidateMonth(t *testing.T) {
	if err := ValidateMonth("2024-03"); err != nil {
		t.Fatalf("valid month rejected: %v", err)
	}
	for _, bad := range []string{"", "2024", "2024-13", "march"} {
		if err := ValidateMonth(bad); err == nil {
			t.Fatalf("ValidateMonth(%q) should fail", bad)
		}
	}
}

func TestMonthOf(t *testing.T) {
	if got := MonthOf("2024-03-05"); got != "2024-03" {
		t.Fatalf("MonthOf = %q", got)
	}
	if got := CurrentMonth(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)); got != "2024-12" {
		t.Fatalf("CurrentMonth = %q", got)
	}
}

func TestEntryValidate(t *testing.T) {
	e := DailyEntry{Date: "2024-03-05"}
	if err := e.Validate(); err != nil {
		t.Fatalf("entry with date should validate: %v", err)
	}
	e.Date = ""
	if err := e.Validate(); err != ErrMissingDate {
		t.Fatalf("missing date should fail with ErrMissingDate, got %v", err)
	}
}

func TestInMonth(t *testing.T) {
	e := DailyEntry{Date: "2024-03-05"}
	if !e.InMonth("2024-03") || e.InMonth("2024-04") {
		t.Fatal("entry month membership wrong")
	}
	w := BackSafeWithdrawal{Date: "2024-04-01"}
	if !w.InMonth("2024-04") || w.InMonth("2024-03") {
		t.Fatal("withdrawal month membership wrong")
	}
}
