// Package memory implements the ledger store in process memory. It is the
// default backend for local use and the test double for the engines.
package memory

import (
	"context"
	"sort"
	"sync"

	"cashrecon/internal/core"
	"cashrecon/internal/ledger"
)

// Store holds all four collections behind one mutex. Entries and
// withdrawals keep insertion order, newest at the head.
type Store struct {
	mu          sync.Mutex
	entries     []core.DailyEntry
	withdrawals []core.BackSafeWithdrawal
	balances    core.SafeBalances
	archives    []core.MonthlyArchive
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) ListEntries(_ context.Context) ([]core.DailyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.DailyEntry(nil), s.entries...), nil
}

func (s *Store) ListEntriesForMonth(_ context.Context, month string) ([]core.DailyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.DailyEntry
	for _, e := range s.entries {
		if e.InMonth(month) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) GetEntry(_ context.Context, id string) (core.DailyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return core.DailyEntry{}, core.ErrNotFound
}

func (s *Store) PutEntry(_ context.Context, e core.DailyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == e.ID {
			s.entries[i] = e
			return nil
		}
	}
	s.entries = append([]core.DailyEntry{e}, s.entries...)
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListWithdrawals(_ context.Context) ([]core.BackSafeWithdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.BackSafeWithdrawal(nil), s.withdrawals...), nil
}

func (s *Store) ListWithdrawalsForMonth(_ context.Context, month string) ([]core.BackSafeWithdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.BackSafeWithdrawal
	for _, w := range s.withdrawals {
		if w.InMonth(month) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *Store) GetWithdrawal(_ context.Context, id string) (core.BackSafeWithdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.withdrawals {
		if w.ID == id {
			return w, nil
		}
	}
	return core.BackSafeWithdrawal{}, core.ErrNotFound
}

func (s *Store) PutWithdrawal(_ context.Context, w core.BackSafeWithdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.withdrawals {
		if s.withdrawals[i].ID == w.ID {
			s.withdrawals[i] = w
			return nil
		}
	}
	s.withdrawals = append([]core.BackSafeWithdrawal{w}, s.withdrawals...)
	return nil
}

func (s *Store) DeleteWithdrawal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.withdrawals {
		if s.withdrawals[i].ID == id {
			s.withdrawals = append(s.withdrawals[:i], s.withdrawals[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) GetBalances(_ context.Context) (core.SafeBalances, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances, nil
}

func (s *Store) PutBalances(_ context.Context, b core.SafeBalances) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = b
	return nil
}

func (s *Store) ListArchives(_ context.Context) ([]core.MonthlyArchive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.MonthlyArchive(nil), s.archives...)
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out, nil
}

func (s *Store) GetArchive(_ context.Context, month string) (core.MonthlyArchive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.archives {
		if a.Month == month {
			return a, nil
		}
	}
	return core.MonthlyArchive{}, core.ErrNotFound
}

func (s *Store) PutArchive(_ context.Context, a core.MonthlyArchive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.archives {
		if s.archives[i].Month == a.Month {
			s.archives[i] = a
			return nil
		}
	}
	s.archives = append(s.archives, a)
	return nil
}
