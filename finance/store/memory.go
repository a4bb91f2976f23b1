// Package store provides finance.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hearth/finance-engine/finance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	profiles    map[string]finance.SalaryProfile
	cycles      map[string]finance.SalaryCycle      // by cycle ID
	payments    map[string]finance.ScheduledPayment // by payment ID
	occurrences map[string]finance.PaymentOccurrence
}

func NewMemory() *Memory {
	return &Memory{
		profiles:    make(map[string]finance.SalaryProfile),
		cycles:      make(map[string]finance.SalaryCycle),
		payments:    make(map[string]finance.ScheduledPayment),
		occurrences: make(map[string]finance.PaymentOccurrence),
	}
}

// Compile-time check that Memory implements finance.Store.
var _ finance.Store = (*Memory)(nil)

// -----------------------------------------------------------------------------
// Profiles
// -----------------------------------------------------------------------------

func (m *Memory) SaveProfile(_ context.Context, p finance.SalaryProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}

func (m *Memory) ActiveProfile(_ context.Context) (*finance.SalaryProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.IsActive {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

// -----------------------------------------------------------------------------
// Cycles
// -----------------------------------------------------------------------------

func (m *Memory) CreateCycle(_ context.Context, c finance.SalaryCycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.cycles {
		if existing.SalaryProfileID == c.SalaryProfileID &&
			existing.Month == c.Month && existing.Year == c.Year {
			return finance.ErrDuplicateCycle
		}
	}
	m.cycles[c.ID] = c
	return nil
}

func (m *Memory) UpdateCycle(_ context.Context, c finance.SalaryCycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cycles[c.ID]; !ok {
		return finance.ErrNotFound
	}
	m.cycles[c.ID] = c
	return nil
}

func (m *Memory) LatestCycle(_ context.Context, profileID string) (*finance.SalaryCycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []finance.SalaryCycle
	for _, c := range m.cycles {
		if c.SalaryProfileID == profileID {
			all = append(all, c)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Year != all[j].Year {
			return all[i].Year > all[j].Year
		}
		return all[i].Month > all[j].Month
	})
	latest := all[0]
	return &latest, nil
}

func (m *Memory) CycleFor(_ context.Context, profileID string, month time.Month, year int) (*finance.SalaryCycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.cycles {
		if c.SalaryProfileID == profileID && c.Month == month && c.Year == year {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

// -----------------------------------------------------------------------------
// Scheduled payments
// -----------------------------------------------------------------------------

func (m *Memory) SavePayment(_ context.Context, p finance.ScheduledPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id string) (*finance.ScheduledPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, finance.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListPayments(_ context.Context, onlyActive bool) ([]finance.ScheduledPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []finance.ScheduledPayment
	for _, p := range m.payments {
		if onlyActive && !p.IsActive() {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// -----------------------------------------------------------------------------
// Occurrences
// -----------------------------------------------------------------------------

// CreateOccurrence holds the lock across the uniqueness check and the insert,
// mirroring the atomicity the SQLite unique index provides.
func (m *Memory) CreateOccurrence(_ context.Context, o finance.PaymentOccurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.occurrences {
		if existing.ScheduledPaymentID == o.ScheduledPaymentID &&
			existing.Month == o.Month && existing.Year == o.Year {
			return finance.ErrDuplicateOccurrence
		}
	}
	m.occurrences[o.ID] = o
	return nil
}

func (m *Memory) GetOccurrence(_ context.Context, id string) (*finance.PaymentOccurrence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.occurrences[id]
	if !ok {
		return nil, finance.ErrNotFound
	}
	return &o, nil
}

func (m *Memory) OccurrencesFor(_ context.Context, month time.Month, year int) ([]finance.PaymentOccurrence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []finance.PaymentOccurrence
	for _, o := range m.occurrences {
		if o.Month == month && o.Year == year {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) OccurrencesByPayment(_ context.Context, paymentID string) ([]finance.PaymentOccurrence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []finance.PaymentOccurrence
	for _, o := range m.occurrences {
		if o.ScheduledPaymentID == paymentID {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result, nil
}

func (m *Memory) SetOccurrenceStatus(_ context.Context, id string, status finance.OccurrenceStatus, paidAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.occurrences[id]
	if !ok {
		return finance.ErrNotFound
	}
	o.Status = status
	if status == finance.OccurrencePaid {
		o.PaidAt = paidAt
	} else {
		o.PaidAt = nil
	}
	m.occurrences[id] = o
	return nil
}
