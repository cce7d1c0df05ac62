package slots

import (
	"context"
	"sync"
)

// InMemoryLedger is a mutex-guarded ledger for tests and local development.
type InMemoryLedger struct {
	mu     sync.Mutex
	booked map[string]map[string]map[string]struct{} // doctorID -> date -> times
}

var _ Ledger = (*InMemoryLedger)(nil)

// NewInMemoryLedger creates an empty in-memory ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		booked: make(map[string]map[string]map[string]struct{}),
	}
}

// Reserve books the slot, failing with ErrSlotConflict if already booked.
func (l *InMemoryLedger) Reserve(ctx context.Context, doctorID, date, timeStr string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	days, ok := l.booked[doctorID]
	if !ok {
		days = make(map[string]map[string]struct{})
		l.booked[doctorID] = days
	}
	times, ok := days[date]
	if !ok {
		times = make(map[string]struct{})
		days[date] = times
	}
	if _, taken := times[timeStr]; taken {
		return ErrSlotConflict
	}
	times[timeStr] = struct{}{}
	return nil
}

// Release frees the slot; releasing an unbooked slot is a no-op.
func (l *InMemoryLedger) Release(ctx context.Context, doctorID, date, timeStr string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if times, ok := l.booked[doctorID][date]; ok {
		delete(times, timeStr)
	}
	return nil
}

// IsFree reports whether the slot is not currently booked.
func (l *InMemoryLedger) IsFree(ctx context.Context, doctorID, date, timeStr string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	times, ok := l.booked[doctorID][date]
	if !ok {
		return true, nil
	}
	_, taken := times[timeStr]
	return !taken, nil
}

// BookedTimes returns the booked times for one day, chronologically ordered.
func (l *InMemoryLedger) BookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	times := l.booked[doctorID][date]
	if len(times) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(times))
	for t := range times {
		out = append(out, t)
	}
	sortTimes(out)
	return out, nil
}

// BookedByDate returns the full ledger for a doctor as date -> booked times.
func (l *InMemoryLedger) BookedByDate(ctx context.Context, doctorID string) (map[string][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ledger := make(map[string][]string)
	for date, times := range l.booked[doctorID] {
		if len(times) == 0 {
			continue
		}
		out := make([]string, 0, len(times))
		for t := range times {
			out = append(out, t)
		}
		sortTimes(out)
		ledger[date] = out
	}
	return ledger, nil
}
