package slots

import (
	"context"
	"errors"
	"sort"
	"time"
)

// Slot date/time strings are exchanged verbatim with clients and used as
// storage keys, never parsed into calendar types past validation.
const (
	DateLayout = "02_01_2006" // e.g. "05_03_2025"
	TimeLayout = "03:04 PM"   // e.g. "10:00 AM"
)

var (
	// ErrSlotConflict is returned when reserving an already-booked slot.
	ErrSlotConflict = errors.New("slots: slot already booked")

	// ErrBadSlotFormat is returned for malformed date or time strings.
	ErrBadSlotFormat = errors.New("slots: malformed slot date or time")
)

// Ledger is the per-doctor availability ledger: the single source of truth
// for which (date, time) slots are booked.
//
// Reserve applies an atomic check-and-set; two concurrent reservations of
// the same slot cannot both succeed. Release is idempotent: removing a slot
// that is not booked is a no-op.
type Ledger interface {
	IsFree(ctx context.Context, doctorID, date, timeStr string) (bool, error)
	Reserve(ctx context.Context, doctorID, date, timeStr string) error
	Release(ctx context.Context, doctorID, date, timeStr string) error
	BookedTimes(ctx context.Context, doctorID, date string) ([]string, error)
	BookedByDate(ctx context.Context, doctorID string) (map[string][]string, error)
}

// ValidateSlot checks the exact textual slot formats.
func ValidateSlot(date, timeStr string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return ErrBadSlotFormat
	}
	if _, err := time.Parse(TimeLayout, timeStr); err != nil {
		return ErrBadSlotFormat
	}
	return nil
}

// sortTimes orders 12-hour clock strings chronologically. Unparseable
// entries keep their relative position at the end.
func sortTimes(values []string) {
	sort.SliceStable(values, func(i, j int) bool {
		ti, erri := time.Parse(TimeLayout, values[i])
		tj, errj := time.Parse(TimeLayout, values[j])
		if erri != nil || errj != nil {
			return erri == nil
		}
		return ti.Before(tj)
	})
}
