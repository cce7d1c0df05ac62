package slots

import "testing"

func TestValidateSlot(t *testing.T) {
	if err := ValidateSlot("05_03_2025", "10:00 AM"); err != nil {
		t.Fatalf("expected valid slot, got %v", err)
	}
	if err := ValidateSlot("05_03_2025", "02:30 PM"); err != nil {
		t.Fatalf("expected valid afternoon slot, got %v", err)
	}

	invalid := []struct{ date, timeStr string }{
		{"2025-03-05", "10:00 AM"},
		{"5_3_2025", "10:00 AM"},
		{"05_13_2025", "10:00 AM"},
		{"05_03_2025", "25:00 PM"},
		{"05_03_2025", "10:00"},
		{"", ""},
	}
	for _, tc := range invalid {
		if err := ValidateSlot(tc.date, tc.timeStr); err != ErrBadSlotFormat {
			t.Fatalf("expected ErrBadSlotFormat for (%q, %q), got %v", tc.date, tc.timeStr, err)
		}
	}
}

func TestSortTimes_ChronologicalTwelveHour(t *testing.T) {
	times := []string{"02:30 PM", "09:00 AM", "12:00 PM", "11:30 AM", "12:30 AM"}
	sortTimes(times)

	want := []string{"12:30 AM", "09:00 AM", "11:30 AM", "12:00 PM", "02:30 PM"}
	for i := range want {
		if times[i] != want[i] {
			t.Fatalf("unexpected order: %v", times)
		}
	}
}
