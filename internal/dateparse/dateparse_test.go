package dateparse

import (
	"testing"
	"time"
)

func TestParseMonthFrom(t *testing.T) {
	// Fixed reference: mid-August 2025
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		input     string
		wantYear  int
		wantMonth time.Month
		wantErr   bool
	}{
		{"2025-03", 2025, time.March, false},
		{"2024-12", 2024, time.December, false},
		{"this-month", 2025, time.August, false},
		{"last-month", 2025, time.July, false},
		{"march", 2025, time.March, false},
		{"mar", 2025, time.March, false},
		{"MARCH", 2025, time.March, false},
		{"  august  ", 2025, time.August, false}, // current month allowed
		{"september", 2024, time.September, false},
		{"dec", 2024, time.December, false},
		{"", 0, 0, true},
		{"not-a-month", 0, 0, true},
		{"2025-13", 0, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			year, month, err := ParseMonthFrom(tc.input, now)
			if tc.wantErr {
				if err == nil {
					t.Errorf("ParseMonthFrom(%q) succeeded, want error", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMonthFrom(%q) failed: %v", tc.input, err)
			}
			if year != tc.wantYear || month != tc.wantMonth {
				t.Errorf("ParseMonthFrom(%q) = %d/%v, want %d/%v",
					tc.input, year, month, tc.wantYear, tc.wantMonth)
			}
		})
	}
}

func TestParseMonthFrom_LastMonthAcrossYear(t *testing.T) {
	now := time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)
	year, month, err := ParseMonthFrom("last-month", now)
	if err != nil {
		t.Fatal(err)
	}
	if year != 2024 || month != time.December {
		t.Errorf("got %d/%v, want 2024/December", year, month)
	}
}
