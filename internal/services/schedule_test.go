package services

import (
	"testing"
	"time"
)

func TestWithinWindow(t *testing.T) {
	loc := testLocation()
	at := func(value string) time.Time {
		now, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
		if err != nil {
			t.Fatalf("bad test instant %q: %v", value, err)
		}
		return now
	}

	tests := []struct {
		name      string
		startDate string
		startTime string
		endDate   string
		endTime   string
		now       time.Time
		expected  bool
	}{
		{
			name:     "empty start date",
			endDate:  "2024-01-01", endTime: "18:00",
			now:      at("2024-01-01 10:00"),
			expected: false,
		},
		{
			name:      "empty end time",
			startDate: "2024-01-01", startTime: "08:00",
			endDate: "2024-01-01",
			now:     at("2024-01-01 10:00"),
			expected: false,
		},
		{
			name:      "unparseable date",
			startDate: "01/01/2024", startTime: "08:00",
			endDate: "2024-01-01", endTime: "18:00",
			now:      at("2024-01-01 10:00"),
			expected: false,
		},
		{
			name:      "unparseable time",
			startDate: "2024-01-01", startTime: "8am",
			endDate: "2024-01-01", endTime: "18:00",
			now:      at("2024-01-01 10:00"),
			expected: false,
		},
		{
			name:      "inside window",
			startDate: "2024-01-01", startTime: "08:00",
			endDate: "2024-01-01", endTime: "18:00",
			now:      at("2024-01-01 12:30"),
			expected: true,
		},
		{
			name:      "start boundary inclusive",
			startDate: "2024-01-01", startTime: "08:00",
			endDate: "2024-01-01", endTime: "18:00",
			now:      at("2024-01-01 08:00"),
			expected: true,
		},
		{
			name:      "end boundary inclusive",
			startDate: "2024-01-01", startTime: "08:00",
			endDate: "2024-01-01", endTime: "18:00",
			now:      at("2024-01-01 18:00"),
			expected: true,
		},
		{
			name:      "just before close",
			startDate: "2024-01-01", startTime: "08:00",
			endDate: "2024-01-01", endTime: "18:00",
			now:      at("2024-01-01 17:59"),
			expected: true,
		},
		{
			name:      "just after close",
			startDate: "2024-01-01", startTime: "08:00",
			endDate: "2024-01-01", endTime: "18:00",
			now:      at("2024-01-01 18:01"),
			expected: false,
		},
		{
			name:      "before open",
			startDate: "2024-01-01", startTime: "08:00",
			endDate: "2024-01-01", endTime: "18:00",
			now:      at("2024-01-01 07:59"),
			expected: false,
		},
		{
			name:      "multi-day window",
			startDate: "2024-01-01", startTime: "08:00",
			endDate: "2024-01-05", endTime: "18:00",
			now:      at("2024-01-03 02:00"),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WithinWindow(tt.startDate, tt.startTime, tt.endDate, tt.endTime, tt.now, loc)
			if got != tt.expected {
				t.Errorf("WithinWindow() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

// The window is a closed interval: any instant between two contained
// instants must also be contained.
func TestWithinWindow_Convexity(t *testing.T) {
	loc := testLocation()
	startDate, startTime := "2024-06-01", "09:00"
	endDate, endTime := "2024-06-01", "17:00"

	outer1, _ := time.ParseInLocation("2006-01-02 15:04", "2024-06-01 09:30", loc)
	outer2, _ := time.ParseInLocation("2006-01-02 15:04", "2024-06-01 16:30", loc)

	if !WithinWindow(startDate, startTime, endDate, endTime, outer1, loc) {
		t.Fatal("outer1 should be inside the window")
	}
	if !WithinWindow(startDate, startTime, endDate, endTime, outer2, loc) {
		t.Fatal("outer2 should be inside the window")
	}

	for probe := outer1; !probe.After(outer2); probe = probe.Add(13 * time.Minute) {
		if !WithinWindow(startDate, startTime, endDate, endTime, probe, loc) {
			t.Errorf("instant %v between two contained instants is not contained", probe)
		}
	}
}

func TestBusinessLocation_Fallback(t *testing.T) {
	loc := BusinessLocation("Not/AZone")
	_, offset := time.Date(2024, 1, 1, 12, 0, 0, 0, loc).Zone()
	if offset != -3*60*60 {
		t.Errorf("fallback offset = %d, expected UTC-3", offset)
	}
}
