package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	s := "2024-10-10"
	got, ok := ParseDate(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDate(got) != s {
		t.Fatalf("unexpected date %v", got)
	}
	if _, ok := ParseDate("10/10/2024"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestDateRangeInclusive(t *testing.T) {
	start := time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 10, 9, 0, 0, 0, 0, time.UTC)
	got := DateRange(start, end)
	want := []string{"2024-10-07", "2024-10-08", "2024-10-09"}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("date %d: expected %s got %s", i, want[i], got[i])
		}
	}
}

func TestDateRangeSwapsReversedBounds(t *testing.T) {
	start := time.Date(2024, 10, 9, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC)
	got := DateRange(start, end)
	if len(got) != 3 || got[0] != "2024-10-07" {
		t.Fatalf("expected swapped range, got %v", got)
	}
}

func TestBusinessDaysBackSkipsWeekends(t *testing.T) {
	// 2024-10-14 is a Monday; 3 prior business days end the previous Friday
	from := time.Date(2024, 10, 14, 0, 0, 0, 0, time.UTC)
	got := BusinessDaysBack(from, 3)
	want := []string{"2024-10-09", "2024-10-10", "2024-10-11"}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("date %d: expected %s got %s", i, want[i], got[i])
		}
	}
}

func TestBusinessDaysBackZero(t *testing.T) {
	from := time.Date(2024, 10, 14, 0, 0, 0, 0, time.UTC)
	if got := BusinessDaysBack(from, 0); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
