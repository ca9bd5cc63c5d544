package domain

import (
	"testing"
	"time"
)

// Wednesday, 2024-03-13. The containing Sunday-based week runs
// 2024-03-10 through 2024-03-16.
var testNow = time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time { return &t }

func TestBucketOf(t *testing.T) {
	testCases := map[string]struct {
		due  *time.Time
		want Bucket
	}{
		"no due date":        {nil, BucketNone},
		"same day morning":   {datePtr(time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)), BucketToday},
		"same day late":      {datePtr(time.Date(2024, 3, 13, 23, 59, 0, 0, time.UTC)), BucketToday},
		"tomorrow":           {datePtr(time.Date(2024, 3, 14, 1, 0, 0, 0, time.UTC)), BucketTomorrow},
		"yesterday":          {datePtr(time.Date(2024, 3, 12, 23, 0, 0, 0, time.UTC)), BucketOverdue},
		"week start overdue": {datePtr(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)), BucketOverdue},
		"saturday this week": {datePtr(time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)), BucketThisWeek},
		"next sunday":        {datePtr(time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)), BucketUpcoming},
		"far future":         {datePtr(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)), BucketUpcoming},
		"long overdue":       {datePtr(time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)), BucketOverdue},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := BucketOf(tc.due, testNow); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestBucketOfExhaustive(t *testing.T) {
	known := map[Bucket]bool{
		BucketNone: true, BucketToday: true, BucketTomorrow: true,
		BucketOverdue: true, BucketThisWeek: true, BucketUpcoming: true,
	}
	today := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	for offset := -14; offset <= 14; offset++ {
		due := today.AddDate(0, 0, offset)
		got := BucketOf(&due, testNow)
		if !known[got] {
			t.Fatalf("offset %d produced unknown bucket %q", offset, got)
		}
		if got == BucketOverdue && offset >= 0 {
			t.Fatalf("offset %d classified overdue", offset)
		}
		if offset < 0 && got != BucketOverdue {
			t.Fatalf("offset %d expected overdue, got %s", offset, got)
		}
	}
}

func TestBucketOfDeterministic(t *testing.T) {
	due := datePtr(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	first := BucketOf(due, testNow)
	for i := 0; i < 5; i++ {
		if got := BucketOf(due, testNow); got != first {
			t.Fatalf("bucket changed between calls: %s then %s", first, got)
		}
	}
}
