package timeseries

import (
	"errors"
	"testing"
	"time"
)

func TestAlign(t *testing.T) {
	anchor := time.Date(2000, 1, 1, 6, 30, 0, 0, time.UTC)
	// Thursday
	ts := time.Date(2024, time.February, 29, 22, 10, 5, 0, time.UTC)

	tests := []struct {
		bucket Bucket
		want   time.Time
	}{
		{BucketDay, time.Date(2024, time.February, 29, 6, 30, 0, 0, time.UTC)},
		{BucketWeek, time.Date(2024, time.February, 26, 6, 30, 0, 0, time.UTC)},
		{BucketMonth, time.Date(2024, time.February, 1, 6, 30, 0, 0, time.UTC)},
		{BucketTotal, ts},
	}
	for _, tc := range tests {
		t.Run(string(tc.bucket), func(t *testing.T) {
			if got := Align(ts, tc.bucket, anchor); !got.Equal(tc.want) {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAlignSundayGoesBackToMonday(t *testing.T) {
	sunday := time.Date(2024, time.January, 7, 23, 59, 0, 0, time.UTC)
	got := Align(sunday, BucketWeek, time.Time{})
	want := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestAlignIsIdempotent(t *testing.T) {
	anchor := time.Date(2024, 5, 5, 17, 42, 0, 0, time.UTC)
	start := time.Date(2023, time.December, 25, 3, 0, 0, 0, time.UTC)

	for _, b := range []Bucket{BucketDay, BucketWeek, BucketMonth, BucketTotal} {
		for i := 0; i < 24*60; i++ {
			ts := start.Add(time.Duration(i) * 7 * time.Hour)
			once := Align(ts, b, anchor)
			twice := Align(once, b, anchor)
			if !once.Equal(twice) {
				t.Fatalf("%s: align(%s) = %s, align again = %s", b, ts, once, twice)
			}
		}
	}
}

func TestEnumerateStepsOneBucket(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 8, 15, 0, 0, time.UTC)
	from := time.Date(2023, time.January, 31, 12, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC)

	for _, b := range []Bucket{BucketDay, BucketWeek, BucketMonth} {
		t.Run(string(b), func(t *testing.T) {
			got, err := Enumerate(from, to, anchor, b, MaxPoints)
			if err != nil {
				t.Fatalf("enumerate: %v", err)
			}
			if len(got) == 0 {
				t.Fatal("no buckets")
			}
			if !got[0].Equal(Align(from, b, anchor)) {
				t.Fatalf("first bucket %s, want %s", got[0], Align(from, b, anchor))
			}
			if !got[len(got)-1].Equal(Align(to, b, anchor)) {
				t.Fatalf("last bucket %s, want %s", got[len(got)-1], Align(to, b, anchor))
			}
			for i := 1; i < len(got); i++ {
				prev, cur := got[i-1], got[i]
				if !cur.After(prev) {
					t.Fatalf("not increasing at %d: %s then %s", i, prev, cur)
				}
				switch b {
				case BucketDay:
					if cur.Sub(prev) != 24*time.Hour {
						t.Fatalf("day step %s", cur.Sub(prev))
					}
				case BucketWeek:
					if cur.Sub(prev) != 7*24*time.Hour {
						t.Fatalf("week step %s", cur.Sub(prev))
					}
				case BucketMonth:
					if cur.Day() != 1 || !cur.AddDate(0, -1, 0).Equal(prev) {
						t.Fatalf("month step %s -> %s", prev, cur)
					}
				}
			}
		})
	}
}

func TestEnumerateMonthKeepsTimeOfDay(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 13, 45, 0, 0, time.UTC)
	from := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.April, 3, 0, 0, 0, 0, time.UTC)

	got, err := Enumerate(from, to, anchor, BucketMonth, MaxPoints)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d months, want 4", len(got))
	}
	for _, m := range got {
		if m.Hour() != 13 || m.Minute() != 45 {
			t.Fatalf("bucket %s lost anchor time", m)
		}
	}
}

func TestEnumerateTotalIsEmpty(t *testing.T) {
	now := time.Now()
	got, err := Enumerate(now.Add(-time.Hour), now, now, BucketTotal, MaxPoints)
	if err != nil || got != nil {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestEnumerateRangeTooLarge(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	from := now.Add(-1000 * 24 * time.Hour)

	_, err := Enumerate(from, now, now, BucketDay, 400)

	var tooLarge *RangeTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected RangeTooLargeError, got %v", err)
	}
	if tooLarge.MaxPoints != 400 {
		t.Fatalf("max points %d", tooLarge.MaxPoints)
	}
	if tooLarge.RequestedPoints != 1001 {
		t.Fatalf("requested points %d, want 1001", tooLarge.RequestedPoints)
	}
}

func TestEnumerateAtCap(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	got, err := Enumerate(now.Add(-399*24*time.Hour), now, now, BucketDay, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 400 {
		t.Fatalf("got %d", len(got))
	}
}

func TestParseBucket(t *testing.T) {
	tests := map[string]Bucket{
		"day":    BucketDay,
		"DAILY":  BucketDay,
		" week ": BucketWeek,
		"Month":  BucketMonth,
		"total":  BucketTotal,
		"year":   BucketTotal,
		"":       BucketTotal,
	}
	for in, want := range tests {
		if got := ParseBucket(in); got != want {
			t.Errorf("ParseBucket(%q) = %s, want %s", in, got, want)
		}
	}
}
