package timeseries

import (
	"testing"
	"time"
)

func intp(v int) *int { return &v }

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		name       string
		req        PeriodRequest
		wantDays   int
		wantBucket Bucket
		explicit   bool
	}{
		{"yearly defaults", PeriodRequest{Period: "yearly"}, 365, BucketMonth, false},
		{"weekly defaults", PeriodRequest{Period: "weekly"}, 7, BucketDay, false},
		{"monthly defaults", PeriodRequest{Period: "monthly"}, 30, BucketWeek, false},
		{"granularity overrides period", PeriodRequest{Period: "monthly", Granularity: "daily"}, 30, BucketDay, false},
		{"explicit days only", PeriodRequest{Days: intp(3)}, 3, BucketTotal, true},
		{"nothing", PeriodRequest{}, 7, BucketTotal, false},
		{"case insensitive", PeriodRequest{Period: "YEARLY", Granularity: "Week"}, 365, BucketWeek, false},
		{"unknown granularity collapses", PeriodRequest{Period: "weekly", Granularity: "hour"}, 7, BucketTotal, false},
		{"explicit days beat period", PeriodRequest{Period: "yearly", Days: intp(10)}, 10, BucketMonth, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolvePeriod(tc.req)
			if got.Days != tc.wantDays || got.Bucket != tc.wantBucket || got.DaysExplicit != tc.explicit {
				t.Fatalf("got %+v, want days=%d bucket=%s explicit=%v", got, tc.wantDays, tc.wantBucket, tc.explicit)
			}
		})
	}
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2024, time.March, 15, 13, 45, 30, 0, time.UTC)

	tests := []struct {
		name string
		req  PeriodRequest
		want time.Time
	}{
		{"explicit days", PeriodRequest{Period: "monthly", Days: intp(3)}, now.Add(-72 * time.Hour)},
		{"weekly", PeriodRequest{Period: "weekly"}, now.Add(-6 * 24 * time.Hour)},
		{"monthly", PeriodRequest{Period: "monthly"}, time.Date(2024, time.March, 1, 13, 45, 0, 0, time.UTC)},
		{"yearly", PeriodRequest{Period: "yearly"}, time.Date(2023, time.April, 1, 13, 45, 0, 0, time.UTC)},
		{"default", PeriodRequest{}, now.Add(-7 * 24 * time.Hour)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolvePeriod(tc.req).WindowStart(now)
			if !got.Equal(tc.want) {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestImplicitWindowsYieldFixedBucketCounts(t *testing.T) {
	now := time.Date(2024, time.March, 15, 13, 45, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   int
	}{
		{"weekly", 7},
		{"yearly", 12},
	}
	for _, tc := range tests {
		t.Run(tc.period, func(t *testing.T) {
			r := ResolvePeriod(PeriodRequest{Period: tc.period})
			got, err := Enumerate(r.WindowStart(now), now, now, r.Bucket, MaxPoints)
			if err != nil {
				t.Fatalf("enumerate: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d buckets, want %d", len(got), tc.want)
			}
		})
	}
}

func TestWindowStartLongExplicitWindow(t *testing.T) {
	now := time.Date(2024, time.January, 10, 15, 30, 0, 0, time.UTC)

	got := ResolvePeriod(PeriodRequest{Days: intp(200000), Granularity: "day"}).WindowStart(now)
	if !got.Before(now) {
		t.Fatalf("start %s is not before %s", got, now)
	}
	if got.Year() > 1500 {
		t.Fatalf("start year = %d", got.Year())
	}
	if _, err := Enumerate(got, now, now, BucketDay, MaxPoints); err == nil {
		t.Fatal("expected the daily cap to trip")
	}
}
