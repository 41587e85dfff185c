package timeseries

import (
	"strings"
	"time"
)

// Period names accepted by the overview endpoints.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// MaxDays is the longest explicit window a caller may request.
const MaxDays = 3650

// PeriodRequest is the raw window request as it arrives from a caller.
// Days is nil when the caller did not supply an explicit window length.
type PeriodRequest struct {
	Period      string
	Days        *int
	Granularity string
}

// Resolved is a PeriodRequest with all defaults applied.
type Resolved struct {
	Period       string
	Days         int
	Bucket       Bucket
	DaysExplicit bool
}

// ResolvePeriod applies period defaults. Explicit days and granularity
// always win over the values implied by the period.
func ResolvePeriod(req PeriodRequest) Resolved {
	period := strings.ToLower(strings.TrimSpace(req.Period))

	res := Resolved{Period: period}

	if req.Days != nil {
		res.Days = *req.Days
		res.DaysExplicit = true
	} else {
		switch period {
		case PeriodWeekly:
			res.Days = 7
		case PeriodMonthly:
			res.Days = 30
		case PeriodYearly:
			res.Days = 365
		default:
			res.Days = 7
		}
	}

	if g := strings.TrimSpace(req.Granularity); g != "" {
		res.Bucket = ParseBucket(g)
	} else {
		switch period {
		case PeriodWeekly:
			res.Bucket = BucketDay
		case PeriodMonthly:
			res.Bucket = BucketWeek
		case PeriodYearly:
			res.Bucket = BucketMonth
		default:
			res.Bucket = BucketTotal
		}
	}

	return res
}

// WindowStart computes the inclusive start of the [start, now] window.
func (r Resolved) WindowStart(now time.Time) time.Time {
	now = now.UTC()
	if r.DaysExplicit {
		return now.AddDate(0, 0, -r.Days)
	}

	switch r.Period {
	case PeriodWeekly:
		// seven daily buckets including today
		return now.Add(-6 * 24 * time.Hour)
	case PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, now.Hour(), now.Minute(), 0, 0, time.UTC)
	case PeriodYearly:
		return time.Date(now.Year(), now.Month()-11, 1, now.Hour(), now.Minute(), 0, 0, time.UTC)
	}
	return now.AddDate(0, 0, -r.Days)
}
