package timeseries

import (
	"fmt"
	"strings"
	"time"
)

// Bucket is the width of a calendar-aligned time slice.
type Bucket string

const (
	BucketTotal Bucket = "total"
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// MaxPoints caps how many bucket instants a single request may materialize.
const MaxPoints = 400

// ParseBucket maps a granularity string onto a Bucket. "daily" is accepted
// for day and anything unrecognised collapses to total.
func ParseBucket(s string) Bucket {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return BucketDay
	case "week":
		return BucketWeek
	case "month":
		return BucketMonth
	}
	return BucketTotal
}

// RangeTooLargeError is returned by Enumerate when the window holds more
// buckets than allowed.
type RangeTooLargeError struct {
	MaxPoints       int
	RequestedPoints int
}

func (e *RangeTooLargeError) Error() string {
	return fmt.Sprintf("range too large: %d points requested, max %d", e.RequestedPoints, e.MaxPoints)
}

// Align returns the UTC start of the bucket containing t. Day, week and
// month starts carry the anchor's hour and minute so that every boundary in
// a series shares one time of day. Weeks start on Monday.
func Align(t time.Time, b Bucket, anchor time.Time) time.Time {
	t = t.UTC()
	anchor = anchor.UTC()
	h, m := anchor.Hour(), anchor.Minute()

	switch b {
	case BucketDay:
		return time.Date(t.Year(), t.Month(), t.Day(), h, m, 0, 0, time.UTC)
	case BucketWeek:
		back := (int(t.Weekday()) + 6) % 7
		return time.Date(t.Year(), t.Month(), t.Day()-back, h, m, 0, 0, time.UTC)
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, h, m, 0, 0, time.UTC)
	}
	return t
}

// Next returns the bucket start following t, which must already be aligned.
func Next(t time.Time, b Bucket) time.Time {
	switch b {
	case BucketDay:
		return t.Add(24 * time.Hour)
	case BucketWeek:
		return t.Add(7 * 24 * time.Hour)
	case BucketMonth:
		return time.Date(t.Year(), t.Month()+1, 1, t.Hour(), t.Minute(), 0, 0, time.UTC)
	}
	return t
}

// Enumerate lists every aligned bucket start from Align(from) up to and
// including Align(to). It returns nil for total. When more than maxPoints
// instants would be produced it stops materializing, counts the rest and
// returns a *RangeTooLargeError.
func Enumerate(from, to, anchor time.Time, b Bucket, maxPoints int) ([]time.Time, error) {
	if b == BucketTotal {
		return nil, nil
	}

	cur := Align(from, b, anchor)
	end := Align(to, b, anchor)

	var out []time.Time
	for !cur.After(end) {
		out = append(out, cur)
		if maxPoints > 0 && len(out) > maxPoints {
			n := len(out)
			for cur = Next(cur, b); !cur.After(end); cur = Next(cur, b) {
				n++
			}
			return nil, &RangeTooLargeError{MaxPoints: maxPoints, RequestedPoints: n}
		}
		cur = Next(cur, b)
	}
	return out, nil
}
