package timeseries

import (
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
)

const week = 7 * 24 * time.Hour

// Label returns a copy of rows with chart axis labels set. Week numbers
// count from the Monday-aligned window start, starting at 1.
func Label(rows []domain.Row, b Bucket, windowStart time.Time) []domain.Row {
	if b == BucketTotal {
		return rows
	}

	midnight := time.Time{}
	weekZero := Align(windowStart, BucketWeek, midnight)

	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = r
		if r.Date == nil {
			continue
		}
		d := r.Date.UTC()
		switch b {
		case BucketDay:
			out[i].Label = d.Format("2006-01-02")
		case BucketMonth:
			out[i].Label = d.Format("Jan 2006")
		case BucketWeek:
			offset := Align(d, BucketWeek, midnight).Sub(weekZero)
			out[i].Label = fmt.Sprintf("Week %d", floorDiv(int64(offset), int64(week))+1)
		}
	}
	return out
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
