package timeseries

import (
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
)

type fillKey struct {
	device int64
	at     int64
}

// Fill returns one row per device per bucket, devices in the given order
// and buckets ascending. Existing rows are copied through untouched; holes
// get def.
func Fill(devices []domain.DeviceRef, sparse []domain.Row, buckets []time.Time, def float64) []domain.Row {
	have := make(map[fillKey]domain.Row, len(sparse))
	for _, r := range sparse {
		if r.Date == nil {
			continue
		}
		have[fillKey{r.DeviceID, r.Date.UnixMilli()}] = r
	}

	out := make([]domain.Row, 0, len(devices)*len(buckets))
	for _, d := range devices {
		for _, b := range buckets {
			if r, ok := have[fillKey{d.ID, b.UnixMilli()}]; ok {
				out = append(out, r)
				continue
			}
			at := b
			out = append(out, domain.Row{
				DeviceID:     d.ID,
				DeviceSerial: d.Serial,
				Date:         &at,
				Value:        def,
			})
		}
	}
	return out
}

// FillTotals is Fill for total series: one dateless row per device.
func FillTotals(devices []domain.DeviceRef, sparse []domain.Row, def float64) []domain.Row {
	have := make(map[int64]domain.Row, len(sparse))
	for _, r := range sparse {
		have[r.DeviceID] = r
	}

	out := make([]domain.Row, 0, len(devices))
	for _, d := range devices {
		if r, ok := have[d.ID]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, domain.Row{DeviceID: d.ID, DeviceSerial: d.Serial, Value: def})
	}
	return out
}

// FillLatest gives every device a temperature reading. Devices that
// reported nothing in the window get value 0 and a null measured_at.
func FillLatest(devices []domain.DeviceRef, latest []domain.LatestReading) []domain.LatestReading {
	have := make(map[int64]domain.LatestReading, len(latest))
	for _, r := range latest {
		have[r.DeviceID] = r
	}

	out := make([]domain.LatestReading, 0, len(devices))
	for _, d := range devices {
		if r, ok := have[d.ID]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, domain.LatestReading{DeviceID: d.ID, DeviceSerial: d.Serial})
	}
	return out
}

// FillAnchor picks the instant whose time of day every enumerated bucket
// shares: the first dated row of the first non-empty series, else now.
func FillAnchor(now time.Time, series ...[]domain.Row) time.Time {
	for _, s := range series {
		for _, r := range s {
			if r.Date != nil {
				return *r.Date
			}
		}
	}
	return now
}
