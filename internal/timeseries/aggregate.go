package timeseries

import (
	"sort"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
)

// Aggregate is one device's merged partials for one bucket. Start is the
// zero time for total.
type Aggregate struct {
	DeviceID      int64
	Start         time.Time
	SumVolume     float64
	SumCycles     float64
	LevelSum      float64
	LevelCount    int64
	PressureSum   float64
	PressureCount int64
}

func (a Aggregate) LevelMean() float64 { return mean(a.LevelSum, a.LevelCount) }

func (a Aggregate) PressureMean() float64 { return mean(a.PressureSum, a.PressureCount) }

func mean(sum float64, n int64) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

type aggKey struct {
	device int64
	start  int64
}

// Rollup merges per-day partials into buckets of width b. Day starts are
// aligned at midnight so every bucket boundary lands on 00:00 UTC, the same
// anchor the store truncates with. The result is ordered by device id, then
// bucket start.
func Rollup(partials []domain.DayPartial, b Bucket) []Aggregate {
	midnight := time.Time{}
	acc := make(map[aggKey]*Aggregate)

	for _, p := range partials {
		var start time.Time
		if b != BucketTotal {
			start = Align(p.Day, b, midnight)
		}
		k := aggKey{device: p.DeviceID, start: start.UnixMilli()}
		a, ok := acc[k]
		if !ok {
			a = &Aggregate{DeviceID: p.DeviceID, Start: start}
			acc[k] = a
		}
		a.SumVolume += p.SumVolume
		a.SumCycles += p.SumCycles
		a.LevelSum += p.LevelSum
		a.LevelCount += p.LevelCount
		a.PressureSum += p.PressureSum
		a.PressureCount += p.PressureCount
	}

	out := make([]Aggregate, 0, len(acc))
	for _, a := range acc {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DeviceID != out[j].DeviceID {
			return out[i].DeviceID < out[j].DeviceID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// Series are the three bucketed metrics of an overview.
type Series struct {
	Gallons  []domain.Row
	Level    []domain.Row
	Pressure []domain.Row
}

// BuildSeries turns aggregates into rows. Gallons are derived with each
// device's current volume-per-cycle. A bucket whose level or pressure field
// was null on every sample still gets a row, valued 0.
func BuildSeries(aggs []Aggregate, b Bucket, serials map[int64]string, volPerCycle map[int64]float64) Series {
	s := Series{
		Gallons:  make([]domain.Row, 0, len(aggs)),
		Level:    make([]domain.Row, 0, len(aggs)),
		Pressure: make([]domain.Row, 0, len(aggs)),
	}
	for _, a := range aggs {
		row := domain.Row{DeviceID: a.DeviceID, DeviceSerial: serials[a.DeviceID]}
		if b != BucketTotal {
			d := a.Start
			row.Date = &d
		}

		g := row
		g.Value = DeriveGallons(a.SumVolume, a.SumCycles, volPerCycle[a.DeviceID])
		s.Gallons = append(s.Gallons, g)

		l := row
		l.Value = a.LevelMean()
		s.Level = append(s.Level, l)

		p := row
		p.Value = a.PressureMean()
		s.Pressure = append(s.Pressure, p)
	}
	return s
}

// DeriveGallons prefers the direct volume counter and falls back to
// cycles times the configured volume per cycle.
func DeriveGallons(sumVolume, sumCycles, volPerCycle float64) float64 {
	if sumVolume > 0 {
		return sumVolume
	}
	return sumCycles * volPerCycle
}
