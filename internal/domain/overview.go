package domain

import "time"

// DayPartial holds one device's telemetry sums for one UTC day. Means are
// rebuilt from the sums and counts so partials can be merged into any
// coarser bucket.
type DayPartial struct {
	DeviceID      int64     `db:"device_id"`
	Day           time.Time `db:"day"`
	SumVolume     float64   `db:"sum_volume"`
	SumCycles     float64   `db:"sum_cycles"`
	LevelSum      float64   `db:"level_sum"`
	LevelCount    int64     `db:"level_count"`
	PressureSum   float64   `db:"pressure_sum"`
	PressureCount int64     `db:"pressure_count"`
}

// Row is one point of a bucketed series. Date is nil for total series.
type Row struct {
	DeviceID     int64      `json:"device_id"`
	DeviceSerial string     `json:"device_serial"`
	Date         *time.Time `json:"date,omitempty"`
	Value        float64    `json:"value"`
	Label        string     `json:"label,omitempty"`
}

// LatestReading is the newest sample of a field inside the window.
// MeasuredAt is nil when the device reported nothing.
type LatestReading struct {
	DeviceID     int64      `db:"device_id" json:"device_id"`
	DeviceSerial string     `db:"device_serial" json:"device_serial"`
	Value        float64    `db:"value" json:"value"`
	MeasuredAt   *time.Time `db:"measured_at" json:"measured_at"`
}

type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Overview is the site and device scoped payload.
type Overview struct {
	CompanyID           int64           `json:"company_id"`
	CompanyName         string          `json:"company_name"`
	LocationID          *int64          `json:"location_id,omitempty"`
	LocationName        *string         `json:"location_name,omitempty"`
	DeviceSerial        string          `json:"device_serial,omitempty"`
	DateRange           DateRange       `json:"date_range"`
	GallonsPumped       []Row           `json:"gallons_pumped"`
	LiquidLevel         []Row           `json:"liquid_level"`
	TemperatureRealtime []LatestReading `json:"temperature_realtime"`
	FocusMainPressure   []Row           `json:"focus_main_pressure"`
}

type CompactRow struct {
	DeviceSerial string  `json:"device_serial"`
	Value        float64 `json:"value"`
}

// CompanyOverview is the company scoped payload with compacted rows.
type CompanyOverview struct {
	CompanyID           int64        `json:"company_id"`
	CompanyName         string       `json:"company_name"`
	LocationID          *int64       `json:"location_id,omitempty"`
	DateRange           DateRange    `json:"date_range"`
	GallonsPumped       []CompactRow `json:"gallons_pumped"`
	LiquidLevel         []CompactRow `json:"liquid_level"`
	TemperatureRealtime []CompactRow `json:"temperature_realtime"`
	FocusMainPressure   []CompactRow `json:"focus_main_pressure"`
}

// Compact drops everything but serial and value from each series.
func (o *Overview) Compact() *CompanyOverview {
	compact := func(rows []Row) []CompactRow {
		out := make([]CompactRow, 0, len(rows))
		for _, r := range rows {
			out = append(out, CompactRow{DeviceSerial: r.DeviceSerial, Value: r.Value})
		}
		return out
	}
	temps := make([]CompactRow, 0, len(o.TemperatureRealtime))
	for _, r := range o.TemperatureRealtime {
		temps = append(temps, CompactRow{DeviceSerial: r.DeviceSerial, Value: r.Value})
	}
	return &CompanyOverview{
		CompanyID:           o.CompanyID,
		CompanyName:         o.CompanyName,
		LocationID:          o.LocationID,
		DateRange:           o.DateRange,
		GallonsPumped:       compact(o.GallonsPumped),
		LiquidLevel:         compact(o.LiquidLevel),
		TemperatureRealtime: temps,
		FocusMainPressure:   compact(o.FocusMainPressure),
	}
}
