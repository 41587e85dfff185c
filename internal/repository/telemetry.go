package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/timeseries"
)

// column guards every caller-chosen field before it is spliced into SQL.
func column(field string) (string, error) {
	if !timeseries.IsAllowedField(field) {
		return "", &timeseries.InvalidFieldError{Param: "field", Value: field}
	}
	return "pd." + field, nil
}

// DailyPartials groups a device set's telemetry in [from, to] by device and
// UTC day. Level and pressure carry sum and count so callers can merge days
// into weeks and months without losing the mean.
func (r *Repos) DailyPartials(ctx context.Context, deviceIDs []int64, from, to time.Time, levelField, pressureField string) ([]domain.DayPartial, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}
	level, err := column(levelField)
	if err != nil {
		return nil, err
	}
	pressure, err := column(pressureField)
	if err != nil {
		return nil, err
	}

	q, args, err := r.in(fmt.Sprintf(`
		SELECT pd.device_id,
			date_trunc('day', pd.created_at AT TIME ZONE 'UTC') AS day,
			COALESCE(SUM(pd.volume_pumped), 0)::float8 AS sum_volume,
			COALESCE(SUM(pd.cycle_count), 0)::float8 AS sum_cycles,
			COALESCE(SUM(%[1]s), 0)::float8 AS level_sum,
			COUNT(%[1]s) AS level_count,
			COALESCE(SUM(%[2]s), 0)::float8 AS pressure_sum,
			COUNT(%[2]s) AS pressure_count
		FROM pump_data pd
		WHERE pd.device_id IN (?) AND pd.created_at >= ? AND pd.created_at <= ?
		GROUP BY pd.device_id, 2
		ORDER BY pd.device_id, 2`, level, pressure), deviceIDs, from, to)
	if err != nil {
		return nil, err
	}

	var out []domain.DayPartial
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	for i := range out {
		// timestamp without time zone comes back as a wall clock in UTC
		d := out[i].Day
		out[i].Day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	return out, nil
}

// LatestReadings returns, per device, the newest value of field in
// [from, to]. Ties on created_at resolve to the highest id.
func (r *Repos) LatestReadings(ctx context.Context, deviceIDs []int64, from, to time.Time, field string) ([]domain.LatestReading, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}
	col, err := column(field)
	if err != nil {
		return nil, err
	}

	q, args, err := r.in(fmt.Sprintf(`
		SELECT DISTINCT ON (pd.device_id)
			pd.device_id, d.device_serial, COALESCE(%s, 0)::float8 AS value, pd.created_at AS measured_at
		FROM pump_data pd
		JOIN device d ON d.id = pd.device_id
		WHERE pd.device_id IN (?) AND pd.created_at >= ? AND pd.created_at <= ?
		ORDER BY pd.device_id, pd.created_at DESC, pd.id DESC`, col), deviceIDs, from, to)
	if err != nil {
		return nil, err
	}

	var out []domain.LatestReading
	err = r.db.SelectContext(ctx, &out, q, args...)
	return out, err
}

// LatestVolumePerCycle reads each device's newest settings row created at
// or before asOf. Devices without settings are absent from the map.
func (r *Repos) LatestVolumePerCycle(ctx context.Context, deviceIDs []int64, asOf time.Time) (map[int64]float64, error) {
	out := make(map[int64]float64, len(deviceIDs))
	if len(deviceIDs) == 0 {
		return out, nil
	}

	q, args, err := r.in(`
		SELECT DISTINCT ON (device_id) device_id, COALESCE(vol_per_cycle, 0)::float8 AS vol_per_cycle
		FROM pump_settings
		WHERE device_id IN (?) AND created_at <= ?
		ORDER BY device_id, created_at DESC, id DESC`, deviceIDs, asOf)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		DeviceID    int64   `db:"device_id"`
		VolPerCycle float64 `db:"vol_per_cycle"`
	}
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.DeviceID] = row.VolPerCycle
	}
	return out, nil
}

// HistoryRow is one sample with running totals over the window.
type HistoryRow struct {
	TS            string  `db:"ts" json:"ts"`
	Gallons       float64 `db:"gallons" json:"gallons"`
	Cycle         int64   `db:"cycle" json:"cycle"`
	Timeouts      int64   `db:"timeouts" json:"timeouts"`
	TotalGallons  float64 `db:"total_gallons" json:"totalGallons"`
	TotalCycles   int64   `db:"total_cycles" json:"totalCycles"`
	TotalTimeouts int64   `db:"total_timeouts" json:"totalTimeouts"`
	Battery       float64 `db:"battery" json:"battery"`
}

// History pages a device's samples since from, newest first. Running totals
// accumulate from the oldest sample in the window.
func (r *Repos) History(ctx context.Context, deviceID int64, from time.Time, p domain.Page) ([]HistoryRow, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM pump_data WHERE device_id = $1 AND created_at >= $2`, deviceID, from)
	if err != nil {
		return nil, 0, err
	}

	out := []HistoryRow{}
	err = r.db.SelectContext(ctx, &out, `
		SELECT to_char(pd.created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS') AS ts,
			COALESCE(pd.volume_pumped, 0)::float8 AS gallons,
			COALESCE(pd.cycle_count, 0)::bigint AS cycle,
			COALESCE(pd.bad_cycles, 0)::bigint AS timeouts,
			(SUM(COALESCE(pd.volume_pumped, 0)) OVER w)::float8 AS total_gallons,
			(SUM(COALESCE(pd.cycle_count, 0)) OVER w)::bigint AS total_cycles,
			(SUM(COALESCE(pd.bad_cycles, 0)) OVER w)::bigint AS total_timeouts,
			COALESCE(pd.batt_voltage, 0)::float8 AS battery
		FROM pump_data pd
		WHERE pd.device_id = $1 AND pd.created_at >= $2
		WINDOW w AS (ORDER BY pd.created_at, pd.id ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)
		ORDER BY pd.created_at DESC, pd.id DESC
		LIMIT $3 OFFSET $4`, deviceID, from, p.PageSize, p.Offset())
	return out, total, err
}

func (r *Repos) InsertPumpData(ctx context.Context, d *domain.PumpData) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO pump_data (device_id, cycle_count, bad_cycles, volume_pumped, batt_voltage, cur_adc, high_adc, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		d.DeviceID, d.CycleCount, d.BadCycles, d.VolumePumped, d.BattVoltage, d.CurADC, d.HighADC, d.CreatedAt).Scan(&d.ID)
}
