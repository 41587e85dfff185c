package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
)

// SettingsRow is a settings snapshot next to the ADC readings that were
// current when it was written.
type SettingsRow struct {
	SettingID  int64    `db:"setting_id" json:"setting_id"`
	TS         string   `db:"ts" json:"ts"`
	HighADC    *float64 `db:"high_adc" json:"highAdc"`
	Threshold  *float64 `db:"threshold" json:"threshold"`
	CurrentADC *float64 `db:"current_adc" json:"currentAdc"`
	AirOnTime  *int64   `db:"air_on_time" json:"airOnTime"`
	AirTimeout *int64   `db:"air_timeout" json:"airTimeout"`
	Delay      *int64   `db:"delay" json:"delay"`
}

func (r *Repos) SettingsHistory(ctx context.Context, deviceID int64, from time.Time, p domain.Page) ([]SettingsRow, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM pump_settings WHERE device_id = $1 AND created_at >= $2`, deviceID, from)
	if err != nil {
		return nil, 0, err
	}

	out := []SettingsRow{}
	err = r.db.SelectContext(ctx, &out, `
		SELECT ps.id AS setting_id,
			to_char(ps.created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS') AS ts,
			pd.high_adc::float8 AS high_adc,
			ps.thres::float8 AS threshold,
			pd.cur_adc::float8 AS current_adc,
			ps.hold::bigint AS air_on_time,
			ps.max_idle::bigint AS air_timeout,
			ps.rest::bigint AS delay
		FROM pump_settings ps
		LEFT JOIN LATERAL (
			SELECT p2.high_adc, p2.cur_adc
			FROM pump_data p2
			WHERE p2.device_id = ps.device_id AND p2.created_at <= ps.created_at
			ORDER BY p2.created_at DESC, p2.id DESC
			LIMIT 1
		) pd ON TRUE
		WHERE ps.device_id = $1 AND ps.created_at >= $2
		ORDER BY ps.created_at DESC, ps.id DESC
		LIMIT $3 OFFSET $4`, deviceID, from, p.PageSize, p.Offset())
	return out, total, err
}

// SettingsPatch maps dashboard names onto pump_settings columns.
type SettingsPatch struct {
	Threshold  *int64 `json:"threshold"`
	AirOnTime  *int64 `json:"airOnTime"`
	AirTimeout *int64 `json:"airTimeout"`
	Delay      *int64 `json:"delay"`
	ApplyToAll bool   `json:"applyToAll"`
}

func (p SettingsPatch) Empty() bool {
	return p.Threshold == nil && p.AirOnTime == nil && p.AirTimeout == nil && p.Delay == nil
}

// UpdateSettings edits one settings row of a device, or every row when
// ApplyToAll is set, and reports how many rows changed.
func (r *Repos) UpdateSettings(ctx context.Context, deviceID, settingID int64, p SettingsPatch) (int64, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM pump_settings WHERE id = $1 AND device_id = $2)`, settingID, deviceID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}

	var sets []string
	args := []any{deviceID}
	add := func(col string, v *int64) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("thres", p.Threshold)
	add("hold", p.AirOnTime)
	add("max_idle", p.AirTimeout)
	add("rest", p.Delay)
	if len(sets) == 0 {
		return 0, nil
	}
	sets = append(sets, `"update" = NOW()`)

	q := `UPDATE pump_settings SET ` + strings.Join(sets, ", ") + ` WHERE device_id = $1`
	if !p.ApplyToAll {
		args = append(args, settingID)
		q += fmt.Sprintf(" AND id = $%d", len(args))
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repos) InsertPumpSettings(ctx context.Context, s *domain.PumpSettings) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO pump_settings (device_id, hold, min_air, max_air, purge, max_idle, rest, thres, vol_per_cycle, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		s.DeviceID, s.Hold, s.MinAir, s.MaxAir, s.Purge, s.MaxIdle, s.Rest, s.Thres, s.VolPerCycle, s.CreatedAt).Scan(&s.ID)
}
