package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
)

const deviceColumns = `d.id, d.product, d.device_serial, d.mfg_date, d.board, d.description, d.sw_rev,
	d.location_id, d.company_id, d.well_id,
	COALESCE(c.name, '') AS company_name, COALESCE(l.location, '') AS location_name`

const deviceJoins = `FROM device d
	LEFT JOIN company c ON c.id = d.company_id
	LEFT JOIN locations l ON l.id = d.location_id`

// DeviceQuery filters the admin device listing.
type DeviceQuery struct {
	CompanyID  *int64
	LocationID *int64
	Search     string
	Sort       string
	Desc       bool
	Page       domain.Page
}

var deviceSortColumns = map[string]string{
	"id":            "d.id",
	"device_serial": "d.device_serial",
	"product":       "d.product",
	"company_id":    "d.company_id",
	"location_id":   "d.location_id",
	"mfg_date":      "d.mfg_date",
}

func (r *Repos) ListDevices(ctx context.Context, f DeviceQuery) ([]domain.Device, int, error) {
	where := []string{"TRUE"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.CompanyID != nil {
		where = append(where, "d.company_id = "+arg(*f.CompanyID))
	}
	if f.LocationID != nil {
		where = append(where, "d.location_id = "+arg(*f.LocationID))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf(`(d.device_serial ILIKE %[1]s OR d.product ILIKE %[1]s OR d.description ILIKE %[1]s
			OR d.board ILIKE %[1]s OR d.sw_rev ILIKE %[1]s OR c.name ILIKE %[1]s OR l.location ILIKE %[1]s)`, p))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(d.id) `+deviceJoins+` WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	sortCol, ok := deviceSortColumns[f.Sort]
	if !ok {
		sortCol = "d.id"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}

	out := []domain.Device{}
	q := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY %s %s LIMIT %s OFFSET %s`,
		deviceColumns, deviceJoins, cond, sortCol, dir, arg(f.Page.PageSize), arg(f.Page.Offset()))
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, total, err
}

func (r *Repos) GetDevice(ctx context.Context, id int64) (domain.Device, error) {
	var d domain.Device
	err := r.db.GetContext(ctx, &d, `SELECT `+deviceColumns+` `+deviceJoins+` WHERE d.id = $1`, id)
	return d, notFound(err)
}

func (r *Repos) GetDeviceBySerial(ctx context.Context, serial string) (domain.Device, error) {
	var d domain.Device
	err := r.db.GetContext(ctx, &d, `SELECT `+deviceColumns+` `+deviceJoins+` WHERE d.device_serial = $1`, serial)
	return d, notFound(err)
}

// DeviceIDBySerial resolves a serial, optionally restricted to one site.
func (r *Repos) DeviceIDBySerial(ctx context.Context, serial string, siteID *int64) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
		SELECT d.id FROM device d
		WHERE d.device_serial = $1 AND ($2::bigint IS NULL OR d.location_id = $2)`, serial, siteID)
	return id, notFound(err)
}

// CreateDevice inserts a device. A duplicate serial is ErrConflict.
func (r *Repos) CreateDevice(ctx context.Context, d *domain.Device) error {
	return conflict(r.db.QueryRowxContext(ctx, `
		INSERT INTO device (product, device_serial, mfg_date, board, description, sw_rev, location_id, company_id, well_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		d.Product, d.Serial, d.MfgDate, d.Board, d.Description, d.SWRev, d.LocationID, d.CompanyID, d.WellID).Scan(&d.ID))
}

// DevicePatch carries the columns of a partial device update. Nil means keep.
type DevicePatch struct {
	Product     *string    `json:"product"`
	Serial      *string    `json:"device_serial"`
	MfgDate     *time.Time `json:"mfg_date"`
	Board       *string    `json:"board"`
	Description *string    `json:"description"`
	SWRev       *string    `json:"sw_rev"`
	LocationID  *int64     `json:"location_id"`
	CompanyID   *int64     `json:"company_id"`
	WellID      *string    `json:"well_id"`
}

// UpdateDevice patches a device. Taking another device's serial is
// ErrConflict.
func (r *Repos) UpdateDevice(ctx context.Context, id int64, p DevicePatch) (domain.Device, error) {
	var updated int64
	err := r.db.GetContext(ctx, &updated, `
		UPDATE device SET
			product       = COALESCE($2, product),
			device_serial = COALESCE($3, device_serial),
			mfg_date      = COALESCE($4, mfg_date),
			board         = COALESCE($5, board),
			description   = COALESCE($6, description),
			sw_rev        = COALESCE($7, sw_rev),
			location_id   = COALESCE($8, location_id),
			company_id    = COALESCE($9, company_id),
			well_id       = COALESCE($10, well_id)
		WHERE id = $1
		RETURNING id`,
		id, p.Product, p.Serial, p.MfgDate, p.Board, p.Description, p.SWRev, p.LocationID, p.CompanyID, p.WellID)
	if err != nil {
		return domain.Device{}, conflict(notFound(err))
	}
	return r.GetDevice(ctx, updated)
}

func (r *Repos) DeleteDevice(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM device WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ScopeDevices resolves the device set of an overview: devices of the
// company on live sites, optionally narrowed to one site and to explicit
// ids, ordered by serial.
func (r *Repos) ScopeDevices(ctx context.Context, f domain.DeviceFilter) ([]domain.DeviceRef, error) {
	q := `
		SELECT d.id, d.device_serial
		FROM device d
		JOIN locations l ON l.id = d.location_id
		WHERE d.company_id = ? AND ` + liveLocation
	args := []any{f.CompanyID}
	if f.LocationID != nil {
		q += ` AND d.location_id = ?`
		args = append(args, *f.LocationID)
	}
	if len(f.DeviceIDs) > 0 {
		q += ` AND d.id IN (?)`
		args = append(args, f.DeviceIDs)
	}
	q += ` ORDER BY d.device_serial, d.id`

	query, qargs, err := r.in(q, args...)
	if err != nil {
		return nil, err
	}
	out := []domain.DeviceRef{}
	err = r.db.SelectContext(ctx, &out, query, qargs...)
	return out, err
}

// RawPumpData returns a device's samples in [from, to], oldest first.
func (r *Repos) RawPumpData(ctx context.Context, deviceID int64, from, to time.Time) ([]domain.PumpData, error) {
	out := []domain.PumpData{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, device_id, cycle_count, bad_cycles, volume_pumped, batt_voltage::float8 AS batt_voltage,
			cur_adc, high_adc, created_at
		FROM pump_data
		WHERE device_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at, id`, deviceID, from, to)
	return out, err
}
