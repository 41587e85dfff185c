package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
)

const (
	liveLocation    = `(l.deleted IS NULL OR l.deleted = FALSE)`
	locationColumns = `l.id, l.comp_id, l.location, l.address, l.city, l.state, l.zip, l.well_id, l.geolocation, COALESCE(l.deleted, FALSE) AS deleted`
)

func (r *Repos) GetLocation(ctx context.Context, id int64) (domain.Location, error) {
	var l domain.Location
	err := r.db.GetContext(ctx, &l, `SELECT `+locationColumns+` FROM locations l WHERE l.id = $1 AND `+liveLocation, id)
	return l, notFound(err)
}

// GetCompanyLocation resolves a live site that belongs to the company.
func (r *Repos) GetCompanyLocation(ctx context.Context, companyID, locationID int64) (domain.Location, error) {
	var l domain.Location
	err := r.db.GetContext(ctx, &l, `
		SELECT `+locationColumns+`
		FROM locations l
		WHERE l.id = $1 AND l.comp_id = $2 AND `+liveLocation, locationID, companyID)
	return l, notFound(err)
}

// CreateLocation inserts a site under a live company. The id comes from the
// serial sequence.
func (r *Repos) CreateLocation(ctx context.Context, l *domain.Location) error {
	if l.CompanyID != nil {
		if err := r.requireCompany(ctx, *l.CompanyID); err != nil {
			return err
		}
	}
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO locations (comp_id, location, address, city, state, zip, well_id, geolocation, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		RETURNING id`,
		l.CompanyID, l.Name, l.Address, l.City, l.State, l.Zip, l.WellID, l.Geolocation).Scan(&l.ID)
}

func (r *Repos) SoftDeleteLocation(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE locations l SET deleted = TRUE WHERE l.id = $1 AND `+liveLocation, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LocationQuery filters the admin site listing.
type LocationQuery struct {
	CompanyID *int64
	Search    string
	Sort      string
	Desc      bool
	Page      domain.Page
}

var locationSortColumns = map[string]string{
	"id":       "l.id",
	"city":     "l.city",
	"state":    "l.state",
	"zip":      "l.zip",
	"address":  "l.address",
	"location": "l.location",
}

// ListLocations lists live sites with their pump counts.
func (r *Repos) ListLocations(ctx context.Context, f LocationQuery) ([]LocationSummary, int, error) {
	where := []string{liveLocation}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.CompanyID != nil {
		where = append(where, "l.comp_id = "+arg(*f.CompanyID))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf(`(l.address ILIKE %[1]s OR l.city ILIKE %[1]s OR l.state ILIKE %[1]s
			OR l.zip ILIKE %[1]s OR l.location ILIKE %[1]s)`, p))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM locations l WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	sortCol, ok := locationSortColumns[f.Sort]
	if !ok {
		sortCol = "l.id"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}

	out := []LocationSummary{}
	q := fmt.Sprintf(`
		SELECT %s, COUNT(d.id)::int AS total_pumps
		FROM locations l
		LEFT JOIN device d ON d.location_id = l.id AND d.company_id = l.comp_id
		WHERE %s
		GROUP BY l.id
		ORDER BY %s %s, l.id
		LIMIT %s OFFSET %s`, locationColumns, cond, sortCol, dir, arg(f.Page.PageSize), arg(f.Page.Offset()))
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, total, err
}

// LocationDevices is a site with its full device rows.
type LocationDevices struct {
	LocationSummary
	CompanyName string          `db:"company_name" json:"company_name,omitempty"`
	Devices     []domain.Device `db:"-" json:"devices"`
}

// ListLocationsWithDevices is ListLocations with each page's devices
// embedded.
func (r *Repos) ListLocationsWithDevices(ctx context.Context, f LocationQuery) ([]LocationDevices, int, error) {
	locs, total, err := r.ListLocations(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]LocationDevices, len(locs))
	ids := make([]int64, len(locs))
	for i, l := range locs {
		out[i] = LocationDevices{LocationSummary: l, Devices: []domain.Device{}}
		ids[i] = l.ID
	}
	if len(ids) == 0 {
		return out, total, nil
	}

	q := `SELECT ` + deviceColumns + ` ` + deviceJoins + `
		WHERE d.location_id IN (?) AND d.company_id = l.comp_id
		ORDER BY d.id`
	query, args, err := r.in(q, ids)
	if err != nil {
		return nil, 0, err
	}
	var devs []domain.Device
	if err := r.db.SelectContext(ctx, &devs, query, args...); err != nil {
		return nil, 0, err
	}
	byLoc := make(map[int64][]domain.Device)
	for _, d := range devs {
		byLoc[*d.LocationID] = append(byLoc[*d.LocationID], d)
	}
	for i := range out {
		if d, ok := byLoc[out[i].ID]; ok {
			out[i].Devices = d
		}
	}
	return out, total, nil
}

// LocationWithDevices returns one site, its company name and the devices of
// that company placed there.
func (r *Repos) LocationWithDevices(ctx context.Context, id int64) (LocationDevices, error) {
	var out LocationDevices
	err := r.db.GetContext(ctx, &out, `
		SELECT `+locationColumns+`, 0 AS total_pumps, COALESCE(c.name, '') AS company_name
		FROM locations l
		LEFT JOIN company c ON c.id = l.comp_id
		WHERE l.id = $1`, id)
	if err != nil {
		return out, notFound(err)
	}

	out.Devices = []domain.Device{}
	err = r.db.SelectContext(ctx, &out.Devices, `SELECT `+deviceColumns+` `+deviceJoins+`
		WHERE d.location_id = $1 AND ($2::int IS NULL OR d.company_id = $2)
		ORDER BY d.id`, id, out.CompanyID)
	if err != nil {
		return out, err
	}
	out.TotalPumps = len(out.Devices)
	return out, nil
}

// LocationPatch carries the columns of a partial site update. Nil means keep.
type LocationPatch struct {
	CompanyID   *int64  `json:"comp_id"`
	Name        *string `json:"location"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Zip         *string `json:"zip"`
	WellID      *string `json:"well_id"`
	Geolocation *string `json:"geolocation"`
	Deleted     *bool   `json:"deleted"`
}

// UpdateLocation patches a site. Moving it to another company requires that
// company to be live, otherwise ErrCompanyNotFound.
func (r *Repos) UpdateLocation(ctx context.Context, id int64, p LocationPatch) (domain.Location, error) {
	if p.CompanyID != nil {
		if err := r.requireCompany(ctx, *p.CompanyID); err != nil {
			return domain.Location{}, err
		}
	}
	var l domain.Location
	err := r.db.GetContext(ctx, &l, `
		UPDATE locations l SET
			comp_id     = COALESCE($2, l.comp_id),
			location    = COALESCE($3, l.location),
			address     = COALESCE($4, l.address),
			city        = COALESCE($5, l.city),
			state       = COALESCE($6, l.state),
			zip         = COALESCE($7, l.zip),
			well_id     = COALESCE($8, l.well_id),
			geolocation = COALESCE($9, l.geolocation),
			deleted     = COALESCE($10, l.deleted)
		WHERE l.id = $1
		RETURNING `+locationColumns,
		id, p.CompanyID, p.Name, p.Address, p.City, p.State, p.Zip, p.WellID, p.Geolocation, p.Deleted)
	return l, notFound(err)
}

func (r *Repos) requireCompany(ctx context.Context, id int64) error {
	_, err := r.GetCompany(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ErrCompanyNotFound
	}
	return err
}

// SiteRef is the short form of a site used by pickers.
type SiteRef struct {
	ID        int64  `db:"id" json:"id"`
	CompanyID *int64 `db:"comp_id" json:"company_id"`
	SiteName  string `db:"site_name" json:"site_name"`
}

// ListSites lists live sites by name, optionally for one company and
// matching q.
func (r *Repos) ListSites(ctx context.Context, companyID *int64, q string) ([]SiteRef, error) {
	out := []SiteRef{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT l.id, l.comp_id, COALESCE(l.location, '') AS site_name
		FROM locations l
		WHERE `+liveLocation+`
			AND ($1::int IS NULL OR l.comp_id = $1)
			AND ($2 = '' OR l.location ILIKE '%' || $2 || '%')
		ORDER BY l.location, l.id`, companyID, q)
	return out, err
}
