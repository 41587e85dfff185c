package repository

import (
	"context"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
)

const liveCompany = `(c.deleted IS NULL OR c.deleted = FALSE)`

// CompanyPatch carries the columns of a partial update. Nil means keep.
type CompanyPatch struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Zip     *string `json:"zip"`
}

func (r *Repos) ListCompanies(ctx context.Context, q string, p domain.Page) ([]domain.Company, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM company c WHERE `+liveCompany+` AND ($1 = '' OR c.name ILIKE '%' || $1 || '%')`, q)
	if err != nil {
		return nil, 0, err
	}

	out := []domain.Company{}
	err = r.db.SelectContext(ctx, &out, `
		SELECT c.id, c.name, c.address, c.city, c.state, c.zip, COALESCE(c.deleted, FALSE) AS deleted
		FROM company c
		WHERE `+liveCompany+` AND ($1 = '' OR c.name ILIKE '%' || $1 || '%')
		ORDER BY c.name, c.id
		LIMIT $2 OFFSET $3`, q, p.PageSize, p.Offset())
	return out, total, err
}

// GetCompany returns a company that has not been soft-deleted.
func (r *Repos) GetCompany(ctx context.Context, id int64) (domain.Company, error) {
	var c domain.Company
	err := r.db.GetContext(ctx, &c, `
		SELECT c.id, c.name, c.address, c.city, c.state, c.zip, COALESCE(c.deleted, FALSE) AS deleted
		FROM company c
		WHERE c.id = $1 AND `+liveCompany, id)
	return c, notFound(err)
}

func (r *Repos) CreateCompany(ctx context.Context, c *domain.Company) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO company (name, address, city, state, zip, deleted)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING id`, c.Name, c.Address, c.City, c.State, c.Zip).Scan(&c.ID)
}

func (r *Repos) UpdateCompany(ctx context.Context, id int64, p CompanyPatch) (domain.Company, error) {
	var c domain.Company
	err := r.db.GetContext(ctx, &c, `
		UPDATE company c SET
			name    = COALESCE($2, c.name),
			address = COALESCE($3, c.address),
			city    = COALESCE($4, c.city),
			state   = COALESCE($5, c.state),
			zip     = COALESCE($6, c.zip)
		WHERE c.id = $1 AND `+liveCompany+`
		RETURNING c.id, c.name, c.address, c.city, c.state, c.zip, COALESCE(c.deleted, FALSE) AS deleted`,
		id, p.Name, p.Address, p.City, p.State, p.Zip)
	return c, notFound(err)
}

// SoftDeleteCompany hides a company and its sites. Telemetry is kept.
func (r *Repos) SoftDeleteCompany(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE company c SET deleted = TRUE WHERE c.id = $1 AND `+liveCompany, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE locations SET deleted = TRUE WHERE comp_id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// LocationSummary is a site row with its pump count.
type LocationSummary struct {
	domain.Location
	TotalPumps int `db:"total_pumps" json:"total_pumps"`
}

func (r *Repos) ListCompanyLocations(ctx context.Context, companyID int64, p domain.Page) ([]LocationSummary, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM locations l WHERE l.comp_id = $1 AND `+liveLocation, companyID)
	if err != nil {
		return nil, 0, err
	}

	out := []LocationSummary{}
	err = r.db.SelectContext(ctx, &out, `
		SELECT `+locationColumns+`, COUNT(d.id)::int AS total_pumps
		FROM locations l
		LEFT JOIN device d ON d.location_id = l.id AND d.company_id = l.comp_id
		WHERE l.comp_id = $1 AND `+liveLocation+`
		GROUP BY l.id
		ORDER BY l.id
		LIMIT $2 OFFSET $3`, companyID, p.PageSize, p.Offset())
	return out, total, err
}

// Site is a location with its devices embedded, as the dashboard site
// picker wants it.
type Site struct {
	LocationID  int64              `json:"location_id"`
	SiteName    string             `json:"site_name"`
	Address     *string            `json:"address"`
	City        *string            `json:"city"`
	State       *string            `json:"state"`
	Zip         *string            `json:"zip"`
	WellID      *string            `json:"well_id"`
	Geolocation *string            `json:"geolocation"`
	TotalPumps  int                `json:"total_pumps"`
	Devices     []domain.DeviceRef `json:"devices"`
}

func (r *Repos) CompanySites(ctx context.Context, companyID int64) ([]Site, error) {
	var locs []domain.Location
	err := r.db.SelectContext(ctx, &locs, `
		SELECT `+locationColumns+`
		FROM locations l
		WHERE l.comp_id = $1 AND `+liveLocation+`
		ORDER BY l.location, l.id`, companyID)
	if err != nil {
		return nil, err
	}
	byLoc, err := r.devicesByLocation(ctx, locs, []int64{companyID})
	if err != nil {
		return nil, err
	}
	out := make([]Site, 0, len(locs))
	for _, l := range locs {
		out = append(out, newSite(l, byLoc[l.ID]))
	}
	return out, nil
}

func locationIDs(locs []domain.Location) []int64 {
	ids := make([]int64, 0, len(locs))
	for _, l := range locs {
		ids = append(ids, l.ID)
	}
	return ids
}

// devicesByLocation groups the devices placed at locs that belong to one of
// companyIDs, each group ordered by serial.
func (r *Repos) devicesByLocation(ctx context.Context, locs []domain.Location, companyIDs []int64) (map[int64][]domain.DeviceRef, error) {
	byLoc := make(map[int64][]domain.DeviceRef)
	if len(locs) == 0 || len(companyIDs) == 0 {
		return byLoc, nil
	}
	q, args, err := r.in(`
		SELECT d.id, d.device_serial, d.location_id
		FROM device d
		WHERE d.location_id IN (?) AND d.company_id IN (?) AND d.device_serial <> ''
		ORDER BY d.device_serial`, locationIDs(locs), companyIDs)
	if err != nil {
		return nil, err
	}
	var devs []struct {
		domain.DeviceRef
		LocationID int64 `db:"location_id"`
	}
	if err := r.db.SelectContext(ctx, &devs, q, args...); err != nil {
		return nil, err
	}
	for _, d := range devs {
		byLoc[d.LocationID] = append(byLoc[d.LocationID], d.DeviceRef)
	}
	return byLoc, nil
}

func newSite(l domain.Location, devices []domain.DeviceRef) Site {
	if devices == nil {
		devices = []domain.DeviceRef{}
	}
	name := ""
	if l.Name != nil {
		name = *l.Name
	}
	return Site{
		LocationID:  l.ID,
		SiteName:    name,
		Address:     l.Address,
		City:        l.City,
		State:       l.State,
		Zip:         l.Zip,
		WellID:      l.WellID,
		Geolocation: l.Geolocation,
		TotalPumps:  len(devices),
		Devices:     devices,
	}
}

// SiteMetrics summarises a site's recent telemetry. Temperature and vacuum
// come from the newest sample of any device at the site.
type SiteMetrics struct {
	PumpedLast24hGal float64    `db:"pumped" json:"pumped_last_24h_gal"`
	TimeoutsLast24h  int64      `db:"timeouts" json:"timeouts_last_24h"`
	TemperatureF     *float64   `db:"temperature" json:"temperature_f"`
	VacuumInWC       *float64   `db:"vacuum" json:"vacuum_inwc"`
	AsOf             *time.Time `db:"as_of" json:"as_of"`
}

// SiteStatus is a Site with its metrics.
type SiteStatus struct {
	Site
	Metrics SiteMetrics `json:"metrics"`
}

// CompanySiteStatus groups the sites of one company.
type CompanySiteStatus struct {
	CompanyID   int64        `json:"company_id"`
	CompanyName string       `json:"company_name"`
	Sites       []SiteStatus `json:"sites"`
}

// SiteDirectory lists every live company with its live sites, devices and
// metrics since the given time. A non-nil siteID confines the result to
// that site and its company.
func (r *Repos) SiteDirectory(ctx context.Context, siteID *int64, since time.Time) ([]CompanySiteStatus, error) {
	var companies []domain.Company
	err := r.db.SelectContext(ctx, &companies, `
		SELECT c.id, c.name, c.address, c.city, c.state, c.zip, COALESCE(c.deleted, FALSE) AS deleted
		FROM company c
		WHERE `+liveCompany+`
			AND ($1::int IS NULL OR c.id = (SELECT comp_id FROM locations WHERE id = $1))
		ORDER BY c.name, c.id`, siteID)
	if err != nil {
		return nil, err
	}
	out := make([]CompanySiteStatus, 0, len(companies))
	if len(companies) == 0 {
		return out, nil
	}

	companyIDs := make([]int64, len(companies))
	for i, c := range companies {
		companyIDs[i] = c.ID
	}
	q, args, err := r.in(`
		SELECT `+locationColumns+`
		FROM locations l
		WHERE l.comp_id IN (?) AND `+liveLocation+`
		ORDER BY l.location, l.id`, companyIDs)
	if err != nil {
		return nil, err
	}
	var locs []domain.Location
	if err := r.db.SelectContext(ctx, &locs, q, args...); err != nil {
		return nil, err
	}
	if siteID != nil {
		kept := locs[:0]
		for _, l := range locs {
			if l.ID == *siteID {
				kept = append(kept, l)
			}
		}
		locs = kept
	}

	byLoc, err := r.devicesByLocation(ctx, locs, companyIDs)
	if err != nil {
		return nil, err
	}
	metrics, err := r.siteMetrics(ctx, locs, since)
	if err != nil {
		return nil, err
	}

	sites := make(map[int64][]SiteStatus)
	for _, l := range locs {
		sites[*l.CompanyID] = append(sites[*l.CompanyID], SiteStatus{Site: newSite(l, byLoc[l.ID]), Metrics: metrics[l.ID]})
	}
	for _, c := range companies {
		list := sites[c.ID]
		if list == nil {
			list = []SiteStatus{}
		}
		out = append(out, CompanySiteStatus{CompanyID: c.ID, CompanyName: c.Name, Sites: list})
	}
	return out, nil
}

func (r *Repos) siteMetrics(ctx context.Context, locs []domain.Location, since time.Time) (map[int64]SiteMetrics, error) {
	out := make(map[int64]SiteMetrics, len(locs))
	if len(locs) == 0 {
		return out, nil
	}
	ids := locationIDs(locs)

	q, args, err := r.in(`
		SELECT d.location_id,
			COALESCE(SUM(pd.volume_pumped), 0)::float8 AS pumped,
			COALESCE(SUM(pd.bad_cycles), 0)::bigint AS timeouts
		FROM pump_data pd
		JOIN device d ON d.id = pd.device_id
		WHERE d.location_id IN (?) AND pd.created_at >= ?
		GROUP BY d.location_id`, ids, since)
	if err != nil {
		return nil, err
	}
	var totals []struct {
		LocationID int64 `db:"location_id"`
		SiteMetrics
	}
	if err := r.db.SelectContext(ctx, &totals, q, args...); err != nil {
		return nil, err
	}
	for _, t := range totals {
		out[t.LocationID] = t.SiteMetrics
	}

	q, args, err = r.in(`
		SELECT DISTINCT ON (d.location_id) d.location_id,
			pd.cur_adc::float8 AS temperature, pd.high_adc::float8 AS vacuum, pd.created_at AS as_of
		FROM pump_data pd
		JOIN device d ON d.id = pd.device_id
		WHERE d.location_id IN (?)
		ORDER BY d.location_id, pd.created_at DESC`, ids)
	if err != nil {
		return nil, err
	}
	var latest []struct {
		LocationID  int64      `db:"location_id"`
		Temperature *float64   `db:"temperature"`
		Vacuum      *float64   `db:"vacuum"`
		AsOf        *time.Time `db:"as_of"`
	}
	if err := r.db.SelectContext(ctx, &latest, q, args...); err != nil {
		return nil, err
	}
	for _, l := range latest {
		m := out[l.LocationID]
		m.TemperatureF = l.Temperature
		m.VacuumInWC = l.Vacuum
		m.AsOf = l.AsOf
		out[l.LocationID] = m
	}
	return out, nil
}

// FilterSiteDirectory drops sites without pumps and then companies without
// sites unless includeEmpty is set, and keeps only companies whose name or
// one of whose site names contains q, ignoring case.
func FilterSiteDirectory(list []CompanySiteStatus, q string, includeEmpty bool) []CompanySiteStatus {
	term := strings.ToLower(strings.TrimSpace(q))
	out := make([]CompanySiteStatus, 0, len(list))
	for _, c := range list {
		if !includeEmpty {
			sites := make([]SiteStatus, 0, len(c.Sites))
			for _, s := range c.Sites {
				if s.TotalPumps > 0 {
					sites = append(sites, s)
				}
			}
			if len(sites) == 0 {
				continue
			}
			c.Sites = sites
		}
		if term != "" && !siteDirectoryMatches(c, term) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func siteDirectoryMatches(c CompanySiteStatus, term string) bool {
	if strings.Contains(strings.ToLower(c.CompanyName), term) {
		return true
	}
	for _, s := range c.Sites {
		if strings.Contains(strings.ToLower(s.SiteName), term) {
			return true
		}
	}
	return false
}
