package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/timeseries"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidDays is returned by DeviceOverview for a window length outside
// DeviceOverviewDays.
var ErrInvalidDays = errors.New("days must be one of 1,7,30,365")

// DeviceOverviewDays are the window lengths the device overview accepts.
var DeviceOverviewDays = []int{1, 7, 30, 365}

// OverviewStore is the read side the overview engine needs. *repository.Repos
// satisfies it.
type OverviewStore interface {
	GetCompany(ctx context.Context, id int64) (domain.Company, error)
	GetCompanyLocation(ctx context.Context, companyID, locationID int64) (domain.Location, error)
	GetDeviceBySerial(ctx context.Context, serial string) (domain.Device, error)
	ScopeDevices(ctx context.Context, f domain.DeviceFilter) ([]domain.DeviceRef, error)
	LatestVolumePerCycle(ctx context.Context, deviceIDs []int64, asOf time.Time) (map[int64]float64, error)
	DailyPartials(ctx context.Context, deviceIDs []int64, from, to time.Time, levelField, pressureField string) ([]domain.DayPartial, error)
	LatestReadings(ctx context.Context, deviceIDs []int64, from, to time.Time, field string) ([]domain.LatestReading, error)
}

// OverviewQuery carries the caller's window, filters and field overrides.
type OverviewQuery struct {
	Period       timeseries.PeriodRequest
	DeviceIDs    []int64
	LocationID   *int64
	IncludeEmpty bool
	Fields       timeseries.FieldSet
}

type OverviewService struct {
	store        OverviewStore
	queryTimeout time.Duration
	now          func() time.Time
}

func NewOverviewService(store OverviewStore, queryTimeout time.Duration) *OverviewService {
	return &OverviewService{store: store, queryTimeout: queryTimeout, now: time.Now}
}

// CompanyOverview aggregates every live device of a company, optionally
// narrowed to one location and a device id list, and compacts the rows.
func (s *OverviewService) CompanyOverview(ctx context.Context, companyID int64, q OverviewQuery) (*domain.CompanyOverview, error) {
	if err := q.Fields.Validate(); err != nil {
		return nil, err
	}
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	out := &domain.Overview{CompanyID: company.ID, CompanyName: company.Name, LocationID: q.LocationID}
	filter := domain.DeviceFilter{CompanyID: companyID, LocationID: q.LocationID, DeviceIDs: q.DeviceIDs}
	if err := s.build(ctx, out, filter, q); err != nil {
		return nil, err
	}
	return out.Compact(), nil
}

// LocationOverview is CompanyOverview scoped to a single site with full rows.
func (s *OverviewService) LocationOverview(ctx context.Context, companyID, locationID int64, q OverviewQuery) (*domain.Overview, error) {
	if err := q.Fields.Validate(); err != nil {
		return nil, err
	}
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	loc, err := s.store.GetCompanyLocation(ctx, companyID, locationID)
	if err != nil {
		return nil, err
	}

	out := &domain.Overview{
		CompanyID:    company.ID,
		CompanyName:  company.Name,
		LocationID:   &loc.ID,
		LocationName: loc.Name,
	}
	filter := domain.DeviceFilter{CompanyID: companyID, LocationID: &loc.ID, DeviceIDs: q.DeviceIDs}
	if err := s.build(ctx, out, filter, q); err != nil {
		return nil, err
	}
	return out, nil
}

// DeviceOverview is a dense daily series for one device over the last days
// days, using the default telemetry fields.
func (s *OverviewService) DeviceOverview(ctx context.Context, serial string, days int) (*domain.Overview, error) {
	if !validDeviceDays(days) {
		return nil, ErrInvalidDays
	}
	dev, err := s.store.GetDeviceBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}

	out := &domain.Overview{DeviceSerial: dev.Serial, LocationID: dev.LocationID, LocationName: dev.LocationName}
	if dev.CompanyID != nil {
		out.CompanyID = *dev.CompanyID
	}
	if dev.CompanyName != nil {
		out.CompanyName = *dev.CompanyName
	}

	q := OverviewQuery{
		Period:       timeseries.PeriodRequest{Days: &days, Granularity: string(timeseries.BucketDay)},
		IncludeEmpty: true,
		Fields:       timeseries.DefaultFields(),
	}
	devices := []domain.DeviceRef{{ID: dev.ID, Serial: dev.Serial}}
	logger := log.With().Str("device_serial", serial).Logger()
	if err := s.assemble(ctx, out, devices, q, logger); err != nil {
		return nil, err
	}
	return out, nil
}

func validDeviceDays(days int) bool {
	for _, d := range DeviceOverviewDays {
		if d == days {
			return true
		}
	}
	return false
}

func (s *OverviewService) build(ctx context.Context, out *domain.Overview, filter domain.DeviceFilter, q OverviewQuery) error {
	devices, err := s.store.ScopeDevices(ctx, filter)
	if err != nil {
		log.Error().Err(err).Int64("company_id", filter.CompanyID).Msg("overview: resolve devices")
		return err
	}

	lc := log.With().Int64("company_id", filter.CompanyID)
	if filter.LocationID != nil {
		lc = lc.Int64("location_id", *filter.LocationID)
	}
	return s.assemble(ctx, out, devices, q, lc.Logger())
}

// assemble runs the engine for a resolved device set and writes the four
// series into out.
func (s *OverviewService) assemble(ctx context.Context, out *domain.Overview, devices []domain.DeviceRef, q OverviewQuery, logger zerolog.Logger) error {
	res := timeseries.ResolvePeriod(q.Period)
	now := s.now().UTC()
	from := res.WindowStart(now)
	out.DateRange = domain.DateRange{From: from, To: now}

	out.GallonsPumped = []domain.Row{}
	out.LiquidLevel = []domain.Row{}
	out.FocusMainPressure = []domain.Row{}
	out.TemperatureRealtime = []domain.LatestReading{}

	if len(devices) == 0 {
		return nil
	}

	// The bucket count does not depend on the anchor's time of day, so the
	// cap can be checked before any telemetry is read.
	if q.IncludeEmpty && res.Bucket != timeseries.BucketTotal {
		if _, err := timeseries.Enumerate(from, now, now, res.Bucket, timeseries.MaxPoints); err != nil {
			return err
		}
	}

	ids := make([]int64, len(devices))
	serials := make(map[int64]string, len(devices))
	for i, d := range devices {
		ids[i] = d.ID
		serials[d.ID] = d.Serial
	}

	var (
		volPerCycle map[int64]float64
		partials    []domain.DayPartial
		latest      []domain.LatestReading
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		qctx, cancel := s.queryContext(gctx)
		defer cancel()
		var err error
		volPerCycle, err = s.store.LatestVolumePerCycle(qctx, ids, now)
		if err != nil {
			return fmt.Errorf("latest settings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		qctx, cancel := s.queryContext(gctx)
		defer cancel()
		var err error
		partials, err = s.store.DailyPartials(qctx, ids, from, now, q.Fields.Level, q.Fields.Pressure)
		if err != nil {
			return fmt.Errorf("daily partials: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		qctx, cancel := s.queryContext(gctx)
		defer cancel()
		var err error
		latest, err = s.store.LatestReadings(qctx, ids, from, now, q.Fields.Temperature)
		if err != nil {
			return fmt.Errorf("latest readings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).
			Time("from", from).
			Time("to", now).
			Str("bucket", string(res.Bucket)).
			Str("level_field", q.Fields.Level).
			Str("pressure_field", q.Fields.Pressure).
			Str("temperature_field", q.Fields.Temperature).
			Int("devices", len(devices)).
			Msg("overview query failed")
		return err
	}

	series := timeseries.BuildSeries(timeseries.Rollup(partials, res.Bucket), res.Bucket, serials, volPerCycle)

	if q.IncludeEmpty {
		if res.Bucket == timeseries.BucketTotal {
			series.Gallons = timeseries.FillTotals(devices, series.Gallons, 0)
			series.Level = timeseries.FillTotals(devices, series.Level, 0)
			series.Pressure = timeseries.FillTotals(devices, series.Pressure, 0)
		} else {
			anchor := timeseries.FillAnchor(now, series.Gallons, series.Level, series.Pressure)
			buckets, err := timeseries.Enumerate(from, now, anchor, res.Bucket, timeseries.MaxPoints)
			if err != nil {
				return err
			}
			series.Gallons = timeseries.Fill(devices, series.Gallons, buckets, 0)
			series.Level = timeseries.Fill(devices, series.Level, buckets, 0)
			series.Pressure = timeseries.Fill(devices, series.Pressure, buckets, 0)
		}
		latest = timeseries.FillLatest(devices, latest)
	}

	out.GallonsPumped = timeseries.Label(series.Gallons, res.Bucket, from)
	out.LiquidLevel = timeseries.Label(series.Level, res.Bucket, from)
	out.FocusMainPressure = timeseries.Label(series.Pressure, res.Bucket, from)
	if latest != nil {
		out.TemperatureRealtime = latest
	}
	return nil
}

func (s *OverviewService) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}
